package bvh

import "github.com/duskforge/spectra/internal/vmath"

// stackDepth bounds the explicit traversal stack: at most one pending
// sibling per tree level plus the two children just pushed (spec.md §4.2).
const stackDepth = DepthMax + 2

// RayBatch is the subset of per-ray state Traverse needs to test and
// partition rays against node bounds. Origin/InvDir/Sign/Time/MaxT are
// parallel arrays indexed by ray index, and Live holds the ray indices
// Traverse reorders; callers (the tracer package) own the backing arrays
// and may reorder them freely between Traverse calls.
type RayBatch struct {
	Origin []vmath.Point
	InvDir []vmath.Vector
	Sign   [][3]int
	Time   []float64
	MaxT   []float64

	// Live holds the indices, into the arrays above, of rays still being
	// traced. Traverse partitions this slice in place at every node.
	Live []int
}

// LeafTest is invoked once per leaf node with the object range the leaf
// covers and the subset of ray indices that reached it; it is responsible
// for the actual primitive intersection (outside this package's concern)
// and for shrinking rays' MaxT on hit.
type LeafTest func(objLo, objHi int, rayIndices []int)

// stackEntry is one frame of the explicit DFS stack: a node to visit plus
// the slice of Live holding the rays still eligible to enter it.
type stackEntry struct {
	node int
	lo   int // [lo:hi) range within batch.Live
	hi   int
}

// Traverse walks the tree against batch, restricting at each internal node
// to the rays that are both alive and whose time-interpolated AABB the
// node's bounds intersect, and calling test at every leaf reached. It is a
// no-op on an empty tree or an empty ray batch.
func Traverse(tree *BVH, batch *RayBatch, test LeafTest) {
	if tree.Empty() || len(batch.Live) == 0 {
		return
	}

	var stack [stackDepth]stackEntry
	sp := 0
	stack[sp] = stackEntry{node: 0, lo: 0, hi: len(batch.Live)}
	sp++

	for sp > 0 {
		sp--
		entry := stack[sp]
		if entry.lo >= entry.hi {
			continue
		}

		node := &tree.Nodes[entry.node]
		bounds := tree.NodeBounds(entry.node)

		newHi := partitionByNodeHit(batch, bounds, entry.lo, entry.hi)
		if newHi == entry.lo {
			continue // no surviving ray hits this node's bounds
		}

		if node.IsLeaf {
			test(node.ObjLo, node.ObjHi, batch.Live[entry.lo:newHi])
			continue
		}

		// Order children so the one the majority of surviving rays are
		// travelling towards is visited (and pushed last, so popped
		// first) per spec.md §4.2's near/far ordering.
		leftIdx := entry.node + 1
		rightIdx := node.SecondChild
		leftFirst := majoritySignPositive(batch, entry.lo, newHi, node.SplitAxis)

		if sp+2 > len(stack) {
			panic("bvh: traversal stack overflow")
		}
		if leftFirst {
			stack[sp] = stackEntry{node: rightIdx, lo: entry.lo, hi: newHi}
			sp++
			stack[sp] = stackEntry{node: leftIdx, lo: entry.lo, hi: newHi}
			sp++
		} else {
			stack[sp] = stackEntry{node: leftIdx, lo: entry.lo, hi: newHi}
			sp++
			stack[sp] = stackEntry{node: rightIdx, lo: entry.lo, hi: newHi}
			sp++
		}
	}
}

// partitionByNodeHit moves every ray index in batch.Live[lo:hi] that hits
// bounds (interpolated at the ray's own time) to the front of the range,
// returning the new hi. It is an in-place prefix partition, matching the
// spec's "partition rays in place" traversal scheme.
func partitionByNodeHit(batch *RayBatch, bounds vmath.BoundsSequence, lo, hi int) int {
	write := lo
	for read := lo; read < hi; read++ {
		ri := batch.Live[read]
		box := bounds.InterpolateAt(batch.Time[ri])
		if box.IntersectSlab(batch.Origin[ri], batch.InvDir[ri], batch.Sign[ri], batch.MaxT[ri]) {
			batch.Live[write], batch.Live[read] = batch.Live[read], batch.Live[write]
			write++
		}
	}
	return write
}

// majoritySignPositive reports whether most of the rays in
// batch.Live[lo:hi] are travelling in the positive direction on axis,
// which determines which child (near-side first) to visit first.
func majoritySignPositive(batch *RayBatch, lo, hi, axis int) bool {
	positive := 0
	for i := lo; i < hi; i++ {
		ri := batch.Live[i]
		if batch.Sign[ri][axis] == 0 {
			positive++
		}
	}
	return positive*2 >= (hi - lo)
}
