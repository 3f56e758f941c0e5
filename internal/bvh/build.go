package bvh

import (
	"math"
	"sort"

	"github.com/duskforge/spectra/internal/vmath"
)

// objectsPerLeafDefault mirrors the teacher's leaf-threshold constants
// (see spatial_partitioning.go's MaxObjectsLeaf); callers may override it
// via Build's parameter.
const objectsPerLeafDefault = 4

// centroidBins is the number of equal-width bins (spec.md §4.1: "13
// equal-width bins", i.e. 12 candidate planes) the SAH split evaluates
// per axis.
const centroidBins = 13

// BoundsOf returns a primitive's time-sample bounds slice. The BVH is
// generic over the primitive type at build time (spec.md §9): callers
// supply their own primitive slice plus this accessor rather than the BVH
// depending on any concrete geometry type.
type BoundsOf[T any] func(T) vmath.BoundsSequence

// Build constructs a BVH over prims in place: prims is reordered into
// depth-first leaf order as a side effect, exactly as a real in-place SAH
// builder would (mirroring the teacher's buildRecursive, which likewise
// sorts bvh.Objects/bvh.ObjectBounds by reference). objectsPerLeaf <= 0
// uses objectsPerLeafDefault.
func Build[T any](prims []T, boundsOf BoundsOf[T], objectsPerLeaf int) *BVH {
	if objectsPerLeaf <= 0 {
		objectsPerLeaf = objectsPerLeafDefault
	}
	if len(prims) == 0 {
		return &BVH{}
	}

	b := &builder[T]{prims: prims, boundsOf: boundsOf, objectsPerLeaf: objectsPerLeaf}
	b.build(0, len(prims), 0)
	return &BVH{Nodes: b.nodes, Bounds: b.arena, Depth: b.maxDepth}
}

type builder[T any] struct {
	prims          []T
	boundsOf       BoundsOf[T]
	objectsPerLeaf int
	nodes          []Node
	arena          []vmath.AABB
	maxDepth       int
}

func (b *builder[T]) centroidAt(i int) vmath.Point {
	return b.boundsOf(b.prims[i]).InterpolateAt(0.5).Center()
}

func (b *builder[T]) spatialAt(i int) vmath.AABB {
	return b.boundsOf(b.prims[i]).InterpolateAt(0.5)
}

// build recursively constructs the subtree over prims[lo:hi] and returns
// its node index. Children of internal node i sit at i+1 (left, implicit)
// and Node.SecondChild (right).
func (b *builder[T]) build(lo, hi, depth int) int {
	if depth > b.maxDepth {
		b.maxDepth = depth
	}
	if depth > DepthMax {
		panic("bvh: tree depth exceeded DEPTH_MAX")
	}

	nodeIdx := len(b.nodes)
	b.nodes = append(b.nodes, Node{})

	n := hi - lo
	if n <= b.objectsPerLeaf {
		b.nodes[nodeIdx] = b.makeLeaf(lo, hi)
		return nodeIdx
	}

	headroom := DepthMax - depth
	useBalanced := math.Log2(float64(n)) >= float64(headroom)

	var axis, mid int
	if useBalanced {
		axis, mid = b.balancedSplit(lo, hi)
	} else {
		var ok bool
		axis, mid, ok = b.sahSplit(lo, hi)
		if !ok {
			axis, mid = b.balancedSplit(lo, hi)
		}
	}
	if mid <= lo {
		mid = lo + 1
	}
	if mid >= hi {
		mid = hi - 1
	}

	left := b.build(lo, mid, depth+1)
	right := b.build(mid, hi, depth+1)
	_ = left // always nodeIdx+1

	leftSeq := vmath.BoundsSequence(b.arena[b.nodes[nodeIdx+1].BoundsLo:b.nodes[nodeIdx+1].BoundsHi])
	rightSeq := vmath.BoundsSequence(b.arena[b.nodes[right].BoundsLo:b.nodes[right].BoundsHi])
	merged := vmath.MergeElementwise(leftSeq, rightSeq)
	arenaLo := len(b.arena)
	b.arena = append(b.arena, merged...)
	arenaHi := len(b.arena)

	b.nodes[nodeIdx] = Node{
		BoundsLo:    arenaLo,
		BoundsHi:    arenaHi,
		IsLeaf:      false,
		SecondChild: right,
		SplitAxis:   axis,
	}
	return nodeIdx
}

func (b *builder[T]) makeLeaf(lo, hi int) Node {
	seqs := make([]vmath.BoundsSequence, hi-lo)
	for i := lo; i < hi; i++ {
		seqs[i-lo] = b.boundsOf(b.prims[i])
	}
	merged := vmath.UnionAll(seqs)
	arenaLo := len(b.arena)
	b.arena = append(b.arena, merged...)
	arenaHi := len(b.arena)
	return Node{BoundsLo: arenaLo, BoundsHi: arenaHi, IsLeaf: true, ObjLo: lo, ObjHi: hi}
}

// sahSplit evaluates the binned surface-area heuristic across all three
// axes and returns the best (axis, partition index). ok is false when the
// centroid range is degenerate on every axis (all primitives share one
// point), in which case the caller falls back to a balanced split.
func (b *builder[T]) sahSplit(lo, hi int) (bestAxis, bestMid int, ok bool) {
	centroidBoundsBox := vmath.EmptyAABB()
	for i := lo; i < hi; i++ {
		centroidBoundsBox = centroidBoundsBox.UnionPoint(b.centroidAt(i))
	}

	bestCost := math.Inf(1)
	ok = false

	for axis := 0; axis < 3; axis++ {
		minV := centroidBoundsBox.Min[axis]
		maxV := centroidBoundsBox.Max[axis]
		extent := maxV - minV
		if extent <= 1e-12 {
			continue
		}

		type bin struct {
			box   vmath.AABB
			count int
		}
		bins := make([]bin, centroidBins)
		for i := range bins {
			bins[i].box = vmath.EmptyAABB()
		}
		binOf := func(i int) int {
			idx := int(centroidBins * (b.centroidAt(i)[axis] - minV) / extent)
			if idx < 0 {
				idx = 0
			}
			if idx >= centroidBins {
				idx = centroidBins - 1
			}
			return idx
		}
		for i := lo; i < hi; i++ {
			k := binOf(i)
			bins[k].box = bins[k].box.Union(b.spatialAt(i))
			bins[k].count++
		}

		// Evaluate the 12 candidate planes between the 13 bins.
		for plane := 1; plane < centroidBins; plane++ {
			leftBox := vmath.EmptyAABB()
			leftCount := 0
			for k := 0; k < plane; k++ {
				leftBox = leftBox.Union(bins[k].box)
				leftCount += bins[k].count
			}
			rightBox := vmath.EmptyAABB()
			rightCount := 0
			for k := plane; k < centroidBins; k++ {
				rightBox = rightBox.Union(bins[k].box)
				rightCount += bins[k].count
			}
			if leftCount == 0 || rightCount == 0 {
				continue
			}
			cost := leftBox.SurfaceArea()*float64(leftCount) + rightBox.SurfaceArea()*float64(rightCount)
			if cost < bestCost {
				bestCost = cost
				bestAxis = axis
				bestMid = plane
				ok = true
			}
		}
		_ = maxV
	}
	if !ok {
		return 0, 0, false
	}

	// Translate the winning bin-plane into an actual partition index by
	// partitioning prims[lo:hi] in place by centroid-on-axis comparison,
	// exactly as spec.md §4.1 specifies.
	minV := centroidBoundsBox.Min[bestAxis]
	extent := centroidBoundsBox.Max[bestAxis] - minV
	planeValue := minV + extent*float64(bestMid)/float64(centroidBins)
	mid := b.partitionByPlane(lo, hi, bestAxis, planeValue)
	return bestAxis, mid, true
}

// partitionByPlane reorders prims[lo:hi] in place so every primitive whose
// centroid lies below plane on axis comes first, returning the partition
// index.
func (b *builder[T]) partitionByPlane(lo, hi, axis int, plane float64) int {
	i, j := lo, hi-1
	for i <= j {
		if b.centroidAt(i)[axis] < plane {
			i++
			continue
		}
		b.prims[i], b.prims[j] = b.prims[j], b.prims[i]
		j--
	}
	return i
}

// balancedSplit chooses the parent's widest spatial axis, stable-sorts
// prims[lo:hi] by centroid on that axis, and splits at the midpoint —
// the fallback used once depth headroom runs out (spec.md §4.1).
func (b *builder[T]) balancedSplit(lo, hi int) (axis, mid int) {
	box := vmath.EmptyAABB()
	for i := lo; i < hi; i++ {
		box = box.Union(b.spatialAt(i))
	}
	axis = box.LongestAxis()

	sub := b.prims[lo:hi]
	sort.SliceStable(sub, func(i, j int) bool {
		return b.boundsOf(sub[i]).InterpolateAt(0.5).Center()[axis] <
			b.boundsOf(sub[j]).InterpolateAt(0.5).Center()[axis]
	})
	mid = lo + (hi-lo)/2
	return axis, mid
}
