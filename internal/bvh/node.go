// Package bvh implements the time-varying bounding volume hierarchy: SAH
// construction over a primitive slice (spec.md §4.1) and batched,
// direction-partitioned traversal (spec.md §4.2).
package bvh

import "github.com/duskforge/spectra/internal/vmath"

// DepthMax is the hard ceiling on tree depth, from spec.md §3. Build and
// Traverse both enforce it as an internal invariant: exceeding it is a
// programming error, not recoverable input, so it panics rather than
// returning an error.
const DepthMax = 64

// Node is a tagged union of BVH internal and leaf nodes, stored as a flat
// array. The left child of an internal node is always the very next
// entry; only the right child needs an explicit index.
type Node struct {
	BoundsLo, BoundsHi int // range into the bounds arena (one AABB per time sample)
	IsLeaf             bool

	// Internal-only fields.
	SecondChild int // index of the right child
	SplitAxis   int // 0=X, 1=Y, 2=Z

	// Leaf-only fields.
	ObjLo, ObjHi int // half-open range into the caller's primitive slice
}

// BVH owns the flattened node array and the flat bounds arena (one AABB
// per time sample, per node) it indexes into. It is built once at
// scene-construction time and never mutated afterward.
type BVH struct {
	Nodes  []Node
	Bounds []vmath.AABB // flat arena; Node.BoundsLo:BoundsHi is that node's per-time-sample slice
	Depth  int
}

// NodeBounds returns node i's per-time-sample bounds slice.
func (b *BVH) NodeBounds(i int) vmath.BoundsSequence {
	return vmath.BoundsSequence(b.Bounds[b.Nodes[i].BoundsLo:b.Nodes[i].BoundsHi])
}

// Empty reports whether the tree has no nodes (built from zero primitives).
func (b *BVH) Empty() bool {
	return len(b.Nodes) == 0
}
