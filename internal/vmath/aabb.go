package vmath

import "math"

// AABB is an axis-aligned bounding box, stored as (min, max) points. It is
// the unit the BVH arena is built from: every boundable entity exposes a
// slice of these, one per time sample.
type AABB struct {
	Min, Max Point
}

// EmptyAABB returns a box with inverted bounds, suitable as the identity
// element of Union (unioning anything with it yields the other box back).
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{Min: Vec3{inf, inf, inf}, Max: Vec3{-inf, -inf, -inf}}
}

// Union returns the smallest AABB containing both a and b.
func (a AABB) Union(b AABB) AABB {
	return AABB{Min: MinComponents(a.Min, b.Min), Max: MaxComponents(a.Max, b.Max)}
}

// UnionPoint expands the box to also contain p.
func (a AABB) UnionPoint(p Point) AABB {
	return AABB{Min: MinComponents(a.Min, p), Max: MaxComponents(a.Max, p)}
}

// Size returns the per-axis extent of the box.
func (a AABB) Size() Vec3 {
	return a.Max.Sub(a.Min)
}

// Center returns the box's centroid.
func (a AABB) Center() Point {
	return a.Min.Add(a.Max).Mul(0.5)
}

// SurfaceArea returns the total surface area of the box; empty (inverted)
// boxes, whose extent is negative on some axis, return 0 rather than a
// meaningless area.
func (a AABB) SurfaceArea() float64 {
	s := a.Size()
	if s[0] < 0 || s[1] < 0 || s[2] < 0 {
		return 0
	}
	return 2.0 * (s[0]*s[1] + s[1]*s[2] + s[2]*s[0])
}

// LongestAxis returns the index (0=X, 1=Y, 2=Z) of the box's widest axis.
func (a AABB) LongestAxis() int {
	s := a.Size()
	axis := 0
	if s[1] > s[axis] {
		axis = 1
	}
	if s[2] > s[axis] {
		axis = 2
	}
	return axis
}

// IntersectSlab performs the slab-test ray/box intersection used during
// BVH traversal. invDir and sign must already be precomputed for the ray
// (see InvDir/DirSign); maxT bounds the ray's current closest-hit distance.
// It returns whether the ray enters the box within [0, maxT].
func (a AABB) IntersectSlab(origin Point, invDir Vector, sign [3]int, maxT float64) bool {
	bounds := [2]Point{a.Min, a.Max}

	tMin := (bounds[sign[0]][0] - origin[0]) * invDir[0]
	tMax := (bounds[1-sign[0]][0] - origin[0]) * invDir[0]

	tyMin := (bounds[sign[1]][1] - origin[1]) * invDir[1]
	tyMax := (bounds[1-sign[1]][1] - origin[1]) * invDir[1]
	if tMin > tyMax || tyMin > tMax {
		return false
	}
	if tyMin > tMin {
		tMin = tyMin
	}
	if tyMax < tMax {
		tMax = tyMax
	}

	tzMin := (bounds[sign[2]][2] - origin[2]) * invDir[2]
	tzMax := (bounds[1-sign[2]][2] - origin[2]) * invDir[2]
	if tMin > tzMax || tzMin > tMax {
		return false
	}
	if tzMin > tMin {
		tMin = tzMin
	}
	if tzMax < tMax {
		tMax = tzMax
	}

	return tMin < maxT && tMax > 0
}

// BoundsSequence is an ordered list of AABBs representing an entity's
// extent at uniformly spaced time samples over [0,1].
type BoundsSequence []AABB

// InterpolateAt returns the component-wise linear interpolation of the
// sequence at time t; a single-sample sequence is constant over time.
func (bs BoundsSequence) InterpolateAt(t float64) AABB {
	if len(bs) == 0 {
		return EmptyAABB()
	}
	if len(bs) == 1 {
		return bs[0]
	}
	if t <= 0 {
		return bs[0]
	}
	if t >= 1 {
		return bs[len(bs)-1]
	}
	seg := t * float64(len(bs)-1)
	i := int(seg)
	if i >= len(bs)-1 {
		return bs[len(bs)-1]
	}
	frac := seg - float64(i)
	return AABB{
		Min: Lerp(bs[i].Min, bs[i+1].Min, frac),
		Max: Lerp(bs[i].Max, bs[i+1].Max, frac),
	}
}

// MergeElementwise merges two equal-length bounds sequences by unioning
// each pair of same-index samples. Both sequences must have identical
// length (the §3 invariant); callers that can't guarantee this must
// resample first.
func MergeElementwise(a, b BoundsSequence) BoundsSequence {
	if len(a) != len(b) {
		panic("vmath: MergeElementwise requires equal-length bounds sequences")
	}
	out := make(BoundsSequence, len(a))
	for i := range a {
		out[i] = a[i].Union(b[i])
	}
	return out
}

// UnionAll returns the component-wise union of a set of equal-length
// bounds sequences — used by the BVH leaf builder to merge a group of
// primitives' bounds into one leaf bounds-slice.
func UnionAll(seqs []BoundsSequence) BoundsSequence {
	if len(seqs) == 0 {
		return nil
	}
	out := make(BoundsSequence, len(seqs[0]))
	copy(out, seqs[0])
	for _, s := range seqs[1:] {
		out = MergeElementwise(out, s)
	}
	return out
}
