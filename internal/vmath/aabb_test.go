package vmath

import (
	"math"
	"testing"
)

func TestAABBUnionIsExact(t *testing.T) {
	a := AABB{Min: New(0, 0, 0), Max: New(1, 1, 1)}
	b := AABB{Min: New(-1, 2, 0.5), Max: New(0.5, 3, 2)}
	u := a.Union(b)

	want := AABB{Min: New(-1, 0, 0), Max: New(1, 3, 2)}
	if u != want {
		t.Fatalf("union = %+v, want %+v", u, want)
	}
}

func TestSlabTestRayOriginInsideBoxHits(t *testing.T) {
	box := AABB{Min: New(-1, -1, -1), Max: New(1, 1, 1)}
	origin := New(0, 0, 0)
	dir := New(1, 0, 0)
	inv := InvDir(dir)
	sign := DirSign(inv)

	if !box.IntersectSlab(origin, inv, sign, math.Inf(1)) {
		t.Fatalf("expected ray originating inside the box to hit it")
	}
}

func TestSlabTestMissesBoxBehindRay(t *testing.T) {
	box := AABB{Min: New(5, -1, -1), Max: New(6, 1, 1)}
	origin := New(0, 0, 0)
	dir := New(-1, 0, 0)
	inv := InvDir(dir)
	sign := DirSign(inv)

	if box.IntersectSlab(origin, inv, sign, math.Inf(1)) {
		t.Fatalf("expected ray pointing away from the box to miss it")
	}
}

func TestBoundsSequenceInterpolationIsLinear(t *testing.T) {
	seq := BoundsSequence{
		{Min: New(0, 0, 0), Max: New(1, 1, 1)},
		{Min: New(0, 0, 0), Max: New(2, 2, 2)},
	}
	mid := seq.InterpolateAt(0.5)
	want := New(1.5, 1.5, 1.5)
	if math.Abs(mid.Max[0]-want[0]) > 1e-9 {
		t.Fatalf("interpolated max = %v, want %v", mid.Max, want)
	}
}

func TestBoundsSequenceConstantForSingleSample(t *testing.T) {
	seq := BoundsSequence{{Min: New(0, 0, 0), Max: New(1, 1, 1)}}
	if seq.InterpolateAt(0.75) != seq[0] {
		t.Fatalf("single-sample sequence must be constant over time")
	}
}
