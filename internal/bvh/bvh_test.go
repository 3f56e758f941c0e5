package bvh

import (
	"math/rand"
	"testing"

	"github.com/duskforge/spectra/internal/vmath"
)

type testPrim struct {
	id     int
	bounds vmath.BoundsSequence
}

func boxPrim(id int, cx, cy, cz, r float64) testPrim {
	min := vmath.New(cx-r, cy-r, cz-r)
	max := vmath.New(cx+r, cy+r, cz+r)
	return testPrim{id: id, bounds: vmath.BoundsSequence{{Min: min, Max: max}}}
}

func boundsOf(p testPrim) vmath.BoundsSequence { return p.bounds }

func unionOfAll(prims []testPrim) vmath.AABB {
	box := vmath.EmptyAABB()
	for _, p := range prims {
		box = box.Union(p.bounds[0])
	}
	return box
}

func scatteredPrims(n int, seed int64) []testPrim {
	rnd := rand.New(rand.NewSource(seed))
	prims := make([]testPrim, n)
	for i := range prims {
		prims[i] = boxPrim(i, rnd.Float64()*100, rnd.Float64()*100, rnd.Float64()*100, 0.5)
	}
	return prims
}

func TestBuildRootBoundsEqualsUnion(t *testing.T) {
	prims := scatteredPrims(64, 1)
	want := unionOfAll(prims)

	tree := Build(prims, boundsOf, 4)
	got := tree.NodeBounds(0).InterpolateAt(0)

	if got.Min != want.Min || got.Max != want.Max {
		t.Fatalf("root bounds %v, want union %v", got, want)
	}
}

func TestBuildParentContainsChildren(t *testing.T) {
	prims := scatteredPrims(200, 2)
	tree := Build(prims, boundsOf, 4)

	for i, n := range tree.Nodes {
		if n.IsLeaf {
			continue
		}
		parent := tree.NodeBounds(i).InterpolateAt(0)
		for _, childIdx := range []int{i + 1, n.SecondChild} {
			child := tree.NodeBounds(childIdx).InterpolateAt(0)
			if child.Min[0] < parent.Min[0]-1e-9 || child.Min[1] < parent.Min[1]-1e-9 || child.Min[2] < parent.Min[2]-1e-9 {
				t.Fatalf("node %d child %d min %v escapes parent min %v", i, childIdx, child.Min, parent.Min)
			}
			if child.Max[0] > parent.Max[0]+1e-9 || child.Max[1] > parent.Max[1]+1e-9 || child.Max[2] > parent.Max[2]+1e-9 {
				t.Fatalf("node %d child %d max %v escapes parent max %v", i, childIdx, child.Max, parent.Max)
			}
		}
	}
}

func TestBuildDepthWithinLimit(t *testing.T) {
	prims := scatteredPrims(500, 3)
	tree := Build(prims, boundsOf, 4)
	if tree.Depth > DepthMax {
		t.Fatalf("tree depth %d exceeds DepthMax %d", tree.Depth, DepthMax)
	}
}

func TestBuildEmptyPrimsYieldsEmptyTree(t *testing.T) {
	tree := Build[testPrim](nil, boundsOf, 4)
	if !tree.Empty() {
		t.Fatalf("expected empty tree for zero primitives")
	}
}

func TestTraverseEmptyBatchIsNoop(t *testing.T) {
	prims := scatteredPrims(10, 4)
	tree := Build(prims, boundsOf, 4)
	called := false
	Traverse(tree, &RayBatch{Live: nil}, func(lo, hi int, idx []int) { called = true })
	if called {
		t.Fatalf("Traverse must not invoke test on an empty batch")
	}
}

func TestTraverseFindsContainingLeaf(t *testing.T) {
	prims := scatteredPrims(300, 5)
	tree := Build(prims, boundsOf, 4)

	target := prims[150] // Build reorders prims in place; re-fetch post-build by id search below.
	var targetID = -1
	for _, p := range prims {
		if p.bounds[0].Center() == target.bounds[0].Center() {
			targetID = p.id
			break
		}
	}
	if targetID < 0 {
		t.Fatal("could not locate target primitive after build reorder")
	}

	center := target.bounds[0].Center()
	origin := vmath.New(center[0], center[1], -1000)
	dir := vmath.New(0, 0, 1)
	invDir := vmath.InvDir(dir)

	batch := &RayBatch{
		Origin: []vmath.Point{origin},
		InvDir: []vmath.Vector{invDir},
		Sign:   [][3]int{vmath.DirSign(invDir)},
		Time:   []float64{0},
		MaxT:   []float64{2000},
		Live:   []int{0},
	}

	hit := false
	Traverse(tree, batch, func(lo, hi int, idx []int) {
		for i := lo; i < hi; i++ {
			if prims[i].id == targetID {
				hit = true
			}
		}
	})
	if !hit {
		t.Fatalf("expected ray through primitive %d's center to reach its leaf", targetID)
	}
}

func TestSAHSplitBeatsUnsplitCostOnClusteredScene(t *testing.T) {
	// Two tight, widely separated clusters: a good SAH split should
	// isolate them into disjoint subtrees with low combined child surface
	// area, while a degenerate single-bin split cannot do better than the
	// full bounding box.
	var prims []testPrim
	id := 0
	for i := 0; i < 32; i++ {
		prims = append(prims, boxPrim(id, float64(i%4), float64(i/4), 0, 0.1))
		id++
	}
	for i := 0; i < 32; i++ {
		prims = append(prims, boxPrim(id, 1000+float64(i%4), float64(i/4), 0, 0.1))
		id++
	}

	tree := Build(prims, boundsOf, 4)
	root := tree.Nodes[0]
	if root.IsLeaf {
		t.Fatal("expected an internal root for 64 clustered primitives")
	}

	leftBox := tree.NodeBounds(1).InterpolateAt(0)
	rightBox := tree.NodeBounds(root.SecondChild).InterpolateAt(0)
	wholeBox := tree.NodeBounds(0).InterpolateAt(0)

	splitCost := leftBox.SurfaceArea() + rightBox.SurfaceArea()
	noSplitCost := wholeBox.SurfaceArea() * 2
	if splitCost >= noSplitCost {
		t.Fatalf("SAH split cost %v did not beat the unsplit cost %v on a clearly separable scene", splitCost, noSplitCost)
	}
}
