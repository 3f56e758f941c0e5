package scene

import (
	"github.com/duskforge/spectra/internal/bvh"
	"github.com/duskforge/spectra/internal/shading"
	"github.com/duskforge/spectra/internal/vmath"
)

// InstanceKind tags what an Instance's DataIndex refers to.
type InstanceKind int

const (
	InstanceObject InstanceKind = iota
	InstanceAssembly
)

// Instance is one entry in an assembly's instance list: a pointer at
// either an Object or a nested Assembly, an optional transform range, and
// an optional per-instance shader override (spec.md §3).
type Instance struct {
	Kind      InstanceKind
	DataIndex int

	// TransformLo == TransformHi means "no transform" (identity).
	TransformLo, TransformHi int

	// ShaderIdx < 0 means "use the object's default shader".
	ShaderIdx int
}

// Assembly is a container of geometry and nested assemblies: the unit of
// instancing and transform (spec.md §3, §9 "no cyclic references" — the
// scene is a DAG owned by one arena).
type Assembly struct {
	Instances   []Instance
	Transforms  []vmath.Transform // flat arena; Instance.TransformLo:Hi slices into it
	Shaders     []shading.Closure
	Objects     []Object
	Assemblies  []*Assembly
	ObjectAccel *bvh.BVH // built over Instances' world bounds
}

// instanceBounds computes an instance's world-space time-sample bounds by
// transforming its local bounds (object bounds, or nested assembly's
// accel root bounds) through its transform sequence, if any.
func (a *Assembly) instanceBounds(inst Instance) vmath.BoundsSequence {
	var local vmath.BoundsSequence
	switch inst.Kind {
	case InstanceObject:
		local = a.Objects[inst.DataIndex].Geometry.Bounds()
	case InstanceAssembly:
		child := a.Assemblies[inst.DataIndex]
		if child.ObjectAccel == nil || child.ObjectAccel.Empty() {
			return vmath.BoundsSequence{vmath.EmptyAABB()}
		}
		local = child.ObjectAccel.NodeBounds(0)
	}
	if inst.TransformLo == inst.TransformHi {
		return local
	}
	xforms := vmath.TransformSequence(a.Transforms[inst.TransformLo:inst.TransformHi])
	out := make(vmath.BoundsSequence, len(local))
	n := len(local)
	for i, box := range local {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		out[i] = xforms.InterpolateAt(t).TransformAABB(box)
	}
	return out
}

// Build constructs this assembly's object_accel BVH over its instances'
// world bounds. Child assemblies must already be built (callers build
// bottom-up).
func (a *Assembly) Build(objectsPerLeaf int) {
	a.ObjectAccel = bvh.Build(a.Instances, a.instanceBounds, objectsPerLeaf)
}
