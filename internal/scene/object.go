// Package scene implements the assembly/instance scene graph: instances
// pointing at objects or nested assemblies, per-instance transform
// ranges, a surface-shader table, and the object_accel BVH built over
// instance world bounds (spec.md §3/§4.3).
package scene

import (
	"math"

	"github.com/duskforge/spectra/internal/shading"
	"github.com/duskforge/spectra/internal/vmath"
)

// Geometry is the per-object intersection contract. Full geometry support
// (meshes, curves, ...) is out of scope for this core; Sphere below is
// the one concrete primitive kept to exercise the tracer end to end.
type Geometry interface {
	Bounds() vmath.BoundsSequence
	Intersect(origin vmath.Point, dir vmath.Vector, time, maxT float64) (GeomHit, bool)
}

// GeomHit is the local-space result of a Geometry.Intersect call.
type GeomHit struct {
	T              float64
	Position       vmath.Point
	Ns, Ng         vmath.Normal
	PosErr         vmath.Vector
	SurfaceSampleU float64
	SurfaceSampleV float64
}

// Object is one leaf geometry entry in the object table, paired with the
// shader index instances assign it (an instance's own shader override, if
// set, takes precedence — see Instance.ShaderIdx).
type Object struct {
	Geometry   Geometry
	DefaultIdx int // index into the shader table, -1 if unshaded
}

// Sphere is a unit-radius-scalable analytic sphere, the one concrete
// Geometry implementation this core ships for testing.
type Sphere struct {
	Center vmath.Point
	Radius float64
}

func (s Sphere) Bounds() vmath.BoundsSequence {
	r := vmath.New(s.Radius, s.Radius, s.Radius)
	return vmath.BoundsSequence{{Min: s.Center.Sub(r), Max: s.Center.Add(r)}}
}

func (s Sphere) Intersect(origin vmath.Point, dir vmath.Vector, time, maxT float64) (GeomHit, bool) {
	oc := origin.Sub(s.Center)
	a := dir.Dot(dir)
	b := 2 * oc.Dot(dir)
	c := oc.Dot(oc) - s.Radius*s.Radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return GeomHit{}, false
	}
	sq := math.Sqrt(disc)
	t := (-b - sq) / (2 * a)
	if t <= 1e-9 {
		t = (-b + sq) / (2 * a)
	}
	if t <= 1e-9 || t >= maxT {
		return GeomHit{}, false
	}

	pos := origin.Add(dir.Mul(t))
	normal := vmath.SafeNormalize(pos.Sub(s.Center))
	return GeomHit{
		T:        t,
		Position: pos,
		Ns:       normal,
		Ng:       normal,
		PosErr:   vmath.New(math.Abs(pos[0]), math.Abs(pos[1]), math.Abs(pos[2])).Mul(1e-7),
	}, true
}

// Shader returns the closure at shaderIdx in the shader table, or the
// bright magenta fallback emitter spec.md §4.3 mandates for unshaded
// instances when shaderIdx is negative or out of range. Choosing between
// an instance's own override and its object's default index happens at
// the call site (the tracer), not here.
func (a *Assembly) Shader(shaderIdx int) shading.Closure {
	if shaderIdx < 0 || shaderIdx >= len(a.Shaders) {
		return shading.Emission{Color: shading.FallbackEmission}
	}
	return a.Shaders[shaderIdx]
}
