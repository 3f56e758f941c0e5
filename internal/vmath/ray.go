package vmath

import "math"

// Ray is a full world-space ray as seen by the integrator and tracer.
type Ray struct {
	Origin     Point
	Direction  Vector
	InvDir     Vector
	Time       float64
	Wavelength float64 // hero wavelength, nanometres
	MaxT       float64
	IsShadow   bool
}

// NewRay builds a ray with a precomputed inverse direction and MaxT set
// to +Inf, matching the "initially +infinity" invariant from spec.md §3.
func NewRay(origin Point, dir Vector, time, wavelength float64, shadow bool) Ray {
	return Ray{
		Origin:     origin,
		Direction:  dir,
		InvDir:     InvDir(dir),
		Time:       time,
		Wavelength: wavelength,
		MaxT:       math.Inf(1),
		IsShadow:   shadow,
	}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) Point {
	return r.Origin.Add(r.Direction.Mul(t))
}

// AccelRay is the compact shadow-copy of a world ray used during BVH
// traversal and assembly recursion. ID links back to the parent ray's
// slot in the caller's ray/intersection slices.
type AccelRay struct {
	ID        int
	Origin    Point
	Direction Vector
	InvDir    Vector
	Sign      [3]int
	Time      float64
	MaxT      float64
	IsShadow  bool
	Done      bool
}

// NewAccelRay derives a traversal-ready accel-ray from a world ray.
func NewAccelRay(id int, r Ray) AccelRay {
	return AccelRay{
		ID:        id,
		Origin:    r.Origin,
		Direction: r.Direction,
		InvDir:    r.InvDir,
		Sign:      DirSign(r.InvDir),
		Time:      r.Time,
		MaxT:      r.MaxT,
		IsShadow:  r.IsShadow,
	}
}

// Retransform overwrites an accel-ray's origin and direction in place with
// the given, already transformed values, and recomputes its inverse
// direction and sign bits from the new direction.
func (a *AccelRay) Retransform(origin, dir Vector) {
	a.Origin = origin
	a.Direction = dir
	a.InvDir = InvDir(dir)
	a.Sign = DirSign(a.InvDir)
}
