// Package vmath provides the 3D math primitives shared by the BVH, the
// tracer, and the integrator: vectors/points/normals, 4x4 transforms, and
// axis-aligned bounding boxes with time-sample interpolation.
package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is the single representation behind points, vectors, and normals.
// They share every algebraic operation; only the call sites distinguish
// the semantics, exactly as in the teacher's flat Point type.
type Vec3 = mgl64.Vec3

// Point, Vector and Normal are the same underlying array type as Vec3; the
// aliases exist purely for signature readability, matching spec.md's
// distinction between positions, directions, and shading normals.
type (
	Point  = Vec3
	Vector = Vec3
	Normal = Vec3
)

// New builds a Vec3 from components.
func New(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

// MinComponents returns the component-wise minimum of a and b.
func MinComponents(a, b Vec3) Vec3 {
	return Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])}
}

// MaxComponents returns the component-wise maximum of a and b.
func MaxComponents(a, b Vec3) Vec3 {
	return Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])}
}

// Lerp linearly interpolates between a and b at parameter t.
func Lerp(a, b Vec3, t float64) Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// SafeNormalize normalizes v, falling back to the +Y axis for
// near-zero-length vectors instead of producing NaNs.
func SafeNormalize(v Vec3) Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return Vec3{0, 1, 0}
	}
	return v.Mul(1.0 / l)
}

// InvDir returns the reciprocal of each component of d, preserving sign
// for components equal to zero (producing +/-Inf rather than NaN).
func InvDir(d Vector) Vector {
	return Vec3{invComponent(d[0]), invComponent(d[1]), invComponent(d[2])}
}

func invComponent(x float64) float64 {
	if x == 0 {
		return math.Copysign(math.Inf(1), x)
	}
	return 1.0 / x
}

// DirSign returns the sign bit (0 = positive or zero, 1 = negative) of each
// component of an inverse direction, used both for slab-test ordering and
// for octant partitioning in the tracer.
func DirSign(invDir Vector) [3]int {
	var s [3]int
	for i := 0; i < 3; i++ {
		if invDir[i] < 0 {
			s[i] = 1
		}
	}
	return s
}
