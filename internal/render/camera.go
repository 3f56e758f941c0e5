package render

import (
	"math"

	"github.com/duskforge/spectra/internal/vmath"
)

// Camera is a minimal pinhole camera: full lens/shutter modeling is
// outside this core's scope, but the integrator's sampling dimensions
// (spec.md §4.4) reserve lens and time coordinates for when a thin-lens
// or rolling-shutter model is added, so GenerateRay already accepts them.
type Camera struct {
	Position   vmath.Point
	Forward    vmath.Vector
	Up         vmath.Vector
	Right      vmath.Vector
	TanHalfFOV float64
	AspectWH   float64
	MinWavelength, MaxWavelength float64
}

// NewCamera builds a camera looking from eye toward target, with the
// given vertical field of view in degrees.
func NewCamera(eye, target, up vmath.Vector, fovDegrees, aspectWH float64) Camera {
	forward := vmath.SafeNormalize(target.Sub(eye))
	right := vmath.SafeNormalize(forward.Cross(up))
	trueUp := right.Cross(forward)
	return Camera{
		Position:      eye,
		Forward:       forward,
		Up:            trueUp,
		Right:         right,
		TanHalfFOV:    math.Tan(fovDegrees * math.Pi / 360),
		AspectWH:      aspectWH,
		MinWavelength: 380,
		MaxWavelength: 700,
	}
}

// GenerateRay builds a camera ray for normalized image-plane coordinates
// ndcX, ndcY in [-1,1] (already jittered by the integrator's filter
// dimensions), plus the lens/time/wavelength LDS coordinates spec.md
// §4.4 allocates for exactly this purpose.
func (c Camera) GenerateRay(ndcX, ndcY, lensU, lensV, timeU, wavelengthU float64) (vmath.Ray, float64) {
	px := ndcX * c.TanHalfFOV * c.AspectWH
	py := ndcY * c.TanHalfFOV
	dir := vmath.SafeNormalize(
		c.Forward.Add(c.Right.Mul(px)).Add(c.Up.Mul(py)),
	)
	wavelength := c.MinWavelength + wavelengthU*(c.MaxWavelength-c.MinWavelength)
	ray := vmath.NewRay(c.Position, dir, timeU, wavelength, false)
	return ray, wavelength
}
