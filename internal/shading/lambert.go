package shading

import (
	"math"

	"github.com/duskforge/spectra/internal/spectral"
	"github.com/duskforge/spectra/internal/vmath"
)

// Lambert is a perfectly diffuse closure: constant albedo over the
// hemisphere, cosine-weighted sampling. It exists to exercise the
// integrator end to end; full BSDF math is out of scope.
type Lambert struct {
	Albedo spectral.Spectrum
}

func (l Lambert) Evaluate(outDir, inDir, Ns, Ng vmath.Normal) spectral.Spectrum {
	cos := Ns.Dot(inDir)
	if cos <= 0 {
		return spectral.Spectrum{}
	}
	return l.Albedo.Scale(cos / math.Pi)
}

func (l Lambert) Sample(outDir, Ns, Ng vmath.Normal, u, v float64) (vmath.Vector, spectral.Spectrum, float64) {
	dir := cosineSampleHemisphere(Ns, u, v)
	pdf := l.SamplePDF(outDir, dir, Ns, Ng)
	if pdf <= 0 {
		return vmath.Vector{}, spectral.Spectrum{}, 0
	}
	return dir, l.Evaluate(outDir, dir, Ns, Ng).Scale(1.0 / pdf), pdf
}

func (l Lambert) SamplePDF(outDir, inDir, Ns, Ng vmath.Normal) float64 {
	cos := Ns.Dot(inDir)
	if cos <= 0 {
		return 0
	}
	return cos / math.Pi
}

// cosineSampleHemisphere maps (u,v) in [0,1)^2 to a cosine-weighted
// direction about normal n via the Malley disk-mapping method.
func cosineSampleHemisphere(n vmath.Normal, u, v float64) vmath.Vector {
	r := math.Sqrt(u)
	theta := 2 * math.Pi * v
	x := r * math.Cos(theta)
	y := r * math.Sin(theta)
	z := math.Sqrt(math.Max(0, 1-u))

	t, b := orthonormalBasis(n)
	return vmath.New(
		t[0]*x+b[0]*y+n[0]*z,
		t[1]*x+b[1]*y+n[1]*z,
		t[2]*x+b[2]*y+n[2]*z,
	)
}

// orthonormalBasis builds a tangent/bitangent pair perpendicular to n
// using Duff et al.'s branchless construction.
func orthonormalBasis(n vmath.Normal) (t, b vmath.Vector) {
	sign := 1.0
	if n[2] < 0 {
		sign = -1.0
	}
	a := -1.0 / (sign + n[2])
	c := n[0] * n[1] * a
	t = vmath.New(1+sign*n[0]*n[0]*a, sign*c, -sign*n[0])
	b = vmath.New(c, sign+n[1]*n[1]*a, -n[1])
	return t, b
}

// Emission is an emissive closure: it reflects nothing and emits a
// constant color, the same on both sides of the surface.
type Emission struct {
	Color spectral.Spectrum
}

func (e Emission) Evaluate(outDir, inDir, Ns, Ng vmath.Normal) spectral.Spectrum {
	return spectral.Spectrum{}
}

func (e Emission) Sample(outDir, Ns, Ng vmath.Normal, u, v float64) (vmath.Vector, spectral.Spectrum, float64) {
	return vmath.Vector{}, spectral.Spectrum{}, 0
}

func (e Emission) SamplePDF(outDir, inDir, Ns, Ng vmath.Normal) float64 { return 0 }

func (e Emission) EmittedColor() spectral.Spectrum { return e.Color }
