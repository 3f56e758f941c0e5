// Package shading defines the surface-closure contract the integrator
// drives. BSDF math itself is out of scope (spec.md §6 treats it as an
// external collaborator); this package only specifies the interface and a
// handful of concrete closures simple enough to test the pipeline against.
package shading

import (
	"github.com/duskforge/spectra/internal/spectral"
	"github.com/duskforge/spectra/internal/vmath"
)

// Closure is a surface shading closure: a bundle of BSDF parameters that
// can evaluate, importance-sample, and report the PDF of a given
// direction, exactly the tagged-union-with-jump-table dispatch spec.md §9
// describes (here: a Go interface, the idiomatic equivalent).
type Closure interface {
	// Evaluate returns the BSDF value for light arriving from inDir and
	// leaving towards outDir, with shading and geometric normals Ns/Ng.
	Evaluate(outDir, inDir, Ns, Ng vmath.Normal) spectral.Spectrum

	// Sample importance-samples an incoming direction given (u,v) in
	// [0,1)^2, returning the direction, the BSDF/pdf filter value, and
	// the pdf of that direction.
	Sample(outDir, Ns, Ng vmath.Normal, u, v float64) (dir vmath.Vector, filter spectral.Spectrum, pdf float64)

	// SamplePDF returns the pdf Sample would have produced for inDir.
	SamplePDF(outDir, inDir, Ns, Ng vmath.Normal) float64
}

// Emitter is the additional contract emissive closures expose.
type Emitter interface {
	Closure
	EmittedColor() spectral.Spectrum
}

// FallbackEmission is the bright-magenta color scene.Assembly.Shader emits
// for an instance with no shader assigned (spec.md §4.3), wrapped in an
// Emission closure so unshaded geometry shows up as a visible marker
// rather than a silent black hole.
var FallbackEmission = spectral.Spectrum{10, 0, 10, 0}
