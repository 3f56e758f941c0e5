package spectral

import "math"

// XYZ is a CIE 1931 tristimulus value, the handoff point to the image
// layer's colourspace conversion (spec.md §6's rgba_base64(colorspace_fn)).
type XYZ struct {
	X, Y, Z float64
}

// Add returns the component-wise sum.
func (c XYZ) Add(o XYZ) XYZ {
	return XYZ{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

// Scale returns every component multiplied by a scalar.
func (c XYZ) Scale(k float64) XYZ {
	return XYZ{c.X * k, c.Y * k, c.Z * k}
}

// OfSample converts one monochromatic path sample to XYZ: the mean of the
// spectrum's first three lanes stands in for the single-wavelength
// radiance value carried by a hero-wavelength path, weighted by the CIE
// colour-matching functions at that wavelength.
func OfSample(color Spectrum, wavelengthNM float64) XYZ {
	radiance := (color[0] + color[1] + color[2]) / 3.0
	cx, cy, cz := matchingFunctions(wavelengthNM)
	return XYZ{cx * radiance, cy * radiance, cz * radiance}
}

// matchingFunctions evaluates a closed-form multi-lobe Gaussian fit to the
// CIE 1931 standard observer colour-matching functions (the well-known
// Wyman/Sloan/Shirley analytic approximation), avoiding the need to ship
// or parse a tabulated CMF data file for a renderer core that otherwise
// never touches the filesystem except for the scene and the output image.
func matchingFunctions(lambda float64) (x, y, z float64) {
	x = gaussianLobe(lambda, 1.056, 599.8, 37.9, 31.0) +
		gaussianLobe(lambda, 0.362, 442.0, 16.0, 26.7) -
		gaussianLobe(lambda, 0.065, 501.1, 20.4, 26.2)
	y = gaussianLobe(lambda, 0.821, 568.8, 46.9, 40.5) +
		gaussianLobe(lambda, 0.286, 530.9, 16.3, 31.1)
	z = gaussianLobe(lambda, 1.217, 437.0, 11.8, 36.0) +
		gaussianLobe(lambda, 0.681, 459.0, 26.0, 13.8)
	return x, y, z
}

// gaussianLobe evaluates one asymmetric Gaussian lobe: sigma1 controls the
// falloff below mu, sigma2 the falloff above it.
func gaussianLobe(lambda, amplitude, mu, sigma1, sigma2 float64) float64 {
	sigma := sigma2
	if lambda < mu {
		sigma = sigma1
	}
	t := (lambda - mu) / sigma
	return amplitude * math.Exp(-0.5*t*t)
}
