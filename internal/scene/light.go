package scene

import (
	"math"

	"github.com/duskforge/spectra/internal/spectral"
	"github.com/duskforge/spectra/internal/vmath"
)

// LightSampleKind distinguishes a finite surface-light sample from a
// directionally-infinite distant light (spec.md §6's Distant/Surface
// variants).
type LightSampleKind int

const (
	LightSampleNone LightSampleKind = iota
	LightSampleDistant
	LightSampleSurface
)

// LightSample is the result of sampling one light: either a direction at
// infinity (Distant) or a point on a finite emitter (Surface), plus the
// emitted color and the two PDFs the integrator needs for MIS (spec.md
// §4.4/§6).
type LightSample struct {
	Kind LightSampleKind

	Direction vmath.Vector // valid for Distant
	Point     vmath.Point  // valid for Surface
	Normal    vmath.Normal // valid for Surface
	PosErr    vmath.Vector // valid for Surface

	Color        spectral.Spectrum
	PDF          float64
	SelectionPDF float64
}

// Light is a scene emitter that can be next-event-sampled.
type Light interface {
	Sample(isectPos vmath.Point, u, v, w float64) LightSample
}

// PointLight is a zero-area, infinitely bright light source: its sample
// PDF is a delta, represented here as 1 so evaluate/shadow-ray logic
// treats it as certain once selected.
type PointLight struct {
	Position  vmath.Point
	Intensity spectral.Spectrum
}

func (l PointLight) Sample(isectPos vmath.Point, u, v, w float64) LightSample {
	toLight := l.Position.Sub(isectPos)
	dist2 := toLight.Dot(toLight)
	if dist2 < 1e-12 {
		return LightSample{Kind: LightSampleNone}
	}
	dist := math.Sqrt(dist2)
	dir := toLight.Mul(1.0 / dist)
	return LightSample{
		Kind:      LightSampleSurface,
		Point:     l.Position,
		Normal:    dir.Mul(-1),
		Direction: dir,
		Color:     l.Intensity.Scale(1.0 / dist2),
		PDF:       1,
	}
}

// SphereLight is a finite-area emissive sphere, sampled uniformly over
// the visible cap.
type SphereLight struct {
	Center    vmath.Point
	Radius    float64
	Intensity spectral.Spectrum
}

func (l SphereLight) Sample(isectPos vmath.Point, u, v, w float64) LightSample {
	toCenter := l.Center.Sub(isectPos)
	dist2 := toCenter.Dot(toCenter)
	if dist2 <= l.Radius*l.Radius {
		return LightSample{Kind: LightSampleNone}
	}
	dist := math.Sqrt(dist2)
	axis := toCenter.Mul(1.0 / dist)
	cosThetaMax := math.Sqrt(math.Max(0, 1-l.Radius*l.Radius/dist2))

	cosTheta := 1 - u*(1-cosThetaMax)
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	phi := 2 * math.Pi * v

	t, b := orthonormalBasisVec(axis)
	dir := vmath.New(
		t[0]*sinTheta*math.Cos(phi)+b[0]*sinTheta*math.Sin(phi)+axis[0]*cosTheta,
		t[1]*sinTheta*math.Cos(phi)+b[1]*sinTheta*math.Sin(phi)+axis[1]*cosTheta,
		t[2]*sinTheta*math.Cos(phi)+b[2]*sinTheta*math.Sin(phi)+axis[2]*cosTheta,
	)

	pdf := 1.0 / (2 * math.Pi * (1 - cosThetaMax))

	// dir was sampled inside the cone subtending the sphere from isectPos,
	// so it is guaranteed to hit the sphere; solve for the near
	// intersection to get the actual sampled point, matching PointLight's
	// Surface-kind pattern instead of treating this as a direction at
	// infinity.
	oc := isectPos.Sub(l.Center)
	bq := 2 * oc.Dot(dir)
	cq := oc.Dot(oc) - l.Radius*l.Radius
	disc := math.Max(0, bq*bq-4*cq)
	sq := math.Sqrt(disc)
	tHit := (-bq - sq) / 2
	if tHit <= 1e-9 {
		tHit = (-bq + sq) / 2
	}
	point := isectPos.Add(dir.Mul(tHit))
	normal := vmath.SafeNormalize(point.Sub(l.Center))

	return LightSample{
		Kind:      LightSampleSurface,
		Direction: dir,
		Point:     point,
		Normal:    normal,
		PosErr:    vmath.New(math.Abs(point[0]), math.Abs(point[1]), math.Abs(point[2])).Mul(1e-7),
		Color:     l.Intensity,
		PDF:       pdf,
	}
}

func orthonormalBasisVec(n vmath.Vector) (t, b vmath.Vector) {
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

// DistantLight is a directional (sun-like) light at infinity.
type DistantLight struct {
	Direction vmath.Vector // points from the scene towards the light
	Color     spectral.Spectrum
}

func (l DistantLight) Sample(isectPos vmath.Point, u, v, w float64) LightSample {
	return LightSample{
		Kind:      LightSampleDistant,
		Direction: vmath.SafeNormalize(l.Direction),
		Color:     l.Color,
		PDF:       1,
	}
}

// World holds the lights and background color every assembly shares
// (spec.md §6's scene.world.background_color).
type World struct {
	Lights     []Light
	Background spectral.Spectrum
}

// SampleLights selects one light uniformly (selectionPDF = 1/len(Lights))
// using w, then samples it with (u,v). Returns LightSampleNone if there
// are no lights.
func (w *World) SampleLights(isectPos vmath.Point, u, v, wSel float64) LightSample {
	n := len(w.Lights)
	if n == 0 {
		return LightSample{Kind: LightSampleNone}
	}
	idx := int(wSel * float64(n))
	if idx >= n {
		idx = n - 1
	}
	selectionPDF := 1.0 / float64(n)
	s := w.Lights[idx].Sample(isectPos, u, v, wSel)
	s.SelectionPDF = selectionPDF
	return s
}
