package integrator

import (
	"math"

	"github.com/duskforge/spectra/internal/scene"
	"github.com/duskforge/spectra/internal/spectral"
	"github.com/duskforge/spectra/internal/tracer"
	"github.com/duskforge/spectra/internal/vmath"
)

// MaxBounces is the hard-coded bounce budget from the original
// implementation (spec.md §9's open question leaves promoting this to
// configuration as a product decision; render.Config.MaxBounces carries
// the configurable copy this constant seeds).
const MaxBounces = 2

// Event is the LightPath state machine's current node.
type Event int

const (
	EventCameraRay Event = iota
	EventBounceRay
	EventShadowRay
)

// LightPath is the per-sample state spec.md §3 describes: everything
// needed to resume a path across tracer round-trips without re-deriving
// it from scratch.
type LightPath struct {
	PixelX, PixelY int
	SampleOffset   uint64
	Bounce         int
	Event          Event
	Time           float64
	Wavelength     float64

	Attenuation      spectral.Spectrum
	PendingColor     spectral.Spectrum
	HasPendingColor  bool
	Color            spectral.Spectrum
	ClosureSamplePDF float64

	NextBounceRay      vmath.Ray
	HasNextBounceRay   bool
	NextAttenuationFac spectral.Spectrum

	MaxBounces int
	Done       bool
}

// NewLightPath initializes a fresh CameraRay-state path for pixel (x,y),
// sample offset base, consuming the camera-lens/time/wavelength/filter
// dimensions from sampler and handing the resulting ray to genCameraRay
// (owned by the render package, which alone knows the camera model).
func NewLightPath(x, y int, base uint64, sampler Sampler, maxBounces int,
	genCameraRay func(lensU, lensV, timeU, wavU, filterX, filterY float64) (vmath.Ray, float64),
) (*LightPath, vmath.Ray) {
	lensU := sampler.Get(DimLensU, base)
	lensV := sampler.Get(DimLensV, base)
	timeU := sampler.Get(DimTime, base)
	wavU := sampler.Get(DimWavelength, base)
	filterX := sampler.Get(DimFilterX, base)
	filterY := sampler.Get(DimFilterY, base)

	ray, wavelength := genCameraRay(lensU, lensV, timeU, wavU, filterX, filterY)

	p := &LightPath{
		PixelX:           x,
		PixelY:           y,
		SampleOffset:     base,
		Event:            EventCameraRay,
		Time:             ray.Time,
		Wavelength:       wavelength,
		Attenuation:      spectral.White,
		ClosureSamplePDF: 1,
		MaxBounces:       maxBounces,
	}
	return p, ray
}

// Advance feeds the ray just traced and its tracer result into the path,
// returning the next ray to trace, or (zero, false) if the path has
// terminated. world supplies the background color and light sampling;
// sampler is this path's LDS stream.
func Advance(p *LightPath, ray vmath.Ray, isect tracer.Intersection, world *scene.World, sampler Sampler) (vmath.Ray, bool) {
	switch p.Event {
	case EventCameraRay, EventBounceRay:
		return advanceCameraOrBounce(p, ray, isect, world, sampler)
	case EventShadowRay:
		return advanceShadow(p, isect)
	}
	p.Done = true
	return vmath.Ray{}, false
}

func advanceCameraOrBounce(p *LightPath, ray vmath.Ray, isect tracer.Intersection, world *scene.World, sampler Sampler) (vmath.Ray, bool) {
	if isect.State == tracer.Miss {
		contribution := world.Background.Scale(1.0 / p.ClosureSamplePDF).Mul(p.Attenuation)
		if contribution.IsFinite() {
			p.Color = p.Color.Add(contribution)
		}
		p.Done = true
		return vmath.Ray{}, false
	}

	if emitted, isEmitter := isect.Emitted(); isEmitter {
		e := spectral.Spectrum(emitted)
		if p.Event == EventCameraRay {
			p.Color = p.Color.Add(e)
		} else {
			// MIS weight against this emitter's own NEE sampling PDF, which
			// would require tracking which light the hit surface
			// corresponds to; this core samples lights independently of
			// geometry (scene.World.SampleLights is not indexed by
			// instance), so the BSDF-sampling path is weighted as if it
			// were the only strategy (power_heuristic(pdf, 0) == 1).
			contribution := e.Mul(p.Attenuation).Scale(1.0 / spectral.PowerHeuristic(p.ClosureSamplePDF, 0))
			if contribution.IsFinite() {
				p.Color = p.Color.Add(contribution)
			}
		}
		p.Done = true
		return vmath.Ray{}, false
	}

	outDir := vmath.SafeNormalize(ray.Direction.Mul(-1))

	base := BounceDim(p.Bounce)
	lightSelU := sampler.Get(base, p.SampleOffset)
	lightU := sampler.Get(base+1, p.SampleOffset)
	lightV := sampler.Get(base+2, p.SampleOffset)
	lightW := sampler.Get(base+3, p.SampleOffset)
	bsdfU := sampler.Get(base+4, p.SampleOffset)
	bsdfV := sampler.Get(base+5, p.SampleOffset)

	p.HasPendingColor = false
	var shadowRay vmath.Ray
	haveShadow := false

	ls := world.SampleLights(isect.Position, lightU, lightV, lightSelU)
	if ls.Kind != scene.LightSampleNone {
		lightDir, lightDist := lightDirectionAndDistance(isect.Position, ls)
		attenBSDF := isect.Closure.Evaluate(outDir, lightDir, isect.Ns, isect.Ng)
		closurePDF := isect.Closure.SamplePDF(outDir, lightDir, isect.Ns, isect.Ng)

		if attenBSDF.Max() > 0 && ls.PDF > 0 && ls.SelectionPDF > 0 {
			origin := vmath.RobustRayOrigin(isect.Position, isect.PosErr, isect.Ng, lightDir)
			shadowRay = vmath.NewRay(origin, lightDir, p.Time, p.Wavelength, true)
			shadowRay.MaxT = lightDist

			misWeight := spectral.PowerHeuristic(ls.PDF, closurePDF)
			denom := misWeight * ls.SelectionPDF
			if denom > 0 {
				p.PendingColor = ls.Color.Mul(attenBSDF).Mul(p.Attenuation).Scale(1.0 / denom)
				p.HasPendingColor = true
				haveShadow = true
			}
		}
	}

	p.HasNextBounceRay = false
	if p.Bounce < p.MaxBounces {
		dir, filter, pdf := isect.Closure.Sample(outDir, isect.Ns, isect.Ng, bsdfU, bsdfV)
		if pdf > 0 && filter.Max() > 0 {
			origin := vmath.RobustRayOrigin(isect.Position, isect.PosErr, isect.Ng, dir)
			p.NextBounceRay = vmath.NewRay(origin, dir, p.Time, p.Wavelength, false)
			p.HasNextBounceRay = true
			p.NextAttenuationFac = filter
			p.ClosureSamplePDF = pdf
		}
	}

	switch {
	case haveShadow:
		p.Event = EventShadowRay
		return shadowRay, true
	case p.HasNextBounceRay:
		p.Event = EventBounceRay
		p.Attenuation = p.Attenuation.Mul(p.NextAttenuationFac)
		p.Bounce++
		return p.NextBounceRay, true
	default:
		p.Done = true
		return vmath.Ray{}, false
	}
}

func advanceShadow(p *LightPath, isect tracer.Intersection) (vmath.Ray, bool) {
	if isect.State == tracer.Miss && p.HasPendingColor {
		p.Color = p.Color.Add(p.PendingColor)
	}
	p.HasPendingColor = false

	if p.HasNextBounceRay {
		p.Event = EventBounceRay
		p.Attenuation = p.Attenuation.Mul(p.NextAttenuationFac)
		p.Bounce++
		next := p.NextBounceRay
		p.HasNextBounceRay = false
		return next, true
	}
	p.Done = true
	return vmath.Ray{}, false
}

func lightDirectionAndDistance(from vmath.Point, ls scene.LightSample) (vmath.Vector, float64) {
	switch ls.Kind {
	case scene.LightSampleDistant:
		return ls.Direction, math.Inf(1)
	case scene.LightSampleSurface:
		toLight := ls.Point.Sub(from)
		dist := toLight.Len()
		if dist < 1e-12 {
			return ls.Direction, math.Inf(1)
		}
		return toLight.Mul(1.0 / dist), dist
	}
	return vmath.New(0, 1, 0), math.Inf(1)
}
