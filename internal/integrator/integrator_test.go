package integrator

import (
	"testing"

	"github.com/duskforge/spectra/internal/scene"
	"github.com/duskforge/spectra/internal/shading"
	"github.com/duskforge/spectra/internal/spectral"
	"github.com/duskforge/spectra/internal/tracer"
	"github.com/duskforge/spectra/internal/vmath"
)

func TestSamplerIsDeterministic(t *testing.T) {
	s := NewSampler(42)
	a := s.Get(0, 7)
	b := s.Get(0, 7)
	if a != b {
		t.Fatalf("Get(0,7) not deterministic: %v vs %v", a, b)
	}
}

func TestSamplerBeyondTableFallsBackToHash(t *testing.T) {
	s := NewSampler(1)
	d := len(haltonBases) + 5
	v := s.Get(d, 3)
	if v < 0 || v >= 1 {
		t.Fatalf("hashed fallback out of [0,1): %v", v)
	}
	if want := hashedFloat(uint64(d), 3, 1); v != want {
		t.Fatalf("Get(%d,3) = %v, want hashed value %v", d, v, want)
	}
}

func TestAdvanceMissAddsBackgroundOverClosurePDF(t *testing.T) {
	p := &LightPath{
		Attenuation:      spectral.White,
		ClosureSamplePDF: 1,
	}
	world := &scene.World{Background: spectral.Uniform(0.5)}
	ray := vmath.NewRay(vmath.New(0, 0, 0), vmath.New(0, 0, 1), 0, 550, false)

	next, hasNext := Advance(p, ray, tracer.Intersection{State: tracer.Miss}, world, NewSampler(1))
	if hasNext {
		t.Fatalf("a miss should terminate the path")
	}
	_ = next
	if !p.Done {
		t.Fatalf("path should be marked done after a miss")
	}
	want := spectral.Uniform(0.5)
	if p.Color != want {
		t.Fatalf("color = %v, want %v", p.Color, want)
	}
}

func TestAdvanceCameraHitOnEmissiveAddsRawColor(t *testing.T) {
	p := &LightPath{Attenuation: spectral.White, ClosureSamplePDF: 1, Event: EventCameraRay}
	world := &scene.World{Background: spectral.Black}
	ray := vmath.NewRay(vmath.New(0, 0, 0), vmath.New(0, 0, 1), 0, 550, false)

	isect := tracer.Intersection{
		State:   tracer.Hit,
		Closure: shading.Emission{Color: spectral.Uniform(2)},
	}
	_, hasNext := Advance(p, ray, isect, world, NewSampler(1))
	if hasNext {
		t.Fatalf("hitting an emitter should terminate the path")
	}
	if p.Color != spectral.Uniform(2) {
		t.Fatalf("color = %v, want raw emitted color", p.Color)
	}
}
