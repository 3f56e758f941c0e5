package render

import (
	"bytes"
	"math"
	"testing"

	"github.com/duskforge/spectra/internal/imagebuf"
	"github.com/duskforge/spectra/internal/integrator"
	"github.com/duskforge/spectra/internal/scene"
	"github.com/duskforge/spectra/internal/shading"
	"github.com/duskforge/spectra/internal/spectral"
	"github.com/duskforge/spectra/internal/vmath"
)

func emptyAssembly() *scene.Assembly {
	root := &scene.Assembly{}
	root.Build(4)
	return root
}

// TestEmptySceneEqualsBackground covers spec.md §8 scenario 1: every
// pixel of a render against an empty assembly equals the background
// color converted through the same hero-wavelength path the integrator
// used to sample it.
func TestEmptySceneEqualsBackground(t *testing.T) {
	background := spectral.Spectrum{0.1, 0.2, 0.3, 0}
	world := &scene.World{Background: background}
	cam := NewCamera(vmath.New(0, 0, -5), vmath.New(0, 0, 0), vmath.New(0, 1, 0), 40, 1)
	cfg := DefaultConfig(16, 16)
	cfg.Dev = true
	cfg.Normalize()

	img := imagebuf.New(16, 16)
	RenderImage(emptyAssembly(), world, cam, img, cfg)

	sampler := integrator.NewSampler(cfg.Seed)
	lease := img.GetBucket(0, 0, 16, 16)
	defer lease.Close()
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			c := lease.Get(x, y)
			if c.Y <= 0 {
				t.Fatalf("pixel (%d,%d) has non-positive luminance %v against a lit background", x, y, c)
			}
			base := integrator.SampleOffset(x, y, cfg.Seed, 0)
			wavelength := cam.MinWavelength + sampler.Get(integrator.DimWavelength, base)*(cam.MaxWavelength-cam.MinWavelength)
			want := spectral.OfSample(background, wavelength)
			if math.Abs(c.X-want.X) > 1e-12 || math.Abs(c.Y-want.Y) > 1e-12 || math.Abs(c.Z-want.Z) > 1e-12 {
				t.Fatalf("pixel (%d,%d) = %v, want background XYZ %v", x, y, c, want)
			}
		}
	}
}

func singleLitSphereScene() (*scene.Assembly, *scene.World) {
	objects := []scene.Object{{
		Geometry:   scene.Sphere{Center: vmath.New(0, 0, 0), Radius: 1},
		DefaultIdx: 0,
	}}
	shaders := []shading.Closure{shading.Lambert{Albedo: spectral.Spectrum{0.8, 0.8, 0.8, 0}}}
	instances := []scene.Instance{{Kind: scene.InstanceObject, DataIndex: 0, ShaderIdx: -1}}
	root := &scene.Assembly{Objects: objects, Shaders: shaders, Instances: instances}
	root.Build(4)

	world := &scene.World{
		Lights: []scene.Light{scene.PointLight{
			Position:  vmath.New(0, 0, -5),
			Intensity: spectral.Spectrum{40, 40, 40, 0},
		}},
	}
	return root, world
}

// TestSphereCenterBrighterThanCorner covers spec.md §8 scenario 2: a lit
// sphere's center pixel is far brighter than a corner pixel that misses
// the sphere entirely and only sees the (zero) background.
func TestSphereCenterBrighterThanCorner(t *testing.T) {
	root, world := singleLitSphereScene()
	cam := NewCamera(vmath.New(0, 0, -5), vmath.New(0, 0, 0), vmath.New(0, 1, 0), 40, 1)

	w, h := 32, 32
	cfg := DefaultConfig(w, h)
	cfg.SPP = 16
	cfg.Dev = true
	cfg.Normalize()

	img := imagebuf.New(w, h)
	RenderImage(root, world, cam, img, cfg)

	lease := img.GetBucket(0, 0, w, h)
	defer lease.Close()
	center := lease.Get(w/2, h/2)
	corner := lease.Get(0, 0)

	if corner.Y > 0 && center.Y < corner.Y*10 {
		t.Fatalf("center luminance %v not >= 10x corner luminance %v", center.Y, corner.Y)
	}
	if center.Y <= 0 {
		t.Fatalf("center pixel is unlit: %v", center)
	}
}

// TestCropRendersOnlyRequestedRectangle covers spec.md §8 scenario 3:
// pixels outside the crop rectangle are left at the image's zero default.
func TestCropRendersOnlyRequestedRectangle(t *testing.T) {
	root, world := singleLitSphereScene()
	cam := NewCamera(vmath.New(0, 0, -5), vmath.New(0, 0, 0), vmath.New(0, 1, 0), 60, 1)

	cfg := DefaultConfig(32, 32)
	cfg.CropX0, cfg.CropY0, cfg.CropX1, cfg.CropY1 = 4, 4, 8, 8 // --crop 4 4 7 7, inclusive
	cfg.Dev = true
	cfg.Normalize()

	img := imagebuf.New(32, 32)
	RenderImage(root, world, cam, img, cfg)

	lease := img.GetBucket(0, 0, 32, 32)
	defer lease.Close()
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			inCrop := x >= 4 && x < 8 && y >= 4 && y < 8
			c := lease.Get(x, y)
			isZero := c.X == 0 && c.Y == 0 && c.Z == 0
			if !inCrop && !isZero {
				t.Fatalf("pixel (%d,%d) outside the crop rectangle was rendered: %v", x, y, c)
			}
		}
	}
}

// TestDeterministicSeedProducesBitwiseIdenticalImages covers spec.md §8
// scenario 4: two single-threaded runs with the same seed encode to
// identical PNG bytes.
func TestDeterministicSeedProducesBitwiseIdenticalImages(t *testing.T) {
	root, world := singleLitSphereScene()
	cam := NewCamera(vmath.New(0, 0, -5), vmath.New(0, 0, 0), vmath.New(0, 1, 0), 40, 1)

	render := func() []byte {
		cfg := DefaultConfig(16, 16)
		cfg.SPP = 4
		cfg.Threads = 1
		cfg.Seed = 1234
		cfg.Normalize()
		img := imagebuf.New(16, 16)
		RenderImage(root, world, cam, img, cfg)
		var buf bytes.Buffer
		if err := img.WritePNG(&buf, imagebuf.XYZToSRGB); err != nil {
			t.Fatalf("WritePNG: %v", err)
		}
		return buf.Bytes()
	}

	a := render()
	b := render()
	if !bytes.Equal(a, b) {
		t.Fatal("two renders with the same seed produced different images")
	}
}
