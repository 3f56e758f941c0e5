package tracer

import (
	"math"
	"testing"

	"github.com/duskforge/spectra/internal/scene"
	"github.com/duskforge/spectra/internal/shading"
	"github.com/duskforge/spectra/internal/spectral"
	"github.com/duskforge/spectra/internal/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

func singleSphereAssembly() *scene.Assembly {
	a := &scene.Assembly{
		Objects: []scene.Object{{
			Geometry:   scene.Sphere{Center: vmath.New(0, 0, 0), Radius: 1},
			DefaultIdx: 0,
		}},
		Shaders: []shading.Closure{shading.Lambert{Albedo: spectral.Uniform(0.8)}},
		Instances: []scene.Instance{{
			Kind:        scene.InstanceObject,
			DataIndex:   0,
			ShaderIdx:   -1,
			TransformLo: 0,
			TransformHi: 0,
		}},
	}
	a.Build(4)
	return a
}

func TestTraceHitsSphereAlongAxis(t *testing.T) {
	a := singleSphereAssembly()
	dir := vmath.New(0, 0, 1)
	ray := vmath.NewRay(vmath.New(0, 0, -10), dir, 0, 550, false)

	out := Trace(a, []vmath.Ray{ray})
	if out[0].State != Hit {
		t.Fatalf("expected a hit through the sphere's center")
	}
	if out[0].T <= 0 {
		t.Fatalf("hit distance should be positive, got %v", out[0].T)
	}
}

func TestTraceMissesWhenRayPassesOutsideSphere(t *testing.T) {
	a := singleSphereAssembly()
	dir := vmath.New(0, 0, 1)
	ray := vmath.NewRay(vmath.New(10, 10, -10), dir, 0, 550, false)

	out := Trace(a, []vmath.Ray{ray})
	if out[0].State != Miss {
		t.Fatalf("expected a miss for a ray well outside the sphere")
	}
}

// nestedAssemblyScene wraps singleSphereAssembly as a child instanced once
// by a parent assembly under a static translation, exercising the
// InstanceAssembly transform push/pop path.
func nestedAssemblyScene(offset vmath.Vector) *scene.Assembly {
	child := singleSphereAssembly()
	xform := vmath.NewTransform(mgl64.Translate3D(offset[0], offset[1], offset[2]))

	parent := &scene.Assembly{
		Assemblies: []*scene.Assembly{child},
		Transforms: []vmath.Transform{xform},
		Instances: []scene.Instance{{
			Kind:        scene.InstanceAssembly,
			DataIndex:   0,
			ShaderIdx:   -1,
			TransformLo: 0,
			TransformHi: 1,
		}},
	}
	parent.Build(4)
	return parent
}

// TestTraceNestedAssemblyAppliesInstanceTransform covers spec.md §4.3's
// transform push/pop: a batch of rays recursing into the same translated
// nested assembly instance together must each resolve against the child's
// geometry in the parent's translated frame, with hit positions/normals
// carried back out in world space.
func TestTraceNestedAssemblyAppliesInstanceTransform(t *testing.T) {
	parent := nestedAssemblyScene(vmath.New(5, 0, 0))

	hitRay := vmath.NewRay(vmath.New(5, 0, -10), vmath.New(0, 0, 1), 0, 550, false)
	missRay := vmath.NewRay(vmath.New(0, 0, -10), vmath.New(0, 0, 1), 0, 550, false)
	hitRay2 := vmath.NewRay(vmath.New(5.5, 0, -10), vmath.New(0, 0, 1), 0, 550, false)

	out := Trace(parent, []vmath.Ray{hitRay, missRay, hitRay2})

	if out[0].State != Hit {
		t.Fatalf("expected a hit on the translated nested sphere")
	}
	if math.Abs(out[0].Position[0]-5) > 1e-6 {
		t.Fatalf("hit position not transformed back into world space: %v", out[0].Position)
	}
	if math.Abs(out[0].Ns[2]) < 0.9 {
		t.Fatalf("hit normal not transformed into world space: %v", out[0].Ns)
	}

	if out[1].State != Miss {
		t.Fatalf("expected a miss at the sphere's untransformed local origin")
	}

	if out[2].State != Hit {
		t.Fatalf("expected a second ray sharing the same nested instance to also hit")
	}
}

func TestTraceEmptyAssemblyAlwaysMisses(t *testing.T) {
	a := &scene.Assembly{}
	a.Build(4)
	ray := vmath.NewRay(vmath.New(0, 0, -10), vmath.New(0, 0, 1), 0, 550, false)
	out := Trace(a, []vmath.Ray{ray})
	if out[0].State != Miss {
		t.Fatalf("expected a miss against an empty assembly")
	}
}
