package sceneio

import (
	"strings"
	"testing"
)

const minimalScene = `{
  "output_file": "out.png",
  "width": 16, "height": 16, "spp": 1, "seed": 1,
  "background": [0.1, 0.2, 0.3],
  "camera": {"eye": [0,0,-5], "target": [0,0,0], "up": [0,1,0], "fov": 40},
  "shaders": [{"kind": "lambert", "color": [0.8,0.8,0.8]}],
  "spheres": [{"center": [0,0,0], "radius": 1, "shader": 0}],
  "lights": [{"kind": "point", "position": [0,0,-5], "intensity": [10,10,10]}]
}`

func TestParseMinimalScene(t *testing.T) {
	r, err := Parse(strings.NewReader(minimalScene))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Width != 16 || r.Height != 16 {
		t.Fatalf("resolution = %dx%d, want 16x16", r.Width, r.Height)
	}
	if r.Root.ObjectAccel == nil || r.Root.ObjectAccel.Empty() {
		t.Fatalf("expected a built object_accel over the one sphere")
	}
	if len(r.World.Lights) != 1 {
		t.Fatalf("expected 1 light, got %d", len(r.World.Lights))
	}
}

func TestParseMalformedJSONReturnsParseError(t *testing.T) {
	_, err := Parse(strings.NewReader("{ not json"))
	if err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("expected a *ParseError, got %T", err)
	}
}

func TestParseMissingDimensionsReturnsParseError(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"output_file":"x.png"}`))
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T (%v)", err, err)
	}
	if pe.Kind != ErrMissingNode {
		t.Fatalf("expected ErrMissingNode, got %v", pe.Kind)
	}
}

func TestParseBadShaderReferenceReturnsParseError(t *testing.T) {
	bad := `{"width":4,"height":4,"spheres":[{"center":[0,0,0],"radius":1,"shader":9}]}`
	_, err := Parse(strings.NewReader(bad))
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Kind != ErrBadReference {
		t.Fatalf("expected ErrBadReference, got %v", pe.Kind)
	}
}
