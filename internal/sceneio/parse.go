// Package sceneio implements the external scene-description reader
// (spec.md §6's parser -> renderer handoff). The full scene-description
// grammar is out of scope (spec.md §1); this is a minimal, JSON-based
// stand-in sufficient to drive the core end to end and to report
// ParseErrors the way spec.md §7 specifies.
package sceneio

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/duskforge/spectra/internal/render"
	"github.com/duskforge/spectra/internal/scene"
	"github.com/duskforge/spectra/internal/shading"
	"github.com/duskforge/spectra/internal/spectral"
	"github.com/duskforge/spectra/internal/vmath"
)

// ErrorKind tags the category of a scene parse failure (spec.md §7).
type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	ErrMissingNode
	ErrMalformedJSON
	ErrBadReference
)

// ParseError is the input-error type spec.md §7 describes: a byte
// offset mapped to line/column, a kind, and a message.
type ParseError struct {
	ByteOffset  int
	Line, Column int
	Kind        ErrorKind
	Message     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("scene parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

func newParseError(src string, offset int, kind ErrorKind, message string) *ParseError {
	line, col := 1, 1
	for i, r := range src {
		if i >= offset {
			break
		}
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &ParseError{ByteOffset: offset, Line: line, Column: col, Kind: kind, Message: message}
}

// Renderer is the parser's output handed to the render orchestrator:
// output file name, resolution, spp, seed and the built scene (spec.md
// §6).
type Renderer struct {
	OutputFile string
	Width, Height int
	SPP        int
	Seed       uint64

	Root   *scene.Assembly
	World  *scene.World
	Camera render.Camera
}

type sceneDoc struct {
	OutputFile string  `json:"output_file"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	SPP        int     `json:"spp"`
	Seed       uint64  `json:"seed"`
	Background [3]float64 `json:"background"`

	Camera struct {
		Eye    [3]float64 `json:"eye"`
		Target [3]float64 `json:"target"`
		Up     [3]float64 `json:"up"`
		FOV    float64    `json:"fov"`
	} `json:"camera"`

	Shaders []shaderDoc `json:"shaders"`

	Spheres []sphereDoc `json:"spheres"`
	Lights  []lightDoc  `json:"lights"`
}

type shaderDoc struct {
	Kind     string     `json:"kind"` // "lambert" | "emission"
	Color    [3]float64 `json:"color"`
}

type sphereDoc struct {
	Center    [3]float64 `json:"center"`
	Radius    float64    `json:"radius"`
	ShaderIdx int        `json:"shader"`
}

type lightDoc struct {
	Kind      string     `json:"kind"` // "point" | "sphere" | "distant"
	Position  [3]float64 `json:"position"`
	Direction [3]float64 `json:"direction"`
	Radius    float64    `json:"radius"`
	Intensity [3]float64 `json:"intensity"`
}

// Parse reads a scene description from r and builds a Renderer ready to
// hand to render.RenderImage. It returns a *ParseError for malformed or
// structurally invalid input.
func Parse(r io.Reader) (*Renderer, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	src := string(raw)

	var doc sceneDoc
	dec := json.NewDecoder(strings.NewReader(src))
	if err := dec.Decode(&doc); err != nil {
		offset := 0
		if se, ok := err.(*json.SyntaxError); ok {
			offset = int(se.Offset)
		}
		return nil, newParseError(src, offset, ErrMalformedJSON, err.Error())
	}

	if doc.Width <= 0 || doc.Height <= 0 {
		return nil, newParseError(src, 0, ErrMissingNode, "width/height must be positive")
	}

	shaders := make([]shading.Closure, len(doc.Shaders))
	for i, s := range doc.Shaders {
		c := toSpectrum(s.Color)
		switch s.Kind {
		case "emission":
			shaders[i] = shading.Emission{Color: c}
		default:
			shaders[i] = shading.Lambert{Albedo: c}
		}
	}

	objects := make([]scene.Object, len(doc.Spheres))
	instances := make([]scene.Instance, len(doc.Spheres))
	for i, s := range doc.Spheres {
		if s.ShaderIdx >= len(shaders) {
			return nil, newParseError(src, 0, ErrBadReference, fmt.Sprintf("sphere %d references unknown shader %d", i, s.ShaderIdx))
		}
		objects[i] = scene.Object{
			Geometry:   scene.Sphere{Center: toVec(s.Center), Radius: s.Radius},
			DefaultIdx: s.ShaderIdx,
		}
		instances[i] = scene.Instance{Kind: scene.InstanceObject, DataIndex: i, ShaderIdx: -1}
	}

	root := &scene.Assembly{Objects: objects, Shaders: shaders, Instances: instances}
	root.Build(4)

	lights := make([]scene.Light, 0, len(doc.Lights))
	for _, l := range doc.Lights {
		switch l.Kind {
		case "point":
			lights = append(lights, scene.PointLight{Position: toVec(l.Position), Intensity: toSpectrum(l.Intensity)})
		case "sphere":
			lights = append(lights, scene.SphereLight{Center: toVec(l.Position), Radius: l.Radius, Intensity: toSpectrum(l.Intensity)})
		case "distant":
			lights = append(lights, scene.DistantLight{Direction: toVec(l.Direction), Color: toSpectrum(l.Intensity)})
		}
	}

	cam := render.NewCamera(toVec(doc.Camera.Eye), toVec(doc.Camera.Target), toVec(doc.Camera.Up), fovOrDefault(doc.Camera.FOV), float64(doc.Width)/float64(doc.Height))

	return &Renderer{
		OutputFile: doc.OutputFile,
		Width:      doc.Width,
		Height:     doc.Height,
		SPP:        sppOrDefault(doc.SPP),
		Seed:       doc.Seed,
		Root:       root,
		World:      &scene.World{Lights: lights, Background: toSpectrum(doc.Background)},
		Camera:     cam,
	}, nil
}

func toVec(v [3]float64) vmath.Vec3 { return vmath.New(v[0], v[1], v[2]) }

func toSpectrum(v [3]float64) spectral.Spectrum { return spectral.Spectrum{v[0], v[1], v[2], 0} }

func fovOrDefault(fov float64) float64 {
	if fov <= 0 {
		return 45
	}
	return fov
}

func sppOrDefault(spp int) int {
	if spp <= 0 {
		return 1
	}
	return spp
}
