// Package render implements the bucket-parallel worker pool that drives
// samples through the tracer/integrator pipeline and accumulates them
// into the shared image in Hilbert-curve order (spec.md §4.5, §5).
package render

import (
	"runtime"

	"github.com/duskforge/spectra/internal/integrator"
)

// Config collects every renderer tunable into one struct, mirroring the
// teacher's EngineConfig pattern (mirstar13-3d-graphics/main.go) of
// gathering CLI-derived settings into a single value passed down through
// construction rather than threading individual flags.
type Config struct {
	Width, Height int
	CropX0, CropY0, CropX1, CropY1 int

	SPP                 int
	MaxSamplesPerBucket int // "--spb", default 4096
	Threads             int
	Seed                uint64
	MaxBounces          int

	Dev              bool // forces spp=1, single-threaded (spec.md SPEC_FULL.md §4)
	SerializedOutput bool // emit base64 RGBA per bucket instead of a progress bar
}

// DefaultConfig returns a Config with the original implementation's
// defaults: spb=4096, one thread per logical CPU, MaxBounces from
// integrator.MaxBounces.
func DefaultConfig(width, height int) Config {
	return Config{
		Width: width, Height: height,
		CropX0: 0, CropY0: 0, CropX1: width, CropY1: height,
		SPP:                 1,
		MaxSamplesPerBucket: 4096,
		Threads:             runtime.NumCPU(),
		MaxBounces:          integrator.MaxBounces,
	}
}

// Normalize applies --dev overrides (spp=1, 1 thread) and clamps the crop
// rectangle into the image bounds.
func (c *Config) Normalize() {
	if c.Dev {
		c.SPP = 1
		c.Threads = 1
	}
	if c.Threads < 1 {
		c.Threads = 1
	}
	if c.CropX0 < 0 {
		c.CropX0 = 0
	}
	if c.CropY0 < 0 {
		c.CropY0 = 0
	}
	if c.CropX1 > c.Width {
		c.CropX1 = c.Width
	}
	if c.CropY1 > c.Height {
		c.CropY1 = c.Height
	}
}
