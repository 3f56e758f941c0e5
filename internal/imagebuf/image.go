// Package imagebuf implements the shared output image: bucket-leased
// pixel access synchronized the way spec.md §5/§6 specifies, plus the
// PNG/EXR encoders (full EXR support is out of scope; see WriteEXR in
// encode.go).
package imagebuf

import (
	"sync"

	"github.com/duskforge/spectra/internal/spectral"
)

// Image is the renderer's shared output buffer. Pixel storage is a flat
// XYZ array; writes are serialized by region through Lease so disjoint
// buckets can be written from different goroutines without racing.
type Image struct {
	W, H int

	mu     sync.Mutex
	cond   *sync.Cond
	active []region // currently leased regions, for overlap detection
	pixels []spectral.XYZ
}

type region struct{ x0, y0, x1, y1 int }

func (r region) overlaps(o region) bool {
	return r.x0 < o.x1 && o.x0 < r.x1 && r.y0 < o.y1 && o.y0 < r.y1
}

// New allocates a black W*H image.
func New(w, h int) *Image {
	img := &Image{W: w, H: h, pixels: make([]spectral.XYZ, w*h)}
	img.cond = sync.NewCond(&img.mu)
	return img
}

// Lease is a handle on one rectangular image region, obtained via
// GetBucket. It is released by calling Close, after which its Get/Set
// calls must not be used.
type Lease struct {
	img            *Image
	x0, y0, x1, y1 int
}

// GetBucket acquires a lease on [min,max) (min inclusive, max exclusive),
// blocking until any overlapping lease already held is released. Disjoint
// leases never block each other.
func (img *Image) GetBucket(x0, y0, x1, y1 int) *Lease {
	r := region{x0, y0, x1, y1}
	img.mu.Lock()
	for img.overlapsActive(r) {
		img.cond.Wait()
	}
	img.active = append(img.active, r)
	img.mu.Unlock()
	return &Lease{img: img, x0: x0, y0: y0, x1: x1, y1: y1}
}

func (img *Image) overlapsActive(r region) bool {
	for _, a := range img.active {
		if a.overlaps(r) {
			return true
		}
	}
	return false
}

// Close releases the lease, allowing overlapping regions to proceed.
func (l *Lease) Close() {
	img := l.img
	img.mu.Lock()
	defer img.mu.Unlock()
	target := region{l.x0, l.y0, l.x1, l.y1}
	for i, a := range img.active {
		if a == target {
			img.active = append(img.active[:i], img.active[i+1:]...)
			break
		}
	}
	img.cond.Broadcast()
}

// Get returns the pixel at (x,y), which must lie within the lease.
func (l *Lease) Get(x, y int) spectral.XYZ {
	return l.img.pixels[y*l.img.W+x]
}

// Set writes the pixel at (x,y), which must lie within the lease.
func (l *Lease) Set(x, y int, v spectral.XYZ) {
	l.img.pixels[y*l.img.W+x] = v
}

// Add accumulates v into the pixel at (x,y); the render orchestrator uses
// this for per-sample contributions (spec.md §4.5 step 3).
func (l *Lease) Add(x, y int, v spectral.XYZ) {
	idx := y*l.img.W + x
	l.img.pixels[idx] = l.img.pixels[idx].Add(v)
}
