package imagebuf

import (
	"bytes"
	"testing"

	"github.com/duskforge/spectra/internal/spectral"
)

func TestLeaseAddAccumulates(t *testing.T) {
	img := New(4, 4)
	l := img.GetBucket(0, 0, 4, 4)
	l.Add(1, 1, spectral.XYZ{X: 1, Y: 1, Z: 1})
	l.Add(1, 1, spectral.XYZ{X: 1, Y: 1, Z: 1})
	l.Close()

	l2 := img.GetBucket(1, 1, 2, 2)
	got := l2.Get(1, 1)
	l2.Close()
	if got.X != 2 || got.Y != 2 || got.Z != 2 {
		t.Fatalf("accumulated pixel = %v, want (2,2,2)", got)
	}
}

func TestDisjointLeasesDoNotBlockEachOther(t *testing.T) {
	img := New(4, 4)
	left := img.GetBucket(0, 0, 2, 4)
	right := img.GetBucket(2, 0, 4, 4) // disjoint; must not deadlock
	left.Close()
	right.Close()
}

func TestWritePNGProducesNonEmptyOutput(t *testing.T) {
	img := New(2, 2)
	var buf bytes.Buffer
	if err := img.WritePNG(&buf, XYZToSRGB); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected non-empty PNG output")
	}
}

func TestRGBABase64EncodesExpectedByteCount(t *testing.T) {
	img := New(4, 4)
	l := img.GetBucket(0, 0, 2, 2)
	s := l.RGBABase64(XYZToSRGB)
	l.Close()
	// 2x2 pixels x 4 bytes = 16 bytes, which base64 encodes to 24 characters.
	if len(s) != 24 {
		t.Fatalf("base64 payload length = %d, want 24", len(s))
	}
}
