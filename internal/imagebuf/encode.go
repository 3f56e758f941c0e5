package imagebuf

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/duskforge/spectra/internal/spectral"
)

// ColorspaceFn maps a linear XYZ pixel to display-referred sRGB in [0,1],
// e.g. XYZToSRGB below. spec.md §6 leaves the colorspace pipeline as a
// pluggable function rather than baking one transform in.
type ColorspaceFn func(spectral.XYZ) (r, g, b float64)

// XYZToSRGB is the standard linear-XYZ-to-linear-sRGB matrix followed by
// the sRGB OETF gamma curve.
func XYZToSRGB(c spectral.XYZ) (r, g, b float64) {
	rl := 3.2406*c.X - 1.5372*c.Y - 0.4986*c.Z
	gl := -0.9689*c.X + 1.8758*c.Y + 0.0415*c.Z
	bl := 0.0557*c.X - 0.2040*c.Y + 1.0570*c.Z
	return gammaEncode(rl), gammaEncode(gl), gammaEncode(bl)
}

func gammaEncode(v float64) float64 {
	if v <= 0 {
		return 0
	}
	if v <= 0.0031308 {
		return 12.92 * v
	}
	out := 1.055*math.Pow(v, 1.0/2.4) - 0.055
	if out > 1 {
		return 1
	}
	return out
}

func toUint8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// RGBABase64 returns the bucket [x0,y0,x1,y1) encoded as base64 RGBA
// bytes, one pixel per 4 bytes, row-major — the payload of the
// "--serialized_output" blender-output protocol (SPEC_FULL.md §4).
func (l *Lease) RGBABase64(cs ColorspaceFn) string {
	w := l.x1 - l.x0
	h := l.y1 - l.y0
	buf := make([]byte, 0, w*h*4)
	for y := l.y0; y < l.y1; y++ {
		for x := l.x0; x < l.x1; x++ {
			r, g, b := cs(l.Get(x, y))
			buf = append(buf, toUint8(r), toUint8(g), toUint8(b), 255)
		}
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// WritePNG encodes the whole image as 8-bit sRGB PNG to w.
func (img *Image) WritePNG(w io.Writer, cs ColorspaceFn) error {
	out := image.NewRGBA(image.Rect(0, 0, img.W, img.H))
	for y := 0; y < img.H; y++ {
		for x := 0; x < img.W; x++ {
			r, g, b := cs(img.pixels[y*img.W+x])
			out.SetRGBA(x, y, color.RGBA{R: toUint8(r), G: toUint8(g), B: toUint8(b), A: 255})
		}
	}
	return png.Encode(w, out)
}

// WriteEXR writes a minimal, uncompressed scanline float32 RGB OpenEXR
// file: just enough to round-trip the renderer's linear output, not a
// general EXR encoder (full EXR support is out of scope; no EXR library
// exists anywhere in the retrieved corpus to depend on instead).
func (img *Image) WriteEXR(w io.Writer) error {
	var buf bytes.Buffer
	buf.Write([]byte{0x76, 0x2f, 0x31, 0x01}) // EXR magic
	buf.Write([]byte{2, 0, 0, 0})             // version 2, no special flags

	writeAttr(&buf, "channels", "chlist", channelListBytes())
	writeAttr(&buf, "compression", "compression", []byte{0}) // NO_COMPRESSION
	writeAttr(&buf, "dataWindow", "box2i", box2i(img.W, img.H))
	writeAttr(&buf, "displayWindow", "box2i", box2i(img.W, img.H))
	writeAttr(&buf, "lineOrder", "lineOrder", []byte{0})
	writeAttr(&buf, "pixelAspectRatio", "float", f32bytes(1))
	writeAttr(&buf, "screenWindowCenter", "v2f", append(f32bytes(0), f32bytes(0)...))
	writeAttr(&buf, "screenWindowWidth", "float", f32bytes(1))
	buf.WriteByte(0) // end of header

	rowBytes := img.W * 3 * 4
	offsetTableStart := buf.Len() + img.H*8
	for y := 0; y < img.H; y++ {
		writeU64(&buf, uint64(offsetTableStart+y*(8+rowBytes)))
	}
	for y := 0; y < img.H; y++ {
		writeU32(&buf, uint32(y))
		writeU32(&buf, uint32(rowBytes))
		for _, ch := range []int{2, 1, 0} { // B, G, R channel order (alphabetical)
			for x := 0; x < img.W; x++ {
				c := img.pixels[y*img.W+x]
				var v float64
				switch ch {
				case 0:
					v = c.X
				case 1:
					v = c.Y
				case 2:
					v = c.Z
				}
				buf.Write(f32bytes(float32(v)))
			}
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func writeAttr(buf *bytes.Buffer, name, typ string, value []byte) {
	buf.WriteString(name)
	buf.WriteByte(0)
	buf.WriteString(typ)
	buf.WriteByte(0)
	writeU32(buf, uint32(len(value)))
	buf.Write(value)
}

func channelListBytes() []byte {
	var b bytes.Buffer
	for _, name := range []string{"B", "G", "R"} {
		b.WriteString(name)
		b.WriteByte(0)
		writeU32(&b, 2) // pixel type FLOAT
		b.Write([]byte{0, 0, 0, 0})
		writeU32(&b, 1)
		writeU32(&b, 1)
	}
	b.WriteByte(0)
	return b.Bytes()
}

func box2i(w, h int) []byte {
	var b bytes.Buffer
	writeU32(&b, 0)
	writeU32(&b, 0)
	writeU32(&b, uint32(w-1))
	writeU32(&b, uint32(h-1))
	return b.Bytes()
}

func writeU32(buf *bytes.Buffer, v uint32) {
	buf.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

func writeU64(buf *bytes.Buffer, v uint64) {
	for i := 0; i < 8; i++ {
		buf.WriteByte(byte(v >> (8 * i)))
	}
}

func f32bytes(v float32) []byte {
	bits := math.Float32bits(v)
	return []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
}
