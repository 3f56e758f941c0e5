package render

import "math"

// Bucket is a rectangular tile of the output image, assigned atomically
// to one worker (spec.md §4.5/GLOSSARY).
type Bucket struct {
	X0, Y0, X1, Y1 int // half-open
}

// ComputeBucketSize picks a square bucket side so that side*side*spp is
// approximately maxSamplesPerBucket, floored at 1 (spec.md §4.5).
func ComputeBucketSize(spp, maxSamplesPerBucket int) int {
	if spp < 1 {
		spp = 1
	}
	side := int(math.Sqrt(float64(maxSamplesPerBucket) / float64(spp)))
	if side < 1 {
		side = 1
	}
	return side
}

// GenerateBuckets tiles the crop rectangle [x0,y0,x1,y1) into
// bucketSize x bucketSize cells and returns them ordered along a
// Hilbert curve over the smallest power-of-two square covering the tile
// grid; cells the crop doesn't touch are skipped (spec.md §4.5).
func GenerateBuckets(x0, y0, x1, y1, bucketSize int) []Bucket {
	if bucketSize < 1 {
		bucketSize = 1
	}
	gridW := ceilDiv(x1-x0, bucketSize)
	gridH := ceilDiv(y1-y0, bucketSize)
	if gridW <= 0 || gridH <= 0 {
		return nil
	}

	order := hilbertOrderFor(gridW, gridH)
	n := uint64(1) << (2 * order)

	buckets := make([]Bucket, 0, gridW*gridH)
	for d := uint64(0); d < n; d++ {
		gx, gy := hilbertD2XY(order, d)
		if int(gx) >= gridW || int(gy) >= gridH {
			continue
		}
		bx0 := x0 + int(gx)*bucketSize
		by0 := y0 + int(gy)*bucketSize
		bx1 := bx0 + bucketSize
		by1 := by0 + bucketSize
		if bx1 > x1 {
			bx1 = x1
		}
		if by1 > y1 {
			by1 = y1
		}
		buckets = append(buckets, Bucket{X0: bx0, Y0: by0, X1: bx1, Y1: by1})
	}
	return buckets
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
