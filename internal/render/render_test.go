package render

import "testing"

func TestBucketSizeSanity(t *testing.T) {
	side := ComputeBucketSize(1, 64)
	if side != 8 {
		t.Fatalf("ComputeBucketSize(spp=1, spb=64) = %d, want 8", side)
	}
}

func TestGenerateBucketsCoversEveryPixelExactlyOnce(t *testing.T) {
	buckets := GenerateBuckets(0, 0, 17, 13, 4)
	covered := make(map[[2]int]int)
	for _, b := range buckets {
		for y := b.Y0; y < b.Y1; y++ {
			for x := b.X0; x < b.X1; x++ {
				covered[[2]int{x, y}]++
			}
		}
	}
	for y := 0; y < 13; y++ {
		for x := 0; x < 17; x++ {
			if covered[[2]int{x, y}] != 1 {
				t.Fatalf("pixel (%d,%d) covered %d times, want exactly 1", x, y, covered[[2]int{x, y}])
			}
		}
	}
}

func TestHilbertOrderIsStableAcrossRuns(t *testing.T) {
	a := GenerateBuckets(0, 0, 16, 16, 4)
	b := GenerateBuckets(0, 0, 16, 16, 4)
	if len(a) != len(b) {
		t.Fatalf("bucket count differs between runs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("bucket order differs at %d: %v vs %v", i, a[i], b[i])
		}
	}
}
