// Package integrator implements the LightPath state machine that drives
// a unidirectional, multiple-importance-sampled path per sample (spec.md
// §4.4), and the low-discrepancy sample generator it consumes from.
package integrator

// haltonBases are the first N prime bases used for the per-dimension
// Halton sequence; beyond this many dimensions Sampler.Get falls back to
// a hashed pseudo-random value (spec.md §4.4).
var haltonBases = [...]int{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29,
	31, 37, 41, 43, 47, 53, 59, 61, 67, 71,
	73, 79, 83, 89, 97, 101, 103, 107, 109, 113,
}

// Sampler produces deterministic low-discrepancy coordinates: Get(d, i)
// is a pure function of (d, i) plus the sampler's fixed seed, matching
// the "LDS determinism" law of spec.md §8.
type Sampler struct {
	seed uint64
}

// NewSampler builds a sampler scrambled by seed.
func NewSampler(seed uint64) Sampler {
	return Sampler{seed: seed}
}

// Get returns the sample coordinate for dimension d, index i, in [0,1).
func (s Sampler) Get(d int, i uint64) float64 {
	if d >= 0 && d < len(haltonBases) {
		return scrambledRadicalInverse(haltonBases[d], i, uint32(s.seed)+uint32(d)*2654435761)
	}
	return hashedFloat(uint64(d), i, s.seed)
}

// scrambledRadicalInverse computes the radical inverse of i in the given
// base, permuting each digit by a seed-derived scramble so different
// seeds decorrelate streams that would otherwise share the same
// low-discrepancy lattice.
func scrambledRadicalInverse(base int, i uint64, scramble uint32) float64 {
	invBase := 1.0 / float64(base)
	result := 0.0
	frac := invBase
	b := uint64(base)
	for i > 0 {
		digit := i % b
		digit = (digit + uint64(scramble)) % b
		result += float64(digit) * frac
		frac *= invBase
		i /= b
		scramble = scramble/uint32(base) + 1
	}
	return result
}

// hashedFloat returns a deterministic pseudo-random value in [0,1),
// derived from a 64-bit mix of (dim, index, seed); used past the fixed
// Halton dimension table.
func hashedFloat(dim, index, seed uint64) float64 {
	h := splitmix64(dim ^ splitmix64(index^splitmix64(seed)))
	return float64(h>>11) * (1.0 / (1 << 53))
}

func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

// SampleOffset derives the per-pixel LDS stream offset spec.md §4.4
// specifies: hash((x<<16) XOR y, global_seed) + sample_index.
func SampleOffset(x, y int, globalSeed uint64, sampleIndex uint64) uint64 {
	key := uint64(x)<<16 ^ uint64(y)
	return splitmix64(key^globalSeed) + sampleIndex
}

// Dimension indices, allocated from 0 upward exactly as spec.md §4.4
// lists them: camera lens (2), time (1), wavelength (1), image-plane
// filter (2), then per-bounce: light selection (1), light sample (3),
// BSDF sample (2).
const (
	DimLensU = iota
	DimLensV
	DimTime
	DimWavelength
	DimFilterX
	DimFilterY
	dimPerBounceStart
)

const dimsPerBounce = 1 + 3 + 2

// BounceDim returns the base dimension index for the given bounce's
// per-bounce dimensions (light selection, light sample, BSDF sample).
func BounceDim(bounce int) int {
	return dimPerBounceStart + bounce*dimsPerBounce
}
