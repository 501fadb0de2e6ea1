package scoring

import "math/rand/v2"

// RandomSource is the randomness the synthesizer draws from. *rand.Rand from
// math/rand/v2 satisfies it.
type RandomSource interface {
	// NormFloat64 returns a standard normal sample.
	NormFloat64() float64
	// Float64 returns a uniform sample in [0, 1).
	Float64() float64
	// IntN returns a uniform int in [0, n).
	IntN(n int) int
}

// NewSource returns a PCG-backed source. Equal seeds give equal sequences.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func normal(rng RandomSource, mean, sd float64) float64 {
	return mean + sd*rng.NormFloat64()
}

func uniform(rng RandomSource, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}
