package accel

import "math/rand/v2"

// Sequence is a deterministic pseudo-random stream. Two sequences built from
// the same seed yield the same values in the same order.
type Sequence struct {
	r *rand.Rand
}

// NewSequence returns a sequence seeded with seed.
func NewSequence(seed uint64) *Sequence {
	return &Sequence{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Float64 returns the next value in [0, 1).
func (s *Sequence) Float64() float64 { return s.r.Float64() }

// Range returns the next value in [lo, hi).
func (s *Sequence) Range(lo, hi float64) float64 {
	return lo + s.r.Float64()*(hi-lo)
}
