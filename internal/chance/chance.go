// Package chance provides the primitive random operations every fuzzy
// construct is built from: probability gates, noise draws, and the soft
// numeric conversion shared by the tolerance constructs.
//
// All randomness flows through a single Source so that one seed makes the
// whole runtime reproducible. Callers resolve probabilities and variances
// through the personality resolver first; chance only consumes them.
package chance

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// Source wraps a seeded PRNG behind a mutex. A zero or omitted seed draws
// a high-entropy seed from crypto/rand, so unseeded runs differ while
// seeded runs reproduce exactly.
type Source struct {
	mu   sync.Mutex
	rng  *rand.Rand
	seed int64
}

// NewSource returns a source seeded with seed, or with a crypto/rand seed
// when seed is zero.
func NewSource(seed int64) *Source {
	if seed == 0 {
		seed = entropySeed()
	}
	return &Source{rng: rand.New(rand.NewSource(seed)), seed: seed}
}

// entropySeed reads eight bytes from crypto/rand. Falling back to a fixed
// seed on read failure would silently make runs identical, so it panics:
// a machine without working entropy cannot host a chaos engine.
func entropySeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("chance: cannot read entropy: " + err.Error())
	}
	s := int64(binary.LittleEndian.Uint64(b[:]))
	if s == 0 {
		s = 1
	}
	return s
}

// Reseed replaces the underlying PRNG state.
func (s *Source) Reseed(seed int64) {
	if seed == 0 {
		seed = entropySeed()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rand.New(rand.NewSource(seed))
	s.seed = seed
}

// Seed returns the seed currently in effect.
func (s *Source) Seed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seed
}

// Float64 draws from [0,1).
func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// NormFloat64 draws from the standard normal distribution.
func (s *Source) NormFloat64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.NormFloat64()
}

// Gate draws once against probability p. p at or below 0 never passes,
// p at or above 1 always passes.
func (s *Source) Gate(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.Float64() < p
}

// Noise draws zero-centered gaussian noise with standard deviation scale.
// A non-positive scale yields exactly zero, keeping "no variance" honest.
func (s *Source) Noise(scale float64) float64 {
	if scale <= 0 {
		return 0
	}
	return s.NormFloat64() * scale
}

// Jitter draws uniform noise in [-spread, spread]. Used where bounded
// (rather than gaussian) perturbation is wanted, e.g. fuzzed tolerances.
func (s *Source) Jitter(spread float64) float64 {
	if spread <= 0 {
		return 0
	}
	return (s.Float64()*2 - 1) * spread
}
