// Package rng provides the seeded random source injected into CMS
// engines for log-cell probabilistic increment and merge decisions.
//
// The original implementation draws these from a process-wide RNG
// (see spec §5, "Shared-resource policy"); this module instead takes
// the Design Notes' recommendation and makes the source an explicit
// per-instance dependency, so concurrently running engines never
// contend on shared RNG state and tests can substitute a scripted
// source (see MockSource in mock_rng.go).
package rng

import "math/rand"

// Source produces uniform 32-bit draws. Implementations need not be
// safe for concurrent use, matching the single-threaded contract of
// every engine that holds one.
type Source interface {
	Uint32() uint32
}

// MathRand is a Source backed by the standard library's math/rand,
// seeded independently per instance.
type MathRand struct {
	r *rand.Rand
}

// New returns a MathRand seeded with seed. Two MathRand values created
// with the same seed draw identical sequences, which is what makes
// probabilistic log-cell tests reproducible.
func New(seed int64) *MathRand {
	return &MathRand{r: rand.New(rand.NewSource(seed))}
}

func (m *MathRand) Uint32() uint32 {
	return m.r.Uint32()
}
