// Package rng builds the explicit random streams used for placement, border
// jitter, background shuffling and pixel noise.
//
// Streams are never shared between concurrently processed samples. Each
// sample gets its own stream derived from the run seed and the sample index,
// so a sample's outcome does not depend on how many samples ran before it.
package rng

import "math/rand/v2"

// Stream identifiers mixed into the second PCG word so that derived streams
// for different purposes never coincide.
const (
	sampleStream   = 0x5a17_0000_0000_0000
	rotationStream = 0xb6_0000_0000_0000
)

// New returns a stream seeded from seed alone.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

// ForSample returns the stream for the sample at index within a run seeded
// with seed.
func ForSample(seed uint64, index int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, sampleStream^uint64(index)))
}

// ForRotation returns the stream that drives background shuffling for a run.
func ForRotation(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, rotationStream))
}
