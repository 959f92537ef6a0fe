package ppo

import (
	"math/rand"
)

// Sampler implements functionality for choosing the minibatch indices
// of one pass over a pooled training batch. Implementations may or may
// not cover every index per pass; the update treats all transitions as
// interchangeable samples, so coverage only affects optimizer
// statistics.
type Sampler interface {
	// Batches partitions a selection of {0, ..., n-1} into minibatches
	Batches(n int) [][]int

	// BatchSize returns the number of indices per minibatch
	BatchSize() int
}

// shuffleSampler draws shuffled fixed-size minibatches without
// replacement, dropping the final partial minibatch of each pass.
type shuffleSampler struct {
	batchSize int
	rng       *rand.Rand
}

// NewShuffleSampler returns a Sampler that reshuffles all indices each
// pass and yields only full minibatches of size batchSize
func NewShuffleSampler(batchSize int, seed int64) Sampler {
	source := rand.NewSource(seed)
	rng := rand.New(source)

	return &shuffleSampler{batchSize: batchSize, rng: rng}
}

// BatchSize returns the number of indices per minibatch
func (s *shuffleSampler) BatchSize() int {
	return s.batchSize
}

// Batches returns a fresh random partition of {0, ..., n-1} into
// minibatches of exactly batchSize indices. Indices beyond the last
// full minibatch are omitted for this pass.
func (s *shuffleSampler) Batches(n int) [][]int {
	perm := s.rng.Perm(n)

	batches := make([][]int, 0, n/s.batchSize)
	for start := 0; start+s.batchSize <= n; start += s.batchSize {
		batches = append(batches, perm[start:start+s.batchSize])
	}
	return batches
}
