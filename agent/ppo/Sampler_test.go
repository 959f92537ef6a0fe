package ppo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShuffleSamplerPartitions(t *testing.T) {
	sampler := NewShuffleSampler(4, 42)
	batches := sampler.Batches(12)

	require.Len(t, batches, 3)
	seen := make(map[int]bool)
	for _, batch := range batches {
		require.Len(t, batch, 4)
		for _, index := range batch {
			require.False(t, seen[index], "index %v sampled twice", index)
			require.GreaterOrEqual(t, index, 0)
			require.Less(t, index, 12)
			seen[index] = true
		}
	}
	require.Len(t, seen, 12)
}

func TestShuffleSamplerDropsRemainder(t *testing.T) {
	sampler := NewShuffleSampler(5, 42)

	// 13 indices yield two full minibatches; the trailing 3 are dropped
	batches := sampler.Batches(13)
	require.Len(t, batches, 2)
	for _, batch := range batches {
		require.Len(t, batch, 5)
	}

	// Fewer indices than one minibatch yields no batches at all
	require.Empty(t, sampler.Batches(4))
}

func TestShuffleSamplerReshuffles(t *testing.T) {
	sampler := NewShuffleSampler(8, 42)

	first := sampler.Batches(8)
	second := sampler.Batches(8)
	require.Len(t, first, 1)
	require.Len(t, second, 1)

	// Both passes cover all indices even though the order differs
	for _, batches := range [][][]int{first, second} {
		seen := make(map[int]bool)
		for _, index := range batches[0] {
			seen[index] = true
		}
		require.Len(t, seen, 8)
	}
}
