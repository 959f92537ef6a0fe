package ppo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiscountedReturns(t *testing.T) {
	// At gamma = 1 the returns are the suffix sums of the rewards
	returns := DiscountedReturns([]float64{1, 2, 3}, 1.0)
	require.Equal(t, []float64{6, 5, 3}, returns)

	returns = DiscountedReturns([]float64{1, 1, 1}, 0.5)
	require.Equal(t, []float64{1.75, 1.5, 1}, returns)

	require.Empty(t, DiscountedReturns(nil, 1.0))
}

func TestBufferPoolsEpisodes(t *testing.T) {
	buffer := NewBuffer(2, 1.0)

	require.NoError(t, buffer.Store([]float64{1, 2}, 0, 1, 0.5))
	require.NoError(t, buffer.Store([]float64{3, 4}, 1, 2, 0.25))
	require.Equal(t, 0, buffer.Len(), "staged transitions must not pool")

	episodeReturn := buffer.FinishEpisode()
	require.Equal(t, 3.0, episodeReturn)
	require.Equal(t, 2, buffer.Len())

	require.NoError(t, buffer.Store([]float64{5, 6}, 1, 3, 0.75))
	buffer.FinishEpisode()
	require.Equal(t, 3, buffer.Len())

	states, actions, returns, probs := buffer.Minibatch([]int{2, 0})
	require.Equal(t, []float64{5, 6, 1, 2}, states)
	require.Equal(t, []int{1, 0}, actions)
	require.Equal(t, []float64{3, 3}, returns)
	require.Equal(t, []float64{0.75, 0.5}, probs)

	buffer.Reset()
	require.Equal(t, 0, buffer.Len())
}

func TestBufferRejectsIllegalState(t *testing.T) {
	buffer := NewBuffer(2, 1.0)
	require.Error(t, buffer.Store([]float64{1, 2, 3}, 0, 1, 0.5))
}
