package experiment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWindowEvictsOldest(t *testing.T) {
	window := NewWindow(3)
	require.Equal(t, math.Inf(1), window.Min())
	require.Equal(t, math.Inf(-1), window.Max())

	window.Push(10)
	window.Push(8)
	window.Push(9)
	require.True(t, window.Full())
	require.Equal(t, 8.0, window.Min())
	require.Equal(t, 10.0, window.Max())

	// A fourth push evicts the 10
	window.Push(9)
	require.Equal(t, 3, window.Len())
	require.Equal(t, 8.0, window.Min())
	require.Equal(t, 9.0, window.Max())
}

func TestWindowConverged(t *testing.T) {
	window := NewWindow(3)

	window.Push(7)
	window.Push(7)
	require.False(t, window.Converged(), "a partial window never converges")

	window.Push(7)
	require.True(t, window.Converged())

	window.Push(6)
	require.False(t, window.Converged())

	// Two more identical makespans push the outlier out again
	window.Push(6)
	window.Push(6)
	require.True(t, window.Converged())
}
