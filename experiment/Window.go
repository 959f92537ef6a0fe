package experiment

import (
	"math"

	"github.com/gammazero/deque"
)

// Window watches a sliding window of recent episode makespans for
// convergence. Training has converged once the window is full and
// every makespan in it is identical.
type Window struct {
	spans    *deque.Deque[float64]
	capacity int
}

// NewWindow returns a Window over the given number of recent episodes
func NewWindow(capacity int) *Window {
	return &Window{
		spans:    deque.New[float64](capacity),
		capacity: capacity,
	}
}

// Push records one episode's makespan, evicting the oldest recorded
// makespan once the window is full
func (w *Window) Push(makeSpan float64) {
	if w.spans.Len() == w.capacity {
		w.spans.PopFront()
	}
	w.spans.PushBack(makeSpan)
}

// Len returns the number of recorded makespans
func (w *Window) Len() int {
	return w.spans.Len()
}

// Full reports whether the window holds capacity makespans
func (w *Window) Full() bool {
	return w.spans.Len() == w.capacity
}

// Min returns the smallest recorded makespan, or +Inf if the window is
// empty
func (w *Window) Min() float64 {
	min := math.Inf(1)
	for i := 0; i < w.spans.Len(); i++ {
		if span := w.spans.At(i); span < min {
			min = span
		}
	}
	return min
}

// Max returns the largest recorded makespan, or -Inf if the window is
// empty
func (w *Window) Max() float64 {
	max := math.Inf(-1)
	for i := 0; i < w.spans.Len(); i++ {
		if span := w.spans.At(i); span > max {
			max = span
		}
	}
	return max
}

// Converged reports whether the window is full and every recorded
// makespan is identical
func (w *Window) Converged() bool {
	return w.Full() && w.Min() == w.Max()
}
