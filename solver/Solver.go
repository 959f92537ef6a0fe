// Package solver wraps the Gorgonia Solvers used to adapt network
// weights.
package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Solver adapts the weights of a neural network based on the gradients
// computed by running the network's training graph.
type Solver struct {
	G.Solver
	stepSize float64
	clip     float64
	batch    int
}

// NewAdam returns a new Adam Solver with default decay rates. The clip
// parameter bounds gradients before the update is applied, protecting
// the update against gradient spikes; clip <= 0 disables clipping.
func NewAdam(stepSize, clip float64, batch int) (*Solver, error) {
	if stepSize <= 0 {
		return nil, fmt.Errorf("newadam: step size must be positive")
	}
	if batch <= 0 {
		return nil, fmt.Errorf("newadam: batch size must be positive")
	}

	opts := []G.SolverOpt{
		G.WithLearnRate(stepSize),
		G.WithEps(1e-8),
		G.WithBeta1(0.9),
		G.WithBeta2(0.999),
		G.WithBatchSize(float64(batch)),
	}
	if clip > 0 {
		opts = append(opts, G.WithClip(clip))
	}

	return &Solver{
		Solver:   G.NewAdamSolver(opts...),
		stepSize: stepSize,
		clip:     clip,
		batch:    batch,
	}, nil
}

// StepSize returns the solver's learning rate
func (s *Solver) StepSize() float64 {
	return s.stepSize
}

// Clip returns the solver's gradient clipping threshold
func (s *Solver) Clip() float64 {
	return s.clip
}
