// Package environment outlines the interface that simulated scheduling
// environments must satisfy to be driven by the training loop.
package environment

// Environment implements a simulated scheduling problem with discrete
// actions. An episode starts with Reset and finishes when Step reports
// done; the environment signals termination itself, so episodes have
// no external length bound.
type Environment interface {
	// Reset starts a new episode and returns its initial state
	// observation. The returned slice has StateDim components.
	Reset() []float64

	// Step submits one action and returns the next state observation,
	// the reward for the transition, and whether the episode finished.
	Step(action int) ([]float64, float64, bool)

	// StateDim returns the number of components in a state observation
	StateDim() int

	// ActionDim returns the number of discrete actions
	ActionDim() int

	// CaseName names the problem instance being simulated
	CaseName() string

	// CurrentTime returns the episode's makespan. The value is valid
	// once Step has reported done.
	CurrentTime() float64

	// NoOpCount returns the number of no-op decisions taken in the
	// episode
	NoOpCount() int

	// JobNum returns the number of jobs in the problem instance
	JobNum() int

	// MachineNum returns the number of machines in the problem instance
	MachineNum() int
}
