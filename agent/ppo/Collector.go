package ppo

import (
	"fmt"

	"sfneuman.com/jobshop/environment"
)

// EpisodeStats reports the terminal metrics of one collected episode
type EpisodeStats struct {
	MakeSpan float64 // Environment's terminal makespan
	Return   float64 // Undiscounted sum of rewards
	NoOps    int     // No-op decisions taken
	Steps    int     // Transitions recorded
}

// policy selects actions during collection, reporting the probability
// mass the current parameters assign to the chosen action
type policy interface {
	SelectAction(state []float64) (action int, prob float64, err error)
}

// Collector drives episode rollouts against the environment and pools
// the recorded trajectories into a Buffer. Episodes run strictly
// sequentially: every transition of an episode is recorded under the
// parameter snapshot that selected its action, so no update may run
// between Collect calls of the same epoch.
type Collector struct {
	env    environment.Environment
	policy policy
	buffer *Buffer
}

// NewCollector returns a new Collector recording trajectories from env
// into buffer using the given action-selection policy
func NewCollector(env environment.Environment, p policy,
	buffer *Buffer) *Collector {
	return &Collector{env: env, policy: p, buffer: buffer}
}

// Collect runs one complete episode, stages every transition, and
// finishes the episode into the pooled batch. The episode runs until
// the environment signals completion; an environment that never
// signals done violates the environment contract.
func (c *Collector) Collect() (EpisodeStats, error) {
	state := c.env.Reset()

	steps := 0
	for {
		action, prob, err := c.policy.SelectAction(state)
		if err != nil {
			return EpisodeStats{}, fmt.Errorf("collect: could not select "+
				"action: %v", err)
		}

		nextState, reward, done := c.env.Step(action)
		if err := c.buffer.Store(state, action, reward, prob); err != nil {
			return EpisodeStats{}, fmt.Errorf("collect: %v", err)
		}

		state = nextState
		steps++
		if done {
			break
		}
	}

	return EpisodeStats{
		MakeSpan: c.env.CurrentTime(),
		Return:   c.buffer.FinishEpisode(),
		NoOps:    c.env.NoOpCount(),
		Steps:    steps,
	}, nil
}
