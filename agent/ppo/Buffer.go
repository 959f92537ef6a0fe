package ppo

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Buffer pools the transitions of the episodes collected in one epoch
// into four parallel sequences: states, actions, discounted returns,
// and the probabilities the acting policy assigned to the chosen
// actions at selection time. Index i refers to the same transition in
// all four sequences.
//
// Transitions are staged per episode and only enter the pooled batch
// once their episode finishes, because the discounted returns can only
// be computed from the episode's complete reward sequence.
type Buffer struct {
	stateDim int
	gamma    float64

	states  []float64
	actions []int
	returns []float64
	probs   []float64

	// Current episode staging area
	epStates  []float64
	epActions []int
	epRewards []float64
	epProbs   []float64
}

// NewBuffer returns a new empty Buffer for states of stateDim
// components and returns discounted by gamma
func NewBuffer(stateDim int, gamma float64) *Buffer {
	return &Buffer{stateDim: stateDim, gamma: gamma}
}

// Store stages one transition of the current episode
func (b *Buffer) Store(state []float64, action int, reward, prob float64) error {
	if len(state) != b.stateDim {
		return fmt.Errorf("store: illegal state length\n\twant(%v)"+
			"\n\thave(%v)", b.stateDim, len(state))
	}

	b.epStates = append(b.epStates, state...)
	b.epActions = append(b.epActions, action)
	b.epRewards = append(b.epRewards, reward)
	b.epProbs = append(b.epProbs, prob)
	return nil
}

// FinishEpisode converts the staged episode's rewards into discounted
// returns and moves the episode into the pooled batch, returning the
// episode's undiscounted return.
func (b *Buffer) FinishEpisode() float64 {
	episodeReturn := floats.Sum(b.epRewards)

	b.states = append(b.states, b.epStates...)
	b.actions = append(b.actions, b.epActions...)
	b.returns = append(b.returns, DiscountedReturns(b.epRewards, b.gamma)...)
	b.probs = append(b.probs, b.epProbs...)

	b.epStates = nil
	b.epActions = nil
	b.epRewards = nil
	b.epProbs = nil

	return episodeReturn
}

// Len returns the number of pooled transitions
func (b *Buffer) Len() int {
	return len(b.actions)
}

// Reset discards all pooled and staged transitions
func (b *Buffer) Reset() {
	b.states = nil
	b.actions = nil
	b.returns = nil
	b.probs = nil
	b.epStates = nil
	b.epActions = nil
	b.epRewards = nil
	b.epProbs = nil
}

// Minibatch gathers the pooled transitions at the given indices. The
// returned state slice holds len(indices) state vectors laid out
// consecutively.
func (b *Buffer) Minibatch(indices []int) (states []float64, actions []int,
	returns, probs []float64) {
	states = make([]float64, 0, len(indices)*b.stateDim)
	actions = make([]int, len(indices))
	returns = make([]float64, len(indices))
	probs = make([]float64, len(indices))

	for i, index := range indices {
		start := index * b.stateDim
		states = append(states, b.states[start:start+b.stateDim]...)
		actions[i] = b.actions[index]
		returns[i] = b.returns[index]
		probs[i] = b.probs[index]
	}
	return states, actions, returns, probs
}

// DiscountedReturns computes the discounted return sequence of a
// reward sequence by a backward scan: G_t = r_t + gamma*G_{t+1} with
// G_T = 0. At gamma = 1 this is the suffix sum of the rewards.
func DiscountedReturns(rewards []float64, gamma float64) []float64 {
	returns := make([]float64, len(rewards))

	acc := 0.0
	for t := len(rewards) - 1; t >= 0; t-- {
		acc = rewards[t] + gamma*acc
		returns[t] = acc
	}
	return returns
}
