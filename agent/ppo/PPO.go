// Package ppo implements proximal policy optimization with a clipped
// surrogate objective for discrete-action environments
package ppo

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"sfneuman.com/jobshop/environment"
	"sfneuman.com/jobshop/experiment/checkpointer"
)

// Checkpoint file tags
const (
	actorModel  = "actor_net"
	criticModel = "critic_net"
)

// UpdateStats summarizes one full Update over the pooled batch
type UpdateStats struct {
	ActorLoss    float64 // Mean surrogate loss over minibatches
	CriticLoss   float64 // Mean regression loss over minibatches
	MeanRatio    float64 // Mean probability ratio over minibatches
	ClipFraction float64 // Mean fraction of clipped ratios
	Minibatches  int     // Optimizer steps taken
}

// PPO couples a categorical Actor and a state-value Critic under one
// update rule. Each Update makes UpdateSteps shuffled passes over the
// pooled batch; every minibatch first queries the critic for the state
// values backing the advantages, then steps the actor on the clipped
// surrogate and the critic on the squared return error.
type PPO struct {
	actor   *Actor
	critic  *Critic
	sampler Sampler
	config  Config
}

// New returns a new PPO agent acting in env under the given
// configuration
func New(env environment.Environment, config Config) (*PPO, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	actor, err := NewActor(env.StateDim(), env.ActionDim(), config.HiddenSize,
		config.BatchSize, config.ActorLR, config.ClipEpsilon,
		config.MaxGradNorm, config.Seed)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	critic, err := NewCritic(env.StateDim(), config.HiddenSize,
		config.BatchSize, config.CriticLR, config.MaxGradNorm)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	return &PPO{
		actor:   actor,
		critic:  critic,
		sampler: NewShuffleSampler(config.BatchSize, config.Seed),
		config:  config,
	}, nil
}

// SelectAction draws an action for the given state from the behaviour
// policy, returning the action and its selection probability
func (p *PPO) SelectAction(state []float64) (int, float64, error) {
	return p.actor.SelectAction(state)
}

// Update runs the configured number of shuffled minibatch passes over
// the pooled batch, stepping both networks once per minibatch, then
// syncs the behaviour networks to the updated parameters.
func (p *PPO) Update(buffer *Buffer) (UpdateStats, error) {
	n := buffer.Len()
	if n < p.config.BatchSize {
		return UpdateStats{}, fmt.Errorf("update: pooled batch smaller than "+
			"one minibatch\n\twant(>=%v)\n\thave(%v)", p.config.BatchSize, n)
	}

	var actorLosses, criticLosses, ratios, clipFractions []float64
	for pass := 0; pass < p.config.UpdateSteps; pass++ {
		for _, indices := range p.sampler.Batches(n) {
			states, actions, returns, oldProbs := buffer.Minibatch(indices)

			// State values under the pre-step parameters back the
			// detached advantages of this minibatch
			values, err := p.critic.Forward(states, returns)
			if err != nil {
				return UpdateStats{}, fmt.Errorf("update: %v", err)
			}
			advantages := make([]float64, len(returns))
			for i := range returns {
				advantages[i] = returns[i] - values[i]
			}

			err = p.actor.Step(states, actions, oldProbs, advantages)
			if err != nil {
				return UpdateStats{}, fmt.Errorf("update: %v", err)
			}
			if err := p.critic.StepOptimizer(); err != nil {
				return UpdateStats{}, fmt.Errorf("update: %v", err)
			}

			actorLosses = append(actorLosses, p.actor.Loss())
			criticLosses = append(criticLosses, p.critic.Loss())
			ratios = append(ratios, stat.Mean(p.actor.Ratios(), nil))
			clipFractions = append(clipFractions, p.actor.ClipFraction())
		}
	}

	if err := p.actor.Sync(); err != nil {
		return UpdateStats{}, fmt.Errorf("update: could not sync actor: %v",
			err)
	}
	if err := p.critic.Sync(); err != nil {
		return UpdateStats{}, fmt.Errorf("update: could not sync critic: %v",
			err)
	}

	return UpdateStats{
		ActorLoss:    stat.Mean(actorLosses, nil),
		CriticLoss:   stat.Mean(criticLosses, nil),
		MeanRatio:    stat.Mean(ratios, nil),
		ClipFraction: stat.Mean(clipFractions, nil),
		Minibatches:  len(actorLosses),
	}, nil
}

// EstimateValue returns the critic's state-value estimate of a single
// state
func (p *PPO) EstimateValue(state []float64) (float64, error) {
	return p.critic.Estimate(state)
}

// Config returns the agent's configuration
func (p *PPO) Config() Config {
	return p.config
}

// Save checkpoints both networks' parameters under dir, tagged with
// the problem case's name
func (p *PPO) Save(dir, caseName string) error {
	actorNet, ok := p.actor.Network().(checkpointer.Serializable)
	if !ok {
		return fmt.Errorf("save: actor network is not serializable")
	}
	path := checkpointer.Filename(dir, caseName, actorModel)
	if err := checkpointer.Save(path, actorNet); err != nil {
		return fmt.Errorf("save: actor: %v", err)
	}

	criticNet, ok := p.critic.Network().(checkpointer.Serializable)
	if !ok {
		return fmt.Errorf("save: critic network is not serializable")
	}
	path = checkpointer.Filename(dir, caseName, criticModel)
	if err := checkpointer.Save(path, criticNet); err != nil {
		return fmt.Errorf("save: critic: %v", err)
	}
	return nil
}

// Load restores both networks' parameters from the checkpoints saved
// under dir for the problem case's name
func (p *PPO) Load(dir, caseName string) error {
	actorNet, ok := p.actor.Network().(checkpointer.Serializable)
	if !ok {
		return fmt.Errorf("load: actor network is not serializable")
	}
	path := checkpointer.Filename(dir, caseName, actorModel)
	if err := checkpointer.Load(path, actorNet); err != nil {
		return fmt.Errorf("load: actor: %v", err)
	}
	if err := p.actor.Restore(); err != nil {
		return fmt.Errorf("load: actor: %v", err)
	}

	criticNet, ok := p.critic.Network().(checkpointer.Serializable)
	if !ok {
		return fmt.Errorf("load: critic network is not serializable")
	}
	path = checkpointer.Filename(dir, caseName, criticModel)
	if err := checkpointer.Load(path, criticNet); err != nil {
		return fmt.Errorf("load: critic: %v", err)
	}
	if err := p.critic.Restore(); err != nil {
		return fmt.Errorf("load: critic: %v", err)
	}
	return nil
}
