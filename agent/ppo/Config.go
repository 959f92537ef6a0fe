package ppo

import (
	"fmt"
)

// Default hyperparameters. MemorySize and BatchSize have no sensible
// universal defaults and are per-instance constructor inputs.
const (
	DefaultGamma       float64 = 1.0  // Reward discount
	DefaultActorLR     float64 = 1e-3 // Actor learning rate
	DefaultCriticLR    float64 = 3e-3 // Critic learning rate
	DefaultClipEpsilon float64 = 0.2  // Surrogate clipping band
	DefaultUpdateSteps int     = 10   // Full passes per update
	DefaultMaxGradNorm float64 = 0.5  // Gradient clipping threshold
	DefaultHiddenSize  int     = 127  // Hidden layer width
)

// Config describes a configuration of the PPO algorithm
type Config struct {
	// Gamma discounts future rewards when computing episodic returns
	Gamma float64

	// Learning rates for the two networks
	ActorLR  float64
	CriticLR float64

	// ClipEpsilon bounds the surrogate's probability ratio inside
	// [1-ClipEpsilon, 1+ClipEpsilon]
	ClipEpsilon float64

	// UpdateSteps is the number of full minibatch passes over the
	// pooled batch per update
	UpdateSteps int

	// CriticUpdateSteps is carried for parity with the critic's
	// configured step count, but the critic is stepped once per actor
	// minibatch inside the same UpdateSteps loop, so only UpdateSteps
	// drives the pass count
	CriticUpdateSteps int

	// MaxGradNorm bounds gradients before each optimizer step
	MaxGradNorm float64

	// HiddenSize is the width of the single hidden layer of both
	// networks
	HiddenSize int

	// MemorySize is the number of complete episodes pooled into one
	// training batch per epoch
	MemorySize int

	// BatchSize is the number of transitions per minibatch
	BatchSize int

	// Seed seeds action sampling and minibatch shuffling
	Seed int64
}

// NewConfig returns a Config with default hyperparameters and the
// given per-instance inputs
func NewConfig(memorySize, batchSize int, seed int64) Config {
	return Config{
		Gamma:             DefaultGamma,
		ActorLR:           DefaultActorLR,
		CriticLR:          DefaultCriticLR,
		ClipEpsilon:       DefaultClipEpsilon,
		UpdateSteps:       DefaultUpdateSteps,
		CriticUpdateSteps: DefaultUpdateSteps,
		MaxGradNorm:       DefaultMaxGradNorm,
		HiddenSize:        DefaultHiddenSize,
		MemorySize:        memorySize,
		BatchSize:         batchSize,
		Seed:              seed,
	}
}

// Validate returns an error describing any illegal configuration value
func (c Config) Validate() error {
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: discount out of range [0, 1]")
	}
	if c.ActorLR <= 0 || c.CriticLR <= 0 {
		return fmt.Errorf("validate: learning rates must be positive")
	}
	if c.ClipEpsilon <= 0 || c.ClipEpsilon >= 1 {
		return fmt.Errorf("validate: clip epsilon out of range (0, 1)")
	}
	if c.UpdateSteps <= 0 {
		return fmt.Errorf("validate: update steps must be positive")
	}
	if c.HiddenSize <= 0 {
		return fmt.Errorf("validate: hidden size must be positive")
	}
	if c.MemorySize <= 0 {
		return fmt.Errorf("validate: memory size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("validate: batch size must be positive")
	}
	return nil
}
