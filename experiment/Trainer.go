// Package experiment runs training experiments: it drives episode
// collection and agent updates against a scheduling environment until
// convergence, an epoch cap, or a wall-clock budget, and records
// per-episode results.
package experiment

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/aunum/log"

	"sfneuman.com/jobshop/agent/ppo"
	"sfneuman.com/jobshop/environment"
	"sfneuman.com/jobshop/experiment/tracker"
)

// Default stopping conditions
const (
	DefaultMaxEpochs  int           = 4000
	DefaultTimeLimit  time.Duration = 3600 * time.Second
	DefaultWindowSize int           = 30
)

// Summary reports the outcome of one training run
type Summary struct {
	BestMakeSpan float64       // Smallest makespan in the final window
	Epochs       int           // Training epochs completed
	Episodes     int           // Episodes collected
	Elapsed      time.Duration // Wall-clock training time
	Converged    bool          // Whether the makespan window converged
	LastNoOps    int           // No-op count of the final episode
}

// Trainer trains a PPO agent on one scheduling environment. Each epoch
// collects MemorySize complete episodes into the pooled batch and runs
// one agent update; training stops when the recent makespans converge,
// the epoch cap is reached, or the wall-clock budget runs out.
type Trainer struct {
	env   environment.Environment
	agent *ppo.PPO

	buffer    *ppo.Buffer
	collector *ppo.Collector
	window    *Window
	results   *tracker.Results

	maxEpochs int
	timeLimit time.Duration

	dataset    string
	modelDir   string
	resultsDir string
}

// NewTrainer returns a Trainer training agent on env, checkpointing
// models under modelDir and saving per-episode results under
// resultsDir. The dataset label tags the result file alongside the
// case's name.
func NewTrainer(env environment.Environment, agent *ppo.PPO, dataset,
	modelDir, resultsDir string) *Trainer {
	config := agent.Config()
	buffer := ppo.NewBuffer(env.StateDim(), config.Gamma)

	return &Trainer{
		env:        env,
		agent:      agent,
		buffer:     buffer,
		collector:  ppo.NewCollector(env, agent, buffer),
		window:     NewWindow(DefaultWindowSize),
		results:    tracker.NewResults(),
		maxEpochs:  DefaultMaxEpochs,
		timeLimit:  DefaultTimeLimit,
		dataset:    dataset,
		modelDir:   modelDir,
		resultsDir: resultsDir,
	}
}

// WithStopping overrides the epoch cap and wall-clock budget
func (t *Trainer) WithStopping(maxEpochs int, timeLimit time.Duration,
	windowSize int) *Trainer {
	t.maxEpochs = maxEpochs
	t.timeLimit = timeLimit
	t.window = NewWindow(windowSize)
	return t
}

// Run trains until a stopping condition fires, then saves the model
// checkpoints and the per-episode results
func (t *Trainer) Run() (Summary, error) {
	caseName := t.env.CaseName()
	memorySize := t.agent.Config().MemorySize
	start := time.Now()

	episodes := 0
	epoch := 0
	converged := false
	lastNoOps := 0
	for ; epoch < t.maxEpochs; epoch++ {
		if time.Since(start) >= t.timeLimit {
			log.Infof("%v: wall-clock budget exhausted after %v epochs",
				caseName, epoch)
			break
		}

		t.buffer.Reset()
		for m := 0; m < memorySize; m++ {
			stats, err := t.collector.Collect()
			if err != nil {
				return Summary{}, fmt.Errorf("run: %v", err)
			}

			log.Infof("%v: epoch %v episode %v: makespan %v return %.4f "+
				"no-ops %v", caseName, epoch, episodes, stats.MakeSpan,
				stats.Return, stats.NoOps)

			t.results.Add(tracker.Row{
				Episode:  epoch,
				MakeSpan: stats.MakeSpan,
				Reward:   stats.Return,
				NoOps:    stats.NoOps,
			})
			t.window.Push(stats.MakeSpan)
			lastNoOps = stats.NoOps
			episodes++
		}

		if _, err := t.agent.Update(t.buffer); err != nil {
			return Summary{}, fmt.Errorf("run: %v", err)
		}

		if t.window.Converged() {
			log.Infof("%v: makespan converged to %v after %v epochs",
				caseName, t.window.Min(), epoch+1)
			converged = true
			epoch++
			break
		}
	}

	if err := t.results.Save(t.resultsPath()); err != nil {
		return Summary{}, fmt.Errorf("run: %v", err)
	}
	if err := t.agent.Save(t.modelDir, caseName); err != nil {
		return Summary{}, fmt.Errorf("run: %v", err)
	}

	return Summary{
		BestMakeSpan: t.window.Min(),
		Epochs:       epoch,
		Episodes:     episodes,
		Elapsed:      time.Since(start),
		Converged:    converged,
		LastNoOps:    lastNoOps,
	}, nil
}

// Results returns the per-episode records collected so far
func (t *Trainer) Results() *tracker.Results {
	return t.results
}

func (t *Trainer) resultsPath() string {
	name := t.env.CaseName() + "_" + t.dataset + ".csv"
	return filepath.Join(t.resultsDir, name)
}

// Evaluate restores the checkpointed agent for env from modelDir and
// runs one episode under the restored policy, returning its stats
func Evaluate(env environment.Environment, agent *ppo.PPO,
	modelDir string) (ppo.EpisodeStats, error) {
	if err := agent.Load(modelDir, env.CaseName()); err != nil {
		return ppo.EpisodeStats{}, fmt.Errorf("evaluate: %v", err)
	}

	buffer := ppo.NewBuffer(env.StateDim(), agent.Config().Gamma)
	collector := ppo.NewCollector(env, agent, buffer)

	stats, err := collector.Collect()
	if err != nil {
		return ppo.EpisodeStats{}, fmt.Errorf("evaluate: %v", err)
	}
	return stats, nil
}
