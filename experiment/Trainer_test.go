package experiment

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sfneuman.com/jobshop/agent/ppo"
	"sfneuman.com/jobshop/experiment/checkpointer"
	"sfneuman.com/jobshop/utils/floatutils"
)

// toyEnv is a deterministic three-step environment whose makespan is
// always 5, so the convergence window fills with identical values.
type toyEnv struct {
	steps int
}

func (e *toyEnv) Reset() []float64 {
	e.steps = 0
	return []float64{0, 1}
}

func (e *toyEnv) Step(action int) ([]float64, float64, bool) {
	e.steps++
	return []float64{float64(e.steps), float64(action)}, 1.0, e.steps >= 3
}

func (e *toyEnv) StateDim() int        { return 2 }
func (e *toyEnv) ActionDim() int       { return 2 }
func (e *toyEnv) CaseName() string     { return "toy" }
func (e *toyEnv) CurrentTime() float64 { return 5 }
func (e *toyEnv) NoOpCount() int       { return 0 }
func (e *toyEnv) JobNum() int          { return 1 }
func (e *toyEnv) MachineNum() int      { return 3 }

func newToyAgent(t *testing.T, env *toyEnv) *ppo.PPO {
	t.Helper()

	config := ppo.NewConfig(2, 3, 42)
	config.HiddenSize = 8

	agent, err := ppo.New(env, config)
	require.NoError(t, err)
	return agent
}

func TestTrainerConverges(t *testing.T) {
	env := &toyEnv{}
	agent := newToyAgent(t, env)

	dir := t.TempDir()
	modelDir := filepath.Join(dir, "models")
	resultsDir := filepath.Join(dir, "results")

	trainer := NewTrainer(env, agent, "result", modelDir, resultsDir).
		WithStopping(10, time.Hour, 3)
	summary, err := trainer.Run()
	require.NoError(t, err)

	// The window of 3 constant makespans fills during the second epoch
	require.True(t, summary.Converged)
	require.Equal(t, 2, summary.Epochs)
	require.Equal(t, 4, summary.Episodes)
	require.Equal(t, 5.0, summary.BestMakeSpan)
	require.Equal(t, 0, summary.LastNoOps)
	require.True(t, floatutils.AllFinite(summary.BestMakeSpan))

	// One result row per collected episode, tagged with its epoch
	rows := trainer.Results().Rows()
	require.Len(t, rows, 4)
	require.Equal(t, 0, rows[0].Episode)
	require.Equal(t, 1, rows[3].Episode)
	for _, row := range rows {
		require.Equal(t, 5.0, row.MakeSpan)
		require.Equal(t, 3.0, row.Reward)
	}

	// Both model checkpoints and the result file must exist
	require.True(t, checkpointer.Exists(
		checkpointer.Filename(modelDir, "toy", "actor_net")))
	require.True(t, checkpointer.Exists(
		checkpointer.Filename(modelDir, "toy", "critic_net")))
	require.FileExists(t, filepath.Join(resultsDir, "toy_result.csv"))
}

func TestTrainerStopsAtEpochCap(t *testing.T) {
	env := &toyEnv{}
	agent := newToyAgent(t, env)

	dir := t.TempDir()
	modelDir := filepath.Join(dir, "models")
	trainer := NewTrainer(env, agent, "result", modelDir,
		filepath.Join(dir, "results")).WithStopping(1, time.Hour, 100)
	summary, err := trainer.Run()
	require.NoError(t, err)

	require.False(t, summary.Converged)
	require.Equal(t, 1, summary.Epochs)
	require.Equal(t, 2, summary.Episodes)

	// Epoch-count exhaustion must still checkpoint both networks
	require.True(t, checkpointer.Exists(
		checkpointer.Filename(modelDir, "toy", "actor_net")))
	require.True(t, checkpointer.Exists(
		checkpointer.Filename(modelDir, "toy", "critic_net")))
}

func TestEvaluateRestoresCheckpoint(t *testing.T) {
	env := &toyEnv{}
	agent := newToyAgent(t, env)

	dir := t.TempDir()
	modelDir := filepath.Join(dir, "models")
	trainer := NewTrainer(env, agent, "result", modelDir,
		filepath.Join(dir, "results")).WithStopping(2, time.Hour, 3)
	_, err := trainer.Run()
	require.NoError(t, err)

	// A fresh agent must act under the restored parameters
	restored := newToyAgent(t, env)
	stats, err := Evaluate(env, restored, modelDir)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Steps)
	require.Equal(t, 5.0, stats.MakeSpan)
}
