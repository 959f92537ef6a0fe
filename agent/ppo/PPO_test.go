package ppo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sfneuman.com/jobshop/network"
	"sfneuman.com/jobshop/utils/floatutils"
)

// stubEnv is a minimal deterministic environment for agent tests: two
// actions, reward 1 per step, done after three steps.
type stubEnv struct {
	steps int
}

func (s *stubEnv) Reset() []float64 {
	s.steps = 0
	return []float64{0, 0, 1}
}

func (s *stubEnv) Step(action int) ([]float64, float64, bool) {
	s.steps++
	state := []float64{float64(s.steps), float64(action), 1}
	return state, 1.0, s.steps >= 3
}

func (s *stubEnv) StateDim() int        { return 3 }
func (s *stubEnv) ActionDim() int       { return 2 }
func (s *stubEnv) CaseName() string     { return "stub" }
func (s *stubEnv) CurrentTime() float64 { return 5 }
func (s *stubEnv) NoOpCount() int       { return 0 }
func (s *stubEnv) JobNum() int          { return 1 }
func (s *stubEnv) MachineNum() int      { return 3 }

func newTestAgent(t *testing.T, batchSize int) (*PPO, *stubEnv) {
	t.Helper()

	env := &stubEnv{}
	config := NewConfig(2, batchSize, 42)
	config.HiddenSize = 8

	agent, err := New(env, config)
	require.NoError(t, err)
	return agent, env
}

func TestSelectAction(t *testing.T) {
	agent, env := newTestAgent(t, 3)

	state := env.Reset()
	for i := 0; i < 10; i++ {
		action, prob, err := agent.SelectAction(state)
		require.NoError(t, err)
		require.GreaterOrEqual(t, action, 0)
		require.Less(t, action, env.ActionDim())
		require.Greater(t, prob, 0.0)
		require.LessOrEqual(t, prob, 1.0)
	}
}

func TestUpdate(t *testing.T) {
	agent, env := newTestAgent(t, 3)

	buffer := NewBuffer(env.StateDim(), agent.Config().Gamma)
	collector := NewCollector(env, agent, buffer)
	for episode := 0; episode < 2; episode++ {
		stats, err := collector.Collect()
		require.NoError(t, err)
		require.Equal(t, 3, stats.Steps)
		require.Equal(t, 3.0, stats.Return)
	}
	require.Equal(t, 6, buffer.Len())

	stats, err := agent.Update(buffer)
	require.NoError(t, err)

	// Two full minibatches per pass over the six pooled transitions
	require.Equal(t, 2*agent.Config().UpdateSteps, stats.Minibatches)
	require.True(t, floatutils.AllFinite(stats.ActorLoss, stats.CriticLoss,
		stats.MeanRatio))
	require.GreaterOrEqual(t, stats.ClipFraction, 0.0)
	require.LessOrEqual(t, stats.ClipFraction, 1.0)

	// No parameter may be NaN or infinite after the update
	nets := []network.NeuralNet{agent.actor.Network(), agent.critic.Network()}
	for _, net := range nets {
		for _, node := range net.Learnables() {
			params := node.Value().Data().([]float64)
			require.True(t, floatutils.AllFinite(params...))
		}
	}

	// The behaviour policy must still act after the sync
	action, prob, err := agent.SelectAction(env.Reset())
	require.NoError(t, err)
	require.Less(t, action, env.ActionDim())
	require.True(t, floatutils.AllFinite(prob))
}

func TestRatioIsOneBeforeParameterChange(t *testing.T) {
	agent, env := newTestAgent(t, 3)

	buffer := NewBuffer(env.StateDim(), agent.Config().Gamma)
	collector := NewCollector(env, agent, buffer)
	_, err := collector.Collect()
	require.NoError(t, err)

	// With zero advantages the step leaves the parameters unchanged,
	// and recomputing the recorded actions' probabilities under the
	// unchanged parameters must reproduce the sampled ones exactly
	states, actions, _, oldProbs := buffer.Minibatch([]int{0, 1, 2})
	advantages := make([]float64, 3)
	require.NoError(t, agent.actor.Step(states, actions, oldProbs, advantages))

	for _, ratio := range agent.actor.Ratios() {
		require.InDelta(t, 1.0, ratio, 1e-8)
	}
}

func TestUpdateRejectsSmallBatch(t *testing.T) {
	agent, env := newTestAgent(t, 8)

	buffer := NewBuffer(env.StateDim(), agent.Config().Gamma)
	collector := NewCollector(env, agent, buffer)
	_, err := collector.Collect()
	require.NoError(t, err)

	// Three pooled transitions cannot fill a minibatch of eight
	_, err = agent.Update(buffer)
	require.Error(t, err)
}

func TestEstimateValue(t *testing.T) {
	agent, env := newTestAgent(t, 3)

	value, err := agent.EstimateValue(env.Reset())
	require.NoError(t, err)
	require.True(t, floatutils.AllFinite(value))
}
