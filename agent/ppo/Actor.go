package ppo

import (
	"fmt"
	"math"
	"math/rand"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"sfneuman.com/jobshop/network"
	"sfneuman.com/jobshop/solver"
	"sfneuman.com/jobshop/utils/floatutils"
	"sfneuman.com/jobshop/utils/op"
)

// Actor is the learned policy: a single hidden ReLU layer feeding a
// linear logits head, normalized into a categorical distribution over
// the discrete actions.
//
// Two networks share one weight set. The behaviour net takes a single
// state and is used to sample actions during collection; the train net
// takes minibatches and carries the clipped-surrogate loss graph:
//
//	ratio      = π(a|s) / π_old(a|s)
//	surrogate  = ratio * advantage
//	clipSurr   = clip(ratio, 1-ε, 1+ε) * advantage
//	loss       = -mean(min(surrogate, clipSurr))
//
// After an update the behaviour net is re-synced to the train net so
// that the next epoch collects under the updated policy.
type Actor struct {
	behaviour   network.NeuralNet
	behaviourVM G.VM

	train   network.NeuralNet
	trainVM G.VM
	solver  *solver.Solver

	// Placeholder nodes fed per minibatch
	actionMask *G.Node // One-hot recorded actions
	oldProbs   *G.Node // Frozen selection-time probabilities
	advantages *G.Node // Detached R - V(s)

	ratioVal G.Value
	lossVal  G.Value

	numActions int
	batchSize  int
	epsilon    float64
	rng        *rand.Rand
}

// NewActor returns a new Actor for states of stateDim components and
// numActions discrete actions, updated on minibatches of batchSize
// transitions.
func NewActor(stateDim, numActions, hidden, batchSize int, lr, epsilon,
	maxGradNorm float64, seed int64) (*Actor, error) {
	if numActions < 2 {
		return nil, fmt.Errorf("newactor: need at least 2 actions")
	}

	// Behaviour network for sampling single actions
	g := G.NewGraph()
	behaviour, err := network.NewMLP(stateDim, 1, numActions, g,
		[]int{hidden}, G.GlorotU(1.0),
		[]*network.Activation{network.ReLU()})
	if err != nil {
		return nil, fmt.Errorf("newactor: could not create behaviour "+
			"network: %v", err)
	}
	behaviourVM := G.NewTapeMachine(g)

	// Training network carrying the surrogate loss
	train, err := behaviour.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("newactor: could not create train network: %v",
			err)
	}
	gTrain := train.Graph()
	logits := train.Prediction()

	actionMask := G.NewMatrix(
		gTrain,
		tensor.Float64,
		G.WithShape(batchSize, numActions),
		G.WithName("actionMask"),
		G.WithInit(G.Zeroes()),
	)
	oldProbs := G.NewVector(
		gTrain,
		tensor.Float64,
		G.WithShape(batchSize),
		G.WithName("oldProbs"),
		G.WithInit(G.Ones()),
	)
	advantages := G.NewVector(
		gTrain,
		tensor.Float64,
		G.WithShape(batchSize),
		G.WithName("advantages"),
		G.WithInit(G.Zeroes()),
	)

	// Log probability of the recorded actions under the current
	// parameters: gather the chosen logits with the one-hot mask and
	// subtract the per-row LogSumExp
	selected := G.Must(G.HadamardProd(actionMask, logits))
	selected = G.Must(G.Sum(selected, 1))
	logProb := G.Must(G.Sub(selected, op.LogSumExp(logits, 1)))
	newProbs := G.Must(G.Exp(logProb))

	ratio := G.Must(G.HadamardDiv(newProbs, oldProbs))
	clipped, err := op.Clip(ratio, 1-epsilon, 1+epsilon)
	if err != nil {
		return nil, fmt.Errorf("newactor: could not clip ratio: %v", err)
	}

	surrogate := G.Must(G.HadamardProd(ratio, advantages))
	clipSurr := G.Must(G.HadamardProd(clipped, advantages))
	objective, err := op.Min(surrogate, clipSurr)
	if err != nil {
		return nil, fmt.Errorf("newactor: could not take surrogate min: %v",
			err)
	}

	loss := G.Must(G.Mean(objective))
	loss = G.Must(G.Neg(loss))

	actor := &Actor{
		numActions: numActions,
		batchSize:  batchSize,
		epsilon:    epsilon,
	}
	G.Read(ratio, &actor.ratioVal)
	G.Read(loss, &actor.lossVal)

	if _, err := G.Grad(loss, train.Learnables()...); err != nil {
		return nil, fmt.Errorf("newactor: could not compute gradient: %v", err)
	}
	trainVM := G.NewTapeMachine(gTrain,
		G.BindDualValues(train.Learnables()...))

	adam, err := solver.NewAdam(lr, maxGradNorm, batchSize)
	if err != nil {
		return nil, fmt.Errorf("newactor: %v", err)
	}

	actor.behaviour = behaviour
	actor.behaviourVM = behaviourVM
	actor.train = train
	actor.trainVM = trainVM
	actor.solver = adam
	actor.actionMask = actionMask
	actor.oldProbs = oldProbs
	actor.advantages = advantages
	actor.rng = rand.New(rand.NewSource(seed))

	return actor, nil
}

// SelectAction draws one action from the categorical distribution the
// current parameters induce over the actions in the given state. It
// returns the action index together with the probability mass the
// policy assigned to it. Pure forward evaluation; training state is
// untouched.
func (a *Actor) SelectAction(state []float64) (int, float64, error) {
	if err := a.behaviour.SetInput(state); err != nil {
		return 0, 0, fmt.Errorf("selectaction: %v", err)
	}
	if err := a.behaviourVM.RunAll(); err != nil {
		return 0, 0, fmt.Errorf("selectaction: could not run behaviour "+
			"network: %v", err)
	}
	logits := a.behaviour.Output().Data().([]float64)
	a.behaviourVM.Reset()

	probs := floatutils.Softmax(logits)
	action := a.sample(probs)

	return action, probs[action], nil
}

// sample draws one index from the categorical distribution probs
func (a *Actor) sample(probs []float64) int {
	r := a.rng.Float64()

	var cumulative float64
	for i, prob := range probs {
		cumulative += prob
		if r < cumulative {
			return i
		}
	}
	return len(probs) - 1
}

// Step applies one gradient-clipped optimizer step minimizing the
// clipped surrogate loss on a minibatch. The advantages must already
// be detached: they enter the graph as constant per-sample weights.
func (a *Actor) Step(states []float64, actions []int, oldProbs,
	advantages []float64) error {
	if len(actions) != a.batchSize {
		return fmt.Errorf("step: illegal minibatch size\n\twant(%v)"+
			"\n\thave(%v)", a.batchSize, len(actions))
	}

	if err := a.train.SetInput(states); err != nil {
		return fmt.Errorf("step: %v", err)
	}

	// One-hot encode the recorded actions
	mask := make([]float64, a.batchSize*a.numActions)
	for i, action := range actions {
		mask[i*a.numActions+action] = 1.0
	}
	maskTensor := tensor.New(
		tensor.WithShape(a.batchSize, a.numActions),
		tensor.WithBacking(mask),
	)
	if err := G.Let(a.actionMask, maskTensor); err != nil {
		return fmt.Errorf("step: could not set action mask: %v", err)
	}

	oldProbsTensor := tensor.New(
		tensor.WithShape(a.batchSize),
		tensor.WithBacking(oldProbs),
	)
	if err := G.Let(a.oldProbs, oldProbsTensor); err != nil {
		return fmt.Errorf("step: could not set old probabilities: %v", err)
	}

	advantagesTensor := tensor.New(
		tensor.WithShape(a.batchSize),
		tensor.WithBacking(advantages),
	)
	if err := G.Let(a.advantages, advantagesTensor); err != nil {
		return fmt.Errorf("step: could not set advantages: %v", err)
	}

	if err := a.trainVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run train network: %v", err)
	}
	if err := a.solver.Step(a.train.Model()); err != nil {
		return fmt.Errorf("step: could not step solver: %v", err)
	}
	a.trainVM.Reset()

	return nil
}

// Sync copies the train network's weights into the behaviour network
// so that subsequent action selection follows the updated policy
func (a *Actor) Sync() error {
	return a.behaviour.Set(a.train)
}

// Loss returns the surrogate loss of the last Step
func (a *Actor) Loss() float64 {
	if a.lossVal == nil {
		return math.NaN()
	}
	return a.lossVal.Data().(float64)
}

// Ratios returns the probability ratios of the last Step
func (a *Actor) Ratios() []float64 {
	if a.ratioVal == nil {
		return nil
	}
	return a.ratioVal.Data().([]float64)
}

// ClipFraction returns the fraction of the last Step's ratios that
// fell outside the clipping band
func (a *Actor) ClipFraction() float64 {
	ratios := a.Ratios()
	if len(ratios) == 0 {
		return 0
	}

	var clipped int
	for _, ratio := range ratios {
		if math.Abs(ratio-1) > a.epsilon {
			clipped++
		}
	}
	return float64(clipped) / float64(len(ratios))
}

// Network returns the behaviour network, which holds the policy's
// current parameters after a Sync
func (a *Actor) Network() network.NeuralNet {
	return a.behaviour
}

// Restore loads previously saved parameters into both networks and
// recompiles the behaviour VM against the restored graph
func (a *Actor) Restore() error {
	a.behaviourVM = G.NewTapeMachine(a.behaviour.Graph())
	return a.train.Set(a.behaviour)
}
