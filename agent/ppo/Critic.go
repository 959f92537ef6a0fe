package ppo

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"sfneuman.com/jobshop/network"
	"sfneuman.com/jobshop/solver"
)

// Critic is the learned state-value function V(s), fit to the Monte
// Carlo returns of the pooled batch by mean squared error regression.
//
// Like the Actor it holds two networks over one weight set: an
// estimate net of batch size 1 for single-state value queries and a
// train net carrying the regression loss over minibatches. Forward
// evaluates the train net without stepping so that the values backing
// the advantages are read under the pre-step parameters.
type Critic struct {
	estimate   network.NeuralNet
	estimateVM G.VM

	train   network.NeuralNet
	trainVM G.VM
	solver  *solver.Solver

	targets *G.Node
	lossVal G.Value

	batchSize int
}

// NewCritic returns a new Critic for states of stateDim components,
// updated on minibatches of batchSize transitions
func NewCritic(stateDim, hidden, batchSize int, lr,
	maxGradNorm float64) (*Critic, error) {
	g := G.NewGraph()
	estimate, err := network.NewMLP(stateDim, 1, 1, g, []int{hidden},
		G.GlorotU(1.0), []*network.Activation{network.ReLU()})
	if err != nil {
		return nil, fmt.Errorf("newcritic: could not create estimate "+
			"network: %v", err)
	}
	estimateVM := G.NewTapeMachine(g)

	train, err := estimate.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("newcritic: could not create train network: %v",
			err)
	}
	gTrain := train.Graph()

	targets := G.NewMatrix(
		gTrain,
		tensor.Float64,
		G.WithShape(batchSize, 1),
		G.WithName("valueTargets"),
		G.WithInit(G.Zeroes()),
	)

	losses := G.Must(G.Sub(targets, train.Prediction()))
	losses = G.Must(G.Square(losses))
	loss := G.Must(G.Mean(losses))

	critic := &Critic{batchSize: batchSize}
	G.Read(loss, &critic.lossVal)

	if _, err := G.Grad(loss, train.Learnables()...); err != nil {
		return nil, fmt.Errorf("newcritic: could not compute gradient: %v",
			err)
	}
	trainVM := G.NewTapeMachine(gTrain,
		G.BindDualValues(train.Learnables()...))

	adam, err := solver.NewAdam(lr, maxGradNorm, batchSize)
	if err != nil {
		return nil, fmt.Errorf("newcritic: %v", err)
	}

	critic.estimate = estimate
	critic.estimateVM = estimateVM
	critic.train = train
	critic.trainVM = trainVM
	critic.solver = adam
	critic.targets = targets

	return critic, nil
}

// Forward runs the train network on a minibatch of states against the
// given return targets and returns the predicted state values. The VM
// is left run so that a following StepOptimizer applies the gradients
// of exactly this minibatch.
func (c *Critic) Forward(states, targets []float64) ([]float64, error) {
	if len(targets) != c.batchSize {
		return nil, fmt.Errorf("forward: illegal minibatch size\n\twant(%v)"+
			"\n\thave(%v)", c.batchSize, len(targets))
	}

	if err := c.train.SetInput(states); err != nil {
		return nil, fmt.Errorf("forward: %v", err)
	}

	targetsTensor := tensor.New(
		tensor.WithShape(c.batchSize, 1),
		tensor.WithBacking(targets),
	)
	if err := G.Let(c.targets, targetsTensor); err != nil {
		return nil, fmt.Errorf("forward: could not set targets: %v", err)
	}

	if err := c.trainVM.RunAll(); err != nil {
		return nil, fmt.Errorf("forward: could not run train network: %v", err)
	}

	predicted := c.train.Output().Data().([]float64)
	values := make([]float64, len(predicted))
	copy(values, predicted)

	return values, nil
}

// StepOptimizer applies one gradient-clipped optimizer step using the
// gradients of the last Forward, then resets the train VM
func (c *Critic) StepOptimizer() error {
	if err := c.solver.Step(c.train.Model()); err != nil {
		return fmt.Errorf("stepoptimizer: could not step solver: %v", err)
	}
	c.trainVM.Reset()
	return nil
}

// Estimate returns the estimate network's state value of a single state
func (c *Critic) Estimate(state []float64) (float64, error) {
	if err := c.estimate.SetInput(state); err != nil {
		return 0, fmt.Errorf("estimate: %v", err)
	}
	if err := c.estimateVM.RunAll(); err != nil {
		return 0, fmt.Errorf("estimate: could not run estimate network: %v",
			err)
	}
	value := c.estimate.Output().Data().([]float64)[0]
	c.estimateVM.Reset()

	return value, nil
}

// Sync copies the train network's weights into the estimate network
func (c *Critic) Sync() error {
	return c.estimate.Set(c.train)
}

// Loss returns the regression loss of the last Forward
func (c *Critic) Loss() float64 {
	if c.lossVal == nil {
		return math.NaN()
	}
	return c.lossVal.Data().(float64)
}

// Network returns the estimate network, which holds the value
// function's current parameters after a Sync
func (c *Critic) Network() network.NeuralNet {
	return c.estimate
}

// Restore loads previously saved parameters into both networks and
// recompiles the estimate VM against the restored graph
func (c *Critic) Restore() error {
	c.estimateVM = G.NewTapeMachine(c.estimate.Graph())
	return c.train.Set(c.estimate)
}
