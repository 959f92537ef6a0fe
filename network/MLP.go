package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a multi-layered perceptron. The final layer is always
// linear so that the network predicts one unbounded value per output
// unit; any squashing (e.g. into a probability simplex) is left to the
// consumer's loss graph.
type mlp struct {
	g      *G.ExprGraph
	layers []*fcLayer
	input  *G.Node

	numInputs  int
	numOutputs int
	batchSize  int

	// Data needed for gobbing
	hiddenSizes []int
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMLP creates and returns a new multi-layered perceptron operating
// on batches of batch inputs of features features each. For index i,
// hiddenSizes[i] is the number of units in hidden layer i and
// activations[i] is that layer's activation function. A final linear
// layer of outputs units is always appended.
func NewMLP(features, batch, outputs int, g *G.ExprGraph, hiddenSizes []int,
	init G.InitWFn, activations []*Activation) (NeuralNet, error) {
	// Ensure we have one activation per hidden layer
	if len(hiddenSizes) != len(activations) {
		msg := "newmlp: invalid number of activations\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, features),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	// Final linear layer predicting the output units
	sizes := append(append([]int{}, hiddenSizes...), outputs)
	acts := append(append([]*Activation{}, activations...), Identity())

	layers := make([]*fcLayer, len(sizes))
	in := features
	for i := range sizes {
		layers[i] = newFCLayer(g, in, sizes[i], init, acts[i],
			fmt.Sprintf("L%d", i))
		in = sizes[i]
	}

	net := &mlp{
		g:           g,
		layers:      layers,
		input:       input,
		numInputs:   features,
		numOutputs:  outputs,
		batchSize:   batch,
		hiddenSizes: hiddenSizes,
		activations: activations,
	}

	if _, err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("newmlp: could not compute forward pass: %v",
			err)
	}

	return net, nil
}

// fwd adds the forward pass of the mlp on the input node to the graph
func (e *mlp) fwd(input *G.Node) (*G.Node, error) {
	pred := input
	var err error
	for i, l := range e.layers {
		if pred, err = l.fwd(pred); err != nil {
			return nil, fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	e.prediction = pred
	G.Read(e.prediction, &e.predVal)

	return pred, nil
}

// Graph returns the computational graph of the mlp
func (e *mlp) Graph() *G.ExprGraph {
	return e.g
}

// Clone clones an mlp to a new computational graph
func (e *mlp) Clone() (NeuralNet, error) {
	return e.CloneWithBatch(e.batchSize)
}

// CloneWithBatch clones an mlp with a new input batch size. The cloned
// network lives on a fresh graph and starts with the same weights as
// the receiver.
func (e *mlp) CloneWithBatch(batchSize int) (NeuralNet, error) {
	g := G.NewGraph()

	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batchSize, e.numInputs),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	layers := make([]*fcLayer, len(e.layers))
	for i := range e.layers {
		layers[i] = e.layers[i].cloneTo(g)
	}

	net := &mlp{
		g:           g,
		layers:      layers,
		input:       input,
		numInputs:   e.numInputs,
		numOutputs:  e.numOutputs,
		batchSize:   batchSize,
		hiddenSizes: e.hiddenSizes,
		activations: e.activations,
	}

	if _, err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not compute forward "+
			"pass: %v", err)
	}

	return net, nil
}

// BatchSize returns the number of input vectors the mlp consumes per
// forward pass
func (e *mlp) BatchSize() int {
	return e.batchSize
}

// Features returns the number of components of a single input vector
func (e *mlp) Features() int {
	return e.numInputs
}

// Outputs returns the number of units in the output layer
func (e *mlp) Outputs() int {
	return e.numOutputs
}

// SetInput sets the value of the input node before running the forward
// pass. The input slice holds batchSize input vectors laid out
// consecutively.
func (e *mlp) SetInput(input []float64) error {
	if len(input) != e.numInputs*e.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", e.numInputs*e.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.input.Shape()...),
	)
	return G.Let(e.input, inputTensor)
}

// Set sets the weights of the mlp to be equal to the weights of
// another NeuralNet with the same topology
func (dest *mlp) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: source and destination topology differ")
	}
	for i, destLearnable := range nodes {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}

// Learnables returns the learnable nodes of the mlp
func (e *mlp) Learnables() G.Nodes {
	// Lazy instantiation
	if e.learnables == nil {
		e.learnables = make(G.Nodes, 0, 2*len(e.layers))
		for i := range e.layers {
			e.learnables = append(e.learnables, e.layers[i].weights,
				e.layers[i].bias)
		}
	}
	return e.learnables
}

// Model returns the learnable nodes with their gradients
func (e *mlp) Model() []G.ValueGrad {
	// Lazy instantiation
	if e.model == nil {
		e.model = make([]G.ValueGrad, 0, 2*len(e.layers))
		for _, node := range e.Learnables() {
			e.model = append(e.model, node)
		}
	}
	return e.model
}

// Output returns the value of the mlp's output as of the last run of
// the graph's VM
func (e *mlp) Output() G.Value {
	return e.predVal
}

// Prediction returns the node of the computational graph that stores
// the output of the mlp
func (e *mlp) Prediction() *G.Node {
	return e.prediction
}

// GobEncode implements the gob.GobEncoder interface
func (e *mlp) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(e.numInputs); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode features: %v", err)
	}
	if err := enc.Encode(e.numOutputs); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode outputs: %v", err)
	}
	if err := enc.Encode(e.hiddenSizes); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode hidden sizes: %v",
			err)
	}
	if err := enc.Encode(e.activations); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode activations: %v",
			err)
	}

	for i, layer := range e.layers {
		if err := enc.Encode(layer); err != nil {
			return nil, fmt.Errorf("gobencode: could not encode layer %v: %v",
				i, err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The decoded
// network keeps the receiver's batch size so that parameters saved
// from a training net can be loaded into a single-input net and vice
// versa.
func (e *mlp) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	var numInputs, numOutputs int
	if err := dec.Decode(&numInputs); err != nil {
		return fmt.Errorf("gobdecode: could not decode features: %v", err)
	}
	if err := dec.Decode(&numOutputs); err != nil {
		return fmt.Errorf("gobdecode: could not decode outputs: %v", err)
	}

	var hiddenSizes []int
	if err := dec.Decode(&hiddenSizes); err != nil {
		return fmt.Errorf("gobdecode: could not decode hidden sizes: %v", err)
	}

	var activations []*Activation
	if err := dec.Decode(&activations); err != nil {
		return fmt.Errorf("gobdecode: could not decode activations: %v", err)
	}

	batch := e.batchSize
	if batch == 0 {
		batch = 1
	}

	g := G.NewGraph()
	newNet, err := NewMLP(numInputs, batch, numOutputs, g, hiddenSizes,
		G.Zeroes(), activations)
	if err != nil {
		return fmt.Errorf("gobdecode: could not construct new MLP: %v", err)
	}
	newMLP := newNet.(*mlp)

	for i := range newMLP.layers {
		if err := dec.Decode(newMLP.layers[i]); err != nil {
			return fmt.Errorf("gobdecode: could not decode layer %v: %v", i,
				err)
		}
	}

	*e = *newMLP

	// The Read registered during construction writes into the temporary
	// net's output slot; register a Read into the receiver's slot so
	// Output() reflects runs of the decoded graph.
	G.Read(e.prediction, &e.predVal)

	return nil
}
