// Package network implements the feedforward neural network function
// approximators used by the actor and critic, backed by Gorgonia.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a feedforward function approximator whose forward pass
// lives in a Gorgonia computational graph. A NeuralNet does not own a
// virtual machine; callers compile the net's graph into a VM, call
// SetInput(), run the VM, and read the result with Output().
type NeuralNet interface {
	Graph() *G.ExprGraph
	Clone() (NeuralNet, error)
	CloneWithBatch(int) (NeuralNet, error)
	BatchSize() int
	Features() int
	Outputs() int
	SetInput([]float64) error
	Set(NeuralNet) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() G.Value
	Prediction() *G.Node
}
