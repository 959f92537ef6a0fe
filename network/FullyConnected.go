package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feedforward neural
// network. Every layer carries a bias unit.
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// newFCLayer adds a fully connected layer of out units to the graph g.
func newFCLayer(g *G.ExprGraph, in, out int, init G.InitWFn,
	act *Activation, name string) *fcLayer {
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(in, out),
		G.WithInit(init),
		G.WithName(name+"W"),
	)
	bias := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(1, out),
		G.WithInit(G.Zeroes()),
		G.WithName(name+"B"),
	)

	return &fcLayer{weights: weights, bias: bias, act: act}
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x, err := G.Mul(x, f.weights)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not multiply weights: %v", err)
	}

	// Broadcast the bias weights to all samples along the batch
	// dimension
	x, err = G.BroadcastAdd(x, f.bias, nil, []byte{0})
	if err != nil {
		return nil, fmt.Errorf("fwd: could not add bias: %v", err)
	}

	return f.act.fwd(x)
}

// cloneTo clones an fcLayer to a new computational graph. The cloned
// layer shares no state with the receiver.
func (f *fcLayer) cloneTo(g *G.ExprGraph) *fcLayer {
	return &fcLayer{
		weights: f.weights.CloneTo(g),
		bias:    f.bias.CloneTo(g),
		act:     f.act,
	}
}

// GobEncode implements the gob.GobEncoder interface
func (f *fcLayer) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(f.act); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode activation: %v",
			err)
	}

	for _, node := range []*G.Node{f.weights, f.bias} {
		shape := []int(node.Shape())
		if err := enc.Encode(shape); err != nil {
			return nil, fmt.Errorf("gobencode: could not encode shape: %v", err)
		}

		backing := node.Value().Data().([]float64)
		if err := enc.Encode(backing); err != nil {
			return nil, fmt.Errorf("gobencode: could not encode weights: %v",
				err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The receiver must
// already be part of a graph with the same topology as the encoded
// layer; decoding overwrites the layer's weight values in place.
func (f *fcLayer) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	var act Activation
	if err := dec.Decode(&act); err != nil {
		return fmt.Errorf("gobdecode: could not decode activation: %v", err)
	}
	f.act = &act

	for _, node := range []*G.Node{f.weights, f.bias} {
		var shape []int
		if err := dec.Decode(&shape); err != nil {
			return fmt.Errorf("gobdecode: could not decode shape: %v", err)
		}

		var backing []float64
		if err := dec.Decode(&backing); err != nil {
			return fmt.Errorf("gobdecode: could not decode weights: %v", err)
		}

		if !node.Shape().Eq(tensor.Shape(shape)) {
			return fmt.Errorf("gobdecode: shape mismatch \n\twant(%v)"+
				"\n\thave(%v)", node.Shape(), tensor.Shape(shape))
		}

		value := tensor.New(
			tensor.WithShape(shape...),
			tensor.WithBacking(backing),
		)
		if err := G.Let(node, value); err != nil {
			return fmt.Errorf("gobdecode: could not set weights: %v", err)
		}
	}

	return nil
}
