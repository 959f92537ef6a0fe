package op

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// run evaluates node and returns its value
func run(t *testing.T, g *G.ExprGraph, node *G.Node) G.Value {
	t.Helper()

	var val G.Value
	G.Read(node, &val)

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	require.NoError(t, vm.RunAll())

	return val
}

func vector(g *G.ExprGraph, name string, backing []float64) *G.Node {
	return G.NewVector(
		g,
		tensor.Float64,
		G.WithShape(len(backing)),
		G.WithName(name),
		G.WithValue(tensor.New(
			tensor.WithShape(len(backing)),
			tensor.WithBacking(backing),
		)),
	)
}

func TestClip(t *testing.T) {
	g := G.NewGraph()
	in := vector(g, "in", []float64{0.5, 0.8, 1.0, 1.5, 1.2})

	clipped, err := Clip(in, 0.8, 1.2)
	require.NoError(t, err)

	out := run(t, g, clipped).Data().([]float64)
	require.InDeltaSlice(t, []float64{0.8, 0.8, 1.0, 1.2, 1.2}, out, 1e-12)
}

func TestMin(t *testing.T) {
	g := G.NewGraph()
	a := vector(g, "a", []float64{1, -2, 3, 4})
	b := vector(g, "b", []float64{2, -3, 3, 1})

	min, err := Min(a, b)
	require.NoError(t, err)

	out := run(t, g, min).Data().([]float64)
	require.InDeltaSlice(t, []float64{1, -3, 3, 1}, out, 1e-12)
}

func TestLogSumExp(t *testing.T) {
	g := G.NewGraph()
	logits := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(2, 3),
		G.WithName("logits"),
		G.WithValue(tensor.New(
			tensor.WithShape(2, 3),
			tensor.WithBacking([]float64{1, 2, 3, -1, 0, 1}),
		)),
	)

	lse := LogSumExp(logits, 1)
	out := run(t, g, lse).Data().([]float64)

	want := []float64{
		math.Log(math.Exp(1) + math.Exp(2) + math.Exp(3)),
		math.Log(math.Exp(-1) + math.Exp(0) + math.Exp(1)),
	}
	require.InDeltaSlice(t, want, out, 1e-12)
}
