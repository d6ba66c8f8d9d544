package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feed forward neural
// network. Weights are laid out (inputs, outputs) and the bias is a
// (1, outputs) row.
type fcLayer struct {
	name    string
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// newFCLayer adds the weights and bias of a new fully connected layer
// to the graph g. Parameter nodes are named name.weight and name.bias.
func newFCLayer(g *G.ExprGraph, inputs, outputs int, name string,
	init G.InitWFn, act *Activation) *fcLayer {
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(inputs, outputs),
		G.WithName(name+".weight"),
		G.WithInit(init),
	)
	bias := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(1, outputs),
		G.WithName(name+".bias"),
		G.WithInit(G.Zeroes()),
	)

	return &fcLayer{
		name:    name,
		weights: weights,
		bias:    bias,
		act:     act,
	}
}

// fwd adds the forward pass of the fcLayer to the computational graph.
// The ones parameter is a (batch, 1) column of ones used to broadcast
// the bias row along the batch dimension.
func (f *fcLayer) fwd(x, ones *G.Node) (*G.Node, error) {
	out, err := G.Mul(x, f.weights)
	if err != nil {
		return nil, fmt.Errorf("fwd: layer %v: %v", f.name, err)
	}

	if f.bias != nil {
		bias, err := G.Mul(ones, f.bias)
		if err != nil {
			return nil, fmt.Errorf("fwd: layer %v bias: %v", f.name, err)
		}
		if out, err = G.Add(out, bias); err != nil {
			return nil, fmt.Errorf("fwd: layer %v bias: %v", f.name, err)
		}
	}

	if f.act == nil || f.act.IsIdentity() {
		return out, nil
	}
	return f.act.fwd(out)
}

// params returns the named parameter nodes of the layer
func (f *fcLayer) params() map[string]*G.Node {
	return map[string]*G.Node{
		f.name + ".weight": f.weights,
		f.name + ".bias":   f.bias,
	}
}

// Activation returns the activation applied after the layer
func (f *fcLayer) Activation() *Activation {
	return f.act
}

// Bias returns the bias node of the layer
func (f *fcLayer) Bias() *G.Node {
	return f.bias
}

// Weights returns the weight node of the layer
func (f *fcLayer) Weights() *G.Node {
	return f.weights
}
