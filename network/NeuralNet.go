// Package network implements the neural network function approximators
// used by the deep agents, built as Gorgonia expression graphs.
package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// NeuralNet is a neural network with a fixed input batch size whose
// forward pass lives in a Gorgonia expression graph. The graph must be
// run by an external VM after SetInput; Output then holds the result.
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

// Predict sets the input of net, runs vm, and returns a copy of the
// network's output in row major order. The vm must have been compiled
// from net.Graph().
func Predict(net NeuralNet, vm G.VM, input []float64) ([]float64, error) {
	defer vm.Reset()

	if err := net.SetInput(input); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	if err := vm.RunAll(); err != nil {
		return nil, fmt.Errorf("predict: could not run vm: %v", err)
	}

	output := net.Output()
	if output == nil {
		return nil, fmt.Errorf("predict: network produced no output")
	}

	values := output.Data().([]float64)
	prediction := make([]float64, len(values))
	copy(prediction, values)

	return prediction, nil
}
