// Package policy implements action selection over neural network
// action-value estimates.
package policy

import (
	"fmt"

	"github.com/reinlife/reinlife/network"
	"github.com/reinlife/reinlife/utils/floatutils"
	"golang.org/x/exp/rand"
	G "gorgonia.org/gorgonia"
)

// EGreedy implements an epsilon greedy policy over the action values
// predicted by a neural network with batch size 1. Unlike a training
// network, EGreedy owns the VM that runs its network's graph.
//
// With probability epsilon a uniform random action is selected,
// otherwise the action of largest value is selected. Ties go to the
// action of lowest index.
type EGreedy struct {
	network.NeuralNet
	vm  G.VM
	rng *rand.Rand
}

// NewEGreedy returns a new EGreedy policy acting with net. Random
// actions are drawn using src.
func NewEGreedy(net network.NeuralNet, src rand.Source) (*EGreedy, error) {
	if net.BatchSize() != 1 {
		return nil, fmt.Errorf("newEGreedy: policy network must have "+
			"batch size 1 \n\twant(1)\n\thave(%v)", net.BatchSize())
	}

	return &EGreedy{
		NeuralNet: net,
		vm:        G.NewTapeMachine(net.Graph()),
		rng:       rand.New(src),
	}, nil
}

// ActionValues returns the predicted value of each action in the state
// described by obs
func (e *EGreedy) ActionValues(obs []float64) ([]float64, error) {
	values, err := network.Predict(e.NeuralNet, e.vm, obs)
	if err != nil {
		return nil, fmt.Errorf("actionValues: %v", err)
	}
	return values, nil
}

// SelectAction selects an action in the state described by obs
func (e *EGreedy) SelectAction(obs []float64, epsilon float64) (int, error) {
	// The forward pass always runs so that invalid observations are
	// reported even when exploring
	values, err := e.ActionValues(obs)
	if err != nil {
		return 0, fmt.Errorf("selectAction: %v", err)
	}

	if e.rng.Float64() < epsilon {
		return e.rng.Intn(e.Outputs()), nil
	}
	return floatutils.Argmax(values), nil
}

// Close releases the resources held by the policy's VM
func (e *EGreedy) Close() error {
	return e.vm.Close()
}
