package perd3qn

import (
	"fmt"

	"github.com/reinlife/reinlife/network"
)

// ApplyGaussianNoise adds independent N(0, NoiseStd^2) noise to every
// weight of the target network's feature layer.
//
// Unless PersistentNoise is set, the target network is then
// immediately overwritten with the eval network's weights, so the
// perturbation only consumes randomness.
func (p *PERD3QN) ApplyGaussianNoise() error {
	weights, err := p.targetNet.Param(network.FCWeight)
	if err != nil {
		return fmt.Errorf("applyGaussianNoise: %v", err)
	}

	data := weights.Data().([]float64)
	for i := range data {
		data[i] += p.noise.Rand()
	}

	if p.persistentNoise {
		return nil
	}
	if err := p.targetNet.Set(p.evalNet); err != nil {
		return fmt.Errorf("applyGaussianNoise: could not sync target "+
			"network: %v", err)
	}
	return nil
}
