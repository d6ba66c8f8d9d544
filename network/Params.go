package network

import (
	"encoding/gob"
	"fmt"
	"os"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Parameterized is a network whose parameters can be read and
// overwritten by name
type Parameterized interface {
	Params() map[string]*tensor.Dense
	SetParams(map[string]*tensor.Dense) error
}

// Params returns a copy of every parameter of the network keyed by its
// name
func (d *Dueling) Params() map[string]*tensor.Dense {
	params := make(map[string]*tensor.Dense)
	for _, layer := range d.layers() {
		for name, node := range layer.params() {
			params[name] = node.Value().(*tensor.Dense).Clone().(*tensor.Dense)
		}
	}
	return params
}

// Param returns the live value of the parameter called name. Modifying
// the returned tensor modifies the network.
func (d *Dueling) Param(name string) (*tensor.Dense, error) {
	node, err := d.paramNode(name)
	if err != nil {
		return nil, fmt.Errorf("param: %v", err)
	}
	return node.Value().(*tensor.Dense), nil
}

func (d *Dueling) paramNode(name string) (*G.Node, error) {
	for _, layer := range d.layers() {
		if node, ok := layer.params()[name]; ok {
			return node, nil
		}
	}
	return nil, fmt.Errorf("no parameter named %v", name)
}

// SetParams overwrites every parameter of the network with a copy of
// the tensor of the same name. No parameter is modified unless all of
// them are present with matching shapes.
func (d *Dueling) SetParams(params map[string]*tensor.Dense) error {
	nodes := make(map[string]*G.Node)
	for _, layer := range d.layers() {
		for name, node := range layer.params() {
			nodes[name] = node
		}
	}

	for name, node := range nodes {
		value, ok := params[name]
		if !ok {
			return fmt.Errorf("setParams: missing parameter %v", name)
		}
		if !value.Shape().Eq(node.Shape()) {
			return fmt.Errorf("setParams: shape mismatch for %v "+
				"\n\twant(%v)\n\thave(%v)", name, node.Shape(), value.Shape())
		}
	}

	for name, node := range nodes {
		if err := G.Let(node, params[name].Clone()); err != nil {
			return fmt.Errorf("setParams: could not set %v: %v", name, err)
		}
	}
	return nil
}

// Save writes the parameters of net to filename
func Save(net Parameterized, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create file: %v", err)
	}
	defer file.Close()

	enc := gob.NewEncoder(file)
	if err := enc.Encode(net.Params()); err != nil {
		return fmt.Errorf("save: could not encode parameters: %v", err)
	}
	return nil
}

// Load reads a parameter snapshot written by Save
func Load(filename string) (map[string]*tensor.Dense, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("load: could not open file: %v", err)
	}
	defer file.Close()

	var params map[string]*tensor.Dense
	dec := gob.NewDecoder(file)
	if err := dec.Decode(&params); err != nil {
		return nil, fmt.Errorf("load: could not decode parameters: %v", err)
	}
	return params, nil
}
