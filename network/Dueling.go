package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Parameter names of a Dueling network, in the order of Learnables()
const (
	FCWeight     = "fc.weight"
	FCBias       = "fc.bias"
	AdvFC1Weight = "adv_fc1.weight"
	AdvFC1Bias   = "adv_fc1.bias"
	AdvFC2Weight = "adv_fc2.weight"
	AdvFC2Bias   = "adv_fc2.bias"
	ValFC1Weight = "value_fc1.weight"
	ValFC1Bias   = "value_fc1.bias"
	ValFC2Weight = "value_fc2.weight"
	ValFC2Bias   = "value_fc2.bias"
)

// DefaultHidden is the default width of every hidden layer of a
// Dueling network
const DefaultHidden = 128

// Dueling implements a dueling action-value network. A shared linear
// feature layer feeds a ReLU, after which the network splits into an
// advantage head and a state-value head:
//
//	Q(s, a) = A(s, a) + V(s) - mean_a' A(s, a')
//
// The mean is taken over the actions of each row of the batch.
type Dueling struct {
	g     *G.ExprGraph
	input *G.Node

	root      *fcLayer
	advantage []*fcLayer
	value     []*fcLayer

	numInputs  int
	numOutputs int
	numHidden  int
	batchSize  int

	prediction *G.Node
	predVal    G.Value
	advVal     G.Value
	valueVal   G.Value
}

// NewDueling creates a new Dueling network on the graph g taking
// batches of batch observations of features features each and
// predicting outputs action values per observation. Weights are
// initialized with init; biases start at zero.
func NewDueling(features, batch, outputs, hidden int, g *G.ExprGraph,
	init G.InitWFn) (*Dueling, error) {
	if features < 1 {
		return nil, fmt.Errorf("newDueling: features must be positive "+
			"\n\twant(>0)\n\thave(%v)", features)
	}
	if batch < 1 {
		return nil, fmt.Errorf("newDueling: batch size must be positive "+
			"\n\twant(>0)\n\thave(%v)", batch)
	}
	if outputs < 1 {
		return nil, fmt.Errorf("newDueling: outputs must be positive "+
			"\n\twant(>0)\n\thave(%v)", outputs)
	}
	if hidden < 1 {
		return nil, fmt.Errorf("newDueling: hidden units must be positive "+
			"\n\twant(>0)\n\thave(%v)", hidden)
	}

	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, features),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	net := &Dueling{
		g:          g,
		input:      input,
		numInputs:  features,
		numOutputs: outputs,
		numHidden:  hidden,
		batchSize:  batch,
	}

	net.root = newFCLayer(g, features, hidden, "fc", init, Identity())
	net.advantage = []*fcLayer{
		newFCLayer(g, hidden, hidden, "adv_fc1", init, ReLU()),
		newFCLayer(g, hidden, outputs, "adv_fc2", init, Identity()),
	}
	net.value = []*fcLayer{
		newFCLayer(g, hidden, hidden, "value_fc1", init, ReLU()),
		newFCLayer(g, hidden, 1, "value_fc2", init, Identity()),
	}

	if _, err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("newDueling: %v", err)
	}

	return net, nil
}

// fwd builds the forward pass of the network. Broadcasting along the
// batch and action dimensions is done with multiplications by constant
// matrices so that every batch size, including 1, has static shapes.
func (d *Dueling) fwd(input *G.Node) (*G.Node, error) {
	g := input.Graph()

	batchOnes := G.NewMatrix(g, tensor.Float64,
		G.WithShape(d.batchSize, 1), G.WithName("batchOnes"),
		G.WithInit(G.Ones()))
	actionOnes := G.NewMatrix(g, tensor.Float64,
		G.WithShape(1, d.numOutputs), G.WithName("actionOnes"),
		G.WithInit(G.Ones()))
	actionMean := G.NewMatrix(g, tensor.Float64,
		G.WithShape(d.numOutputs, d.numOutputs), G.WithName("actionMean"),
		G.WithInit(G.ValuesOf(1.0/float64(d.numOutputs))))

	feature, err := d.root.fwd(input, batchOnes)
	if err != nil {
		return nil, err
	}
	hidden, err := G.Rectify(feature)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not apply relu: %v", err)
	}

	adv, err := fwdLayers(d.advantage, hidden, batchOnes)
	if err != nil {
		return nil, err
	}
	value, err := fwdLayers(d.value, hidden, batchOnes)
	if err != nil {
		return nil, err
	}

	// (N, 1) x (1, A) repeats each state value across the actions and
	// (N, A) x (A, A) of 1/A gives the row mean in every column.
	broadcastValue, err := G.Mul(value, actionOnes)
	if err != nil {
		return nil, fmt.Errorf("fwd: value broadcast: %v", err)
	}
	meanAdv, err := G.Mul(adv, actionMean)
	if err != nil {
		return nil, fmt.Errorf("fwd: advantage mean: %v", err)
	}
	q, err := G.Add(adv, broadcastValue)
	if err != nil {
		return nil, fmt.Errorf("fwd: %v", err)
	}
	if q, err = G.Sub(q, meanAdv); err != nil {
		return nil, fmt.Errorf("fwd: %v", err)
	}

	d.prediction = q
	G.Read(q, &d.predVal)
	G.Read(adv, &d.advVal)
	G.Read(value, &d.valueVal)

	return q, nil
}

func fwdLayers(layers []*fcLayer, x, ones *G.Node) (*G.Node, error) {
	var err error
	for _, layer := range layers {
		if x, err = layer.fwd(x, ones); err != nil {
			return nil, err
		}
	}
	return x, nil
}

// layers returns the layers of the network in parameter order
func (d *Dueling) layers() []*fcLayer {
	layers := []*fcLayer{d.root}
	layers = append(layers, d.advantage...)
	return append(layers, d.value...)
}

// Graph returns the computational graph of the network
func (d *Dueling) Graph() *G.ExprGraph {
	return d.g
}

// BatchSize returns the number of observations per forward pass
func (d *Dueling) BatchSize() int {
	return d.batchSize
}

// Features returns the number of features per observation
func (d *Dueling) Features() int {
	return d.numInputs
}

// Outputs returns the number of action values predicted per observation
func (d *Dueling) Outputs() int {
	return d.numOutputs
}

// Hidden returns the width of the hidden layers
func (d *Dueling) Hidden() int {
	return d.numHidden
}

// Clone clones the network onto a new graph with the same batch size
func (d *Dueling) Clone() (NeuralNet, error) {
	return d.CloneWithBatch(d.batchSize)
}

// CloneWithBatch clones the network onto a new graph with a new batch
// size. Parameter values are copied.
func (d *Dueling) CloneWithBatch(batch int) (NeuralNet, error) {
	net, err := NewDueling(d.numInputs, batch, d.numOutputs, d.numHidden,
		G.NewGraph(), G.Zeroes())
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}

	if err := net.Set(d); err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}
	return net, nil
}

// SetInput sets the value of the input node before running the
// forward pass. The input must hold exactly BatchSize() * Features()
// values in row major order.
func (d *Dueling) SetInput(input []float64) error {
	if len(input) != d.numInputs*d.batchSize {
		return fmt.Errorf("setInput: invalid number of inputs "+
			"\n\twant(%v)\n\thave(%v)", d.numInputs*d.batchSize, len(input))
	}

	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(d.input.Shape()...),
	)
	return G.Let(d.input, inputTensor)
}

// Set sets the weights of the network to be a copy of the weights of
// the source network. The architectures must match; batch sizes may
// differ.
func (d *Dueling) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := d.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: invalid number of learnables "+
			"\n\twant(%v)\n\thave(%v)", len(nodes), len(sourceNodes))
	}

	for i, destNode := range nodes {
		srcNode := sourceNodes[i]
		if !srcNode.Shape().Eq(destNode.Shape()) {
			return fmt.Errorf("set: shape mismatch for %v "+
				"\n\twant(%v)\n\thave(%v)", destNode.Name(), destNode.Shape(),
				srcNode.Shape())
		}

		srcVal, ok := srcNode.Value().(*tensor.Dense)
		if !ok {
			return fmt.Errorf("set: %v has no dense value", srcNode.Name())
		}
		if err := G.Let(destNode, srcVal.Clone()); err != nil {
			return fmt.Errorf("set: could not set %v: %v", destNode.Name(),
				err)
		}
	}

	return nil
}

// Learnables returns the learnable nodes of the network: the weights
// and bias of each layer from the feature layer through the advantage
// head to the value head.
func (d *Dueling) Learnables() G.Nodes {
	layers := d.layers()
	learnables := make(G.Nodes, 0, 2*len(layers))
	for _, layer := range layers {
		learnables = append(learnables, layer.Weights(), layer.Bias())
	}
	return learnables
}

// Model returns the learnables as ValueGrads for a Gorgonia solver
func (d *Dueling) Model() []G.ValueGrad {
	learnables := d.Learnables()
	model := make([]G.ValueGrad, len(learnables))
	for i, learnable := range learnables {
		model[i] = learnable
	}
	return model
}

// Output returns the action values of the last forward pass, shaped
// (BatchSize(), Outputs())
func (d *Dueling) Output() G.Value {
	return d.predVal
}

// AdvantageOutput returns the advantage head's output of the last
// forward pass
func (d *Dueling) AdvantageOutput() G.Value {
	return d.advVal
}

// ValueOutput returns the state-value head's output of the last
// forward pass, shaped (BatchSize(), 1)
func (d *Dueling) ValueOutput() G.Value {
	return d.valueVal
}

// Prediction returns the node holding the action values
func (d *Dueling) Prediction() *G.Node {
	return d.prediction
}
