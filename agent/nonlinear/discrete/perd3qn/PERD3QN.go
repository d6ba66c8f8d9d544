// Package perd3qn implements the Prioritized Experience Replay Dueling
// Double Deep Q-Network agent.
package perd3qn

import (
	"fmt"
	"math"

	"github.com/aunum/log"
	"github.com/reinlife/reinlife/agent"
	"github.com/reinlife/reinlife/agent/nonlinear/discrete/policy"
	"github.com/reinlife/reinlife/expreplay"
	"github.com/reinlife/reinlife/initwfn"
	"github.com/reinlife/reinlife/network"
	"github.com/reinlife/reinlife/solver"
	ts "github.com/reinlife/reinlife/timestep"
	"github.com/reinlife/reinlife/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// PERD3QN implements a dueling deep Q-network trained from a
// prioritized replay buffer. Transitions are stored for every step,
// but learning only starts once the exploration episodes are over.
//
// The agent keeps several copies of the dueling network, each on its
// own graph with a fixed batch size:
//
//	evalNet:   batch N, the network whose weights are learned
//	targetNet: batch N, provides the bootstrapped update target
//	behaviour: batch 1, copy of evalNet used to select actions
//	nextNet:   batch N, copy of evalNet selecting next actions (DoubleQ)
type PERD3QN struct {
	evalNet   *network.Dueling
	evalNetVM G.VM
	solver    G.Solver

	targetNet   *network.Dueling
	targetNetVM G.VM

	behaviour *policy.EGreedy

	nextNet   *network.Dueling
	nextNetVM G.VM

	// Input nodes of the loss in evalNet's graph
	selectedActions *G.Node
	targets         *G.Node
	isWeights       *G.Node

	qVal    G.Value // Q(s, a) of the sampled actions
	lossVal G.Value

	replay *expreplay.Prioritized
	noise  distuv.Normal

	numActions     int
	features       int
	batchSize      int
	gamma          float64
	learningRate   float64
	exploration    int
	softUpdateFreq int
	trainFreq      int

	training     bool
	epsilon      float64
	epsilonMin   float64
	epsilonDecay float64
	nEpi         int

	doubleQ            bool
	importanceWeighted bool
	persistentNoise    bool

	newSolver func() G.Solver
}

// New creates and returns a new PERD3QN agent. Each source of
// randomness of the agent is seeded from seed.
func New(c Config, seed uint64) (*PERD3QN, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	initWFn := c.InitWFn
	if initWFn == nil {
		var err error
		if initWFn, err = initwfn.NewGlorotU(1.0); err != nil {
			return nil, fmt.Errorf("new: could not create weight "+
				"initializer: %v", err)
		}
	}
	init := initWFn.InitWFn(rand.NewSource(seed))

	// Target network, from which the eval network is cloned so that
	// both start with the same weights
	targetNet, err := network.NewDueling(c.InputDim, c.BatchSize,
		c.OutputDim, c.Hidden, G.NewGraph(), init)
	if err != nil {
		return nil, fmt.Errorf("new: could not create target network: %v",
			err)
	}
	evalClone, err := targetNet.Clone()
	if err != nil {
		return nil, fmt.Errorf("new: could not create eval network: %v", err)
	}
	evalNet := evalClone.(*network.Dueling)

	if c.LoadModel != "" {
		params, err := network.Load(c.LoadModel)
		if err != nil {
			return nil, fmt.Errorf("new: %v", err)
		}
		if err := evalNet.SetParams(params); err != nil {
			return nil, fmt.Errorf("new: eval network: %v", err)
		}
		if c.Training {
			if err := targetNet.SetParams(params); err != nil {
				return nil, fmt.Errorf("new: target network: %v", err)
			}
		}
		log.Infof("loaded model %v", c.LoadModel)
	}

	newSolver := func() G.Solver {
		if c.Solver != nil {
			return c.Solver.Fresh()
		}
		adam, err := solver.NewDefaultAdam(c.LearningRate, 1)
		if err != nil {
			panic(fmt.Sprintf("new: could not create solver: %v", err))
		}
		return adam.Fresh()
	}

	p := &PERD3QN{
		evalNet:        evalNet,
		targetNet:      targetNet,
		targetNetVM:    G.NewTapeMachine(targetNet.Graph()),
		numActions:     c.OutputDim,
		features:       c.InputDim,
		batchSize:      c.BatchSize,
		gamma:          c.Gamma,
		learningRate:   c.LearningRate,
		exploration:    c.Exploration,
		softUpdateFreq: c.SoftUpdateFreq,
		trainFreq:      c.TrainFreq,

		training:     c.Training,
		epsilon:      c.Epsilon,
		epsilonMin:   c.EpsilonMin,
		epsilonDecay: c.EpsilonDecay,

		doubleQ:            c.DoubleQ,
		importanceWeighted: c.ImportanceWeighted,
		persistentNoise:    c.PersistentNoise,

		noise: distuv.Normal{
			Mu:    0,
			Sigma: c.NoiseStd,
			Src:   rand.NewSource(seed + 3),
		},
		newSolver: newSolver,
	}
	if !p.training {
		p.epsilon = 0
	}

	// Behaviour policy acting with a copy of the eval network
	behaviourNet, err := evalNet.CloneWithBatch(1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour network: %v",
			err)
	}
	if p.behaviour, err = policy.NewEGreedy(behaviourNet,
		rand.NewSource(seed+1)); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	if p.doubleQ {
		nextClone, err := evalNet.Clone()
		if err != nil {
			return nil, fmt.Errorf("new: could not create next action "+
				"network: %v", err)
		}
		p.nextNet = nextClone.(*network.Dueling)
		p.nextNetVM = G.NewTapeMachine(p.nextNet.Graph())
	}

	if p.replay, err = c.replayConfig().Create(c.InputDim,
		rand.NewSource(seed+2)); err != nil {
		return nil, fmt.Errorf("new: could not create replay buffer: %v", err)
	}

	if err := p.buildLoss(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	p.evalNetVM = G.NewTapeMachine(
		evalNet.Graph(),
		G.BindDualValues(evalNet.Learnables()...),
	)
	p.solver = p.newSolver()

	return p, nil
}

// buildLoss adds the importance weighted mean squared TD error and its
// gradient to the eval network's graph:
//
//	loss = mean_i(w_i * (y_i - Q(s_i, a_i))^2)
func (p *PERD3QN) buildLoss() error {
	g := p.evalNet.Graph()

	p.selectedActions = G.NewMatrix(g, tensor.Float64,
		G.WithShape(p.batchSize, p.numActions), G.WithName("actionSelected"),
		G.WithInit(G.Zeroes()))
	p.targets = G.NewMatrix(g, tensor.Float64,
		G.WithShape(p.batchSize, 1), G.WithName("updateTarget"),
		G.WithInit(G.Zeroes()))
	p.isWeights = G.NewMatrix(g, tensor.Float64,
		G.WithShape(p.batchSize, 1), G.WithName("isWeights"),
		G.WithInit(G.Ones()))
	actionSum := G.NewMatrix(g, tensor.Float64,
		G.WithShape(p.numActions, 1), G.WithName("actionSum"),
		G.WithInit(G.Ones()))

	// Select Q(s, a) of the sampled actions: (N, A) x (A, 1)
	selected, err := G.HadamardProd(p.evalNet.Prediction(), p.selectedActions)
	if err != nil {
		return fmt.Errorf("buildLoss: could not select actions: %v", err)
	}
	q, err := G.Mul(selected, actionSum)
	if err != nil {
		return fmt.Errorf("buildLoss: could not select actions: %v", err)
	}

	losses := G.Must(G.Sub(p.targets, q))
	losses = G.Must(G.Square(losses))
	losses = G.Must(G.HadamardProd(p.isWeights, losses))
	cost := G.Must(G.Mean(losses))

	G.Read(q, &p.qVal)
	G.Read(cost, &p.lossVal)

	if _, err := G.Grad(cost, p.evalNet.Learnables()...); err != nil {
		return fmt.Errorf("buildLoss: could not compute gradient: %v", err)
	}
	return nil
}

// Kind returns the kind of the agent
func (p *PERD3QN) Kind() agent.Kind {
	return agent.PERD3QN
}

// Epsilon returns the current exploration rate
func (p *PERD3QN) Epsilon() float64 {
	return p.epsilon
}

// Training returns whether the agent learns
func (p *PERD3QN) Training() bool {
	return p.training
}

// Replay returns the agent's replay buffer
func (p *PERD3QN) Replay() *expreplay.Prioritized {
	return p.replay
}

// SelectAction selects an action in state with the epsilon greedy
// behaviour policy. While training, epsilon decays once for every new
// episode seen, down to the minimum epsilon.
func (p *PERD3QN) SelectAction(state []float64, episode int) (int, error) {
	if p.training && episode > p.nEpi {
		p.epsilon = math.Max(p.epsilon*p.epsilonDecay, p.epsilonMin)
		p.nEpi = episode
	}

	action, err := p.behaviour.SelectAction(state, p.epsilon)
	if err != nil {
		return 0, fmt.Errorf("selectAction: %v", err)
	}
	return action, nil
}

// Memorize stores a transition in the replay buffer
func (p *PERD3QN) Memorize(t ts.Transition) error {
	if err := p.replay.Store(t); err != nil {
		return fmt.Errorf("memorize: %v", err)
	}
	return nil
}

// Learn stores the transition described by ctx and, once exploration
// is over, trains every TrainFreq steps of the organism's life (and on
// its death) and syncs the target network every SoftUpdateFreq
// episodes.
func (p *PERD3QN) Learn(ctx agent.LearnContext) error {
	t := ts.Transition{
		State:     ctx.State,
		Action:    ctx.Action,
		Reward:    ctx.Reward,
		NextState: ctx.StatePrime,
		Done:      ctx.Done,
	}
	if err := p.Memorize(t); err != nil {
		return fmt.Errorf("learn: %v", err)
	}

	if !p.training || ctx.Episode <= p.exploration {
		return nil
	}

	if ctx.Age%p.trainFreq == 0 || ctx.Dead {
		if err := p.Train(); err != nil {
			return fmt.Errorf("learn: %v", err)
		}
	}

	if ctx.Episode%p.softUpdateFreq == 0 {
		if err := p.targetNet.Set(p.evalNet); err != nil {
			return fmt.Errorf("learn: could not sync target network: %v", err)
		}
		log.Debugf("synced target network at episode %v", ctx.Episode)
	}
	return nil
}

// Train performs a single gradient step on a batch sampled from the
// replay buffer and writes the new priorities |y - Q(s, a)| back to
// the buffer. Training with an empty buffer does nothing.
func (p *PERD3QN) Train() error {
	batch, err := p.replay.Sample(p.batchSize)
	if expreplay.IsEmptyBuffer(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("train: %v", err)
	}

	nextQ, err := network.Predict(p.targetNet, p.targetNetVM,
		batch.NextStates)
	if err != nil {
		return fmt.Errorf("train: target network: %v", err)
	}

	var nextEvalQ []float64
	if p.doubleQ {
		nextEvalQ, err = network.Predict(p.nextNet, p.nextNetVM,
			batch.NextStates)
		if err != nil {
			return fmt.Errorf("train: next action network: %v", err)
		}
	}
	targets := updateTargets(batch.Rewards, batch.Dones, nextQ, nextEvalQ,
		p.numActions, p.gamma)

	if err := p.setLossInputs(batch, targets); err != nil {
		return fmt.Errorf("train: %v", err)
	}
	if err := p.evalNet.SetInput(batch.States); err != nil {
		return fmt.Errorf("train: %v", err)
	}

	defer p.evalNetVM.Reset()
	if err := p.evalNetVM.RunAll(); err != nil {
		return fmt.Errorf("train: could not run eval network: %v", err)
	}
	if err := p.solver.Step(p.evalNet.Model()); err != nil {
		return fmt.Errorf("train: could not step solver: %v", err)
	}

	q := p.qVal.Data().([]float64)
	priorities := make([]float64, len(targets))
	floats.SubTo(priorities, targets, q)
	for i := range priorities {
		priorities[i] = math.Abs(priorities[i])
	}
	if err := p.replay.UpdatePriorities(batch.Indices,
		priorities); err != nil {
		return fmt.Errorf("train: %v", err)
	}
	log.Debugv("loss", p.lossVal)

	return p.refresh()
}

// setLossInputs sets the sampled actions, update targets, and
// importance sampling weights of the loss
func (p *PERD3QN) setLossInputs(batch expreplay.Batch,
	targets []float64) error {
	oneHot := make([]float64, p.batchSize*p.numActions)
	for i, action := range batch.Actions {
		if action < 0 || action >= p.numActions {
			return fmt.Errorf("setLossInputs: invalid action "+
				"\n\twant(0 <= action < %v)\n\thave(%v)", p.numActions, action)
		}
		oneHot[i*p.numActions+action] = 1.0
	}
	if err := G.Let(p.selectedActions, tensor.New(
		tensor.WithShape(p.batchSize, p.numActions),
		tensor.WithBacking(oneHot),
	)); err != nil {
		return fmt.Errorf("setLossInputs: could not set actions: %v", err)
	}

	if err := G.Let(p.targets, tensor.New(
		tensor.WithShape(p.batchSize, 1),
		tensor.WithBacking(targets),
	)); err != nil {
		return fmt.Errorf("setLossInputs: could not set targets: %v", err)
	}

	weights := make([]float64, p.batchSize)
	if p.importanceWeighted {
		copy(weights, batch.Weights)
	} else {
		floats.AddConst(1.0, weights)
	}
	if err := G.Let(p.isWeights, tensor.New(
		tensor.WithShape(p.batchSize, 1),
		tensor.WithBacking(weights),
	)); err != nil {
		return fmt.Errorf("setLossInputs: could not set weights: %v", err)
	}
	return nil
}

// refresh copies the eval network's weights into the networks that
// act with them
func (p *PERD3QN) refresh() error {
	if err := p.behaviour.Set(p.evalNet); err != nil {
		return fmt.Errorf("refresh: behaviour network: %v", err)
	}
	if p.nextNet != nil {
		if err := p.nextNet.Set(p.evalNet); err != nil {
			return fmt.Errorf("refresh: next action network: %v", err)
		}
	}
	return nil
}

// updateTargets returns r + gamma * (1 - done) * Q'(s', a*) for each
// sample, where Q' are the target network's next action values. The
// next action a* maximizes nextEvalQ if given and nextQ otherwise.
func updateTargets(rewards, dones, nextQ, nextEvalQ []float64,
	numActions int, gamma float64) []float64 {
	targets := make([]float64, len(rewards))
	for i := range rewards {
		row := nextQ[i*numActions : (i+1)*numActions]

		var next float64
		if nextEvalQ != nil {
			evalRow := nextEvalQ[i*numActions : (i+1)*numActions]
			next = row[floatutils.Argmax(evalRow)]
		} else {
			next = floats.Max(row)
		}
		targets[i] = rewards[i] + gamma*(1-dones[i])*next
	}
	return targets
}

// Save writes the eval network's parameters to path
func (p *PERD3QN) Save(path string) error {
	if err := network.Save(p.evalNet, path); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	log.Infof("saved model to %v", path)
	return nil
}

// Load replaces the eval network's parameters with those saved at
// path. A training agent also loads them into its target network and
// restarts its solver.
func (p *PERD3QN) Load(path string) error {
	params, err := network.Load(path)
	if err != nil {
		return fmt.Errorf("load: %v", err)
	}

	if err := p.evalNet.SetParams(params); err != nil {
		return fmt.Errorf("load: eval network: %v", err)
	}
	if p.training {
		if err := p.targetNet.SetParams(params); err != nil {
			return fmt.Errorf("load: target network: %v", err)
		}
		p.solver = p.newSolver()
	}
	if err := p.refresh(); err != nil {
		return fmt.Errorf("load: %v", err)
	}

	log.Infof("loaded model %v", path)
	return nil
}

// Close releases the resources held by the agent's VMs
func (p *PERD3QN) Close() error {
	var err error
	for _, vm := range []G.VM{p.evalNetVM, p.targetNetVM, p.nextNetVM} {
		if vm == nil {
			continue
		}
		if closeErr := vm.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	if closeErr := p.behaviour.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
