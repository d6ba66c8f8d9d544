package perd3qn

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/reinlife/reinlife/agent"
	"github.com/reinlife/reinlife/network"
	ts "github.com/reinlife/reinlife/timestep"
	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"
	"gorgonia.org/tensor"
)

const (
	features = 3
	actions  = 2
)

func testConfig() Config {
	c := DefaultConfig()
	c.InputDim = features
	c.OutputDim = actions
	c.Hidden = 8
	c.BatchSize = 4
	c.Capacity = 50
	c.Exploration = 2
	c.TrainFreq = 1
	c.SoftUpdateFreq = 5
	return c
}

func newAgent(t testing.TB, c Config) *PERD3QN {
	t.Helper()

	p, err := New(c, 11)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func learnContext(rng *rand.Rand, episode, age int) agent.LearnContext {
	state := make([]float64, features)
	next := make([]float64, features)
	for i := range state {
		state[i] = rng.Float64()
		next[i] = rng.Float64()
	}
	return agent.LearnContext{
		Age:        age,
		Action:     rng.Intn(actions),
		State:      state,
		Reward:     rng.Float64()*2 - 1,
		StatePrime: next,
		Episode:    episode,
	}
}

func paramsEqual(a, b map[string]*tensor.Dense) bool {
	if len(a) != len(b) {
		return false
	}
	for name, x := range a {
		y, ok := b[name]
		if !ok || !x.Shape().Eq(y.Shape()) {
			return false
		}
		xData, yData := x.Data().([]float64), y.Data().([]float64)
		for i := range xData {
			if xData[i] != yData[i] {
				return false
			}
		}
	}
	return true
}

func behaviourParams(p *PERD3QN) map[string]*tensor.Dense {
	return p.behaviour.NeuralNet.(*network.Dueling).Params()
}

func TestNewStartsSynced(t *testing.T) {
	p := newAgent(t, testConfig())

	if !paramsEqual(p.evalNet.Params(), p.targetNet.Params()) {
		t.Error("new: eval and target networks should start equal")
	}
	if !paramsEqual(p.evalNet.Params(), behaviourParams(p)) {
		t.Error("new: behaviour network should start equal to eval")
	}
	if p.Kind() != agent.PERD3QN {
		t.Errorf("kind: \n\twant(%v)\n\thave(%v)", agent.PERD3QN, p.Kind())
	}
}

func TestNewInvalidConfig(t *testing.T) {
	c := testConfig()
	c.BatchSize = 0
	if _, err := New(c, 1); err == nil {
		t.Error("new: expected error for zero batch size")
	}
}

func TestLearnDuringExploration(t *testing.T) {
	p := newAgent(t, testConfig())
	rng := rand.New(rand.NewSource(3))
	before := p.evalNet.Params()

	for age := 0; age < 5; age++ {
		if err := p.Learn(learnContext(rng, 2, age)); err != nil {
			t.Fatalf("learn: %v", err)
		}
	}

	if p.Replay().Len() != 5 {
		t.Errorf("learn: transitions stored \n\twant(5)\n\thave(%v)",
			p.Replay().Len())
	}
	if !paramsEqual(before, p.evalNet.Params()) {
		t.Error("learn: weights changed during exploration")
	}
}

func TestLearnTrains(t *testing.T) {
	p := newAgent(t, testConfig())
	rng := rand.New(rand.NewSource(5))

	for age := 0; age < 8; age++ {
		if err := p.Learn(learnContext(rng, 1, age)); err != nil {
			t.Fatalf("learn: %v", err)
		}
	}
	before := p.evalNet.Params()

	if err := p.Learn(learnContext(rng, 3, 1)); err != nil {
		t.Fatalf("learn: %v", err)
	}

	after := p.evalNet.Params()
	if paramsEqual(before, after) {
		t.Error("learn: weights unchanged after training step")
	}
	if !paramsEqual(after, behaviourParams(p)) {
		t.Error("learn: behaviour network not refreshed after training")
	}
	if paramsEqual(after, p.targetNet.Params()) {
		t.Error("learn: target network synced outside update episode")
	}

	changed := false
	for i := 0; i < p.Replay().Len(); i++ {
		if priority, _ := p.Replay().Priority(i); priority != 1.0 {
			changed = true
		}
	}
	if !changed {
		t.Error("learn: priorities not updated after training")
	}
}

func TestLearnTrainsOnDeath(t *testing.T) {
	c := testConfig()
	c.TrainFreq = 1000
	p := newAgent(t, c)
	rng := rand.New(rand.NewSource(6))

	for age := 0; age < 4; age++ {
		p.Learn(learnContext(rng, 1, age))
	}

	before := p.evalNet.Params()
	ctx := learnContext(rng, 3, 7)
	if err := p.Learn(ctx); err != nil {
		t.Fatalf("learn: %v", err)
	}
	if !paramsEqual(before, p.evalNet.Params()) {
		t.Error("learn: trained off the training frequency")
	}

	ctx = learnContext(rng, 3, 9)
	ctx.Dead = true
	ctx.Done = true
	if err := p.Learn(ctx); err != nil {
		t.Fatalf("learn: %v", err)
	}
	if paramsEqual(before, p.evalNet.Params()) {
		t.Error("learn: did not train on death")
	}
}

func TestTargetSync(t *testing.T) {
	p := newAgent(t, testConfig())
	rng := rand.New(rand.NewSource(8))

	for age := 0; age < 6; age++ {
		if err := p.Learn(learnContext(rng, 3, age)); err != nil {
			t.Fatalf("learn: %v", err)
		}
	}
	if paramsEqual(p.evalNet.Params(), p.targetNet.Params()) {
		t.Fatal("learn: target should lag eval before a sync episode")
	}

	if err := p.Learn(learnContext(rng, 5, 1)); err != nil {
		t.Fatalf("learn: %v", err)
	}
	if !paramsEqual(p.evalNet.Params(), p.targetNet.Params()) {
		t.Error("learn: target network not synced at update episode")
	}
}

func TestNonTraining(t *testing.T) {
	c := testConfig()
	c.Training = false
	p := newAgent(t, c)
	rng := rand.New(rand.NewSource(9))

	if p.Epsilon() != 0 {
		t.Errorf("epsilon: \n\twant(0)\n\thave(%v)", p.Epsilon())
	}

	before := p.evalNet.Params()
	for age := 0; age < 4; age++ {
		if err := p.Learn(learnContext(rng, 10, age)); err != nil {
			t.Fatalf("learn: %v", err)
		}
	}
	if p.Replay().Len() != 4 {
		t.Errorf("learn: transitions stored \n\twant(4)\n\thave(%v)",
			p.Replay().Len())
	}
	if !paramsEqual(before, p.evalNet.Params()) {
		t.Error("learn: non-training agent changed its weights")
	}

	if _, err := p.SelectAction(make([]float64, features), 20); err != nil {
		t.Fatalf("selectAction: %v", err)
	}
	if p.Epsilon() != 0 {
		t.Errorf("selectAction: epsilon changed \n\twant(0)\n\thave(%v)",
			p.Epsilon())
	}
}

func TestEpsilonDecay(t *testing.T) {
	c := testConfig()
	c.Epsilon = 0.9
	c.EpsilonDecay = 0.5
	c.EpsilonMin = 0.2
	p := newAgent(t, c)
	state := []float64{0.1, 0.2, 0.3}

	steps := []struct {
		episode int
		epsilon float64
	}{
		{0, 0.9},
		{1, 0.45},
		{1, 0.45},
		{2, 0.225},
		{2, 0.225},
		{3, 0.2},
		{7, 0.2},
	}
	for _, step := range steps {
		action, err := p.SelectAction(state, step.episode)
		if err != nil {
			t.Fatalf("selectAction: %v", err)
		}
		if action < 0 || action >= actions {
			t.Errorf("selectAction: action %v out of range", action)
		}
		if math.Abs(p.Epsilon()-step.epsilon) > 1e-12 {
			t.Errorf("epsilon at episode %v: \n\twant(%v)\n\thave(%v)",
				step.episode, step.epsilon, p.Epsilon())
		}
	}
}

func TestSelectActionInvalidState(t *testing.T) {
	p := newAgent(t, testConfig())
	if _, err := p.SelectAction([]float64{1}, 0); err == nil {
		t.Error("selectAction: expected error for invalid state size")
	}
}

func TestApplyGaussianNoiseIsResynced(t *testing.T) {
	p := newAgent(t, testConfig())

	if err := p.ApplyGaussianNoise(); err != nil {
		t.Fatalf("applyGaussianNoise: %v", err)
	}
	if !paramsEqual(p.evalNet.Params(), p.targetNet.Params()) {
		t.Error("applyGaussianNoise: target should be resynced with eval")
	}
}

func TestApplyGaussianNoisePersistent(t *testing.T) {
	c := testConfig()
	c.PersistentNoise = true
	p := newAgent(t, c)
	before := p.targetNet.Params()

	if err := p.ApplyGaussianNoise(); err != nil {
		t.Fatalf("applyGaussianNoise: %v", err)
	}

	after := p.targetNet.Params()
	for name, value := range after {
		same := paramsEqual(
			map[string]*tensor.Dense{name: before[name]},
			map[string]*tensor.Dense{name: value},
		)
		if name == network.FCWeight && same {
			t.Errorf("applyGaussianNoise: %v not perturbed", name)
		} else if name != network.FCWeight && !same {
			t.Errorf("applyGaussianNoise: %v should not change", name)
		}
	}
}

func TestUpdateTargets(t *testing.T) {
	rewards := []float64{1, -1}
	dones := []float64{0, 1}
	nextQ := []float64{
		2, 5, 3,
		7, 1, 0,
	}
	nextEvalQ := []float64{
		4, 0, 1,
		0, 9, 0,
	}
	const gamma = 0.5

	maxTargets := updateTargets(rewards, dones, nextQ, nil, 3, gamma)
	if want := []float64{1 + 0.5*5, -1}; maxTargets[0] != want[0] ||
		maxTargets[1] != want[1] {
		t.Errorf("updateTargets: max \n\twant(%v)\n\thave(%v)", want,
			maxTargets)
	}

	double := updateTargets(rewards, dones, nextQ, nextEvalQ, 3, gamma)
	if want := []float64{1 + 0.5*2, -1}; double[0] != want[0] ||
		double[1] != want[1] {
		t.Errorf("updateTargets: double \n\twant(%v)\n\thave(%v)", want,
			double)
	}
}

func TestDoubleQTrains(t *testing.T) {
	c := testConfig()
	c.DoubleQ = true
	c.ImportanceWeighted = true
	p := newAgent(t, c)
	rng := rand.New(rand.NewSource(12))

	for age := 0; age < 6; age++ {
		p.Learn(learnContext(rng, 1, age))
	}
	before := p.evalNet.Params()
	if err := p.Train(); err != nil {
		t.Fatalf("train: %v", err)
	}
	if paramsEqual(before, p.evalNet.Params()) {
		t.Error("train: weights unchanged")
	}
	if !paramsEqual(p.evalNet.Params(), p.nextNet.Params()) {
		t.Error("train: next action network not refreshed")
	}
}

func TestTrainEmptyBuffer(t *testing.T) {
	p := newAgent(t, testConfig())
	before := p.evalNet.Params()

	if err := p.Train(); err != nil {
		t.Fatalf("train: %v", err)
	}
	if !paramsEqual(before, p.evalNet.Params()) {
		t.Error("train: weights changed with an empty buffer")
	}
}

func TestSaveLoad(t *testing.T) {
	c := testConfig()
	p := newAgent(t, c)
	rng := rand.New(rand.NewSource(13))
	for age := 0; age < 6; age++ {
		p.Learn(learnContext(rng, 3, age))
	}

	path := filepath.Join(t.TempDir(), "brain.bin")
	if err := p.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	c.LoadModel = path
	loaded, err := New(c, 99)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer loaded.Close()

	if !paramsEqual(p.evalNet.Params(), loaded.evalNet.Params()) {
		t.Error("load: eval network differs from saved network")
	}
	if !paramsEqual(p.evalNet.Params(), loaded.targetNet.Params()) {
		t.Error("load: training agent should load target network")
	}
	if !paramsEqual(p.evalNet.Params(), behaviourParams(loaded)) {
		t.Error("load: behaviour network differs from saved network")
	}

	fresh := newAgent(t, testConfig())
	if err := fresh.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !paramsEqual(p.evalNet.Params(), behaviourParams(fresh)) {
		t.Error("load: behaviour network not refreshed")
	}
}

func TestLoadShapeMismatch(t *testing.T) {
	p := newAgent(t, testConfig())
	path := filepath.Join(t.TempDir(), "brain.bin")
	if err := p.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	c := testConfig()
	c.Hidden = 16
	c.LoadModel = path
	if _, err := New(c, 1); err == nil {
		t.Error("new: expected error for mismatched snapshot")
	}
}

func TestTypedConfig(t *testing.T) {
	data := []byte(`
kind: PERD3QN
config:
  input_dim: 3
  output_dim: 2
  hidden: 8
  batch_size: 4
  capacity: 20
  double_q: true
  replay:
    alpha: 0.5
  solver:
    type: RMSProp
    config:
      step_size: 0.01
  init:
    type: HeU
    config:
      gain: 1.0
`)

	var typed agent.TypedConfig
	if err := yaml.Unmarshal(data, &typed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	c, ok := typed.Config.(*Config)
	if !ok {
		t.Fatalf("unmarshal: invalid config type %T", typed.Config)
	}
	if c.Exploration != 1000 || c.Gamma != 0.99 || !c.Training {
		t.Errorf("unmarshal: defaults not kept: %+v", c)
	}
	if c.Replay.Alpha != 0.5 || c.Replay.Beta != 0.4 {
		t.Errorf("unmarshal: replay config \n\twant({0.5 0.4})\n\thave(%v)",
			c.Replay)
	}

	brain, err := typed.CreateBrain(1)
	if err != nil {
		t.Fatalf("createBrain: %v", err)
	}
	p := brain.(*PERD3QN)
	defer p.Close()
	if p.Replay().Capacity() != 20 {
		t.Errorf("createBrain: capacity \n\twant(20)\n\thave(%v)",
			p.Replay().Capacity())
	}
	if p.nextNet == nil {
		t.Error("createBrain: double Q agent has no next action network")
	}
}

func BenchmarkTrain(b *testing.B) {
	p := newAgent(b, DefaultConfig())
	rng := rand.New(rand.NewSource(1))

	state := make([]float64, 153)
	for i := 0; i < 1000; i++ {
		for j := range state {
			state[j] = rng.Float64()
		}
		p.Memorize(ts.Transition{
			State:     state,
			Action:    rng.Intn(8),
			Reward:    rng.Float64(),
			NextState: state,
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := p.Train(); err != nil {
			b.Fatal(err)
		}
	}
}
