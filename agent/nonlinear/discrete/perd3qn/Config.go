package perd3qn

import (
	"fmt"

	"github.com/reinlife/reinlife/agent"
	"github.com/reinlife/reinlife/expreplay"
	"github.com/reinlife/reinlife/initwfn"
	"github.com/reinlife/reinlife/network"
	"github.com/reinlife/reinlife/solver"
)

func init() {
	// Register the Config so that it can be decoded with
	// agent.TypedConfig
	agent.Register(agent.PERD3QN, func() agent.Config {
		c := DefaultConfig()
		return &c
	})
}

// Config implements a configuration for a PERD3QN agent
type Config struct {
	InputDim  int `yaml:"input_dim"`
	OutputDim int `yaml:"output_dim"`
	Hidden    int `yaml:"hidden"`

	// Number of episodes during which transitions are only stored
	Exploration int `yaml:"exploration"`

	// Episode interval between target network syncs
	SoftUpdateFreq int `yaml:"soft_update_freq"`

	// Organism age interval between training steps
	TrainFreq int `yaml:"train_freq"`

	LearningRate float64 `yaml:"learning_rate"`
	BatchSize    int     `yaml:"batch_size"`
	Gamma        float64 `yaml:"gamma"`
	Capacity     int     `yaml:"capacity"`

	// Path of a parameter snapshot to start from, if any
	LoadModel string `yaml:"load_model"`
	Training  bool   `yaml:"training"`

	// Behaviour policy exploration schedule
	Epsilon      float64 `yaml:"epsilon"`
	EpsilonMin   float64 `yaml:"epsilon_min"`
	EpsilonDecay float64 `yaml:"epsilon_decay"`

	// Prioritization parameters. Replay.Capacity is ignored in favour
	// of Capacity.
	Replay expreplay.Config `yaml:"replay"`

	// DoubleQ selects next actions with the eval network and evaluates
	// them with the target network
	DoubleQ bool `yaml:"double_q"`

	// ImportanceWeighted scales each squared error by the sample's
	// importance sampling weight
	ImportanceWeighted bool `yaml:"importance_weighted"`

	// PersistentNoise keeps the noise added by ApplyGaussianNoise
	// instead of immediately resyncing the target network
	PersistentNoise bool    `yaml:"persistent_noise"`
	NoiseStd        float64 `yaml:"noise_std"`

	// Solver defaults to Adam with LearningRate
	Solver *solver.Solver `yaml:"solver"`

	// InitWFn defaults to GlorotU with gain 1
	InitWFn *initwfn.InitWFn `yaml:"init"`
}

// DefaultConfig returns the default PERD3QN configuration
func DefaultConfig() Config {
	return Config{
		InputDim:       153,
		OutputDim:      8,
		Hidden:         network.DefaultHidden,
		Exploration:    1000,
		SoftUpdateFreq: 200,
		TrainFreq:      20,
		LearningRate:   1e-3,
		BatchSize:      64,
		Gamma:          0.99,
		Capacity:       expreplay.DefaultCapacity,
		Training:       true,
		Epsilon:        0.9,
		EpsilonMin:     0.05,
		EpsilonDecay:   0.99,
		Replay:         expreplay.DefaultConfig(),
		NoiseStd:       1.0,
	}
}

// Kind returns the kind of Brain the Config creates
func (c *Config) Kind() agent.Kind {
	return agent.PERD3QN
}

// replayConfig returns the configuration of the replay buffer
func (c *Config) replayConfig() expreplay.Config {
	replay := c.Replay
	replay.Capacity = c.Capacity
	return replay
}

// Validate checks a Config to ensure it is a valid configuration of a
// PERD3QN agent.
func (c *Config) Validate() error {
	if c.InputDim < 1 {
		return fmt.Errorf("validate: input dimension must be positive "+
			"\n\twant(>0)\n\thave(%v)", c.InputDim)
	}
	if c.OutputDim < 1 {
		return fmt.Errorf("validate: output dimension must be positive "+
			"\n\twant(>0)\n\thave(%v)", c.OutputDim)
	}
	if c.Hidden < 1 {
		return fmt.Errorf("validate: hidden units must be positive "+
			"\n\twant(>0)\n\thave(%v)", c.Hidden)
	}
	if c.Exploration < 0 {
		return fmt.Errorf("validate: exploration must be non-negative "+
			"\n\twant(>=0)\n\thave(%v)", c.Exploration)
	}
	if c.SoftUpdateFreq < 1 {
		return fmt.Errorf("validate: target networks must be updated at "+
			"positive episode intervals \n\twant(>0)\n\thave(%v)",
			c.SoftUpdateFreq)
	}
	if c.TrainFreq < 1 {
		return fmt.Errorf("validate: training frequency must be positive "+
			"\n\twant(>0)\n\thave(%v)", c.TrainFreq)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("validate: learning rate must be positive "+
			"\n\twant(>0)\n\thave(%v)", c.LearningRate)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("validate: batch size must be positive "+
			"\n\twant(>0)\n\thave(%v)", c.BatchSize)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1] "+
			"\n\twant(0 <= gamma <= 1)\n\thave(%v)", c.Gamma)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("validate: epsilon must be in [0, 1] "+
			"\n\twant(0 <= epsilon <= 1)\n\thave(%v)", c.Epsilon)
	}
	if c.EpsilonMin < 0 || c.EpsilonMin > c.Epsilon {
		return fmt.Errorf("validate: minimum epsilon must be in [0, epsilon] "+
			"\n\twant(0 <= epsilon_min <= %v)\n\thave(%v)", c.Epsilon,
			c.EpsilonMin)
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("validate: epsilon decay must be in (0, 1] "+
			"\n\twant(0 < epsilon_decay <= 1)\n\thave(%v)", c.EpsilonDecay)
	}
	if c.NoiseStd < 0 {
		return fmt.Errorf("validate: noise standard deviation must be "+
			"non-negative \n\twant(>=0)\n\thave(%v)", c.NoiseStd)
	}

	replay := c.replayConfig()
	if err := replay.Validate(); err != nil {
		return fmt.Errorf("validate: replay: %v", err)
	}

	return nil
}

// CreateBrain creates a new PERD3QN agent based on the configuration
func (c *Config) CreateBrain(seed uint64) (agent.Brain, error) {
	brain, err := New(*c, seed)
	if err != nil {
		return nil, err
	}
	return brain, nil
}
