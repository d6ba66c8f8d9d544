// Package experiment implements functionality for running an experiment
package experiment

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/reinlife/reinlife/agent"
	"github.com/reinlife/reinlife/environment/gridworld"
	"github.com/reinlife/reinlife/experiment/checkpointer"
	"github.com/reinlife/reinlife/experiment/trackers"
	"gopkg.in/yaml.v3"
)

// Experiment outlines structs that can run experiments. The Run()
// method will run all episodes until the episode or step limit is
// reached. The RunEpisode() function will run a single episode.
//
// Experiments send each TimeStep to their Trackers, which cache the
// data they need. The Save() function then writes all cached data to
// disk, usually after the experiment has been run.
type Experiment interface {
	Run() error
	RunEpisode() (bool, error) // Returns whether the experiment is over

	// Save all tracked data to disk
	Save() error

	// Adds a new Tracker to the (possibly already running) experiment.
	// Useful if you want to track data only after a specified event.
	Register(t trackers.Tracker)
}

// Type is a type of experiment
type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// CheckpointConfig describes how brains are snapshotted during an
// experiment
type CheckpointConfig struct {
	Every     int    `yaml:"every"` // Episodes between snapshots, 0 to disable
	Name      string `yaml:"name"`  // Filename prefix, including directory
	Timestamp bool   `yaml:"timestamp"`
}

// Config represents a configuration of an experiment.
type Config struct {
	Type        Type              `yaml:"type"`
	MaxEpisodes int               `yaml:"max_episodes"`
	MaxSteps    int               `yaml:"max_steps"` // 0 for no limit
	Seed        uint64            `yaml:"seed"`
	Environment gridworld.Config  `yaml:"environment"`
	Brain       agent.TypedConfig `yaml:"brain"`
	Checkpoint  CheckpointConfig  `yaml:"checkpoint"`

	// Directory in which tracked data is saved, empty to disable
	OutputDir string `yaml:"output_dir"`
}

// LoadConfig reads a YAML experiment configuration from filename.
// Omitted fields keep their defaults.
func LoadConfig(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("loadConfig: could not read config: %v",
			err)
	}

	c := Config{
		Type:        OnlineExp,
		Environment: gridworld.DefaultConfig(),
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("loadConfig: could not parse config: %v",
			err)
	}
	return c, nil
}

// Validate checks a Config for errors
func (c Config) Validate() error {
	if c.MaxEpisodes < 1 {
		return fmt.Errorf("validate: max episodes must be positive "+
			"\n\twant(>0)\n\thave(%v)", c.MaxEpisodes)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("validate: max steps must be non-negative "+
			"\n\twant(>=0)\n\thave(%v)", c.MaxSteps)
	}
	if c.Checkpoint.Every < 0 {
		return fmt.Errorf("validate: checkpoint interval must be "+
			"non-negative \n\twant(>=0)\n\thave(%v)", c.Checkpoint.Every)
	}
	if c.Brain.Config == nil {
		return fmt.Errorf("validate: no brain configured")
	}
	if err := c.Environment.Validate(); err != nil {
		return fmt.Errorf("validate: environment: %v", err)
	}
	if err := c.Brain.Validate(); err != nil {
		return fmt.Errorf("validate: brain: %v", err)
	}
	return nil
}

// CreateExp creates the experiment described by the Config
func (c Config) CreateExp() (Experiment, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("createExp: %v", err)
	}

	env, err := c.Environment.Create(c.Seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create environment: %v",
			err)
	}
	brain, err := c.Brain.CreateBrain(c.Seed + 2)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create brain: %v", err)
	}

	var t []trackers.Tracker
	if c.OutputDir != "" {
		if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("createExp: %v", err)
		}
		t = append(t,
			trackers.NewReturn(filepath.Join(c.OutputDir, "returns.bin")),
			trackers.NewEpisodeLength(filepath.Join(c.OutputDir,
				"lengths.bin")),
		)
	}

	var check []checkpointer.Checkpointer
	if c.Checkpoint.Every > 0 {
		saver, ok := brain.(checkpointer.Saver)
		if !ok {
			return nil, fmt.Errorf("createExp: %v brain cannot be "+
				"checkpointed", brain.Kind())
		}

		name := c.Checkpoint.Name
		if name == "" {
			name = "brain"
		}
		if dir := filepath.Dir(name); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("createExp: %v", err)
			}
		}

		filename := checkpointer.FilenameEnumerator(0, name+"_", ".bin")
		if c.Checkpoint.Timestamp {
			filename = checkpointer.FileTimer(name, ".bin")
		}
		nStep, err := checkpointer.NewNStep(c.Checkpoint.Every, saver,
			filename)
		if err != nil {
			return nil, fmt.Errorf("createExp: %v", err)
		}
		check = append(check, nStep)
	}

	switch c.Type {
	case OnlineExp, "":
		return NewOnline(env, brain, c.MaxEpisodes, c.MaxSteps, t, check), nil
	}
	return nil, fmt.Errorf("createExp: no such experiment type %v", c.Type)
}
