package agent

import (
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config represents a configuration for creating a Brain
type Config interface {
	// Kind returns the kind of Brain the Config creates
	Kind() Kind

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error

	// CreateBrain creates the Brain that the config describes
	CreateBrain(seed uint64) (Brain, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[Kind]func() Config)
)

// Register registers a constructor for the default Config of a Kind
// so that a TypedConfig of that Kind can be decoded.
//
// No kinds are registered with this package upon initialization.
// Each brain package registers its own Config to avoid circular
// imports.
func Register(kind Kind, newConfig func() Config) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = newConfig
}

// Registered returns whether a Config has been registered for kind
func Registered(kind Kind) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[kind]
	return ok
}

// TypedConfig wraps a Config so that it can be YAML unmarshalled into
// the concrete Config registered for its Kind. The expected layout is:
//
//	kind: PERD3QN
//	config:
//	  input_dim: 153
//	  output_dim: 8
//
// Fields missing from config keep the registered defaults.
type TypedConfig struct {
	Config
}

// UnmarshalYAML implements the yaml.Unmarshaler interface
func (t *TypedConfig) UnmarshalYAML(value *yaml.Node) error {
	var envelope struct {
		Kind   Kind      `yaml:"kind"`
		Config yaml.Node `yaml:"config"`
	}
	if err := value.Decode(&envelope); err != nil {
		return fmt.Errorf("unmarshalyaml: %w", err)
	}

	registryMu.RLock()
	newConfig, ok := registry[envelope.Kind]
	registryMu.RUnlock()
	if !ok {
		return fmt.Errorf("unmarshalyaml: no config registered for %v",
			envelope.Kind)
	}

	config := newConfig()
	if envelope.Config.Kind != 0 {
		if err := envelope.Config.Decode(config); err != nil {
			return fmt.Errorf("unmarshalyaml: could not decode %v "+
				"config: %w", envelope.Kind, err)
		}
	}

	t.Config = config
	return nil
}
