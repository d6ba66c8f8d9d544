// Package agent defines the interfaces shared by every brain that can
// control an organism, along with the kinds of brain that exist.
package agent

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind tags the learning algorithm a Brain implements
type Kind int

// Available brain kinds
const (
	DQN Kind = iota
	DDQN
	D3QN
	PERDQN
	PERD3QN
	DRQN
	A2C
	PPO
	NEAT
)

var kindNames = [...]string{
	DQN:     "DQN",
	DDQN:    "DDQN",
	D3QN:    "D3QN",
	PERDQN:  "PERDQN",
	PERD3QN: "PERD3QN",
	DRQN:    "DRQN",
	A2C:     "A2C",
	PPO:     "PPO",
	NEAT:    "NEAT",
}

// String implements the fmt.Stringer interface
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind returns the Kind called name, ignoring case
func ParseKind(name string) (Kind, error) {
	for k, kindName := range kindNames {
		if strings.EqualFold(name, kindName) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("parseKind: unknown brain kind %q", name)
}

// MarshalYAML implements the yaml.Marshaler interface
func (k Kind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return fmt.Errorf("unmarshalyaml: %w", err)
	}

	kind, err := ParseKind(name)
	if err != nil {
		return fmt.Errorf("unmarshalyaml: %v", err)
	}
	*k = kind
	return nil
}

// LearnContext is everything a Brain may learn from after its
// organism acts. Brains ignore the fields they do not use; Prob is
// only meaningful to policy gradient brains.
type LearnContext struct {
	Age        int
	Dead       bool
	Action     int
	State      []float64
	Reward     float64
	StatePrime []float64
	Done       bool
	Episode    int
	Prob       float64
}

// Brain controls an organism by selecting actions and learning from
// their outcomes
type Brain interface {
	Kind() Kind

	// SelectAction returns the action to take in state during episode
	SelectAction(state []float64, episode int) (int, error)

	// Learn updates the brain after a single environment step
	Learn(ctx LearnContext) error
}

// Scrambler is a Brain whose weights can be randomly perturbed
type Scrambler interface {
	Brain
	ApplyGaussianNoise() error
}

// Persister is a Brain that can write its weights to disk
type Persister interface {
	Brain
	Save(path string) error
}
