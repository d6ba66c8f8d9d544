// Package solver implements functionality to wrap Gorgonia Solvers
// so that they can be described in YAML configuration files.
package solver

import (
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"
	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
	RMSProp Type = "RMSProp"
)

// registered maps each Type to the concrete Config that describes it
var registered = map[Type]reflect.Type{
	Adam:    reflect.TypeOf(AdamConfig{}),
	Vanilla: reflect.TypeOf(VanillaConfig{}),
	RMSProp: reflect.TypeOf(RMSPropConfig{}),
}

// Solver wraps Gorgonia Solvers so that they can be YAML unmarshalled.
//
// A Gorgonia Solver keeps per-parameter state (e.g. Adam moments), so
// a single Solver should only ever step a single model. Use Fresh to
// obtain an independent Solver with the same configuration.
type Solver struct {
	G.Solver `yaml:"-"`
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	solver := Solver{Type: t, Config: c}
	solver.Solver = solver.Config.Create()

	return &solver, nil
}

// Fresh returns a new Gorgonia Solver with no accumulated state,
// described by the same Config.
func (s *Solver) Fresh() G.Solver {
	return s.Config.Create()
}

// String implements the fmt.Stringer interface
func (s *Solver) String() string {
	return fmt.Sprintf("{%v Solver: %+v}", s.Type, s.Config)
}

// UnmarshalYAML implements the yaml.Unmarshaler interface. The
// expected layout is:
//
//	type: Adam
//	config:
//	  step_size: 0.001
func (s *Solver) UnmarshalYAML(value *yaml.Node) error {
	var envelope struct {
		Type   Type      `yaml:"type"`
		Config yaml.Node `yaml:"config"`
	}
	if err := value.Decode(&envelope); err != nil {
		return fmt.Errorf("unmarshalyaml: %w", err)
	}

	ty, ok := registered[envelope.Type]
	if !ok {
		return fmt.Errorf("unmarshalyaml: unknown solver type %q",
			envelope.Type)
	}

	config := reflect.New(ty)
	if envelope.Config.Kind != 0 {
		if err := envelope.Config.Decode(config.Interface()); err != nil {
			return fmt.Errorf("unmarshalyaml: could not decode %v "+
				"config: %w", envelope.Type, err)
		}
	}

	s.Type = envelope.Type
	s.Config = config.Elem().Interface().(Config)
	s.Solver = s.Config.Create()

	return nil
}

// Config implements a Gorgonia Solver configuration and can be used to
// create Gorgonia Solvers they describe.
type Config interface {
	Create() G.Solver

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool
}
