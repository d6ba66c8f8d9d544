// Package initwfn implements functionality to wrap Gorgonia InitWFn
// so that they can be described in YAML configuration files and drawn
// from a seeded source of randomness.
package initwfn

import (
	"fmt"
	"math"
	"reflect"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	"gopkg.in/yaml.v3"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Type describes different types of InitWFn that are available.
// Type is used to implement a basic type system of InitWFn's.
type Type string

// Available InitWFn types
const (
	GlorotU Type = "GlorotU"
	GlorotN Type = "GlorotN"
	HeU     Type = "HeU"
	HeN     Type = "HeN"
	Zeroes  Type = "Zeroes"
)

// registered maps each Type to the concrete Config that describes it
var registered = map[Type]reflect.Type{
	GlorotU: reflect.TypeOf(GlorotUConfig{}),
	GlorotN: reflect.TypeOf(GlorotNConfig{}),
	HeU:     reflect.TypeOf(HeUConfig{}),
	HeN:     reflect.TypeOf(HeNConfig{}),
	Zeroes:  reflect.TypeOf(ZeroesConfig{}),
}

// InitWFn wraps a weight initialization Config so that it can be
// YAML unmarshalled and later turned into a Gorgonia InitWFn.
type InitWFn struct {
	Type
	Config
}

// newInitWFn returns a new InitWFn
func newInitWFn(c Config) (*InitWFn, error) {
	return &InitWFn{Type: c.Type(), Config: c}, nil
}

// InitWFn returns the Gorgonia InitWFn described by the wrapped
// Config. All random weights are drawn from src.
func (w *InitWFn) InitWFn(src rand.Source) G.InitWFn {
	return w.Config.Create(src)
}

// String implements the fmt.Stringer interface
func (w *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", w.Type, w.Config)
}

// UnmarshalYAML implements the yaml.Unmarshaler interface. The
// expected layout is:
//
//	type: GlorotU
//	config:
//	  gain: 1.0
func (w *InitWFn) UnmarshalYAML(value *yaml.Node) error {
	var envelope struct {
		Type   Type      `yaml:"type"`
		Config yaml.Node `yaml:"config"`
	}
	if err := value.Decode(&envelope); err != nil {
		return fmt.Errorf("unmarshalyaml: %w", err)
	}

	ty, ok := registered[envelope.Type]
	if !ok {
		return fmt.Errorf("unmarshalyaml: unknown InitWFn type %q",
			envelope.Type)
	}

	config := reflect.New(ty)
	if envelope.Config.Kind != 0 {
		if err := envelope.Config.Decode(config.Interface()); err != nil {
			return fmt.Errorf("unmarshalyaml: could not decode %v "+
				"config: %w", envelope.Type, err)
		}
	}

	w.Type = envelope.Type
	w.Config = config.Elem().Interface().(Config)
	return nil
}

// Config implements a Gorgonia InitWFn configuration and can be used to
// create the described Gorgonia InitWFn's.
type Config interface {
	// Create returns the Gorgonia InitWFn that the Config describes,
	// drawing its random numbers from src
	Create(src rand.Source) G.InitWFn

	// Type returns the type of Gorgonia InitWFn that is returned
	Type() Type
}

// fans returns the fan in and fan out of a weight tensor with shape s.
// Weight matrices are laid out (inputs, outputs).
func fans(s []int) (float64, float64) {
	switch len(s) {
	case 0:
		return 1, 1
	case 1:
		return float64(s[0]), float64(s[0])
	default:
		return float64(s[0]), float64(s[1])
	}
}

// sample fills a backing slice of dtype dt and shape s with draws from
// dist.
func sample(dt tensor.Dtype, s []int, dist distuv.Rander) interface{} {
	size := tensor.Shape(s).TotalSize()

	switch dt {
	case tensor.Float64:
		backing := make([]float64, size)
		for i := range backing {
			backing[i] = dist.Rand()
		}
		return backing

	case tensor.Float32:
		backing := make([]float32, size)
		for i := range backing {
			backing[i] = float32(dist.Rand())
		}
		return backing
	}

	panic(fmt.Sprintf("initwfn: unsupported dtype %v", dt))
}

// uniform returns an InitWFn drawing from U[-limit(fanIn, fanOut),
// limit(fanIn, fanOut)]
func uniform(src rand.Source, limit func(in, out float64) float64) G.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		l := limit(fans(s))
		return sample(dt, s, distuv.Uniform{Min: -l, Max: l, Src: src})
	}
}

// normal returns an InitWFn drawing from N(0, std(fanIn, fanOut)^2)
func normal(src rand.Source, std func(in, out float64) float64) G.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		sigma := std(fans(s))
		return sample(dt, s, distuv.Normal{Mu: 0, Sigma: sigma, Src: src})
	}
}

// sqrt is a shorthand used by the initializers
func sqrt(x float64) float64 {
	return math.Sqrt(x)
}
