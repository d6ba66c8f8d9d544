package expreplay

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// Default prioritization hyperparameters
const (
	DefaultCapacity      = 10000
	DefaultAlpha         = 0.6
	DefaultBeta          = 0.4
	DefaultBetaIncrement = 0.001
)

// Config implements a specific configuration of a Prioritized buffer.
//
// Alpha controls how strongly priorities skew sampling, with 0 giving
// uniform sampling. Beta is the initial importance sampling exponent;
// it grows by BetaIncrement after every Sample call and saturates at 1.
type Config struct {
	Capacity      int     `yaml:"capacity"`
	Alpha         float64 `yaml:"alpha"`
	Beta          float64 `yaml:"beta"`
	BetaIncrement float64 `yaml:"beta_increment"`
}

// DefaultConfig returns the default buffer configuration
func DefaultConfig() Config {
	return Config{
		Capacity:      DefaultCapacity,
		Alpha:         DefaultAlpha,
		Beta:          DefaultBeta,
		BetaIncrement: DefaultBetaIncrement,
	}
}

// Validate checks a Config for errors
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("validate: capacity must be positive "+
			"\n\twant(>0)\n\thave(%v)", c.Capacity)
	}
	if c.Alpha < 0 {
		return fmt.Errorf("validate: alpha must be non-negative "+
			"\n\twant(>=0)\n\thave(%v)", c.Alpha)
	}
	if c.Beta < 0 || c.Beta > 1 {
		return fmt.Errorf("validate: beta must be in [0, 1] "+
			"\n\twant(0 <= beta <= 1)\n\thave(%v)", c.Beta)
	}
	if c.BetaIncrement < 0 {
		return fmt.Errorf("validate: beta increment must be non-negative "+
			"\n\twant(>=0)\n\thave(%v)", c.BetaIncrement)
	}
	return nil
}

// Create returns a new Prioritized buffer for observations of
// featureSize features, sampling with randomness from src
func (c Config) Create(featureSize int, src rand.Source) (*Prioritized,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}
	return NewPrioritized(c.Capacity, featureSize, c.Alpha, c.Beta,
		c.BetaIncrement, src)
}
