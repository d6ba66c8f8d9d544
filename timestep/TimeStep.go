// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// TimeStep packages together a single timestep of one simulated
// organism. Number is the organism's age at this step. Dead is set when
// the organism died on this step; a dead organism's step is always the
// Last step of its episode.
type TimeStep struct {
	stepType    StepType
	Reward      float64
	Observation []float64
	Number      int
	Dead        bool
}

// New returns a new TimeStep
func New(t StepType, r float64, o []float64, n int, dead bool) TimeStep {
	return TimeStep{t, r, o, n, dead}
}

// StepType returns the type of the TimeStep
func (t *TimeStep) StepType() StepType {
	return t.stepType
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.stepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.stepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t *TimeStep) Last() bool {
	return t.stepType == Last
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Age:  %v  |  Dead: %v"

	return fmt.Sprintf(str, t.stepType, t.Reward, t.Number, t.Dead)
}
