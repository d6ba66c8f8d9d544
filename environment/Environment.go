// Package environment outlines the interfaces needed to implement
// concrete environments that brains can act in
package environment

import (
	"github.com/reinlife/reinlife/timestep"
)

// Starter samples the starting cell of an organism on an r x c grid
type Starter interface {
	Start(r, c int) (x, y int)
}

// Environment implements a simulated environment with a discrete set
// of actions numbered from 0.
//
// The TimeStep returned by Reset is the First step of an episode. Step
// returns Mid steps until the episode ends with a Last step.
type Environment interface {
	Reset() timestep.TimeStep
	Step(action int) (timestep.TimeStep, error)
	ObservationDim() int
	NumActions() int
}
