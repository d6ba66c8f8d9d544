package gridworld

import (
	"fmt"

	"github.com/reinlife/reinlife/environment"
	"golang.org/x/exp/rand"
)

// SingleStart starts every episode in the same cell
type SingleStart struct {
	x, y int
}

// NewSingleStart returns a Starter that always starts in cell (x, y)
// of an r x c grid
func NewSingleStart(x, y, r, c int) (environment.Starter, error) {
	if x < 0 || x >= c {
		return &SingleStart{}, fmt.Errorf("newSingleStart: x = %d not in "+
			"[0, %d)", x, c)
	} else if y < 0 || y >= r {
		return &SingleStart{}, fmt.Errorf("newSingleStart: y = %d not in "+
			"[0, %d)", y, r)
	}

	return &SingleStart{x, y}, nil
}

// Start implements the environment.Starter interface
func (s *SingleStart) Start(r, c int) (int, int) {
	return s.x, s.y
}

// UniformStart starts every episode in a cell chosen uniformly at
// random
type UniformStart struct {
	rng *rand.Rand
}

// NewUniformStart returns a Starter choosing cells with randomness
// from src
func NewUniformStart(src rand.Source) environment.Starter {
	return &UniformStart{rng: rand.New(src)}
}

// Start implements the environment.Starter interface
func (u *UniformStart) Start(r, c int) (int, int) {
	return u.rng.Intn(c), u.rng.Intn(r)
}
