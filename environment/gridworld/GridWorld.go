// Package gridworld implements a 2D berry foraging gridworld in which a
// single organism must keep eating to stay alive
package gridworld

import (
	"fmt"
	"math"

	"github.com/reinlife/reinlife/environment"
	"github.com/reinlife/reinlife/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Actions available in the GridWorld
const (
	Left = iota
	Right
	Up
	Down
	numActions
)

// Values of the cells of an observation
const (
	wall  = -1.0
	empty = 0.0
	berry = 1.0
)

// Config describes a GridWorld
type Config struct {
	Rows    int `yaml:"rows"`
	Cols    int `yaml:"cols"`
	View    int `yaml:"view"`    // Cells visible in each direction
	Berries int `yaml:"berries"` // Berries on the grid at all times

	MaxHealth   float64 `yaml:"max_health"`
	HealthDecay float64 `yaml:"health_decay"` // Health lost every step
	BerryHealth float64 `yaml:"berry_health"` // Health restored by a berry

	StepReward  float64 `yaml:"step_reward"`
	BerryReward float64 `yaml:"berry_reward"`
	DeathReward float64 `yaml:"death_reward"`

	// Age at which an episode ends even if the organism is alive,
	// or 0 for no limit
	MaxAge int `yaml:"max_age"`
}

// DefaultConfig returns a small default GridWorld configuration
func DefaultConfig() Config {
	return Config{
		Rows:        10,
		Cols:        10,
		View:        2,
		Berries:     8,
		MaxHealth:   20,
		HealthDecay: 1,
		BerryHealth: 10,
		StepReward:  0,
		BerryReward: 1,
		DeathReward: -1,
		MaxAge:      500,
	}
}

// Validate checks a Config for errors
func (c Config) Validate() error {
	if c.Rows < 1 || c.Cols < 1 {
		return fmt.Errorf("validate: grid must have positive dimensions "+
			"\n\twant(>0, >0)\n\thave(%v, %v)", c.Rows, c.Cols)
	}
	if c.View < 0 {
		return fmt.Errorf("validate: view must be non-negative "+
			"\n\twant(>=0)\n\thave(%v)", c.View)
	}
	if c.Berries < 0 || c.Berries >= c.Rows*c.Cols {
		return fmt.Errorf("validate: berries must leave a free cell "+
			"\n\twant(0 <= berries < %v)\n\thave(%v)", c.Rows*c.Cols,
			c.Berries)
	}
	if c.MaxHealth <= 0 {
		return fmt.Errorf("validate: max health must be positive "+
			"\n\twant(>0)\n\thave(%v)", c.MaxHealth)
	}
	if c.HealthDecay < 0 {
		return fmt.Errorf("validate: health decay must be non-negative "+
			"\n\twant(>=0)\n\thave(%v)", c.HealthDecay)
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("validate: max age must be non-negative "+
			"\n\twant(>=0)\n\thave(%v)", c.MaxAge)
	}
	return nil
}

// Create creates the GridWorld described by the Config, starting
// organisms uniformly at random
func (c Config) Create(seed uint64) (*GridWorld, error) {
	return New(c, NewUniformStart(rand.NewSource(seed)), seed+1)
}

// GridWorld represents a berry foraging gridworld.
//
// The organism sees the (2*View+1) x (2*View+1) square of cells around
// it, in which berries are 1, cells outside the grid are -1, and other
// cells are 0, followed by its health as a fraction of MaxHealth. It
// loses HealthDecay health every step and dies when its health reaches
// 0. Eaten berries immediately regrow in a random free cell.
type GridWorld struct {
	environment.Starter
	Config

	berries *mat.Dense
	x, y    int
	health  float64

	rng         *rand.Rand
	currentStep timestep.TimeStep
}

// New creates a new GridWorld in which episodes start in cells chosen
// by s and berries grow with randomness seeded by seed
func New(c Config, s environment.Starter, seed uint64) (*GridWorld, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	g := &GridWorld{
		Starter: s,
		Config:  c,
		berries: mat.NewDense(c.Rows, c.Cols, nil),
		rng:     rand.New(rand.NewSource(seed)),
	}
	return g, nil
}

// Dims gets the rows and columns of the GridWorld
func (g *GridWorld) Dims() (r, c int) {
	return g.Rows, g.Cols
}

// Coordinates returns the organism's current cell
func (g *GridWorld) Coordinates() (int, int) {
	return g.x, g.y
}

// Health returns the organism's current health
func (g *GridWorld) Health() float64 {
	return g.health
}

// HasBerry returns whether cell (x, y) holds a berry
func (g *GridWorld) HasBerry(x, y int) bool {
	return g.berries.At(y, x) == berry
}

// ObservationDim returns the number of features in an observation
func (g *GridWorld) ObservationDim() int {
	side := 2*g.View + 1
	return side*side + 1
}

// NumActions returns the number of actions available
func (g *GridWorld) NumActions() int {
	return numActions
}

// Reset starts a new episode with a fresh organism and regrown berries
func (g *GridWorld) Reset() timestep.TimeStep {
	g.x, g.y = g.Start(g.Rows, g.Cols)
	g.health = g.MaxHealth

	g.berries.Zero()
	for i := 0; i < g.Config.Berries; i++ {
		g.growBerry()
	}

	g.currentStep = timestep.New(timestep.First, 0, g.observation(), 0,
		false)
	return g.currentStep
}

// Step moves the organism one cell in the direction of action. Moves
// off the grid leave the organism in place.
func (g *GridWorld) Step(action int) (timestep.TimeStep, error) {
	if action < 0 || action >= numActions {
		return timestep.TimeStep{}, fmt.Errorf("step: invalid action "+
			"\n\twant(0 <= action < %v)\n\thave(%v)", numActions, action)
	}
	if g.currentStep.Last() {
		return timestep.TimeStep{}, fmt.Errorf("step: episode has ended, " +
			"environment must be reset")
	}

	switch action {
	case Left:
		if newX := g.x - 1; newX >= 0 {
			g.x = newX
		}

	case Right:
		if newX := g.x + 1; newX < g.Cols {
			g.x = newX
		}

	case Up:
		if newY := g.y + 1; newY < g.Rows {
			g.y = newY
		}

	case Down:
		if newY := g.y - 1; newY >= 0 {
			g.y = newY
		}
	}

	reward := g.StepReward
	g.health -= g.HealthDecay
	if g.HasBerry(g.x, g.y) {
		g.berries.Set(g.y, g.x, empty)
		g.health = math.Min(g.MaxHealth, g.health+g.BerryHealth)
		reward += g.BerryReward
		g.growBerry()
	}

	number := g.currentStep.Number + 1
	dead := g.health <= 0
	stepType := timestep.Mid
	if dead {
		reward = g.DeathReward
		stepType = timestep.Last
	} else if g.MaxAge > 0 && number >= g.MaxAge {
		stepType = timestep.Last
	}

	g.currentStep = timestep.New(stepType, reward, g.observation(), number,
		dead)
	return g.currentStep, nil
}

// growBerry grows a berry in a random cell holding neither a berry nor
// the organism
func (g *GridWorld) growBerry() {
	free := make([]int, 0, g.Rows*g.Cols)
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			if !g.HasBerry(x, y) && (x != g.x || y != g.y) {
				free = append(free, y*g.Cols+x)
			}
		}
	}
	if len(free) == 0 {
		return
	}

	cell := free[g.rng.Intn(len(free))]
	g.berries.Set(cell/g.Cols, cell%g.Cols, berry)
}

// observation returns the organism's local view followed by its
// relative health
func (g *GridWorld) observation() []float64 {
	obs := make([]float64, 0, g.ObservationDim())
	for dy := -g.View; dy <= g.View; dy++ {
		for dx := -g.View; dx <= g.View; dx++ {
			x, y := g.x+dx, g.y+dy
			switch {
			case x < 0 || x >= g.Cols || y < 0 || y >= g.Rows:
				obs = append(obs, wall)
			default:
				obs = append(obs, g.berries.At(y, x))
			}
		}
	}
	return append(obs, math.Max(g.health, 0)/g.MaxHealth)
}

func (g *GridWorld) String() string {
	str := "GridWorld | At: (%d, %d)  |  Health: %.2f  |  Bounds: (%d, %d)"
	return fmt.Sprintf(str, g.x, g.y, g.health, g.Rows, g.Cols)
}
