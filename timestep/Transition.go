package timestep

import "fmt"

// Transition is a single (s, a, r, s', done) tuple stored in a replay
// buffer once per environment step.
type Transition struct {
	State     []float64
	Action    int
	Reward    float64
	NextState []float64
	Done      bool
}

// NewTransition returns a Transition from the TimeStep the action was
// taken in and the TimeStep the action led to.
func NewTransition(step TimeStep, action int, nextStep TimeStep) Transition {
	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    nextStep.Reward,
		NextState: nextStep.Observation,
		Done:      nextStep.Last(),
	}
}

// DoneMask returns 1.0 if the transition is terminal and 0.0 otherwise
func (t Transition) DoneMask() float64 {
	if t.Done {
		return 1.0
	}
	return 0.0
}

// Validate checks that both observations of the transition have the
// given number of features.
func (t Transition) Validate(features int) error {
	if len(t.State) != features {
		return fmt.Errorf("invalid state size \n\twant(%v)\n\thave(%v)",
			features, len(t.State))
	}
	if len(t.NextState) != features {
		return fmt.Errorf("invalid next state size \n\twant(%v)\n\thave(%v)",
			features, len(t.NextState))
	}
	return nil
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | Action: %v  |  Reward: %.2f  |  Done: %v",
		t.Action, t.Reward, t.Done)
}
