// Package expreplay implements a prioritized experience replay buffer
package expreplay

import (
	"fmt"
	"math"

	"github.com/reinlife/reinlife/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Batch is a batch of transitions sampled from a Prioritized buffer.
// States and NextStates are flattened row major with one row per
// sample. Dones holds 1.0 for terminal transitions and 0.0 otherwise.
// Indices are the buffer slots each sample came from and Weights their
// importance sampling weights, normalized so the largest is 1.
type Batch struct {
	States     []float64
	Actions    []int
	Rewards    []float64
	NextStates []float64
	Dones      []float64
	Indices    []int
	Weights    []float64
}

// Len returns the number of samples in the batch
func (b Batch) Len() int {
	return len(b.Indices)
}

// Prioritized implements a fixed capacity circular replay buffer which
// samples transitions with probability proportional to their priority
// raised to the power alpha.
//
// New transitions receive the current maximum priority so that each is
// likely to be sampled at least once. Once full, the oldest slot is
// overwritten.
type Prioritized struct {
	stateCache     []float64
	actionCache    []int
	rewardCache    []float64
	doneCache      []bool
	nextStateCache []float64
	priorities     []float64

	currentInUsePos int
	isFull          bool

	alpha         float64
	beta          float64
	betaIncrement float64

	src         rand.Source
	maxCapacity int
	featureSize int
}

// NewPrioritized returns a new Prioritized buffer holding at most
// capacity transitions with featureSize features per observation
func NewPrioritized(capacity, featureSize int, alpha, beta,
	betaIncrement float64, src rand.Source) (*Prioritized, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("newPrioritized: capacity must be positive "+
			"\n\twant(>0)\n\thave(%v)", capacity)
	}
	if featureSize < 1 {
		return nil, fmt.Errorf("newPrioritized: feature size must be "+
			"positive \n\twant(>0)\n\thave(%v)", featureSize)
	}

	return &Prioritized{
		stateCache:     make([]float64, capacity*featureSize),
		actionCache:    make([]int, capacity),
		rewardCache:    make([]float64, capacity),
		doneCache:      make([]bool, capacity),
		nextStateCache: make([]float64, capacity*featureSize),
		priorities:     make([]float64, capacity),

		alpha:         alpha,
		beta:          beta,
		betaIncrement: betaIncrement,

		src:         src,
		maxCapacity: capacity,
		featureSize: featureSize,
	}, nil
}

// Len returns the number of transitions currently stored
func (p *Prioritized) Len() int {
	if p.isFull {
		return p.maxCapacity
	}
	return p.currentInUsePos
}

// Capacity returns the maximum number of transitions that can be stored
func (p *Prioritized) Capacity() int {
	return p.maxCapacity
}

// FeatureSize returns the number of features per stored observation
func (p *Prioritized) FeatureSize() int {
	return p.featureSize
}

// Beta returns the importance sampling exponent used by the next call
// to Sample
func (p *Prioritized) Beta() float64 {
	return p.beta
}

// Alpha returns the prioritization exponent
func (p *Prioritized) Alpha() float64 {
	return p.alpha
}

// Priority returns the raw priority stored at slot i
func (p *Prioritized) Priority(i int) (float64, error) {
	if i < 0 || i >= p.Len() {
		return 0, &ExpReplayError{Op: "priority", Err: errIndexOutOfRange}
	}
	return p.priorities[i], nil
}

// At returns a copy of the transition stored at slot i
func (p *Prioritized) At(i int) (timestep.Transition, error) {
	if i < 0 || i >= p.Len() {
		return timestep.Transition{}, &ExpReplayError{
			Op:  "at",
			Err: errIndexOutOfRange,
		}
	}

	start, end := i*p.featureSize, (i+1)*p.featureSize
	state := make([]float64, p.featureSize)
	nextState := make([]float64, p.featureSize)
	copy(state, p.stateCache[start:end])
	copy(nextState, p.nextStateCache[start:end])

	return timestep.Transition{
		State:     state,
		Action:    p.actionCache[i],
		Reward:    p.rewardCache[i],
		NextState: nextState,
		Done:      p.doneCache[i],
	}, nil
}

// Store adds a transition to the buffer, overwriting the oldest
// transition once the buffer is full. The transition is given the
// maximum priority in the buffer, or 1 if the buffer is empty.
func (p *Prioritized) Store(t timestep.Transition) error {
	if err := t.Validate(p.featureSize); err != nil {
		return fmt.Errorf("store: %v", err)
	}

	priority := 1.0
	if p.Len() > 0 {
		priority = floats.Max(p.priorities[:p.Len()])
	}

	index := p.currentInUsePos
	start := index * p.featureSize
	copy(p.stateCache[start:start+p.featureSize], t.State)
	copy(p.nextStateCache[start:start+p.featureSize], t.NextState)
	p.actionCache[index] = t.Action
	p.rewardCache[index] = t.Reward
	p.doneCache[index] = t.Done
	p.priorities[index] = priority

	if !p.isFull && index+1 == p.maxCapacity {
		p.isFull = true
	}
	p.currentInUsePos = (p.currentInUsePos + 1) % p.maxCapacity

	return nil
}

// probabilities returns the sampling probability of each occupied slot.
// When every priority is zero, slots are sampled uniformly.
func (p *Prioritized) probabilities() []float64 {
	n := p.Len()
	probs := make([]float64, n)
	for i := range probs {
		probs[i] = math.Pow(p.priorities[i], p.alpha)
	}

	sum := floats.Sum(probs)
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		for i := range probs {
			probs[i] = 1.0 / float64(n)
		}
		return probs
	}

	floats.Scale(1/sum, probs)
	return probs
}

// Sample draws batchSize transitions with replacement, each slot being
// chosen with probability p_i^alpha / sum_j p_j^alpha. Each sample is
// weighted by (n * P(i))^-beta normalized by the batch maximum, after
// which beta is increased towards 1.
func (p *Prioritized) Sample(batchSize int) (Batch, error) {
	if p.Len() == 0 {
		return Batch{}, &ExpReplayError{Op: "sample", Err: errEmptyCache}
	}
	if batchSize < 1 {
		return Batch{}, fmt.Errorf("sample: batch size must be positive "+
			"\n\twant(>0)\n\thave(%v)", batchSize)
	}

	probs := p.probabilities()
	dist := distuv.NewCategorical(probs, p.src)

	batch := Batch{
		States:     make([]float64, batchSize*p.featureSize),
		Actions:    make([]int, batchSize),
		Rewards:    make([]float64, batchSize),
		NextStates: make([]float64, batchSize*p.featureSize),
		Dones:      make([]float64, batchSize),
		Indices:    make([]int, batchSize),
		Weights:    make([]float64, batchSize),
	}

	n := float64(p.Len())
	for i := 0; i < batchSize; i++ {
		index := int(dist.Rand())
		batch.Indices[i] = index

		batchStart := i * p.featureSize
		expStart := index * p.featureSize
		copy(batch.States[batchStart:batchStart+p.featureSize],
			p.stateCache[expStart:expStart+p.featureSize])
		copy(batch.NextStates[batchStart:batchStart+p.featureSize],
			p.nextStateCache[expStart:expStart+p.featureSize])

		batch.Actions[i] = p.actionCache[index]
		batch.Rewards[i] = p.rewardCache[index]
		if p.doneCache[index] {
			batch.Dones[i] = 1.0
		}

		batch.Weights[i] = math.Pow(n*probs[index], -p.beta)
	}
	floats.Scale(1/floats.Max(batch.Weights), batch.Weights)

	p.beta = math.Min(1.0, p.beta+p.betaIncrement)

	return batch, nil
}

// UpdatePriorities overwrites the priority of each slot in indices
// with the corresponding priority. Repeated indices take the last
// priority given.
func (p *Prioritized) UpdatePriorities(indices []int,
	priorities []float64) error {
	if len(indices) != len(priorities) {
		return fmt.Errorf("updatePriorities: indices and priorities must "+
			"have the same length \n\twant(%v)\n\thave(%v)", len(indices),
			len(priorities))
	}

	for i, index := range indices {
		if index < 0 || index >= p.Len() {
			return &ExpReplayError{
				Op:  "updatePriorities",
				Err: fmt.Errorf("slot %v: %w", index, errIndexOutOfRange),
			}
		}
		if priorities[i] < 0 || math.IsNaN(priorities[i]) {
			return fmt.Errorf("updatePriorities: priorities must be "+
				"non-negative \n\twant(>=0)\n\thave(%v)", priorities[i])
		}
	}

	for i, index := range indices {
		p.priorities[index] = priorities[i]
	}
	return nil
}

// String returns the string representation of the buffer
func (p *Prioritized) String() string {
	return fmt.Sprintf("Prioritized | Len: %v  |  Capacity: %v  |  "+
		"Alpha: %v  |  Beta: %.4f", p.Len(), p.maxCapacity, p.alpha, p.beta)
}
