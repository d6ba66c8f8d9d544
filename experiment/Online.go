package experiment

import (
	"fmt"
	"io"

	"github.com/aunum/log"
	"github.com/reinlife/reinlife/agent"
	env "github.com/reinlife/reinlife/environment"
	"github.com/reinlife/reinlife/experiment/checkpointer"
	"github.com/reinlife/reinlife/experiment/trackers"
	ts "github.com/reinlife/reinlife/timestep"
)

// Online is an Experiment that runs a brain online only. No offline
// evaluation is performed. Episodes are numbered from 1.
type Online struct {
	env.Environment
	agent.Brain

	maxEpisodes  int
	maxSteps     int
	episode      int
	currentSteps int

	trackers      []trackers.Tracker
	checkpointers []checkpointer.Checkpointer
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given brain. The experiment ends after
// maxEpisodes episodes or, if maxSteps > 0, after maxSteps steps.
func NewOnline(e env.Environment, b agent.Brain, maxEpisodes,
	maxSteps int, t []trackers.Tracker,
	c []checkpointer.Checkpointer) *Online {
	return &Online{
		Environment:   e,
		Brain:         b,
		maxEpisodes:   maxEpisodes,
		maxSteps:      maxSteps,
		trackers:      t,
		checkpointers: c,
	}
}

// Register registers a Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t trackers.Tracker) {
	o.trackers = append(o.trackers, t)
}

// Episode returns the number of episodes started
func (o *Online) Episode() int {
	return o.episode
}

// Steps returns the total number of steps taken
func (o *Online) Steps() int {
	return o.currentSteps
}

// RunEpisode runs a single episode of the experiment, feeding every
// transition to the brain. It returns whether the experiment is over.
func (o *Online) RunEpisode() (bool, error) {
	o.episode++
	step := o.Environment.Reset()
	o.track(step)

	for !step.Last() && !o.stepLimitReached() {
		o.currentSteps++

		action, err := o.Brain.SelectAction(step.Observation, o.episode)
		if err != nil {
			return true, fmt.Errorf("runEpisode: %v", err)
		}
		next, err := o.Environment.Step(action)
		if err != nil {
			return true, fmt.Errorf("runEpisode: %v", err)
		}
		o.track(next)

		ctx := agent.LearnContext{
			Age:        next.Number,
			Dead:       next.Dead,
			Action:     action,
			State:      step.Observation,
			Reward:     next.Reward,
			StatePrime: next.Observation,
			Done:       next.Last(),
			Episode:    o.episode,
		}
		if err := o.Brain.Learn(ctx); err != nil {
			return true, fmt.Errorf("runEpisode: %v", err)
		}
		step = next
	}

	if step.Last() {
		log.Successf("Episode %d finished at age %d", o.episode, step.Number)
	}

	for _, c := range o.checkpointers {
		if err := c.Checkpoint(o.episode); err != nil {
			return true, fmt.Errorf("runEpisode: could not checkpoint: %v",
				err)
		}
	}

	return o.episode >= o.maxEpisodes || o.stepLimitReached(), nil
}

// stepLimitReached returns whether the experiment's step limit has
// been reached
func (o *Online) stepLimitReached() bool {
	return o.maxSteps > 0 && o.currentSteps >= o.maxSteps
}

// Run runs the entire experiment
func (o *Online) Run() error {
	log.Infof("running %v brain for %v episodes", o.Brain.Kind(),
		o.maxEpisodes)

	for ended := false; !ended; {
		var err error
		if ended, err = o.RunEpisode(); err != nil {
			return fmt.Errorf("run: %v", err)
		}
	}
	return nil
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, tracker := range o.trackers {
		if err := tracker.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// Close releases the resources held by the brain, if any
func (o *Online) Close() error {
	if closer, ok := o.Brain.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// track tracks the current timestep by caching its data in each Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}
