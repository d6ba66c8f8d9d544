package trackers

import (
	"github.com/reinlife/reinlife/timestep"
)

// EpisodeLength tracks and saves the lifespan of the organism in each
// episode of an experiment.
// Note that an episode must finish for this Tracker to save its data.
// If the last episode in an experiment does not finish, that episode's
// length will not be saved.
type EpisodeLength struct {
	episodeLengths []int
	deaths         []bool
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength tracker which will save
// its data at the specified location filename
func NewEpisodeLength(filename string) *EpisodeLength {
	return &EpisodeLength{filename: filename}
}

// Track caches the episode length if the timestep passed to it is the
// last timestep in the episode.
func (e *EpisodeLength) Track(t timestep.TimeStep) {
	if t.Last() {
		e.episodeLengths = append(e.episodeLengths, t.Number)
		e.deaths = append(e.deaths, t.Dead)
	}
}

// Lengths returns the lengths of the finished episodes
func (e *EpisodeLength) Lengths() []int {
	return e.episodeLengths
}

// Deaths returns whether the organism died in each finished episode
func (e *EpisodeLength) Deaths() []bool {
	return e.deaths
}

// Save saves the episode lengths to disk
func (e *EpisodeLength) Save() error {
	return save(e.filename, e.episodeLengths)
}
