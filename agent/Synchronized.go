package agent

import (
	"fmt"
	"sync"
)

// synchronized serializes every call to the wrapped Brain
type synchronized struct {
	mu    sync.Mutex
	brain Brain
}

// Synchronized returns a Brain that can be shared between organisms
// acting concurrently, such as the members of a static family. Calls
// to the returned Brain are serialized. The optional capabilities of
// the wrapped brain (Scrambler and Persister) are preserved.
func Synchronized(b Brain) Brain {
	return &synchronized{brain: b}
}

func (s *synchronized) Kind() Kind {
	return s.brain.Kind()
}

func (s *synchronized) SelectAction(state []float64, episode int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brain.SelectAction(state, episode)
}

func (s *synchronized) Learn(ctx LearnContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brain.Learn(ctx)
}

// ApplyGaussianNoise implements the Scrambler interface
func (s *synchronized) ApplyGaussianNoise() error {
	scrambler, ok := s.brain.(Scrambler)
	if !ok {
		return fmt.Errorf("applyGaussianNoise: %v brain cannot be scrambled",
			s.brain.Kind())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return scrambler.ApplyGaussianNoise()
}

// Save implements the Persister interface
func (s *synchronized) Save(path string) error {
	persister, ok := s.brain.(Persister)
	if !ok {
		return fmt.Errorf("save: %v brain cannot be saved", s.brain.Kind())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return persister.Save(path)
}

// Unwrap returns the wrapped Brain
func (s *synchronized) Unwrap() Brain {
	return s.brain
}
