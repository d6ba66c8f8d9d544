// Package checkpointer implements periodic snapshotting of brains
// during an experiment
package checkpointer

// Saver is an object that can save itself to a file
type Saver interface {
	Save(filename string) error
}

// Checkpointer checkpoints/saves objects at the end of episodes
type Checkpointer interface {
	Checkpoint(episode int) error
}
