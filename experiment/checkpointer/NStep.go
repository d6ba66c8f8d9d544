package checkpointer

import "fmt"

// nStep implements checkpointing every N episodes
type nStep struct {
	interval int
	object   Saver // Object to save

	// filename returns the string filename of the file to save the object
	// in.
	//
	// If each object should be saved in a separate file with each file
	// having an incremented number as a suffix (e.g. brain1.bin,
	// brain2.bin, ..., brainK.bin), then simply use the static function
	// FilenameEnumerator, which will return a function that will
	// enumerate filenames.
	//
	// Otherwise, if each object should be saved in a separate file, but
	// the filename does not matter, use the static function FileTimer
	// to generate the required naming function. For example:
	//
	// n := NewNStep(10, object, FileTimer("filename", ".bin"))
	filename func() string
}

// NewNStep returns a checkpointer that checkpoints every n episodes.
func NewNStep(n int, object Saver, filename func() string) (Checkpointer,
	error) {
	if n < 1 {
		return nil, fmt.Errorf("newNStep: interval must be positive "+
			"\n\twant(>0)\n\thave(%v)", n)
	}
	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint checkpoints the Checkpointer's tracked object by calling
// its Save() method
func (n *nStep) Checkpoint(episode int) error {
	if episode%n.interval == 0 {
		return n.object.Save(n.filename())
	}
	return nil
}
