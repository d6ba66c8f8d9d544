// Package trackers implements trackers of the data generated while
// running an experiment
package trackers

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/reinlife/reinlife/timestep"
)

// Tracker caches data from each TimeStep of an experiment and saves it
// to disk
type Tracker interface {
	Track(ts.TimeStep)
	Save() error
}

// save gob encodes data to filename
func save(filename string, data interface{}) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	enc := gob.NewEncoder(file)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("save: could not encode data: %v", err)
	}
	return nil
}

// Load gob decodes the data saved by a Tracker at filename into data
func Load(filename string, data interface{}) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("load: could not open file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("load: could not decode data: %v", err)
	}
	return nil
}
