package expreplay

import (
	"errors"
)

// ExpReplayError records an error and the buffer operation that
// caused it
type ExpReplayError struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *ExpReplayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *ExpReplayError) Unwrap() error {
	return e.Err
}

var errEmptyCache = errors.New("cache empty")

var errIndexOutOfRange = errors.New("index out of range")

// IsEmptyBuffer returns whether or not an error reports that a
// replay buffer is empty.
func IsEmptyBuffer(err error) bool {
	return errors.Is(err, errEmptyCache)
}

// IsIndexOutOfRange returns whether or not an error reports that a
// buffer slot outside the occupied region was accessed.
func IsIndexOutOfRange(err error) bool {
	return errors.Is(err, errIndexOutOfRange)
}
