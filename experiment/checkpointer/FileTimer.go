package checkpointer

import (
	"fmt"
	"time"
)

// timeLayout sorts lexically in chronological order
const timeLayout = "20060102T150405.000000000"

// FileTimer returns a function which will append the current UTC time
// to a filename.
func FileTimer(filename, extension string) func() string {
	return func() string {
		return fmt.Sprintf("%v-%v%v", filename,
			time.Now().UTC().Format(timeLayout), extension)
	}
}
