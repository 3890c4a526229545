package vtable

import (
	"errors"
	"fmt"
	"log"
)

var (
	// DefaultExitFn is invoked by functions and methods ending in
	// the "OrExit" suffix when an error occurs.
	DefaultExitFn = func(err error) {
		log.Fatalln(err)
	}
)

// ErrOutOfBounds is matched by *OutOfBoundsError using errors.Is.
var ErrOutOfBounds = errors.New("index out of bounds")

// OutOfBoundsError is returned when a slot index is outside of a table.
type OutOfBoundsError struct {
	Index int
	Size  int
}

func (o *OutOfBoundsError) Error() string {
	if o.Size == 0 {
		return fmt.Sprintf("index %d is out of bounds - the table is empty", o.Index)
	}

	return fmt.Sprintf("index %d is out of bounds - max index is %d",
		o.Index, o.Size-1)
}

func (o *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}
