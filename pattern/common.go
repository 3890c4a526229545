package pattern

import (
	"errors"
	"log"

	"gitlab.com/stephen-fox/inproc/memory"
)

var (
	// DefaultExitFn is invoked by functions and methods ending in
	// the "OrExit" suffix when an error occurs.
	DefaultExitFn = func(err error) {
		log.Fatalln(err)
	}
)

var (
	// ErrInvalidPattern is returned for patterns that cannot be
	// searched for, such as an empty pattern.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrNotFound is returned when a search exhausts its range
	// without finding a match.
	ErrNotFound = errors.New("pattern not found")

	// ErrInvalidRange is returned when a search range's start
	// address is greater than its end address.
	ErrInvalidRange = memory.ErrInvalidRange
)
