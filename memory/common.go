package memory

import (
	"errors"
	"log"
)

var (
	// DefaultExitFn is invoked by functions and methods ending in
	// the "OrExit" suffix when an error occurs.
	DefaultExitFn = func(err error) {
		log.Fatalln(err)
	}
)

var (
	// ErrInvalidRange is returned when a Range's start address
	// is greater than its end address.
	ErrInvalidRange = errors.New("invalid range")

	// ErrFault is returned when simulated memory is accessed
	// outside of its bounds.
	ErrFault = errors.New("memory fault")

	// ErrUnmapped is returned when a span of memory is not
	// completely covered by mapped regions.
	ErrUnmapped = errors.New("memory is not mapped")

	// ErrUnsupported is returned by operations that are not
	// implemented for the current platform.
	ErrUnsupported = errors.New("unsupported on this platform")
)
