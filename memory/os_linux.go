//go:build linux

package memory

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

func osRegions() ([]Region, error) {
	f, err := os.Open("/proc/self/maps")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	regions, err := parseMaps(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s - %w", f.Name(), err)
	}

	return regions, nil
}

type osProtector struct{}

// Protect changes the protection of the pages covering the span with
// mprotect(2). mprotect does not report the old protection, so it is
// looked up in /proc/self/maps beforehand. Pages that had different
// protections are restored individually.
func (osProtector) Protect(addr Address, size int, prot Protection) (func() error, error) {
	if size <= 0 {
		return nil, fmt.Errorf("size must be greater than zero - got %d", size)
	}

	span := pageSpan(addr, size, unix.Getpagesize())

	regions, err := osRegions()
	if err != nil {
		return nil, err
	}

	previous, err := coverage(regions, span)
	if err != nil {
		return nil, err
	}

	err = mprotect(span, prot)
	if err != nil {
		return nil, fmt.Errorf("failed to mprotect %s - %w", span, err)
	}

	return func() error {
		var errs []error
		for _, r := range previous {
			err := mprotect(r.Range, r.Prot)
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to mprotect %s back to %s - %w",
					r.Range, r.Prot, err))
			}
		}
		return errors.Join(errs...)
	}, nil
}

func mprotect(rng Range, prot Protection) error {
	pages := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(rng.From))), rng.Len())
	return unix.Mprotect(pages, unixProt(prot))
}

func unixProt(prot Protection) int {
	out := unix.PROT_NONE
	if prot&ProtRead != 0 {
		out |= unix.PROT_READ
	}
	if prot&ProtWrite != 0 {
		out |= unix.PROT_WRITE
	}
	if prot&ProtExec != 0 {
		out |= unix.PROT_EXEC
	}
	return out
}
