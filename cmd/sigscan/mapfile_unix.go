//go:build unix

package main

import (
	"fmt"
	"os"

	"gitlab.com/stephen-fox/inproc/memory"
	"golang.org/x/sys/unix"
)

// mappedFile is a read-only private mapping of a file in the current
// process. It is read in place through memory.Self.
type mappedFile struct {
	memory.Self
	data []byte
}

func mapFile(path string) (*mappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%q is not a regular file", path)
	}

	if info.Size() == 0 {
		return &mappedFile{}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap file - %w", err)
	}

	return &mappedFile{data: data}, nil
}

func (o *mappedFile) Range() memory.Range {
	if len(o.data) == 0 {
		return memory.Range{}
	}

	return memory.RangeOf(memory.AddressOf(o.data), len(o.data))
}

func (o *mappedFile) Close() error {
	if o.data == nil {
		return nil
	}

	err := unix.Munmap(o.data)
	o.data = nil
	return err
}
