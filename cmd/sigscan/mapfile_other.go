//go:build !unix

package main

import (
	"os"

	"gitlab.com/stephen-fox/inproc/memory"
)

// mappedFile is a copy of a file's contents. Platforms without mmap
// support in golang.org/x/sys/unix read the whole file instead.
type mappedFile struct {
	*memory.Buffer
}

func mapFile(path string) (*mappedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &mappedFile{
		Buffer: memory.NewBuffer(memory.AddressOf(data), data),
	}, nil
}

func (o *mappedFile) Close() error {
	return nil
}
