package memory

import (
	"errors"
	"fmt"
	"strings"
)

const (
	ProtRead Protection = 1 << iota
	ProtWrite
	ProtExec

	ProtNone Protection = 0
	ProtRW   Protection = ProtRead | ProtWrite
	ProtRX   Protection = ProtRead | ProtExec
	ProtRWX  Protection = ProtRead | ProtWrite | ProtExec
)

// Protection is a set of memory access permissions.
type Protection int

func (o Protection) String() string {
	var b strings.Builder
	for _, flag := range []struct {
		p Protection
		c byte
	}{{ProtRead, 'r'}, {ProtWrite, 'w'}, {ProtExec, 'x'}} {
		if o&flag.p != 0 {
			b.WriteByte(flag.c)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Protector changes the protection of memory.
type Protector interface {
	// Protect applies prot to every page overlapping the size bytes
	// starting at addr. On success, it returns a function that
	// puts back the protection those pages had before the call.
	Protect(addr Address, size int, prot Protection) (restore func() error, err error)
}

// SelfProtector returns a Protector for the current process.
// On platforms without support, its Protect method returns
// ErrUnsupported.
func SelfProtector() Protector {
	return osProtector{}
}

// NopProtector is a Protector that does nothing. It is useful when
// memory is known to be writable already, such as a Buffer.
type NopProtector struct{}

func (NopProtector) Protect(Address, int, Protection) (func() error, error) {
	return func() error { return nil }, nil
}

// WithProtection applies prot to the size bytes starting at addr,
// calls fn, and then restores the previous protection.
//
// The previous protection is restored on every path out of fn,
// including errors and panics. If restoring fails, that error is
// joined with the error returned by fn.
func WithProtection(p Protector, addr Address, size int, prot Protection, fn func() error) (err error) {
	restore, err := p.Protect(addr, size, prot)
	if err != nil {
		return fmt.Errorf("failed to set protection of %d bytes at %s to %s - %w",
			size, addr, prot, err)
	}

	defer func() {
		restoreErr := restore()
		if restoreErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to restore protection of %d bytes at %s - %w",
				size, addr, restoreErr))
		}
	}()

	return fn()
}

// WithWritable is WithProtection using ProtRWX.
func WithWritable(p Protector, addr Address, size int, fn func() error) error {
	return WithProtection(p, addr, size, ProtRWX, fn)
}

func pageSpan(addr Address, size int, pageSize int) Range {
	mask := Address(pageSize - 1)
	return Range{
		From: addr &^ mask,
		To:   (addr + Address(size) + mask) &^ mask,
	}
}
