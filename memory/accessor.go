package memory

import (
	"fmt"
	"unsafe"
)

// Reader reads spans of memory.
type Reader interface {
	// Read returns a copy of the length bytes starting at addr.
	Read(addr Address, length int) ([]byte, error)
}

// Writer writes spans of memory.
type Writer interface {
	// Write copies data to memory starting at addr, overwriting
	// whatever was there before.
	Write(addr Address, data []byte) error
}

// ReadWriter groups the Reader and Writer interfaces.
type ReadWriter interface {
	Reader
	Writer
}

// ReadBytes returns a copy of the length bytes starting at addr in
// the current process. Byte i of the result is the byte at addr + i.
//
// There is no bounds checking. Reading memory that is not mapped,
// or not readable, is a fatal fault. A negative length panics, just
// like make would.
func ReadBytes(addr Address, length int) []byte {
	out := make([]byte, length)
	if length == 0 {
		return out
	}

	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), length))

	return out
}

// WriteBytes copies data to the current process' memory starting at
// addr. Byte i of data is written to addr + i.
//
// There is no bounds checking. Writing memory that is not mapped,
// or not writable, is a fatal fault.
func WriteBytes(addr Address, data []byte) {
	if len(data) == 0 {
		return
	}

	copy(unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), len(data)), data)
}

// Self is a ReadWriter for the current process' memory. It is
// a thin layer over ReadBytes and WriteBytes, and shares their
// fault behavior.
type Self struct{}

// Read returns a copy of the length bytes starting at addr.
// An error is only returned for a negative length.
func (Self) Read(addr Address, length int) ([]byte, error) {
	if length < 0 {
		return nil, fmt.Errorf("length cannot be negative - got %d", length)
	}

	return ReadBytes(addr, length), nil
}

// Write copies data to memory starting at addr. It never fails.
func (Self) Write(addr Address, data []byte) error {
	WriteBytes(addr, data)
	return nil
}

// ReadOrExit calls Read and invokes DefaultExitFn if an error occurs.
func ReadOrExit(r Reader, addr Address, length int) []byte {
	b, err := r.Read(addr, length)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to read %d bytes at %s - %w",
			length, addr, err))
	}
	return b
}

// WriteOrExit calls Write and invokes DefaultExitFn if an error occurs.
func WriteOrExit(w Writer, addr Address, data []byte) {
	err := w.Write(addr, data)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to write %d bytes at %s - %w",
			len(data), addr, err))
	}
}

// NewBuffer returns a *Buffer that maps data at base. The Buffer
// aliases data; writes to the Buffer are visible in data.
func NewBuffer(base Address, data []byte) *Buffer {
	return &Buffer{
		base: base,
		data: data,
	}
}

// Buffer is a ReadWriter over a byte slice that pretends to live at
// a particular base address. It is useful for working with copies of
// memory, and for exercising code that expects live memory without
// risking a fault.
type Buffer struct {
	base Address
	data []byte
}

// Range returns the addresses covered by the Buffer.
func (o *Buffer) Range() Range {
	return RangeOf(o.base, len(o.data))
}

// Bytes returns the underlying slice.
func (o *Buffer) Bytes() []byte {
	return o.data
}

// Read returns a copy of the length bytes starting at addr. ErrFault
// is returned if any part of the span is outside of the Buffer.
func (o *Buffer) Read(addr Address, length int) ([]byte, error) {
	start, err := o.offset(addr, length)
	if err != nil {
		return nil, err
	}

	out := make([]byte, length)
	copy(out, o.data[start:start+length])

	return out, nil
}

// Write copies data into the Buffer starting at addr. ErrFault is
// returned, and nothing is written, if any part of the span is outside
// of the Buffer.
func (o *Buffer) Write(addr Address, data []byte) error {
	start, err := o.offset(addr, len(data))
	if err != nil {
		return err
	}

	copy(o.data[start:], data)

	return nil
}

func (o *Buffer) offset(addr Address, length int) (int, error) {
	if length < 0 {
		return 0, fmt.Errorf("length cannot be negative - got %d", length)
	}

	bounds := o.Range()
	if addr < bounds.From || addr > bounds.To || int(addr-bounds.From) > len(o.data)-length {
		return 0, fmt.Errorf("%w: %d bytes at %s are outside of %s",
			ErrFault, length, addr, bounds)
	}

	return int(addr - bounds.From), nil
}
