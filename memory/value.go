package memory

import (
	"encoding/binary"
	"fmt"
)

// ReadValue reads a fixed-size value of type T at addr, decoding it
// with order. T must be a type accepted by encoding/binary, such as
// an integer, a float, or a struct or array of those.
//
// Use NativePointerMaker().ByteOrder() to decode values in the byte
// order of the current process.
func ReadValue[T any](r Reader, addr Address, order binary.ByteOrder) (T, error) {
	var value T

	// Slices report the size of their contents, which is zero here.
	size := binary.Size(value)
	if size <= 0 {
		return value, fmt.Errorf("%T does not have a fixed size", value)
	}

	raw, err := r.Read(addr, size)
	if err != nil {
		return value, err
	}

	_, err = binary.Decode(raw, order, &value)
	if err != nil {
		return value, fmt.Errorf("failed to decode %T - %w", value, err)
	}

	return value, nil
}

// WriteValue encodes value with order and writes it at addr.
// See ReadValue for the types that are supported.
func WriteValue[T any](w Writer, addr Address, order binary.ByteOrder, value T) error {
	if binary.Size(value) < 0 {
		return fmt.Errorf("%T does not have a fixed size", value)
	}

	raw, err := binary.Append(nil, order, value)
	if err != nil {
		return fmt.Errorf("failed to encode %T - %w", value, err)
	}

	return w.Write(addr, raw)
}

// ReadValueOrExit calls ReadValue and invokes DefaultExitFn if an
// error occurs.
func ReadValueOrExit[T any](r Reader, addr Address, order binary.ByteOrder) T {
	value, err := ReadValue[T](r, addr, order)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to read %T at %s - %w", value, addr, err))
	}
	return value
}
