package memory

import (
	"encoding/binary"
	"fmt"
)

// NativePointerMaker returns a PointerMaker for the current platform.
func NativePointerMaker() PointerMaker {
	return PointerMaker{
		byteOrder: binary.NativeEndian,
		ptrSize:   PointerSize,
	}
}

// PointerMakerFor32Bit returns a little endian PointerMaker for
// 4 byte pointers.
func PointerMakerFor32Bit() PointerMaker {
	return PointerMaker{
		byteOrder: binary.LittleEndian,
		ptrSize:   4,
	}
}

// PointerMakerFor64Bit returns a little endian PointerMaker for
// 8 byte pointers.
func PointerMakerFor64Bit() PointerMaker {
	return PointerMaker{
		byteOrder: binary.LittleEndian,
		ptrSize:   8,
	}
}

// PointerMakerForOrExit calls PointerMakerFor and invokes DefaultExitFn
// if an error occurs.
func PointerMakerForOrExit(endianness binary.ByteOrder, pointerSize int) PointerMaker {
	pm, err := PointerMakerFor(endianness, pointerSize)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to create pointer maker - %w", err))
	}
	return pm
}

// PointerMakerFor returns a PointerMaker for the specified byte order
// and pointer size. The pointer size must be 4 or 8 bytes.
func PointerMakerFor(endianness binary.ByteOrder, pointerSize int) (PointerMaker, error) {
	if endianness == nil {
		return PointerMaker{}, fmt.Errorf("endianness cannot be nil")
	}

	switch pointerSize {
	case 4, 8:
	default:
		return PointerMaker{}, fmt.Errorf("unsupported pointer size: %d", pointerSize)
	}

	return PointerMaker{
		byteOrder: endianness,
		ptrSize:   pointerSize,
	}, nil
}

// PointerMaker converts between Address values and their in-memory
// representation.
type PointerMaker struct {
	byteOrder binary.ByteOrder
	ptrSize   int
}

// Size returns the size of a pointer in bytes.
func (o PointerMaker) Size() int {
	return o.ptrSize
}

// ByteOrder returns the byte order pointers are encoded with.
func (o PointerMaker) ByteOrder() binary.ByteOrder {
	return o.byteOrder
}

// FromAddress encodes addr. Addresses wider than the pointer size
// are truncated.
func (o PointerMaker) FromAddress(addr Address) Pointer {
	out := make([]byte, o.ptrSize)
	switch o.ptrSize {
	case 4:
		o.byteOrder.PutUint32(out, uint32(addr))
	case 8:
		o.byteOrder.PutUint64(out, uint64(addr))
	default:
		panic(fmt.Sprintf("unsupported pointer size: %d", o.ptrSize))
	}
	return out
}

// ToAddress decodes a pointer that was read from memory.
func (o PointerMaker) ToAddress(raw []byte) (Address, error) {
	if len(raw) != o.ptrSize {
		return 0, fmt.Errorf("expected %d pointer bytes - got %d",
			o.ptrSize, len(raw))
	}

	switch o.ptrSize {
	case 4:
		return Address(o.byteOrder.Uint32(raw)), nil
	case 8:
		return Address(o.byteOrder.Uint64(raw)), nil
	default:
		return 0, fmt.Errorf("unsupported pointer size: %d", o.ptrSize)
	}
}

// Read reads the pointer stored at addr.
func (o PointerMaker) Read(r Reader, addr Address) (Address, error) {
	raw, err := r.Read(addr, o.ptrSize)
	if err != nil {
		return 0, err
	}

	return o.ToAddress(raw)
}

// Write stores value as a pointer at addr.
func (o PointerMaker) Write(w Writer, addr Address, value Address) error {
	return w.Write(addr, o.FromAddress(value))
}

// ReadPointer reads the native pointer stored at addr.
func ReadPointer(r Reader, addr Address) (Address, error) {
	return NativePointerMaker().Read(r, addr)
}

// WritePointer stores value as a native pointer at addr.
func WritePointer(w Writer, addr Address, value Address) error {
	return NativePointerMaker().Write(w, addr, value)
}

// Pointer is the in-memory representation of an address.
type Pointer []byte

// HexString returns the pointer's bytes, in memory order, as
// a hexadecimal string.
func (o Pointer) HexString() string {
	return fmt.Sprintf("0x%x", []byte(o))
}
