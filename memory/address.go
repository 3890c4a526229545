package memory

import (
	"fmt"
	"unsafe"
)

// PointerSize is the size of a pointer on the current platform in bytes.
const PointerSize = int(unsafe.Sizeof(uintptr(0)))

// Address identifies a byte in the current process' address space.
//
// It is deliberately not a Go pointer. The garbage collector does not
// track it and nothing is kept alive by it.
type Address uintptr

// String returns the hexadecimal representation of the address.
func (o Address) String() string {
	return fmt.Sprintf("0x%x", uintptr(o))
}

// Add returns the address offset bytes past o.
func (o Address) Add(offset uintptr) Address {
	return o + Address(offset)
}

// AddressOf returns the address of the first byte of b. It returns
// zero if b is empty.
//
// The caller must keep b alive for as long as the address is in use.
func AddressOf(b []byte) Address {
	if len(b) == 0 {
		return 0
	}

	return Address(uintptr(unsafe.Pointer(&b[0])))
}

// Range is a half-open interval of addresses, [From, To).
type Range struct {
	From Address
	To   Address
}

// RangeOf returns the Range starting at from that is length bytes long.
func RangeOf(from Address, length int) Range {
	return Range{
		From: from,
		To:   from + Address(length),
	}
}

// Validate returns ErrInvalidRange if From is greater than To.
func (o Range) Validate() error {
	if o.From > o.To {
		return fmt.Errorf("%w: start %s is greater than end %s",
			ErrInvalidRange, o.From, o.To)
	}

	return nil
}

// Len returns the number of addresses in the range. It returns zero
// for an invalid range.
func (o Range) Len() int {
	if o.From >= o.To {
		return 0
	}

	return int(o.To - o.From)
}

// Contains returns true if addr is inside the range.
func (o Range) Contains(addr Address) bool {
	return addr >= o.From && addr < o.To
}

// ContainsRange returns true if other is completely inside the range.
func (o Range) ContainsRange(other Range) bool {
	return other.From >= o.From && other.To <= o.To && other.From <= other.To
}

// Intersect returns the addresses that are in both ranges. The bool
// is false if the ranges do not overlap.
func (o Range) Intersect(other Range) (Range, bool) {
	out := o
	if other.From > out.From {
		out.From = other.From
	}

	if other.To < out.To {
		out.To = other.To
	}

	if out.From >= out.To {
		return Range{}, false
	}

	return out, true
}

func (o Range) String() string {
	return fmt.Sprintf("[%s, %s)", o.From, o.To)
}
