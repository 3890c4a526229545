// Package memory provides functionality for reading and writing the
// memory of the current process.
//
// Addresses are plain integers (see Address), never Go pointers. The
// package claims no ownership over the memory it touches: it does not
// allocate or free the memory behind an Address, and it cannot tell
// whether an Address is mapped. All unchecked access to the address
// space is concentrated in ReadBytes and WriteBytes.
//
// # Byte order
//
// Spans are always copied in ascending index order. Byte i of a span
// read from, or written to, address A lives at A + i. Multi-byte values
// such as pointers are encoded separately by a PointerMaker, which
// carries its own binary.ByteOrder.
//
// # Faults
//
// Reading or writing an unmapped or protected address through ReadBytes,
// WriteBytes, or Self is a fatal fault of the host process. It is not
// reported as an error. Callers are expected to validate addresses before
// using them, for example by finding them with a successful pattern scan,
// or by consulting Regions.
//
// Buffer provides the same Reader and Writer contracts over a plain byte
// slice mapped at a chosen base address. Out-of-bounds access on a Buffer
// is reported as ErrFault.
//
// # Memory protection
//
// Protector changes the protection of a span of pages and returns a
// function that restores whatever protection the pages had before.
// WithProtection wraps this in a scope that always restores the previous
// protection, including when the scoped function fails or panics.
package memory
