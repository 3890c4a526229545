// Package inproc provides functionality for instrumenting the memory
// of the current process.
//
// APIs are separated into subpackages, and documented accordingly:
//   - memory reads and writes raw bytes at addresses, manages memory
//     protection, and enumerates mapped regions
//   - pattern finds code or data by wildcarded byte signatures
//   - vtable redirects calls made through dispatch tables
//   - onload decides when instrumentation code is allowed to run
//
// For scripting convenience, "OrExit" functions and methods are provided.
// Any errors encountered by these functions are treated as fatal. In such
// cases, an exit handler function is invoked.
package inproc
