// Package onload decides how instrumentation code runs once it has
// been loaded into a target process.
//
// A Go library built with -buildmode=c-shared runs its package init
// functions when the host loads it. On Linux this happens from the
// loader's constructors, and running the instrumentation inline is
// fine. On Windows the equivalent is DllMain, which holds the loader
// lock. Code that loads other libraries, or waits on threads that do,
// deadlocks there, so the work must be handed to another thread.
//
// A typical entry point looks like this:
//
//	func init() {
//		onload.Run(nil, func() {
//			// Find tables and hook them.
//		})
//	}
//
// The memory, pattern and vtable packages do not depend on this package.
package onload
