// Package vtable provides functionality for hooking dispatch tables.
//
// A dispatch table (or vtable) is a contiguous array of pointer-sized
// slots, each holding the address of a function. Hooking replaces one
// slot with the address of a different function, and hands back the
// address that was there before so the caller can still invoke it.
//
// The package does not keep track of installed hooks. Callers that
// need to undo a hook keep the Record returned by Table.Hook and pass
// it to Table.Restore.
//
// # Concurrency
//
// All Hook calls in the process are serialized, because saving and
// restoring memory protection is not safe to do concurrently for the
// same pages, and two tables may share a page. Nothing else is
// synchronized:
// threads calling through the table while it is being hooked observe
// either the old or the new target, and may fault if the protection
// change is not yet visible to them. Callers must ensure exclusive
// access to the target table during a Hook call (e.g., by quiescing
// the threads that use it).
package vtable
