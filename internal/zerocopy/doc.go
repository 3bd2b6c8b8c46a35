// Package zerocopy moves bytes between descriptors inside the kernel with
// copy_file_range(2) and splice(2).
//
// Endpoints are wrapped in one of two offset strategies before use:
//
//   - InternalOffset owns an *os.File. Every syscall passes a nil offset, so
//     the kernel reads and advances the descriptor's own file position.
//   - ExplicitOffset borrows a descriptor and keeps its own int64 offset. The
//     kernel updates that counter in place and never touches the file
//     position.
//
// Both constructors validate the descriptor once: it must be a regular file
// whose open mode fits the Role, and a Writable descriptor must not be in
// append mode. Flags must not be changed behind the strategy's back after
// that.
//
// Every syscall is dispatched to a bridge.Pool thread; the calling goroutine
// only waits on the result. A strategy must not be used by two calls at the
// same time. Cancelling ctx abandons the wait but not the syscall: it
// completes in the background and any offset update it makes stays applied.
package zerocopy
