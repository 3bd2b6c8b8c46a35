package zerocopy

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRegularFile rejects pipes, sockets, devices and directories.
	ErrNotRegularFile = errors.New("not a regular file")

	// ErrWrongAccessMode means the open mode lacks the capability the role needs.
	ErrWrongAccessMode = errors.New("access mode does not match role")

	// ErrAppendNotAllowed rejects O_APPEND descriptors for the Writable role.
	ErrAppendNotAllowed = errors.New("writable descriptor is in append mode")

	// ErrNegativeOffset rejects a negative starting offset for ExplicitOffset.
	ErrNegativeOffset = errors.New("explicit offset must not be negative")

	// ErrRoleMismatch means a Writable strategy was passed as a source or a
	// Readable one as a destination.
	ErrRoleMismatch = errors.New("strategy role does not match transfer side")

	// ErrInvalidLength rejects negative transfer lengths.
	ErrInvalidLength = errors.New("transfer length must not be negative")
)

// ValidationError reports why a descriptor cannot back an offset strategy.
// Err is one of ErrNotRegularFile, ErrWrongAccessMode, ErrAppendNotAllowed,
// or the *os.SyscallError from fstat/fcntl.
type ValidationError struct {
	Fd   int
	Role Role
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate fd %d as %s: %v", e.Fd, e.Role, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
