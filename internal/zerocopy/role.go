package zerocopy

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/bamsammich/zcopy/internal/platform"
)

// Role is the capability a descriptor must carry for one side of a transfer.
type Role int

const (
	Readable Role = iota
	Writable
)

func (r Role) String() string {
	switch r {
	case Readable:
		return "readable"
	case Writable:
		return "writable"
	default:
		return "unknown"
	}
}

func (r Role) allowedModes() []int {
	switch r {
	case Readable:
		return []int{unix.O_RDONLY, unix.O_RDWR}
	case Writable:
		return []int{unix.O_WRONLY, unix.O_RDWR}
	default:
		return nil
	}
}

// validateFlags checks F_GETFL flags against the role.
func (r Role) validateFlags(flags int) error {
	mode := flags & unix.O_ACCMODE

	allowed := false
	for _, m := range r.allowedModes() {
		if m == mode {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrWrongAccessMode
	}

	// Append would make the kernel write somewhere other than the offset we track.
	if r == Writable && flags&unix.O_APPEND != 0 {
		return ErrAppendNotAllowed
	}
	return nil
}

// Validate checks that fd is a regular file whose open mode fits role.
func Validate(fd int, role Role) error {
	regular, err := platform.IsRegularFile(fd)
	if err != nil {
		return &ValidationError{Fd: fd, Role: role, Err: os.NewSyscallError("fstat", err)}
	}
	if !regular {
		return &ValidationError{Fd: fd, Role: role, Err: ErrNotRegularFile}
	}

	flags, err := platform.StatusFlags(fd)
	if err != nil {
		return &ValidationError{Fd: fd, Role: role, Err: os.NewSyscallError("fcntl", err)}
	}
	if err := role.validateFlags(flags); err != nil {
		return &ValidationError{Fd: fd, Role: role, Err: err}
	}
	return nil
}
