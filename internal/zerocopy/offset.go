package zerocopy

import (
	"os"
)

// rawArgs is what a driver hands to the kernel for one side of a transfer.
// off is nil when the kernel should use the descriptor's own position.
type rawArgs struct {
	fd  int
	off *int64
}

// Strategy is one validated endpoint of a transfer. InternalOffset and
// ExplicitOffset are the only implementations.
type Strategy interface {
	Role() Role
	args() rawArgs
}

// Descriptor is anything backed by a raw file descriptor, such as *os.File.
type Descriptor interface {
	Fd() uintptr
}

// InternalOffset owns a file and lets the kernel track its position.
type InternalOffset struct {
	role Role
	file *os.File
	fd   int
}

// NewInternalOffset validates f for role and takes ownership of it. On error
// the caller keeps ownership of f.
func NewInternalOffset(f *os.File, role Role) (*InternalOffset, error) {
	fd := int(f.Fd())
	if err := Validate(fd, role); err != nil {
		return nil, err
	}
	return &InternalOffset{role: role, file: f, fd: fd}, nil
}

func (o *InternalOffset) Role() Role { return o.role }

func (o *InternalOffset) args() rawArgs { return rawArgs{fd: o.fd} }

// Release gives the file back to the caller without closing it. The
// strategy must not be used afterwards.
func (o *InternalOffset) Release() *os.File {
	f := o.file
	o.file = nil
	o.fd = -1
	return f
}

// Close closes the owned file.
func (o *InternalOffset) Close() error {
	if o.file == nil {
		return nil
	}
	f := o.file
	o.file = nil
	o.fd = -1
	return f.Close()
}

// ExplicitOffset borrows a descriptor and tracks the transfer position in its
// own counter. The descriptor's file position is never used or changed.
type ExplicitOffset struct {
	role Role
	desc Descriptor // keeps the caller's file reachable while borrowed
	fd   int
	off  int64
}

// NewExplicitOffset validates d for role and starts the counter at initial.
// The caller keeps ownership of d and must keep it open while the strategy
// is in use.
func NewExplicitOffset(d Descriptor, role Role, initial int64) (*ExplicitOffset, error) {
	if initial < 0 {
		return nil, ErrNegativeOffset
	}
	fd := int(d.Fd())
	if err := Validate(fd, role); err != nil {
		return nil, err
	}
	return &ExplicitOffset{role: role, desc: d, fd: fd, off: initial}, nil
}

func (o *ExplicitOffset) Role() Role { return o.role }

func (o *ExplicitOffset) args() rawArgs { return rawArgs{fd: o.fd, off: &o.off} }

// Offset returns the counter as last updated by the kernel.
func (o *ExplicitOffset) Offset() int64 { return o.off }
