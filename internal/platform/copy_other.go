//go:build unix && !linux

package platform

import (
	"errors"

	"golang.org/x/sys/unix"
)

const copyFileRangeSupported = false

// CopyFileRange is unavailable outside Linux.
func CopyFileRange(_ int, _ *int64, _ int, _ *int64, _ int) (int, error) {
	return 0, errors.ErrUnsupported
}

// Splice is unavailable outside Linux.
func Splice(_ int, _ *int64, _ int, _ *int64, _ int) (int, error) {
	return 0, errors.ErrUnsupported
}

// Pipe creates a close-on-exec pipe in blocking mode.
func Pipe() (r, w int, err error) {
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return -1, -1, err
	}
	unix.CloseOnExec(p[0])
	unix.CloseOnExec(p[1])
	return p[0], p[1], nil
}

// SetPipeSize is a no-op on platforms without F_SETPIPE_SZ.
func SetPipeSize(_, _ int) (int, error) {
	return 0, errors.ErrUnsupported
}

func probeCopyFileRange() error {
	return errors.ErrUnsupported
}
