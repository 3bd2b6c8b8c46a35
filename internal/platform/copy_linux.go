//go:build linux

package platform

import (
	"golang.org/x/sys/unix"
)

const copyFileRangeSupported = true

// spliceFlags are passed to every splice(2) call. The descriptors are in
// blocking mode; callers run these on dedicated threads.
const spliceFlags = unix.SPLICE_F_MOVE

// CopyFileRange issues one copy_file_range(2). A nil offset pointer makes the
// kernel use and advance the descriptor's own file position; a non-nil one is
// read and updated in place instead. The flags argument is reserved and
// always zero.
func CopyFileRange(fdIn int, offIn *int64, fdOut int, offOut *int64, n int) (int, error) {
	for {
		written, err := unix.CopyFileRange(fdIn, offIn, fdOut, offOut, n, 0)
		if err == unix.EINTR {
			continue
		}
		return written, err
	}
}

// Splice issues one splice(2). One of the two descriptors must be a pipe,
// and the offset pointer for the pipe side must be nil.
func Splice(fdIn int, offIn *int64, fdOut int, offOut *int64, n int) (int, error) {
	for {
		moved, err := unix.Splice(fdIn, offIn, fdOut, offOut, n, spliceFlags)
		if err == unix.EINTR {
			continue
		}
		return int(moved), err
	}
}

// Pipe creates a close-on-exec pipe in blocking mode.
func Pipe() (r, w int, err error) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC); err != nil {
		return -1, -1, err
	}
	return p[0], p[1], nil
}

// SetPipeSize grows the pipe buffer. F_SETPIPE_SZ may fail in unprivileged
// containers, so the caller decides whether that matters.
func SetPipeSize(fd, size int) (int, error) {
	return unix.FcntlInt(uintptr(fd), unix.F_SETPIPE_SZ, size)
}

func probeCopyFileRange() error {
	_, err := unix.CopyFileRange(invalidFd, nil, invalidFd, nil, 1, 0)
	return err
}
