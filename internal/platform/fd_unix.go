//go:build unix

package platform

import (
	"golang.org/x/sys/unix"
)

// IsRegularFile reports whether fd refers to a filesystem-backed regular file.
func IsRegularFile(fd int) (bool, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return false, err
	}
	return st.Mode&unix.S_IFMT == unix.S_IFREG, nil
}

// StatusFlags returns the open-mode flags of fd (fcntl F_GETFL).
func StatusFlags(fd int) (int, error) {
	return unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
}
