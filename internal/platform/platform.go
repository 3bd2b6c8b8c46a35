package platform

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Method identifies which kernel facility moved the bytes.
type Method int

const (
	CopyFileRange Method = iota // Linux copy_file_range(2)
	Splice                      // Linux splice(2)
)

func (m Method) String() string {
	switch m {
	case CopyFileRange:
		return "copy_file_range"
	case Splice:
		return "splice"
	default:
		return "unknown"
	}
}

// Availability is the outcome of probing a syscall on the running kernel.
type Availability int

const (
	Available Availability = iota
	FailedProbe
	NotSupportedOnPlatform
)

func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case FailedProbe:
		return "failed_probe"
	case NotSupportedOnPlatform:
		return "not_supported_on_platform"
	default:
		return "unknown"
	}
}

// Probe reports whether a syscall can be used. Err is set only for
// FailedProbe.
type Probe struct {
	Availability Availability
	Err          error
}

// Usable is true only when the probe positively confirmed the syscall.
func (p Probe) Usable() bool { return p.Availability == Available }

// AvailabilityProbeError is returned when the sentinel call produced anything
// other than EBADF. The syscall is then treated as unavailable.
type AvailabilityProbeError struct {
	Syscall string
	Err     error
}

func (e *AvailabilityProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Syscall, e.Err)
}

func (e *AvailabilityProbeError) Unwrap() error { return e.Err }

// errUnexpectedSuccess is reported if the sentinel call did not fail at all.
var errUnexpectedSuccess = errors.New("sentinel call on invalid descriptors succeeded")

// invalidFd is never a valid descriptor number.
const invalidFd = -1

var copyFileRangeProbe = sync.OnceValue(func() Probe {
	return classifyProbe(copyFileRangeSupported, probeCopyFileRange)
})

// CopyFileRangeAvailability reports whether copy_file_range(2) is usable.
// The probe runs at most once per process.
func CopyFileRangeAvailability() Probe {
	return copyFileRangeProbe()
}

// classifyProbe turns the error of a sentinel call on invalid descriptors
// into an Availability. A kernel implementing the syscall rejects the
// descriptors with EBADF before looking at anything else. invoke is not
// called when supported is false.
func classifyProbe(supported bool, invoke func() error) Probe {
	if !supported {
		return Probe{Availability: NotSupportedOnPlatform}
	}

	err := invoke()
	switch {
	case err == nil:
		err = errUnexpectedSuccess
	case errors.Is(err, unix.EBADF):
		return Probe{Availability: Available}
	}
	return Probe{
		Availability: FailedProbe,
		Err:          &AvailabilityProbeError{Syscall: CopyFileRange.String(), Err: err},
	}
}
