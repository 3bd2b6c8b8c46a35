package platform

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestMethodString(t *testing.T) {
	assert.Equal(t, "copy_file_range", CopyFileRange.String())
	assert.Equal(t, "splice", Splice.String())
	assert.Equal(t, "unknown", Method(99).String())
}

func TestAvailabilityString(t *testing.T) {
	assert.Equal(t, "available", Available.String())
	assert.Equal(t, "failed_probe", FailedProbe.String())
	assert.Equal(t, "not_supported_on_platform", NotSupportedOnPlatform.String())
	assert.Equal(t, "unknown", Availability(42).String())
}

func TestClassifyProbe(t *testing.T) {
	t.Parallel()

	t.Run("EBADF means implemented", func(t *testing.T) {
		t.Parallel()
		p := classifyProbe(true, func() error { return unix.EBADF })
		assert.Equal(t, Available, p.Availability)
		assert.NoError(t, p.Err)
		assert.True(t, p.Usable())
	})

	t.Run("ENOSYS means not implemented", func(t *testing.T) {
		t.Parallel()
		p := classifyProbe(true, func() error { return unix.ENOSYS })
		assert.Equal(t, FailedProbe, p.Availability)
		assert.False(t, p.Usable())
		require.Error(t, p.Err)
		assert.ErrorIs(t, p.Err, unix.ENOSYS)

		var probeErr *AvailabilityProbeError
		require.True(t, errors.As(p.Err, &probeErr))
		assert.Equal(t, "copy_file_range", probeErr.Syscall)
	})

	t.Run("unexpected errno is a failed probe", func(t *testing.T) {
		t.Parallel()
		p := classifyProbe(true, func() error { return unix.EPERM })
		assert.Equal(t, FailedProbe, p.Availability)
		assert.ErrorIs(t, p.Err, unix.EPERM)
	})

	t.Run("success on invalid descriptors is a failed probe", func(t *testing.T) {
		t.Parallel()
		p := classifyProbe(true, func() error { return nil })
		assert.Equal(t, FailedProbe, p.Availability)
		assert.ErrorIs(t, p.Err, errUnexpectedSuccess)
	})

	t.Run("unsupported platform skips the sentinel call", func(t *testing.T) {
		t.Parallel()
		called := false
		p := classifyProbe(false, func() error {
			called = true
			return unix.EBADF
		})
		assert.Equal(t, NotSupportedOnPlatform, p.Availability)
		assert.NoError(t, p.Err)
		assert.False(t, called)
	})
}

func TestCopyFileRangeAvailabilityCached(t *testing.T) {
	results := make(chan Probe, 16)
	for range cap(results) {
		go func() { results <- CopyFileRangeAvailability() }()
	}

	first := <-results
	for range cap(results) - 1 {
		got := <-results
		assert.Equal(t, first.Availability, got.Availability)
		assert.Equal(t, first.Err, got.Err)
	}
}

func TestIsRegularFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	ok, err := IsRegularFile(int(f.Fd()))
	require.NoError(t, err)
	assert.True(t, ok)

	d, err := os.Open(dir)
	require.NoError(t, err)
	defer d.Close()

	ok, err = IsRegularFile(int(d.Fd()))
	require.NoError(t, err)
	assert.False(t, ok)

	r, w, err := Pipe()
	require.NoError(t, err)
	defer unix.Close(r)
	defer unix.Close(w)

	ok, err = IsRegularFile(r)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsRegularFileBadDescriptor(t *testing.T) {
	_, err := IsRegularFile(invalidFd)
	assert.ErrorIs(t, err, unix.EBADF)
}

func TestStatusFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	require.NoError(t, err)
	defer f.Close()

	flags, err := StatusFlags(int(f.Fd()))
	require.NoError(t, err)
	assert.Equal(t, unix.O_WRONLY, flags&unix.O_ACCMODE)
	assert.NotZero(t, flags&unix.O_APPEND)
}
