//go:build linux

package platform

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func requireCopyFileRange(t *testing.T) {
	t.Helper()
	if p := CopyFileRangeAvailability(); !p.Usable() {
		t.Skipf("copy_file_range not usable here: %v", p.Err)
	}
}

func TestCopyFileRangeAvailabilityLinux(t *testing.T) {
	p := CopyFileRangeAvailability()
	assert.NotEqual(t, NotSupportedOnPlatform, p.Availability)
	if p.Availability == Available {
		assert.NoError(t, p.Err)
	}
}

func TestCopyFileRangeExplicitOffsets(t *testing.T) {
	requireCopyFileRange(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("AAAA_BBBB_CCCC"), 0o644))

	in, err := os.Open(src)
	require.NoError(t, err)
	defer in.Close()

	out, err := os.Create(filepath.Join(dir, "dst"))
	require.NoError(t, err)
	defer out.Close()

	roff, woff := int64(5), int64(0)
	n, err := CopyFileRange(int(in.Fd()), &roff, int(out.Fd()), &woff, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, int64(9), roff)
	assert.Equal(t, int64(4), woff)

	pos, err := in.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Zero(t, pos, "explicit offsets leave the file position alone")

	got, err := os.ReadFile(filepath.Join(dir, "dst"))
	require.NoError(t, err)
	assert.Equal(t, "BBBB", string(got))
}

func TestCopyFileRangeEOF(t *testing.T) {
	requireCopyFileRange(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, nil, 0o644))

	in, err := os.Open(src)
	require.NoError(t, err)
	defer in.Close()

	out, err := os.Create(filepath.Join(dir, "dst"))
	require.NoError(t, err)
	defer out.Close()

	n, err := CopyFileRange(int(in.Fd()), nil, int(out.Fd()), nil, 16)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSpliceThroughPipe(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	in, err := os.Open(src)
	require.NoError(t, err)
	defer in.Close()

	r, w, err := Pipe()
	require.NoError(t, err)
	defer unix.Close(r)
	defer unix.Close(w)

	n, err := Splice(int(in.Fd()), nil, w, nil, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	buf := make([]byte, 5)
	got, err := unix.Read(r, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:got]))
}

func TestSetPipeSize(t *testing.T) {
	r, w, err := Pipe()
	require.NoError(t, err)
	defer unix.Close(r)
	defer unix.Close(w)

	size, err := SetPipeSize(w, 1<<16)
	if err != nil {
		t.Skipf("F_SETPIPE_SZ refused: %v", err)
	}
	assert.GreaterOrEqual(t, size, 1<<16)
}
