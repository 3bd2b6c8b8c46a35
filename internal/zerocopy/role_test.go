package zerocopy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestRoleString(t *testing.T) {
	assert.Equal(t, "readable", Readable.String())
	assert.Equal(t, "writable", Writable.String())
	assert.Equal(t, "unknown", Role(7).String())
}

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		flags   int
		wantErr error
	}{
		{"readable rdonly", Readable, unix.O_RDONLY, nil},
		{"readable rdwr", Readable, unix.O_RDWR, nil},
		{"readable wronly", Readable, unix.O_WRONLY, ErrWrongAccessMode},
		{"readable rdonly append", Readable, unix.O_RDONLY | unix.O_APPEND, nil},
		{"writable wronly", Writable, unix.O_WRONLY, nil},
		{"writable rdwr", Writable, unix.O_RDWR, nil},
		{"writable rdonly", Writable, unix.O_RDONLY, ErrWrongAccessMode},
		{"writable wronly append", Writable, unix.O_WRONLY | unix.O_APPEND, ErrAppendNotAllowed},
		{"writable rdwr append", Writable, unix.O_RDWR | unix.O_APPEND, ErrAppendNotAllowed},
		{"unknown role", Role(9), unix.O_RDWR, ErrWrongAccessMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.role.validateFlags(tt.flags)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateReadWriteFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "rw"))
	require.NoError(t, err)
	defer f.Close()

	fd := int(f.Fd())
	assert.NoError(t, Validate(fd, Readable))
	assert.NoError(t, Validate(fd, Writable))
}

func TestValidateWriteOnly(t *testing.T) {
	f, err := os.OpenFile(filepath.Join(t.TempDir(), "w"), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	require.NoError(t, err)
	defer f.Close()

	fd := int(f.Fd())
	assert.NoError(t, Validate(fd, Writable))
	assert.ErrorIs(t, Validate(fd, Readable), ErrWrongAccessMode)
}

func TestValidateReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r")
	require.NoError(t, os.WriteFile(path, []byte("wow!"), 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	fd := int(f.Fd())
	assert.NoError(t, Validate(fd, Readable))
	assert.ErrorIs(t, Validate(fd, Writable), ErrWrongAccessMode)
}

func TestValidateAppend(t *testing.T) {
	f, err := os.OpenFile(filepath.Join(t.TempDir(), "a"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	require.NoError(t, err)
	defer f.Close()

	fd := int(f.Fd())
	assert.ErrorIs(t, Validate(fd, Writable), ErrAppendNotAllowed)
	assert.ErrorIs(t, Validate(fd, Readable), ErrWrongAccessMode)

	rw, err := os.OpenFile(filepath.Join(t.TempDir(), "ra"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	require.NoError(t, err)
	defer rw.Close()

	assert.ErrorIs(t, Validate(int(rw.Fd()), Writable), ErrAppendNotAllowed)
	assert.NoError(t, Validate(int(rw.Fd()), Readable))
}

func TestValidateRejectsNonRegular(t *testing.T) {
	dir, err := os.Open(t.TempDir())
	require.NoError(t, err)
	defer dir.Close()

	err = Validate(int(dir.Fd()), Readable)
	assert.ErrorIs(t, err, ErrNotRegularFile)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, Readable, ve.Role)
	assert.Equal(t, int(dir.Fd()), ve.Fd)

	r, w, err := NewPipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	assert.ErrorIs(t, Validate(r.fd, Readable), ErrNotRegularFile)
	assert.ErrorIs(t, Validate(w.fd, Writable), ErrNotRegularFile)
}

func TestValidateBadDescriptor(t *testing.T) {
	err := Validate(-1, Readable)

	var sysErr *os.SyscallError
	require.ErrorAs(t, err, &sysErr)
	assert.Equal(t, "fstat", sysErr.Syscall)
	assert.ErrorIs(t, err, unix.EBADF)
}
