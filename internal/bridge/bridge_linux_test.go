//go:build linux

package bridge

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestDoRunsOnAnotherThread(t *testing.T) {
	p := New()
	defer p.Close()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	caller := unix.Gettid()

	worker, err := Do(context.Background(), p, func() (int, error) {
		return unix.Gettid(), nil
	})
	require.NoError(t, err)
	assert.NotEqual(t, caller, worker)
}
