package zerocopy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/zcopy/internal/bridge"
	"github.com/bamsammich/zcopy/internal/platform"
)

func requireCopyFileRange(t *testing.T) {
	t.Helper()
	if p := platform.CopyFileRangeAvailability(); !p.Usable() {
		t.Skipf("copy_file_range not usable here (%s): %v", p.Availability, p.Err)
	}
}

// writeFile creates name under dir with data and returns its path.
func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func openRead(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func createRW(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	p := bridge.New()
	t.Cleanup(p.Close)
	return New(append([]Option{WithPool(p)}, opts...)...)
}
