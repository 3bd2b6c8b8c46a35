package zerocopy

import (
	"os"

	"github.com/bamsammich/zcopy/internal/platform"
)

type pipeConfig struct {
	size int
}

// PipeOption configures NewPipe.
type PipeOption func(*pipeConfig)

// WithPipeSize asks the kernel for a pipe buffer of size bytes. The request
// is best effort; unprivileged processes may be capped.
func WithPipeSize(size int) PipeOption {
	return func(c *pipeConfig) { c.size = size }
}

// PipeReader is the read end of a kernel pipe.
type PipeReader struct {
	file *os.File
	fd   int
}

// PipeWriter is the write end of a kernel pipe.
type PipeWriter struct {
	file *os.File
	fd   int
}

// NewPipe creates a connected pipe in blocking mode. Steps on it run on
// bridge threads, so blocking is expected.
func NewPipe(opts ...PipeOption) (*PipeReader, *PipeWriter, error) {
	var cfg pipeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	r, w, err := platform.Pipe()
	if err != nil {
		return nil, nil, os.NewSyscallError("pipe2", err)
	}

	if cfg.size > 0 {
		_, _ = platform.SetPipeSize(w, cfg.size)
	}

	return &PipeReader{file: os.NewFile(uintptr(r), "|0"), fd: r},
		&PipeWriter{file: os.NewFile(uintptr(w), "|1"), fd: w},
		nil
}

// File exposes the read end, e.g. to read spliced data in user space.
func (p *PipeReader) File() *os.File { return p.file }

// Close closes the read end. Writers blocked on a full pipe get EPIPE.
func (p *PipeReader) Close() error { return p.file.Close() }

// File exposes the write end.
func (p *PipeWriter) File() *os.File { return p.file }

// Close closes the write end. Readers see EOF once the pipe drains.
func (p *PipeWriter) Close() error { return p.file.Close() }
