package zerocopy

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Relay moves up to n bytes from src to dst through one intermediate pipe,
// running SpliceToPipe and SpliceFromPipe concurrently. It returns the bytes
// delivered to dst, which is less than n only if src reached EOF.
//
// Relay keeps two bridge threads busy for its whole duration.
func (e *Engine) Relay(ctx context.Context, src, dst Strategy, n int, opts ...PipeOption) (int, error) {
	if err := checkRoles(src, dst); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrInvalidLength
	}

	r, w, err := NewPipe(opts...)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	defer w.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Closing the write end is what lets the consumer see EOF after a
		// short source.
		defer w.Close()
		_, err := e.SpliceToPipe(gctx, src, w, n)
		return err
	})

	var delivered int
	g.Go(func() error {
		var err error
		delivered, err = e.SpliceFromPipe(gctx, r, dst, n)
		if err != nil {
			// Unblock a producer stuck on a full pipe.
			_ = r.Close()
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return delivered, nil
}
