package zerocopy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"golang.org/x/time/rate"

	"github.com/bamsammich/zcopy/internal/bridge"
	"github.com/bamsammich/zcopy/internal/event"
	"github.com/bamsammich/zcopy/internal/platform"
	"github.com/bamsammich/zcopy/internal/stats"
)

// Engine runs transfer drivers. All fields are optional; the zero
// configuration uses the process-wide bridge pool and slog.Default.
// An Engine is safe for concurrent use across independent strategies.
type Engine struct {
	pool    *bridge.Pool
	logger  *slog.Logger
	stats   *stats.Collector
	metrics *stats.Metrics
	events  chan<- event.Event
	limiter *rate.Limiter
}

// Option configures an Engine.
type Option func(*Engine)

// WithPool dispatches syscalls to p instead of bridge.Default().
func WithPool(p *bridge.Pool) Option {
	return func(e *Engine) { e.pool = p }
}

// WithLogger sets the logger used for per-transfer debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithStats accumulates counters into c.
func WithStats(c *stats.Collector) Option {
	return func(e *Engine) { e.stats = c }
}

// WithMetrics records Prometheus metrics into m.
func WithMetrics(m *stats.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithEvents emits progress events on ch. Sends never block.
func WithEvents(ch chan<- event.Event) Option {
	return func(e *Engine) { e.events = ch }
}

// WithLimiter throttles every step through l. Each step asks for at most
// l.Burst() bytes.
func WithLimiter(l *rate.Limiter) Option {
	return func(e *Engine) { e.limiter = l }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.pool == nil {
		e.pool = bridge.Default()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// NewBWLimiter creates a rate.Limiter that caps aggregate throughput to
// bytesPerSec. The burst is 1 MB, or the rate itself when lower.
func NewBWLimiter(bytesPerSec int64) *rate.Limiter {
	burst := 1 << 20 // 1 MB
	if bytesPerSec < int64(burst) {
		burst = int(bytesPerSec)
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// CopyFileRangeStep issues a single copy_file_range(2) of at most n bytes
// from src to dst. Zero means src is at EOF.
func (e *Engine) CopyFileRangeStep(ctx context.Context, src, dst Strategy, n int) (int, error) {
	if err := checkRoles(src, dst); err != nil {
		return 0, err
	}
	return e.step(ctx, platform.CopyFileRange, n, func(n int) (int, error) {
		in, out := src.args(), dst.args()
		moved, err := platform.CopyFileRange(in.fd, in.off, out.fd, out.off, n)
		runtime.KeepAlive(src)
		runtime.KeepAlive(dst)
		return moved, os.NewSyscallError("copy_file_range", err)
	})
}

// SpliceFromPipeStep issues a single splice(2) of at most n bytes from the
// pipe into dst. Zero means the write end is closed and the pipe is empty.
func (e *Engine) SpliceFromPipeStep(ctx context.Context, src *PipeReader, dst Strategy, n int) (int, error) {
	if err := checkRoles(nil, dst); err != nil {
		return 0, err
	}
	return e.step(ctx, platform.Splice, n, func(n int) (int, error) {
		out := dst.args()
		moved, err := platform.Splice(src.fd, nil, out.fd, out.off, n)
		runtime.KeepAlive(src)
		runtime.KeepAlive(dst)
		return moved, os.NewSyscallError("splice", err)
	})
}

// SpliceToPipeStep issues a single splice(2) of at most n bytes from src
// into the pipe. Zero means src is at EOF.
func (e *Engine) SpliceToPipeStep(ctx context.Context, src Strategy, dst *PipeWriter, n int) (int, error) {
	if err := checkRoles(src, nil); err != nil {
		return 0, err
	}
	return e.step(ctx, platform.Splice, n, func(n int) (int, error) {
		in := src.args()
		moved, err := platform.Splice(in.fd, in.off, dst.fd, nil, n)
		runtime.KeepAlive(src)
		runtime.KeepAlive(dst)
		return moved, os.NewSyscallError("splice", err)
	})
}

// CopyFileRange copies up to n bytes from src to dst, looping over
// CopyFileRangeStep. It returns n, or fewer if src reached EOF. On error
// the count moved before the failure is not reported.
func (e *Engine) CopyFileRange(ctx context.Context, src, dst Strategy, n int) (int, error) {
	return e.drive(ctx, platform.CopyFileRange, n, func(ctx context.Context, remaining int) (int, error) {
		return e.CopyFileRangeStep(ctx, src, dst, remaining)
	})
}

// SpliceFromPipe moves up to n bytes from the pipe into dst.
func (e *Engine) SpliceFromPipe(ctx context.Context, src *PipeReader, dst Strategy, n int) (int, error) {
	return e.drive(ctx, platform.Splice, n, func(ctx context.Context, remaining int) (int, error) {
		return e.SpliceFromPipeStep(ctx, src, dst, remaining)
	})
}

// SpliceToPipe moves up to n bytes from src into the pipe.
func (e *Engine) SpliceToPipe(ctx context.Context, src Strategy, dst *PipeWriter, n int) (int, error) {
	return e.drive(ctx, platform.Splice, n, func(ctx context.Context, remaining int) (int, error) {
		return e.SpliceToPipeStep(ctx, src, dst, remaining)
	})
}

func checkRoles(src, dst Strategy) error {
	if src != nil && src.Role() != Readable {
		return fmt.Errorf("source is %s: %w", src.Role(), ErrRoleMismatch)
	}
	if dst != nil && dst.Role() != Writable {
		return fmt.Errorf("destination is %s: %w", dst.Role(), ErrRoleMismatch)
	}
	return nil
}

// step runs call on a bridge thread and records the outcome.
func (e *Engine) step(
	ctx context.Context,
	method platform.Method,
	n int,
	call func(n int) (int, error),
) (int, error) {
	if n < 0 {
		return 0, ErrInvalidLength
	}
	if e.limiter != nil && e.limiter.Burst() > 0 && n > 0 {
		n = min(n, e.limiter.Burst())
		if err := e.limiter.WaitN(ctx, n); err != nil {
			return 0, err
		}
	}

	start := time.Now()
	moved, err := bridge.Do(ctx, e.pool, func() (int, error) { return call(n) })
	elapsed := time.Since(start).Seconds()

	switch {
	case err != nil:
		e.metrics.RecordStep(method.String(), stats.StepError, 0, elapsed)
		return 0, err
	case moved == 0:
		e.metrics.RecordStep(method.String(), stats.StepEOF, 0, elapsed)
	default:
		e.metrics.RecordStep(method.String(), stats.StepOK, moved, elapsed)
	}

	if e.stats != nil {
		e.stats.AddSteps(1)
		e.stats.AddBytesMoved(int64(moved))
	}
	event.Emit(e.events, event.Event{
		Type:      event.StepCompleted,
		Method:    method,
		Requested: int64(n),
		Moved:     int64(moved),
	})
	return moved, nil
}

// drive calls step with the remaining length until n bytes have moved or a
// step makes no progress.
func (e *Engine) drive(
	ctx context.Context,
	method platform.Method,
	n int,
	step func(ctx context.Context, remaining int) (int, error),
) (int, error) {
	if n < 0 {
		return 0, ErrInvalidLength
	}

	if e.stats != nil {
		e.stats.AddTransfers(1)
		e.stats.AddBytesRequested(int64(n))
	}
	event.Emit(e.events, event.Event{Type: event.TransferStarted, Method: method, Requested: int64(n)})

	remaining := n
	for remaining > 0 {
		moved, err := step(ctx, remaining)
		if err != nil {
			e.fail(ctx, method, n, n-remaining, err)
			return 0, err
		}
		if moved > remaining {
			panic(fmt.Sprintf("zerocopy: %s step moved %d bytes, only %d requested", method, moved, remaining))
		}
		if moved == 0 {
			e.finish(ctx, method, n, n-remaining)
			return n - remaining, nil
		}
		remaining -= moved
	}

	e.finish(ctx, method, n, n)
	return n, nil
}

func (e *Engine) finish(ctx context.Context, method platform.Method, requested, moved int) {
	short := moved < requested

	typ, result := event.TransferCompleted, stats.TransferComplete
	if short {
		typ, result = event.TransferShort, stats.TransferShort
		if e.stats != nil {
			e.stats.AddTransfersShort(1)
		}
	}
	e.metrics.RecordTransfer(method.String(), result)
	event.Emit(e.events, event.Event{
		Type:      typ,
		Method:    method,
		Requested: int64(requested),
		Moved:     int64(moved),
	})

	e.logger.DebugContext(ctx, "transfer done",
		"method", method,
		"requested", requested,
		"moved", moved,
		"short", short,
	)
}

func (e *Engine) fail(ctx context.Context, method platform.Method, requested, moved int, err error) {
	if e.stats != nil {
		e.stats.AddTransfersFailed(1)
	}
	e.metrics.RecordTransfer(method.String(), stats.TransferFailed)
	event.Emit(e.events, event.Event{
		Type:      event.TransferFailed,
		Method:    method,
		Requested: int64(requested),
		Moved:     int64(moved),
		Error:     err,
	})

	e.logger.DebugContext(ctx, "transfer failed",
		"method", method,
		"requested", requested,
		"moved_before_error", moved,
		"error", err,
	)
}
