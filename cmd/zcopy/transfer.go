package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bamsammich/zcopy/internal/bridge"
	"github.com/bamsammich/zcopy/internal/event"
	"github.com/bamsammich/zcopy/internal/stats"
	"github.com/bamsammich/zcopy/internal/ui"
	"github.com/bamsammich/zcopy/internal/zerocopy"
)

// session wires one command's engine to its presenter, stats and metrics.
type session struct {
	engine    *zerocopy.Engine
	pool      *bridge.Pool
	collector *stats.Collector
	events    chan event.Event
	presenter ui.Presenter
	done      chan error
	quiet     bool
}

func (g *globalOpts) newSession(workers int, bwLimit int64) *session {
	if workers <= 0 {
		workers = bridge.DefaultMaxWorkers
	}
	pool := bridge.New(bridge.WithMaxWorkers(workers))
	collector := stats.NewCollector()
	events := make(chan event.Event, 256)

	opts := []zerocopy.Option{
		zerocopy.WithPool(pool),
		zerocopy.WithLogger(slog.Default().With("component", "zerocopy")),
		zerocopy.WithStats(collector),
		zerocopy.WithEvents(events),
	}
	if bwLimit > 0 {
		opts = append(opts, zerocopy.WithLimiter(zerocopy.NewBWLimiter(bwLimit)))
	}
	if g.registry != nil {
		opts = append(opts, zerocopy.WithMetrics(stats.NewMetrics(g.registry)))
		stats.RegisterPool(g.registry, pool)
	}

	return &session{
		engine:    zerocopy.New(opts...),
		pool:      pool,
		collector: collector,
		events:    events,
		presenter: ui.NewPresenter(ui.Config{
			Writer: os.Stderr,
			Stats:  collector,
			Pool:   pool,
			IsTTY:  ui.IsTTY(os.Stderr),
			Quiet:  g.quiet,
		}),
		done:  make(chan error, 1),
		quiet: g.quiet,
	}
}

// start runs the presenter in the background. When a log file is active,
// events are also written to the log before reaching the presenter.
func (s *session) start(teeToLog bool) {
	presenterEvents := (<-chan event.Event)(s.events)
	if teeToLog {
		teed := make(chan event.Event, cap(s.events))
		go func() {
			for ev := range s.events {
				attrs := []slog.Attr{
					slog.String("type", ev.Type.String()),
					slog.String("method", ev.Method.String()),
					slog.Int64("requested", ev.Requested),
					slog.Int64("moved", ev.Moved),
				}
				if ev.Error != nil {
					attrs = append(attrs, slog.String("error", ev.Error.Error()))
				}
				slog.LogAttrs(context.Background(), slog.LevelDebug, "zcopy.event", attrs...)
				teed <- ev
			}
			close(teed)
		}()
		presenterEvents = teed
	}
	go func() { s.done <- s.presenter.Run(presenterEvents) }()
}

// finish stops the presenter, prints the summary and releases bridge threads.
func (s *session) finish() {
	close(s.events)
	if err := <-s.done; err != nil {
		fmt.Fprintf(os.Stderr, "presenter: %v\n", err)
	}
	if !s.quiet {
		if summary := s.presenter.Summary(); summary != "" {
			fmt.Fprintln(os.Stderr, summary)
		}
	}
	s.pool.Close()
}

// openSource opens path for reading and resolves the transfer length. A
// missing length means everything from off to the current end of file.
func openSource(path string, off int64, length *sizeFlag) (*os.File, int64, error) {
	if off < 0 {
		return nil, 0, fmt.Errorf("source offset %d: %w", off, zerocopy.ErrNegativeOffset)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	if length.set {
		return f, length.n, nil
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	return f, max(fi.Size()-off, 0), nil
}

// tempPath returns a hidden sibling of dst used while the copy is in flight.
func tempPath(dst string) string {
	dir, base := filepath.Split(dst)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s.zcopy-tmp", base, uuid.NewString()[:8]))
}

// createTemp creates the temporary destination for dst with mode perm.
func createTemp(dst string, perm os.FileMode) (*os.File, string, error) {
	tmp := tempPath(dst)
	f, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return nil, "", fmt.Errorf("create temp file: %w", err)
	}
	return f, tmp, nil
}

// commitTemp flushes and closes f, then renames tmp over dst.
func commitTemp(f *os.File, tmp, dst string) error {
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmp, dst, err)
	}
	return nil
}

// tempDestination writes through an InternalOffset strategy on a temp file
// and renames it into place on commit.
type tempDestination struct {
	strategy *zerocopy.InternalOffset
	tmp      string
	dst      string
}

func newTempDestination(dst string, perm os.FileMode) (*tempDestination, error) {
	f, tmp, err := createTemp(dst, perm)
	if err != nil {
		return nil, err
	}
	s, err := zerocopy.NewInternalOffset(f, zerocopy.Writable)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return nil, err
	}
	return &tempDestination{strategy: s, tmp: tmp, dst: dst}, nil
}

func (d *tempDestination) commit() error {
	return commitTemp(d.strategy.Release(), d.tmp, d.dst)
}

func (d *tempDestination) abort() {
	_ = d.strategy.Close()
	_ = os.Remove(d.tmp)
}
