package ui

import (
	"io"

	"github.com/bamsammich/zcopy/internal/bridge"
	"github.com/bamsammich/zcopy/internal/event"
	"github.com/bamsammich/zcopy/internal/stats"
)

// Presenter consumes engine events and displays progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan event.Event) error
	// Summary returns the final summary line.
	Summary() string
}

// PoolStats reports bridge occupancy. *bridge.Pool satisfies it.
type PoolStats interface {
	Stats() bridge.Stats
}

// Config configures a Presenter.
type Config struct {
	Writer io.Writer // progress output, normally stderr
	Stats  *stats.Collector
	Pool   PoolStats // optional
	IsTTY  bool
	Quiet  bool
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory picks the implementation
func NewPresenter(cfg Config) Presenter {
	switch {
	case cfg.Quiet:
		return quietPresenter{}
	case !cfg.IsTTY:
		return &plainPresenter{w: cfg.Writer, stats: cfg.Stats}
	default:
		return &hudPresenter{w: cfg.Writer, stats: cfg.Stats, pool: cfg.Pool}
	}
}

// quietPresenter drains events and prints nothing.
type quietPresenter struct{}

func (quietPresenter) Run(events <-chan event.Event) error {
	for range events {
	}
	return nil
}

func (quietPresenter) Summary() string { return "" }
