package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/zcopy/internal/event"
	"github.com/bamsammich/zcopy/internal/stats"
)

const plainInterval = 5 * time.Second

// plainPresenter prints one line per finished transfer and a periodic
// progress line. Used when the output is not a terminal.
type plainPresenter struct {
	w     io.Writer
	stats *stats.Collector
}

func (p *plainPresenter) Run(events <-chan event.Event) error {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	var sinceReport time.Duration

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-tick.C:
			p.stats.Tick()
			sinceReport += time.Second
			if sinceReport >= plainInterval {
				sinceReport = 0
				p.printProgress()
			}
		}
	}
}

func (p *plainPresenter) handleEvent(ev event.Event) {
	if line := transferLine(ev); line != "" {
		fmt.Fprintln(p.w, line)
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	speed := p.stats.RollingSpeed(10)
	if snap.BytesRequested > 0 {
		pct := float64(snap.BytesMoved) / float64(snap.BytesRequested) * 100
		fmt.Fprintf(p.w, "progress: %.0f%% %s/%s %s steps %s eta %s\n",
			pct,
			FormatBytes(snap.BytesMoved), FormatBytes(snap.BytesRequested),
			FormatCount(snap.Steps),
			FormatRate(speed),
			FormatETA(p.stats.ETA()),
		)
		return
	}
	fmt.Fprintf(p.w, "progress: %s moved %s steps %s\n",
		FormatBytes(snap.BytesMoved), FormatCount(snap.Steps), FormatRate(speed))
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}
