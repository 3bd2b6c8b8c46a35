package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/zcopy/internal/event"
	"github.com/bamsammich/zcopy/internal/stats"
)

// ANSI escape sequences.
const (
	ansiDim   = "\033[2m"
	ansiReset = "\033[0m"
)

const (
	sparklineWidth   = 20
	progressBarWidth = 20
	hudLines         = 2
	hudMinInterval   = 50 * time.Millisecond
)

// hudPresenter prints finished transfers as a feed above a two-line HUD that
// redraws in place on the terminal.
type hudPresenter struct {
	w     io.Writer
	stats *stats.Collector
	pool  PoolStats

	hudDrawn    bool
	lastHUDDraw time.Time
}

func (p *hudPresenter) Run(events <-chan event.Event) error {
	// First tick comes early so the rate line has data quickly.
	secTicker := time.NewTicker(250 * time.Millisecond)
	defer secTicker.Stop()
	firstTickDone := false

	// A single large copy_file_range step can run for seconds without events.
	redrawTicker := time.NewTicker(100 * time.Millisecond)
	defer redrawTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clearHUD()
				return nil
			}
			p.handleEvent(ev)
			p.maybeDrawHUD()

		case <-redrawTicker.C:
			p.drawHUD()

		case <-secTicker.C:
			p.stats.Tick()
			if !firstTickDone {
				firstTickDone = true
				secTicker.Reset(time.Second)
			}
		}
	}
}

func (p *hudPresenter) handleEvent(ev event.Event) {
	line := transferLine(ev)
	if line == "" {
		return
	}
	p.clearHUD()
	if ev.Type == event.TransferShort {
		line = ansiDim + line + ansiReset
	}
	fmt.Fprintln(p.w, line)
	p.drawHUD()
}

func (p *hudPresenter) maybeDrawHUD() {
	if time.Since(p.lastHUDDraw) < hudMinInterval {
		return
	}
	p.drawHUD()
}

func (p *hudPresenter) drawHUD() {
	snap := p.stats.Snapshot()
	p.clearHUD()

	var pct float64
	if snap.BytesRequested > 0 {
		pct = float64(snap.BytesMoved) / float64(snap.BytesRequested)
	}

	spark := Sparkline(p.stats.SparklineData(sparklineWidth), sparklineWidth)
	fmt.Fprintf(p.w, "       %s   %s   %s / %s\n",
		spark, FormatRate(p.stats.RollingSpeed(10)),
		FormatBytes(snap.BytesMoved), FormatBytes(snap.BytesRequested))

	workers := ""
	if p.pool != nil {
		ps := p.pool.Stats()
		workers = "   threads " + WorkerIndicator(ps.Busy, ps.Workers)
	}
	fmt.Fprintf(p.w, " %3.0f%%  %s   %s steps%s   eta %s\n",
		pct*100, ProgressBar(pct, progressBarWidth),
		FormatCount(snap.Steps), workers,
		FormatETA(p.stats.ETA()))

	p.hudDrawn = true
	p.lastHUDDraw = time.Now()
}

func (p *hudPresenter) clearHUD() {
	if !p.hudDrawn {
		return
	}
	// Cursor up, then clear to end of screen.
	fmt.Fprintf(p.w, "\033[%dA\033[J", hudLines)
	p.hudDrawn = false
}

func (p *hudPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}
