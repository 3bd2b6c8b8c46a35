package ui

import (
	"fmt"

	"github.com/bamsammich/zcopy/internal/event"
	"github.com/bamsammich/zcopy/internal/stats"
)

// CompletionSummary builds the final summary line from a snapshot.
// Format: done ✓  transfers 2  moved 4.0 MiB  steps 3  avg 641 MB/s  time 2s  short 0  errors 0
func CompletionSummary(snap stats.Snapshot) string {
	avg := 0.0
	if secs := snap.Elapsed.Seconds(); secs > 0 {
		avg = float64(snap.BytesMoved) / secs
	}

	icon := "✓"
	if snap.TransfersFailed > 0 {
		icon = "✗"
	}

	return fmt.Sprintf("done %s  transfers %s  moved %s  steps %s  avg %s  time %s  short %d  errors %d",
		icon,
		FormatCount(snap.Transfers),
		FormatBytes(snap.BytesMoved),
		FormatCount(snap.Steps),
		FormatRate(avg),
		FormatDuration(snap.Elapsed),
		snap.TransfersShort,
		snap.TransfersFailed,
	)
}

// transferLine renders one finished transfer for the feed.
func transferLine(ev event.Event) string {
	switch ev.Type {
	case event.TransferCompleted:
		return fmt.Sprintf("✓  %-15s  %10s", ev.Method, FormatBytes(ev.Moved))
	case event.TransferShort:
		return fmt.Sprintf("–  %-15s  %10s of %s  short",
			ev.Method, FormatBytes(ev.Moved), FormatBytes(ev.Requested))
	case event.TransferFailed:
		msg := "error"
		if ev.Error != nil {
			msg = ev.Error.Error()
		}
		return fmt.Sprintf("✗  %-15s  %s", ev.Method, msg)
	default:
		return ""
	}
}
