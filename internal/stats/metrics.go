package stats

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bamsammich/zcopy/internal/bridge"
)

// Outcome labels for a single syscall step.
const (
	StepOK    = "ok"
	StepEOF   = "eof"
	StepError = "error"
)

// Result labels for a looping transfer.
const (
	TransferComplete = "complete"
	TransferShort    = "short"
	TransferFailed   = "failed"
)

// Metrics holds the Prometheus instruments for the transfer engine. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	// StepsTotal counts syscall steps by method and outcome.
	StepsTotal *prometheus.CounterVec

	// StepDuration tracks how long each step spent on a bridge thread.
	StepDuration *prometheus.HistogramVec

	// BytesTotal counts bytes moved by method.
	BytesTotal *prometheus.CounterVec

	// TransfersTotal counts looping driver calls by method and result.
	TransfersTotal *prometheus.CounterVec
}

// NewMetrics creates the engine metrics with the zcopy_ prefix and registers
// them with reg. Panics if registration fails.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zcopy_steps_total",
				Help: "Zero-copy syscall steps by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zcopy_step_duration_seconds",
				Help:    "Time spent in a single zero-copy syscall",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		BytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zcopy_bytes_total",
				Help: "Bytes moved in-kernel by method",
			},
			[]string{"method"},
		),
		TransfersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zcopy_transfers_total",
				Help: "Looping transfer calls by method and result",
			},
			[]string{"method", "result"},
		),
	}

	reg.MustRegister(
		m.StepsTotal,
		m.StepDuration,
		m.BytesTotal,
		m.TransfersTotal,
	)

	return m
}

// RegisterPool exposes the bridge pool's worker counts as gauges.
func RegisterPool(reg prometheus.Registerer, p *bridge.Pool) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "zcopy_bridge_workers",
				Help: "Live blocking-call worker threads",
			},
			func() float64 { return float64(p.Stats().Workers) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "zcopy_bridge_busy",
				Help: "Worker threads currently inside a blocking call",
			},
			func() float64 { return float64(p.Stats().Busy) },
		),
	)
}

// RecordStep records one completed syscall step.
func (m *Metrics) RecordStep(method, outcome string, moved int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.StepsTotal.WithLabelValues(method, outcome).Inc()
	m.StepDuration.WithLabelValues(method).Observe(durationSeconds)
	if moved > 0 {
		m.BytesTotal.WithLabelValues(method).Add(float64(moved))
	}
}

// RecordTransfer records the result of one looping driver call.
func (m *Metrics) RecordTransfer(method, result string) {
	if m == nil {
		return
	}
	m.TransfersTotal.WithLabelValues(method, result).Inc()
}
