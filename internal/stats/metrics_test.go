package stats

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/zcopy/internal/bridge"
)

func TestMetricsRecordStep(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordStep("copy_file_range", StepOK, 4096, 0.001)
	m.RecordStep("copy_file_range", StepOK, 1024, 0.001)
	m.RecordStep("copy_file_range", StepEOF, 0, 0.001)
	m.RecordStep("splice", StepError, 0, 0.001)

	assert.InDelta(t, 2, testutil.ToFloat64(m.StepsTotal.WithLabelValues("copy_file_range", StepOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StepsTotal.WithLabelValues("copy_file_range", StepEOF)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StepsTotal.WithLabelValues("splice", StepError)), 0)
	assert.InDelta(t, 5120, testutil.ToFloat64(m.BytesTotal.WithLabelValues("copy_file_range")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.StepDuration))
}

func TestMetricsRecordTransfer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordTransfer("splice", TransferComplete)
	m.RecordTransfer("splice", TransferShort)
	m.RecordTransfer("splice", TransferShort)

	assert.InDelta(t, 1, testutil.ToFloat64(m.TransfersTotal.WithLabelValues("splice", TransferComplete)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.TransfersTotal.WithLabelValues("splice", TransferShort)), 0)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordStep("splice", StepOK, 1, 0)
		m.RecordTransfer("splice", TransferComplete)
	})
}

func TestRegisterPool(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := bridge.New()
	defer p.Close()
	RegisterPool(reg, p)

	_, err := bridge.Do(context.Background(), p, func() (int, error) { return 0, nil })
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "zcopy_bridge_workers")
	assert.Contains(t, names, "zcopy_bridge_busy")
}
