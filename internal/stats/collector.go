package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Collector tracks transfer statistics using lock-free atomic counters.
// A single Collector may be shared by any number of concurrent transfers.
type Collector struct {
	transfers       atomic.Int64
	transfersShort  atomic.Int64
	transfersFailed atomic.Int64
	steps           atomic.Int64
	bytesMoved      atomic.Int64
	bytesRequested  atomic.Int64
	startTime       time.Time

	// Ring buffer, written only by Tick.
	mu          sync.Mutex
	throughput  [ringSize]int64 // bytes delta per second
	stepsPerSec [ringSize]int64 // steps delta per second
	ringIdx     int
	ringCount   int // samples written, capped at ringSize
	lastBytes   int64
	lastSteps   int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	Transfers       int64
	TransfersShort  int64
	TransfersFailed int64
	Steps           int64
	BytesMoved      int64
	BytesRequested  int64
	Elapsed         time.Duration
}

func (c *Collector) AddTransfers(n int64)       { c.transfers.Add(n) }
func (c *Collector) AddTransfersShort(n int64)  { c.transfersShort.Add(n) }
func (c *Collector) AddTransfersFailed(n int64) { c.transfersFailed.Add(n) }
func (c *Collector) AddSteps(n int64)           { c.steps.Add(n) }
func (c *Collector) AddBytesMoved(n int64)      { c.bytesMoved.Add(n) }
func (c *Collector) AddBytesRequested(n int64)  { c.bytesRequested.Add(n) }

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Transfers:       c.transfers.Load(),
		TransfersShort:  c.transfersShort.Load(),
		TransfersFailed: c.transfersFailed.Load(),
		Steps:           c.steps.Load(),
		BytesMoved:      c.bytesMoved.Load(),
		BytesRequested:  c.bytesRequested.Load(),
		Elapsed:         c.Elapsed(),
	}
}

// Tick snapshots byte/step deltas into the ring buffer. Call it once a second.
func (c *Collector) Tick() {
	currentBytes := c.bytesMoved.Load()
	currentSteps := c.steps.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = currentBytes - c.lastBytes
	c.stepsPerSec[c.ringIdx] = currentSteps - c.lastSteps
	c.lastBytes = currentBytes
	c.lastSteps = currentSteps

	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average bytes/sec over the last n seconds of samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollingAvg(c.throughput[:], seconds)
}

// RollingStepsPerSec returns average syscalls/sec over the last n seconds.
func (c *Collector) RollingStepsPerSec(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollingAvg(c.stepsPerSec[:], seconds)
}

func (c *Collector) rollingAvg(buf []int64, n int) float64 {
	count := min(n, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += buf[idx]
	}
	return float64(sum) / float64(count)
}

// SparklineData returns the last n bytes/sec samples, oldest first.
func (c *Collector) SparklineData(n int) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(n, c.ringCount)
	if count <= 0 {
		return nil
	}

	data := make([]float64, count)
	for i := range count {
		idx := (c.ringIdx - count + i + ringSize) % ringSize
		data[i] = float64(c.throughput[idx])
	}
	return data
}

// ETA estimates remaining time from the rolling speed and the bytes still
// outstanding across all requested transfers.
func (c *Collector) ETA() time.Duration {
	speed := c.RollingSpeed(10)
	if speed <= 0 {
		return 0
	}
	remaining := c.bytesRequested.Load() - c.bytesMoved.Load()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining)/speed) * time.Second
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"transfers=%d short=%d failed=%d steps=%d bytes=%d requested=%d",
		s.Transfers, s.TransfersShort, s.TransfersFailed, s.Steps,
		s.BytesMoved, s.BytesRequested,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
