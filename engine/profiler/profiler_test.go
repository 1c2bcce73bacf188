package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickBeforeInterval(t *testing.T) {
	p := NewProfiler()
	assert.False(t, p.Tick(), "no stats before the interval elapses")
	assert.False(t, p.Tick())
}

func TestTickAfterInterval(t *testing.T) {
	p := NewProfiler()
	p.updateInterval = 0

	assert.True(t, p.Tick())

	// Counters reset after a report.
	p.updateInterval = time.Hour
	assert.False(t, p.Tick())
	assert.Equal(t, 1, p.frameCount)
}

func TestObserveCaptureAggregates(t *testing.T) {
	p := NewProfiler()

	p.ObserveCapture(10 * time.Millisecond)
	p.ObserveCapture(30 * time.Millisecond)

	assert.Equal(t, 2, p.captureCount)
	assert.Equal(t, 40*time.Millisecond, p.captureTotal)
	assert.Equal(t, 30*time.Millisecond, p.captureSlowest)

	// A report drains the capture stats.
	p.updateInterval = 0
	assert.True(t, p.Tick())
	assert.Equal(t, 0, p.captureCount)
	assert.Equal(t, time.Duration(0), p.captureTotal)
	assert.Equal(t, time.Duration(0), p.captureSlowest)
}
