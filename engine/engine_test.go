package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrainFrameJobsRunsInSubmissionOrder(t *testing.T) {
	e := NewEngine().(*engine)

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		e.scheduleFrameJob(func() { order = append(order, i) })
	}

	e.drainFrameJobs()
	assert.Equal(t, []int{0, 1, 2}, order)

	// A second drain with nothing queued is a no-op.
	e.drainFrameJobs()
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestScheduleFrameJobRunsInlineAfterQuit(t *testing.T) {
	e := NewEngine(WithCaptureQueueSize(1)).(*engine)

	// Fill the queue so the only ready select case is the quit channel.
	e.scheduleFrameJob(func() {})
	e.signalQuit()

	ran := false
	e.scheduleFrameJob(func() { ran = true })
	assert.True(t, ran, "jobs scheduled after shutdown should run inline")
}

func TestWithCaptureQueueSize(t *testing.T) {
	e := NewEngine(WithCaptureQueueSize(3)).(*engine)
	assert.Equal(t, 3, cap(e.frameJobs))

	e = NewEngine().(*engine)
	assert.Equal(t, 16, cap(e.frameJobs))

	e = NewEngine(WithCaptureQueueSize(-1)).(*engine)
	assert.Equal(t, 16, cap(e.frameJobs))
}
