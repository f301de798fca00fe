package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRejectionGate_CountsExactlyOncePerRecord(t *testing.T) {
	gate := NewRejectionGate()

	for i := 0; i < 9; i++ {
		gate.Record(false)
	}
	gate.Record(true)

	stats := gate.Stats()
	assert.Equal(t, int64(9), stats.AcceptedCount)
	assert.Equal(t, int64(1), stats.RejectedCount)
	assert.Equal(t, int64(10), stats.Total())
	assert.InDelta(t, 10.0, stats.RejectionPct(), 1e-9)
}

func TestRejectionGate_ZeroRecordsMayProceed(t *testing.T) {
	gate := NewRejectionGate()

	assert.Equal(t, 0.0, gate.Stats().RejectionPct())
	assert.True(t, gate.ShouldContinue(0.0))
}

func TestRejectionGate_ThresholdBoundary(t *testing.T) {
	// 1 rejected out of 20 = exactly 5.0%
	gate := NewRejectionGate()
	for i := 0; i < 19; i++ {
		gate.Record(false)
	}
	gate.Record(true)

	assert.InDelta(t, 5.0, gate.Stats().RejectionPct(), 1e-9)
	// Sitting exactly on the limit passes
	assert.True(t, gate.ShouldContinue(5.0))
	// Strictly exceeding it fails
	assert.False(t, gate.ShouldContinue(4.99))
}

func TestRejectionGate_StrictlyExceedingFails(t *testing.T) {
	// 501 rejected out of 10000 = 5.01%
	gate := NewRejectionGate()
	for i := 0; i < 9499; i++ {
		gate.Record(false)
	}
	for i := 0; i < 501; i++ {
		gate.Record(true)
	}

	assert.InDelta(t, 5.01, gate.Stats().RejectionPct(), 1e-9)
	assert.False(t, gate.ShouldContinue(5.0))
}

func TestRejectionGate_FinalizeFreezesCounters(t *testing.T) {
	gate := NewRejectionGate()
	gate.Record(false)
	gate.Record(true)

	frozen := gate.Finalize()
	gate.Record(false) // ignored after finalize
	gate.Record(true)

	assert.Equal(t, frozen, gate.Stats())
	assert.Equal(t, int64(1), frozen.AcceptedCount)
	assert.Equal(t, int64(1), frozen.RejectedCount)
}
