package pipeline

import "github.com/skelland/tripline/internal/models"

// RejectionGate owns the run's accepted/rejected counters and decides
// whether cumulative data quality still allows the run to proceed. It is
// the only component that mutates RunStats.
type RejectionGate struct {
	stats     models.RunStats
	finalized bool
}

// NewRejectionGate creates a gate with zeroed counters for a fresh run
func NewRejectionGate() *RejectionGate {
	return &RejectionGate{}
}

// Record counts one validated record, exactly once per record.
// No-op after Finalize.
func (g *RejectionGate) Record(rejected bool) {
	if g.finalized {
		return
	}
	if rejected {
		g.stats.RejectedCount++
	} else {
		g.stats.AcceptedCount++
	}
}

// Stats returns a snapshot of the current counters
func (g *RejectionGate) Stats() models.RunStats {
	return g.stats
}

// ShouldContinue reports whether the cumulative rejection percentage is
// still within the configured limit. Sitting exactly on the limit passes;
// only strictly exceeding it fails. With zero records processed the
// percentage is 0 and the run may proceed.
func (g *RejectionGate) ShouldContinue(thresholdPct float64) bool {
	return g.stats.RejectionPct() <= thresholdPct
}

// Finalize freezes the counters and returns the terminal snapshot
func (g *RejectionGate) Finalize() models.RunStats {
	g.finalized = true
	return g.stats
}
