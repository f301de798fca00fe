package pipeline

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skelland/tripline/internal/lib"
	"github.com/skelland/tripline/internal/models"
)

// fakeSource serves predefined batches, then io.EOF
type fakeSource struct {
	batches [][]models.RawRecord
	pulls   int
}

func (s *fakeSource) NextBatch(n int) ([]models.RawRecord, error) {
	if s.pulls >= len(s.batches) {
		return nil, io.EOF
	}
	batch := s.batches[s.pulls]
	s.pulls++
	return batch, nil
}

// failingSource simulates a structurally unreadable input
type failingSource struct{ err error }

func (s *failingSource) NextBatch(n int) ([]models.RawRecord, error) {
	return nil, s.err
}

// fakeLoader records every load and can fail a specific call
type fakeLoader struct {
	loads    [][]models.TripRecord
	failCall int // 1-based call number to fail, 0 = never
	failWith error
}

func (l *fakeLoader) Load(ctx context.Context, trips []models.TripRecord) (int, error) {
	l.loads = append(l.loads, trips)
	if l.failCall == len(l.loads) {
		return 0, l.failWith
	}
	return len(trips), nil
}

// fakeSink records rejected records and can fail every write
type fakeSink struct {
	entries []models.RejectionReason
	err     error
}

func (s *fakeSink) Write(raw models.RawRecord, reason models.RejectionReason) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, reason)
	return nil
}

func (s *fakeSink) Close() error { return nil }

// fakeAudit records terminal audit writes
type fakeAudit struct {
	runs []models.PipelineRun
	err  error
}

func (a *fakeAudit) InsertRunAudit(ctx context.Context, run *models.PipelineRun, startedAt, finishedAt time.Time) error {
	if a.err != nil {
		return a.err
	}
	a.runs = append(a.runs, *run)
	return nil
}

func validRaw() models.RawRecord {
	return models.RawRecord{
		models.FieldVendorID:        "1",
		models.FieldPickupTime:      "2024-01-01 10:00:00",
		models.FieldDropoffTime:     "2024-01-01 10:30:00",
		models.FieldPassengerCount:  "2",
		models.FieldTripDistance:    "5.5",
		models.FieldRateCode:        "1",
		models.FieldPickupLocation:  "100",
		models.FieldDropoffLocation: "200",
		models.FieldPaymentType:     "1",
		models.FieldFareAmount:      "15.0",
		models.FieldExtra:           "0.5",
		models.FieldTax:             "0.5",
		models.FieldTipAmount:       "3.0",
		models.FieldTollsAmount:     "0.0",
		models.FieldTotalAmount:     "19.0",
	}
}

func invalidRaw() models.RawRecord {
	raw := validRaw()
	raw[models.FieldVendorID] = "99"
	return raw
}

func batchOf(valid int, invalid int) []models.RawRecord {
	batch := make([]models.RawRecord, 0, valid+invalid)
	for i := 0; i < invalid; i++ {
		batch = append(batch, invalidRaw())
	}
	for i := 0; i < valid; i++ {
		batch = append(batch, validRaw())
	}
	return batch
}

func testConfig(batchSize int, maxRejectedPct float64) models.ProjectConfig {
	cfg := models.DefaultConfig()
	cfg.Pipeline.BatchSize = batchSize
	cfg.Pipeline.MaxRejectedPct = maxRejectedPct
	return cfg
}

func newRun() *models.PipelineRun {
	return &models.PipelineRun{
		RunID:       "test-run",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		InputSource: "test.csv",
		Status:      models.RunStatusInit,
	}
}

func TestCoordinator_CompletesCleanStream(t *testing.T) {
	source := &fakeSource{batches: [][]models.RawRecord{batchOf(10, 0), batchOf(10, 0)}}
	loader := &fakeLoader{}
	audit := &fakeAudit{}
	c := NewCoordinator(testConfig(10, 5.0), loader, nil, audit, lib.NewLogger(lib.LogLevelError))

	run := newRun()
	outcome := c.Run(context.Background(), run, source)

	assert.Equal(t, models.RunStatusCompleted, outcome.Status)
	assert.NoError(t, outcome.Err)
	assert.Equal(t, int64(20), outcome.Stats.AcceptedCount)
	assert.Equal(t, int64(0), outcome.Stats.RejectedCount)
	assert.Len(t, loader.loads, 2)
	assert.Equal(t, 2, run.BatchesLoaded)

	// One audit row with the terminal state
	require.Len(t, audit.runs, 1)
	assert.Equal(t, models.RunStatusCompleted, audit.runs[0].Status)
}

func TestCoordinator_ValidatesWholeBatchBeforeLoading(t *testing.T) {
	source := &fakeSource{batches: [][]models.RawRecord{batchOf(8, 2)}}
	loader := &fakeLoader{}
	sink := &fakeSink{}
	c := NewCoordinator(testConfig(10, 50.0), loader, sink, nil, lib.NewLogger(lib.LogLevelError))

	outcome := c.Run(context.Background(), newRun(), source)

	assert.Equal(t, models.RunStatusCompleted, outcome.Status)
	require.Len(t, loader.loads, 1)
	// Only the accepted subset reaches the loader
	assert.Len(t, loader.loads[0], 8)
	// Every rejection reached the sink
	assert.Len(t, sink.entries, 2)
}

func TestCoordinator_ThresholdBreachFailsRun(t *testing.T) {
	// 3 batches of 10 with 1 rejection in batch 1: 10% > 5% fails at the
	// end of batch 1, batches 2 and 3 are never pulled
	source := &fakeSource{batches: [][]models.RawRecord{
		batchOf(9, 1), batchOf(10, 0), batchOf(10, 0),
	}}
	loader := &fakeLoader{}
	c := NewCoordinator(testConfig(10, 5.0), loader, nil, nil, lib.NewLogger(lib.LogLevelError))

	run := newRun()
	outcome := c.Run(context.Background(), run, source)

	assert.Equal(t, models.RunStatusFailed, outcome.Status)
	require.Error(t, outcome.Err)
	assert.Equal(t, lib.CategoryThreshold, lib.CategoryOf(outcome.Err))

	// Batch 1 was still committed before the gate fired
	assert.Equal(t, int64(9), outcome.Stats.AcceptedCount)
	assert.Equal(t, int64(1), outcome.Stats.RejectedCount)
	assert.Len(t, loader.loads, 1)
	assert.Equal(t, 1, run.BatchesLoaded)
	assert.Equal(t, 1, source.pulls)
}

func TestCoordinator_ExactThresholdContinues(t *testing.T) {
	// 1 rejection in 20 records = exactly 5.0%, which passes
	source := &fakeSource{batches: [][]models.RawRecord{batchOf(19, 1)}}
	loader := &fakeLoader{}
	c := NewCoordinator(testConfig(20, 5.0), loader, nil, nil, lib.NewLogger(lib.LogLevelError))

	outcome := c.Run(context.Background(), newRun(), source)

	assert.Equal(t, models.RunStatusCompleted, outcome.Status)
	assert.NoError(t, outcome.Err)
}

func TestCoordinator_ConnectionFailureMidRun(t *testing.T) {
	// Connection acquisition fails on batch 2 of 3: batch 1 stays
	// committed, batch 3 is never attempted
	source := &fakeSource{batches: [][]models.RawRecord{
		batchOf(10, 0), batchOf(10, 0), batchOf(10, 0),
	}}
	loader := &fakeLoader{
		failCall: 2,
		failWith: lib.ErrConnectionFailed("localhost", 5432, io.ErrUnexpectedEOF),
	}
	c := NewCoordinator(testConfig(10, 5.0), loader, nil, nil, lib.NewLogger(lib.LogLevelError))

	run := newRun()
	outcome := c.Run(context.Background(), run, source)

	assert.Equal(t, models.RunStatusFailed, outcome.Status)
	assert.Equal(t, lib.CategoryConnection, lib.CategoryOf(outcome.Err))
	assert.Len(t, loader.loads, 2)
	assert.Equal(t, 1, run.BatchesLoaded)
	assert.Equal(t, 2, source.pulls)
}

func TestCoordinator_DatabaseFailureFailsRun(t *testing.T) {
	source := &fakeSource{batches: [][]models.RawRecord{batchOf(10, 0)}}
	loader := &fakeLoader{
		failCall: 1,
		failWith: lib.ErrDatabaseFailure("bulk insert", io.ErrClosedPipe),
	}
	c := NewCoordinator(testConfig(10, 5.0), loader, nil, nil, lib.NewLogger(lib.LogLevelError))

	run := newRun()
	outcome := c.Run(context.Background(), run, source)

	assert.Equal(t, models.RunStatusFailed, outcome.Status)
	assert.Equal(t, lib.CategoryDatabase, lib.CategoryOf(outcome.Err))
	assert.Equal(t, 0, run.BatchesLoaded)
}

func TestCoordinator_MalformedInputFailsWithoutValidation(t *testing.T) {
	source := &failingSource{err: lib.ErrMalformedBatch("truncated file", io.ErrUnexpectedEOF)}
	loader := &fakeLoader{}
	c := NewCoordinator(testConfig(10, 5.0), loader, nil, nil, lib.NewLogger(lib.LogLevelError))

	outcome := c.Run(context.Background(), newRun(), source)

	assert.Equal(t, models.RunStatusFailed, outcome.Status)
	assert.Equal(t, lib.CategoryMalformedBatch, lib.CategoryOf(outcome.Err))
	assert.Empty(t, loader.loads)
	assert.Equal(t, int64(0), outcome.Stats.Total())
}

func TestCoordinator_CancelledBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &fakeSource{batches: [][]models.RawRecord{batchOf(10, 0)}}
	loader := &fakeLoader{}
	audit := &fakeAudit{}
	c := NewCoordinator(testConfig(10, 5.0), loader, nil, audit, lib.NewLogger(lib.LogLevelError))

	outcome := c.Run(ctx, newRun(), source)

	assert.Equal(t, models.RunStatusFailed, outcome.Status)
	assert.Equal(t, lib.CategoryCancelled, lib.CategoryOf(outcome.Err))
	assert.Empty(t, loader.loads)
	// The audit row is written even for a cancelled run
	assert.Len(t, audit.runs, 1)
}

func TestCoordinator_SinkFailureDoesNotFailRun(t *testing.T) {
	source := &fakeSource{batches: [][]models.RawRecord{batchOf(9, 1)}}
	loader := &fakeLoader{}
	sink := &fakeSink{err: io.ErrClosedPipe}
	c := NewCoordinator(testConfig(10, 50.0), loader, sink, nil, lib.NewLogger(lib.LogLevelError))

	outcome := c.Run(context.Background(), newRun(), source)

	assert.Equal(t, models.RunStatusCompleted, outcome.Status)
	assert.Equal(t, int64(9), outcome.Stats.AcceptedCount)
	assert.Equal(t, int64(1), outcome.Stats.RejectedCount)
}

func TestCoordinator_AuditFailureDoesNotChangeOutcome(t *testing.T) {
	source := &fakeSource{batches: [][]models.RawRecord{batchOf(10, 0)}}
	c := NewCoordinator(testConfig(10, 5.0), &fakeLoader{}, nil, &fakeAudit{err: io.ErrClosedPipe}, lib.NewLogger(lib.LogLevelError))

	outcome := c.Run(context.Background(), newRun(), source)

	assert.Equal(t, models.RunStatusCompleted, outcome.Status)
	assert.NoError(t, outcome.Err)
}

func TestCoordinator_EmptyStreamCompletes(t *testing.T) {
	source := &fakeSource{}
	loader := &fakeLoader{}
	c := NewCoordinator(testConfig(10, 0.0), loader, nil, nil, lib.NewLogger(lib.LogLevelError))

	outcome := c.Run(context.Background(), newRun(), source)

	assert.Equal(t, models.RunStatusCompleted, outcome.Status)
	assert.Equal(t, int64(0), outcome.Stats.Total())
	assert.Empty(t, loader.loads)
}
