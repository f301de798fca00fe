// Package pipeline drives raw trip records through validation, the
// rejection gate, and the transactional staging loader.
package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/skelland/tripline/internal/lib"
	"github.com/skelland/tripline/internal/models"
	"github.com/skelland/tripline/internal/validate"
)

// RecordSource produces a lazy, finite sequence of raw records.
// NextBatch returns up to n records; io.EOF signals exhaustion. Any other
// error means the input is structurally unreadable.
type RecordSource interface {
	NextBatch(n int) ([]models.RawRecord, error)
}

// BatchLoader commits a batch of accepted trips as one atomic unit
type BatchLoader interface {
	Load(ctx context.Context, trips []models.TripRecord) (int, error)
}

// AuditRecorder persists the terminal audit row for a run
type AuditRecorder interface {
	InsertRunAudit(ctx context.Context, run *models.PipelineRun, startedAt, finishedAt time.Time) error
}

// Coordinator executes one pipeline run: batches are pulled sequentially,
// every record in a batch is validated before any of it is loaded, and
// batch N commits or rolls back before batch N+1 begins.
type Coordinator struct {
	cfg    models.ProjectConfig
	loader BatchLoader
	sink   RejectedSink  // optional, best-effort
	audit  AuditRecorder // optional, best-effort
	logger *lib.Logger
}

// NewCoordinator wires a coordinator for one or more runs. sink and audit
// may be nil; their failures never fail a run either way.
func NewCoordinator(cfg models.ProjectConfig, loader BatchLoader, sink RejectedSink, audit AuditRecorder, logger *lib.Logger) *Coordinator {
	return &Coordinator{
		cfg:    cfg,
		loader: loader,
		sink:   sink,
		audit:  audit,
		logger: logger,
	}
}

// Run drains the source and returns the terminal outcome. The run fails on
// a threshold breach, a connection or database error, a malformed batch,
// or cancellation between batches; per-record rejections only ever feed
// the gate. Stats from already committed batches survive a failure.
func (c *Coordinator) Run(ctx context.Context, run *models.PipelineRun, source RecordSource) models.RunOutcome {
	startedAt := time.Now()
	run.Status = models.RunStatusRunning
	run.UpdatedAt = startedAt

	gate := NewRejectionGate()
	fatal := c.processBatches(ctx, run, source, gate)

	stats := gate.Finalize()
	run.Stats = stats
	run.UpdatedAt = time.Now()

	if fatal != nil {
		run.Status = models.RunStatusFailed
		run.ErrorCategory = string(lib.CategoryOf(fatal))
		run.ErrorMessage = fatal.Error()
		lib.LogRunFailed(c.logger, run.RunID, fatal)
	} else {
		run.Status = models.RunStatusCompleted
		lib.LogRunCompleted(c.logger, run.RunID, stats.AcceptedCount, stats.RejectedCount, time.Since(startedAt))
	}

	c.recordAudit(ctx, run, startedAt)

	return models.RunOutcome{
		RunID:    run.RunID,
		Status:   run.Status,
		Stats:    stats,
		Err:      fatal,
		Duration: time.Since(startedAt),
	}
}

// processBatches is the RUNNING state: it returns nil when the stream is
// exhausted cleanly and the fatal cause otherwise.
func (c *Coordinator) processBatches(ctx context.Context, run *models.PipelineRun, source RecordSource, gate *RejectionGate) error {
	batch := 0
	for {
		// Cooperative cancellation checkpoint between batches only; a
		// batch's load is atomic and uninterruptible once started.
		if err := ctx.Err(); err != nil {
			return lib.ErrRunCancelled(err)
		}

		raws, err := source.NextBatch(c.cfg.Pipeline.BatchSize)
		eof := errors.Is(err, io.EOF)
		if err != nil && !eof {
			if lib.CategoryOf(err) == lib.CategoryMalformedBatch {
				return err
			}
			return lib.ErrMalformedBatch("failed to read next batch", err)
		}
		if len(raws) == 0 {
			return nil
		}
		batch++

		accepted := make([]models.TripRecord, 0, len(raws))
		for _, raw := range raws {
			rec, rejection, verr := validate.Trip(raw)
			if verr != nil {
				return verr
			}
			if rejection != nil {
				gate.Record(true)
				c.writeRejected(raw, *rejection)
				continue
			}
			gate.Record(false)
			accepted = append(accepted, rec)
		}

		loaded, err := c.loader.Load(ctx, accepted)
		if err != nil {
			return err
		}
		run.BatchesLoaded++
		run.Stats = gate.Stats()

		stats := gate.Stats()
		lib.LogBatchLoaded(c.logger, run.RunID, batch, loaded, int(stats.RejectedCount), stats.RejectionPct())

		// Cumulative check after the batch has committed, so committed
		// rows are never rolled back by a threshold breach.
		if !gate.ShouldContinue(c.cfg.Pipeline.MaxRejectedPct) {
			return lib.ErrThresholdExceeded(stats.RejectionPct(), c.cfg.Pipeline.MaxRejectedPct)
		}

		if eof {
			return nil
		}
	}
}

// writeRejected hands one rejected record to the sink, best-effort
func (c *Coordinator) writeRejected(raw models.RawRecord, reason models.RejectionReason) {
	if c.sink == nil {
		return
	}
	if err := c.sink.Write(raw, reason); err != nil {
		c.logger.Warn("Failed to persist rejected record", "reason", reason.String(), "error", err)
	}
}

// recordAudit writes the terminal audit row. Runs on a non-cancellable
// context so a cancelled run still gets audited.
func (c *Coordinator) recordAudit(ctx context.Context, run *models.PipelineRun, startedAt time.Time) {
	if c.audit == nil {
		return
	}
	auditCtx := context.WithoutCancel(ctx)
	if err := c.audit.InsertRunAudit(auditCtx, run, startedAt, time.Now()); err != nil {
		c.logger.Warn("Failed to record run audit row", "run_id", run.RunID, "error", err)
	}
}
