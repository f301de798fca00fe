package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/skelland/tripline/internal/lib"
	"github.com/skelland/tripline/internal/models"
)

// InsertRunAudit records one row per pipeline run in the audit table.
// Called once when a run reaches a terminal status.
func (d *DB) InsertRunAudit(ctx context.Context, run *models.PipelineRun, startedAt, finishedAt time.Time) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO audit.pipeline_runs
				(run_id, input_source, status, accepted_count, rejected_count,
				 rejection_pct, error_category, error_message, started_at, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			run.RunID, run.InputSource, string(run.Status),
			run.Stats.AcceptedCount, run.Stats.RejectedCount, run.Stats.RejectionPct(),
			nullIfEmpty(run.ErrorCategory), nullIfEmpty(run.ErrorMessage),
			startedAt, finishedAt,
		)
		if err != nil {
			return lib.ErrDatabaseFailure("insert audit row", err)
		}
		return nil
	})
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
