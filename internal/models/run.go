package models

import (
	"fmt"
	"time"
)

// RunStatus defines the execution state of a pipeline run
type RunStatus string

const (
	RunStatusInit      RunStatus = "init"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IsValidRunStatus checks if the run status is recognized
func IsValidRunStatus(s RunStatus) bool {
	switch s {
	case RunStatusInit, RunStatusRunning, RunStatusCompleted, RunStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether a run in this status is finished
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// CanTransitionTo checks if a status transition is valid
// Valid transitions:
//
//	init -> running
//	running -> completed | failed
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	switch s {
	case RunStatusInit:
		return next == RunStatusRunning
	case RunStatusRunning:
		return next == RunStatusCompleted || next == RunStatusFailed
	default:
		return false // Terminal states
	}
}

// RunStats holds the accepted/rejected counters for one run.
// The rejection gate is the only component that mutates these.
type RunStats struct {
	AcceptedCount int64 `json:"accepted_count"`
	RejectedCount int64 `json:"rejected_count"`
}

// Total returns the number of processed records
func (s RunStats) Total() int64 {
	return s.AcceptedCount + s.RejectedCount
}

// RejectionPct returns the cumulative rejection percentage.
// Defined as 0 when no records have been processed yet.
func (s RunStats) RejectionPct() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(s.RejectedCount) / float64(total) * 100
}

// PipelineRun represents a single execution of the validate-and-load pipeline
type PipelineRun struct {
	RunID         string    `json:"run_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	InputSource   string    `json:"input_source"` // Path of the source extract
	Status        RunStatus `json:"status"`
	Stats         RunStats  `json:"stats"`
	BatchesLoaded int       `json:"batches_loaded"`           // Batches committed to staging
	ErrorCategory string    `json:"error_category,omitempty"` // Fatal error category if failed
	ErrorMessage  string    `json:"error_message,omitempty"`  // Fatal error if failed
	Config        ProjectConfig `json:"config"`               // Configuration snapshot
}

// Validate checks structural invariants of a run before it is persisted
// or after it is loaded from disk
func (r *PipelineRun) Validate() error {
	if r.RunID == "" {
		return fmt.Errorf("run_id is required")
	}
	if !IsValidRunStatus(r.Status) {
		return fmt.Errorf("invalid run status: %s", r.Status)
	}
	if r.InputSource == "" {
		return fmt.Errorf("input_source is required")
	}
	if r.Stats.AcceptedCount < 0 || r.Stats.RejectedCount < 0 {
		return fmt.Errorf("run stats counts cannot be negative")
	}
	if r.BatchesLoaded < 0 {
		return fmt.Errorf("batches_loaded cannot be negative")
	}
	if r.Status == RunStatusFailed && r.ErrorMessage == "" {
		return fmt.Errorf("failed run must carry an error message")
	}
	return nil
}

// RunOutcome is the terminal artifact of one pipeline run, handed back
// to the caller once the run reaches a terminal status.
type RunOutcome struct {
	RunID    string
	Status   RunStatus
	Stats    RunStats
	Err      error // Fatal cause when Status is failed, nil otherwise
	Duration time.Duration
}
