package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skelland/tripline/internal/models"
)

// RejectedSink receives rejected records for audit and debugging.
// Writes are best-effort: a sink failure never fails the run.
type RejectedSink interface {
	Write(raw models.RawRecord, reason models.RejectionReason) error
	Close() error
}

// rejectedEntry is one NDJSON line in a rejected-record file
type rejectedEntry struct {
	Field  string           `json:"field"`
	Cause  string           `json:"cause"`
	Record models.RawRecord `json:"record"`
}

// FileSink writes rejected records as NDJSON, one file per run
type FileSink struct {
	file *os.File
	enc  *json.Encoder
}

// NewFileSink creates <rejectedDir>/<runID>.ndjson for this run's rejects
func NewFileSink(rejectedDir string, runID string) (*FileSink, error) {
	if err := os.MkdirAll(rejectedDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create rejected directory: %w", err)
	}

	path := filepath.Join(rejectedDir, runID+".ndjson")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create rejected-record file: %w", err)
	}

	return &FileSink{file: file, enc: json.NewEncoder(file)}, nil
}

// Write appends one rejected record with its reason
func (s *FileSink) Write(raw models.RawRecord, reason models.RejectionReason) error {
	return s.enc.Encode(rejectedEntry{
		Field:  reason.Field,
		Cause:  reason.Cause,
		Record: raw,
	})
}

// Close flushes and closes the file
func (s *FileSink) Close() error {
	return s.file.Close()
}
