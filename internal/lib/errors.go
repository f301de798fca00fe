package lib

import (
	"errors"
	"fmt"
	"strings"
)

// PipelineError represents a user-friendly error with a category and guidance
type PipelineError struct {
	Category    ErrorCategory
	Message     string   // Short description of what went wrong
	Cause       error    // Underlying error
	Guidance    []string // What the user can do to fix it
	IsRetryable bool     // Can this error be automatically retried?
}

// ErrorCategory classifies errors so callers can tell data-quality
// failures apart from infrastructure failures
type ErrorCategory string

const (
	CategoryValidation     ErrorCategory = "validation"      // Per-record, never fatal by itself
	CategoryThreshold      ErrorCategory = "threshold"       // Rejection percentage strictly exceeded the limit
	CategoryConnection     ErrorCategory = "connection"      // Database connection could not be acquired
	CategoryDatabase       ErrorCategory = "database"        // Insert or commit failed, batch rolled back
	CategoryMalformedBatch ErrorCategory = "malformed_batch" // Raw input structurally unreadable
	CategoryNetwork        ErrorCategory = "network"
	CategoryFilesystem     ErrorCategory = "filesystem"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryCancelled      ErrorCategory = "cancelled" // Run aborted between batches
)

// Error implements the error interface
func (e *PipelineError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] ", strings.ToUpper(string(e.Category))))
	sb.WriteString(e.Message)

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	return sb.String()
}

// UserMessage returns a formatted message suitable for displaying to end users
func (e *PipelineError) UserMessage() string {
	var sb strings.Builder

	sb.WriteString("❌ Error: ")
	sb.WriteString(e.Message)
	sb.WriteString("\n\n")

	if len(e.Guidance) > 0 {
		sb.WriteString("💡 How to fix:\n")
		for i, guide := range e.Guidance {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, guide))
		}
	}

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("\nTechnical details: %v\n", e.Cause))
	}

	return sb.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// CategoryOf extracts the category from an error chain.
// Returns an empty category for plain errors.
func CategoryOf(err error) ErrorCategory {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ""
}

// ErrThresholdExceeded creates the fatal error for a breached rejection gate
func ErrThresholdExceeded(rejectionPct, maxRejectedPct float64) *PipelineError {
	return &PipelineError{
		Category: CategoryThreshold,
		Message:  fmt.Sprintf("rejection rate %.2f%% exceeds limit of %.2f%%", rejectionPct, maxRejectedPct),
		Guidance: []string{
			"Inspect the rejected-record files under the rejected data directory",
			"Fix the upstream extract or loosen max_rejected_pct if the data is legitimately noisy",
			"Re-run the pipeline once the source data is corrected",
		},
	}
}

// ErrConnectionFailed creates an error for failed connection acquisition
func ErrConnectionFailed(host string, port int, cause error) *PipelineError {
	return &PipelineError{
		Category: CategoryConnection,
		Message:  fmt.Sprintf("cannot connect to database at %s:%d", host, port),
		Cause:    cause,
		Guidance: []string{
			"Check that Postgres is running and reachable",
			"Verify host, port, and credentials in the configuration",
			"Ensure no firewall is blocking the connection",
		},
		IsRetryable: true,
	}
}

// ErrDatabaseFailure creates an error for a failed statement inside a load.
// The enclosing transaction has already been rolled back when this is returned.
func ErrDatabaseFailure(operation string, cause error) *PipelineError {
	return &PipelineError{
		Category: CategoryDatabase,
		Message:  fmt.Sprintf("database operation failed: %s", operation),
		Cause:    cause,
		Guidance: []string{
			"The batch was rolled back, no partial rows were committed",
			"Check the database logs for constraint or capacity problems",
			"Re-run the pipeline once the database is healthy",
		},
	}
}

// ErrMalformedBatch creates an error for structurally unreadable input
func ErrMalformedBatch(detail string, cause error) *PipelineError {
	return &PipelineError{
		Category: CategoryMalformedBatch,
		Message:  fmt.Sprintf("source input is unreadable: %s", detail),
		Cause:    cause,
		Guidance: []string{
			"Verify the source file is a well-formed CSV extract",
			"Re-download the extract with 'tripline fetch'",
		},
	}
}

// ErrDownloadFailed creates an error for a failed source fetch
func ErrDownloadFailed(url string, cause error) *PipelineError {
	return &PipelineError{
		Category: CategoryNetwork,
		Message:  fmt.Sprintf("download failed: %s", url),
		Cause:    cause,
		Guidance: []string{
			"Check your network connection",
			"Verify the source base_url in the configuration",
			"The fetch is retried automatically for transient failures",
		},
		IsRetryable: true,
	}
}

// ErrRunCancelled creates an error for a run aborted between batches
func ErrRunCancelled(cause error) *PipelineError {
	return &PipelineError{
		Category: CategoryCancelled,
		Message:  "run cancelled before the record stream was exhausted",
		Cause:    cause,
	}
}

// ErrConfigInvalid creates an error for bad configuration values
func ErrConfigInvalid(cause error) *PipelineError {
	return &PipelineError{
		Category: CategoryConfiguration,
		Message:  "invalid configuration",
		Cause:    cause,
		Guidance: []string{
			"Check tripline.yaml and TRIPLINE_* environment overrides",
		},
	}
}
