// Package ui provides terminal progress feedback for downloads and runs.
package ui

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ProgressBar wraps the progressbar library to provide progress
// visualization with percentage, ETA, and throughput
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewByteProgressBar creates a progress bar for byte-sized operations
// (downloads). Pass total -1 when the size is unknown; the bar renders as
// a spinner in that case.
func NewByteProgressBar(total int64, description string) *ProgressBar {
	bar := progressbar.NewOptions64(
		total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(500*time.Millisecond),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionEnableColorCodes(false),
	)
	return &ProgressBar{bar: bar}
}

// Write implements io.Writer so the bar can sit on a download MultiWriter
func (p *ProgressBar) Write(data []byte) (int, error) {
	return p.bar.Write(data)
}

// Finish completes the bar and moves output to a fresh line
func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
}
