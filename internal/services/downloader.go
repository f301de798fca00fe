package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/skelland/tripline/internal/lib"
	"github.com/skelland/tripline/internal/models"
	"github.com/skelland/tripline/internal/ui"
)

// ExtractFileName returns the canonical file name for a monthly extract
func ExtractFileName(year int, month int) string {
	return fmt.Sprintf("yellow_tripdata_%d-%02d.csv", year, month)
}

// FetchMonthlyExtract downloads one monthly trip extract into the raw data
// directory. An extract that already exists on disk is not re-downloaded.
// Transient HTTP failures are retried by the client; a download that still
// fails leaves no partial file behind.
func FetchMonthlyExtract(year int, month int, cfg models.SourceConfig, client *HTTPClient, logger *lib.Logger, showProgress bool) (string, error) {
	if month < 1 || month > 12 {
		return "", fmt.Errorf("month must be 1-12, got %d", month)
	}

	fileName := ExtractFileName(year, month)
	destPath := filepath.Join(cfg.RawDir(), fileName)

	if _, err := os.Stat(destPath); err == nil {
		logger.Info("Extract already downloaded, skipping", "file", fileName)
		return destPath, nil
	}

	if err := os.MkdirAll(cfg.RawDir(), 0755); err != nil {
		return "", fmt.Errorf("failed to create raw data directory: %w", err)
	}

	url := cfg.BaseURL + "/" + fileName
	logger.Info("Downloading extract", "url", url, "destination", destPath)

	// Download to a temp file first so a failed fetch never leaves a
	// half-written extract that a later run would load.
	tempPath := destPath + ".partial"
	destFile, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}

	var writer io.Writer = destFile
	var bar *ui.ProgressBar
	if showProgress {
		bar = ui.NewByteProgressBar(client.ContentLength(url), "Downloading "+fileName)
		writer = io.MultiWriter(destFile, bar)
	}

	bytesDownloaded, err := client.Download(url, writer)
	if bar != nil {
		bar.Finish()
	}
	if closeErr := destFile.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tempPath)
		return "", lib.ErrDownloadFailed(url, err)
	}

	if err := os.Rename(tempPath, destPath); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to finalize download: %w", err)
	}

	logger.Info("Extract downloaded", "file", fileName, "bytes", bytesDownloaded)
	return destPath, nil
}
