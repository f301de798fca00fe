package services

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/skelland/tripline/internal/lib"
	"github.com/skelland/tripline/internal/models"
)

// HTTPClient wraps the standard http.Client with retry logic for
// transient failures when fetching source extracts
type HTTPClient struct {
	client      *http.Client
	retryConfig models.RetryConfig
	logger      *lib.Logger
}

// NewHTTPClient creates an HTTP client with timeout and retry configuration
func NewHTTPClient(timeout time.Duration, retryConfig models.RetryConfig, logger *lib.Logger) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		retryConfig: retryConfig,
		logger:      logger,
	}
}

// Get performs an HTTP GET request with retry logic
func (c *HTTPClient) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return c.Do(req)
}

// Do executes an HTTP request, retrying transient failures (network
// errors, 5xx, 408, 429) with exponential backoff. Non-transient HTTP
// error statuses are returned to the caller without retrying.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < c.retryConfig.MaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := lib.CalculateBackoff(attempt-1, c.retryConfig.InitialBackoffMs, c.retryConfig.MaxBackoffMs)
			time.Sleep(backoff)
		}

		startTime := time.Now()
		resp, err := c.client.Do(req)
		duration := time.Since(startTime)

		if err != nil {
			lastErr = err
			if lib.IsNetworkError(err) {
				lib.LogRetry(c.logger, req.URL.String(), attempt, c.retryConfig.MaxAttempts, err)
				continue
			}
			return nil, err
		}

		c.logger.Debug("HTTP response", "url", req.URL.String(), "status", resp.StatusCode, "duration", duration)

		if resp.StatusCode >= 400 && lib.IsTransientHTTPStatus(resp.StatusCode) {
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
			_ = resp.Body.Close()
			lib.LogRetry(c.logger, req.URL.String(), attempt, c.retryConfig.MaxAttempts, lastErr)
			continue
		}

		// Success or a non-transient status the caller must inspect
		return resp, nil
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.retryConfig.MaxAttempts, lastErr)
}

// Download fetches a URL and streams the body to writer.
// Returns the number of bytes written.
func (c *HTTPClient) Download(url string, writer io.Writer) (int64, error) {
	resp, err := c.Get(url)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	bytesWritten, err := io.Copy(writer, resp.Body)
	if err != nil {
		return bytesWritten, fmt.Errorf("failed to download: %w", err)
	}

	return bytesWritten, nil
}

// ContentLength performs a HEAD request to discover the size of a remote
// file, for progress display. Returns -1 when the size is unknown.
func (c *HTTPClient) ContentLength(url string) int64 {
	req, err := http.NewRequest("HEAD", url, nil)
	if err != nil {
		return -1
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return -1
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return -1
	}
	return resp.ContentLength
}
