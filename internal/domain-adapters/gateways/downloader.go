package gateways

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ochairo/decant/internal/domain/interfaces"
)

const (
	// Max retries for transient errors
	maxRetries = 3
	// Initial backoff duration
	initialBackoff = 1 * time.Second
	// Max backoff duration
	maxBackoff = 32 * time.Second

	// partialSuffix marks in-flight downloads so an artifact never exists
	// under its final name until the transfer completed.
	partialSuffix = ".partial"
)

// Downloader is the generic HTTP GET-to-file capability: it retries
// transient failures with exponential backoff and resumes interrupted
// transfers via Range requests.
type Downloader struct {
	httpClient *http.Client
	logger     interfaces.Logger
}

// NewDownloader creates a new downloader
func NewDownloader(logger interfaces.Logger) *Downloader {
	return &Downloader{
		httpClient: &http.Client{
			Timeout: 15 * time.Minute, // Long timeout for large downloads
		},
		logger: logger,
	}
}

// isRetryableError checks if an HTTP status code is retryable
func isRetryableError(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}

// calculateBackoff returns the backoff duration for a retry attempt
func calculateBackoff(attempt int) time.Duration {
	backoff := float64(initialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}
	return time.Duration(backoff)
}

// FetchFile downloads url to dest. The transfer lands in dest + ".partial"
// and is renamed only after completing, so dest never holds a truncated
// artifact. A leftover partial file from an earlier attempt is resumed with
// a Range request when the server allows it.
func (d *Downloader) FetchFile(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	partial := dest + partialSuffix

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(calculateBackoff(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		retryable, err := d.fetchOnce(ctx, url, partial)
		if err == nil {
			return os.Rename(partial, dest)
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
		d.logger.Warn("download attempt failed, retrying",
			interfaces.F("url", url),
			interfaces.F("attempt", attempt+1),
			interfaces.F("error", err))
	}

	return fmt.Errorf("download failed: %w", lastErr)
}

// fetchOnce performs a single transfer into partial, resuming from its
// current size. The bool result reports whether a retry is worthwhile.
func (d *Downloader) fetchOnce(ctx context.Context, url, partial string) (bool, error) {
	var offset int64
	if info, err := os.Stat(partial); err == nil {
		offset = info.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "decant/1.0")
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		// Server honored the Range; append to the partial file.
	case http.StatusOK:
		// Full body; any previous partial content is stale.
		offset = 0
	default:
		return isRetryableError(resp.StatusCode), fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	//nolint:gosec // G304: partial path is derived from the caller's destination
	out, err := os.OpenFile(partial, flags, 0640)
	if err != nil {
		return false, fmt.Errorf("failed to open partial file: %w", err)
	}
	//nolint:errcheck // Defer close on file being written
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return true, fmt.Errorf("failed to write file: %w", err)
	}

	d.logger.Debug("downloaded",
		interfaces.F("file", filepath.Base(partial)),
		interfaces.F("bytes", written),
		interfaces.F("resumedAt", offset))

	return false, nil
}

// FetchText downloads a small text resource, such as a checksum sidecar.
func (d *Downloader) FetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "decant/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	// Sidecars are tiny; cap reads at 1 MB.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	return strings.TrimSpace(string(body)), nil
}
