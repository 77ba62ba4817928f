package gateways

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ochairo/decant/internal/domain/entities"
	"github.com/ochairo/decant/internal/domain/interfaces"
)

// MinDiskSpace is the free-space floor checked before any download starts.
const MinDiskSpace = 500 * 1024 * 1024 // 500 MB

// Preflight runs the cheap guards consulted before the engine commits to a
// network transfer.
type Preflight struct {
	client *http.Client
	logger interfaces.Logger
}

// NewPreflight creates a new preflight checker
func NewPreflight(logger interfaces.Logger) *Preflight {
	return &Preflight{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// CheckConnectivity confirms the release index is reachable. Failure aborts
// the run before any other work.
func (p *Preflight) CheckConnectivity(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return entities.WrapError(entities.KindNetworkUnavailable, err, "building connectivity probe for %s", url)
	}
	req.Header.Set("User-Agent", "decant/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return entities.WrapError(entities.KindNetworkUnavailable, err, "release index %s unreachable", url).
			WithHint("check your network connection and proxy settings")
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	// Any HTTP answer proves connectivity; status handling belongs to the
	// release gateway.
	p.logger.Debug("connectivity check passed", interfaces.F("url", url), interfaces.F("status", resp.StatusCode))
	return nil
}

// CheckDiskSpace confirms at least required bytes are free at path.
// Insufficient space is fatal before any bandwidth is spent on a doomed
// install. The nearest existing ancestor is probed when path itself does
// not exist yet.
func (p *Preflight) CheckDiskSpace(path string, required uint64) error {
	probe := path
	for {
		if _, err := os.Stat(probe); err == nil {
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}

	available, err := diskFree(probe)
	if err != nil {
		// A failed probe is not proof of low space; log and continue.
		p.logger.Warn("disk space probe failed", interfaces.F("path", probe), interfaces.F("error", err))
		return nil
	}

	if available < required {
		return entities.NewError(entities.KindInsufficientDiskSpace,
			"insufficient disk space at %s: %d MB required, %d MB available",
			path, required/(1024*1024), available/(1024*1024)).
			WithHint("free up disk space or choose a different output directory")
	}

	p.logger.Debug("disk space check passed",
		interfaces.F("path", probe),
		interfaces.F("availableMB", available/(1024*1024)))
	return nil
}
