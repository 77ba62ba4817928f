// Package gateways contains adapters for external collaborators: the release
// index, artifact transfer, integrity checks, and the local machine.
package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/ochairo/decant/internal/domain/entities"
	"github.com/ochairo/decant/internal/domain/interfaces"
)

// HTTPReleaseGateway resolves release metadata from a GitHub-style release
// index. It performs a single request per resolution; transient-failure
// retries belong to the artifact fetcher, not here.
type HTTPReleaseGateway struct {
	client    *http.Client
	baseURL   string
	token     string
	userAgent string
	logger    interfaces.Logger
}

// NewHTTPReleaseGateway creates a gateway for the index rooted at baseURL
// (e.g. "https://api.github.com/repos/owner/repo"). token may be empty for
// anonymous requests.
func NewHTTPReleaseGateway(baseURL, token string, logger interfaces.Logger) *HTTPReleaseGateway {
	return &HTTPReleaseGateway{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   baseURL,
		token:     token,
		userAgent: "decant/1.0",
		logger:    logger,
	}
}

// indexRelease is the subset of the release index payload the engine uses.
type indexRelease struct {
	TagName string       `json:"tag_name"`
	Draft   bool         `json:"draft"`
	Assets  []indexAsset `json:"assets"`
}

type indexAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Resolve fetches release metadata for tag, or the latest stable release
// when tag is empty. Both shapes feed the same downstream path.
func (g *HTTPReleaseGateway) Resolve(ctx context.Context, tag string) (*entities.Release, error) {
	url := g.baseURL + "/releases/latest"
	if tag != "" {
		url = g.baseURL + "/releases/tags/" + tag
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, entities.WrapError(entities.KindResolutionFailed, err, "building release request %s", url)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", g.userAgent)
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, entities.WrapError(entities.KindResolutionFailed, err, "fetching release from %s", url).
			WithHint("check network connectivity and the index URL")
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if rateLimitErr := checkRateLimit(resp, g.logger); rateLimitErr != nil {
		return nil, entities.WrapError(entities.KindResolutionFailed, rateLimitErr, "fetching release from %s", url).
			WithHint("set a bearer token to avoid anonymous rate limits")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, entities.NewError(entities.KindResolutionFailed,
			"release index returned HTTP %d for %s", resp.StatusCode, url).
			WithHint("verify the release tag exists")
	}

	var raw indexRelease
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, entities.WrapError(entities.KindResolutionFailed, err, "parsing release payload from %s", url)
	}
	if raw.TagName == "" {
		return nil, entities.NewError(entities.KindResolutionFailed,
			"release payload from %s carries no tag", url)
	}

	release := &entities.Release{Tag: raw.TagName, Assets: make([]entities.Asset, len(raw.Assets))}
	for i, a := range raw.Assets {
		release.Assets[i] = entities.Asset{Name: a.Name, DownloadURL: a.BrowserDownloadURL}
	}

	g.logger.Debug("resolved release",
		interfaces.F("tag", release.Tag),
		interfaces.F("assets", len(release.Assets)))

	return release, nil
}

// TokenFromEnv reads the bearer token from the named environment variable,
// falling back to the conventional GITHUB_TOKEN / GH_TOKEN pair.
func TokenFromEnv(name string) string {
	if name != "" {
		if tok := os.Getenv(name); tok != "" {
			return tok
		}
	}
	if tok := os.Getenv("GITHUB_TOKEN"); tok != "" {
		return tok
	}
	return os.Getenv("GH_TOKEN")
}

// checkRateLimit checks index rate limit headers and returns an error when
// the quota is exhausted.
func checkRateLimit(resp *http.Response, logger interfaces.Logger) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}

	remainingInt, err := strconv.Atoi(remaining)
	if err != nil {
		return nil
	}

	if remainingInt == 0 {
		resetTime := resp.Header.Get("X-RateLimit-Reset")
		if resetTime != "" {
			if resetUnix, err := strconv.ParseInt(resetTime, 10, 64); err == nil {
				resetAt := time.Unix(resetUnix, 0)
				return fmt.Errorf("release index rate limit exceeded (0 remaining), resets at %s", resetAt.Format(time.RFC3339))
			}
		}
		return fmt.Errorf("release index rate limit exceeded (0 remaining)")
	}

	if remainingInt <= 10 {
		logger.Warn("release index rate limit low", interfaces.F("remaining", remainingInt))
	}

	return nil
}
