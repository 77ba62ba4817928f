package gateways

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ochairo/decant/internal/domain/entities"
	"github.com/ochairo/decant/internal/domain/interfaces"
)

const releasePayload = `{
	"tag_name": "v7.5.10",
	"draft": false,
	"assets": [
		{"name": "app-7.5.10-osx-arm64.pkg", "browser_download_url": "https://dl.example.com/app-7.5.10-osx-arm64.pkg"},
		{"name": "app-7.5.10-osx-arm64.pkg.sha256", "browser_download_url": "https://dl.example.com/app-7.5.10-osx-arm64.pkg.sha256"}
	]
}`

func TestResolveLatest(t *testing.T) {
	var gotPath, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck // Test server write
		w.Write([]byte(releasePayload))
	}))
	defer server.Close()

	g := NewHTTPReleaseGateway(server.URL+"/repos/acme/app", "", &interfaces.NoOpLogger{})
	release, err := g.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if gotPath != "/repos/acme/app/releases/latest" {
		t.Errorf("request path = %s, want /repos/acme/app/releases/latest", gotPath)
	}
	if gotAccept != "application/vnd.github+json" {
		t.Errorf("Accept header = %s", gotAccept)
	}
	if release.Tag != "v7.5.10" {
		t.Errorf("release tag = %s, want v7.5.10", release.Tag)
	}
	if len(release.Assets) != 2 {
		t.Errorf("asset count = %d, want 2", len(release.Assets))
	}
}

func TestResolveSpecificTag(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		//nolint:errcheck // Test server write
		w.Write([]byte(releasePayload))
	}))
	defer server.Close()

	g := NewHTTPReleaseGateway(server.URL+"/repos/acme/app", "", &interfaces.NoOpLogger{})
	if _, err := g.Resolve(context.Background(), "v7.5.10"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if gotPath != "/repos/acme/app/releases/tags/v7.5.10" {
		t.Errorf("request path = %s, want /repos/acme/app/releases/tags/v7.5.10", gotPath)
	}
}

func TestResolveSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		//nolint:errcheck // Test server write
		w.Write([]byte(releasePayload))
	}))
	defer server.Close()

	g := NewHTTPReleaseGateway(server.URL, "secret-token", &interfaces.NoOpLogger{})
	if _, err := g.Resolve(context.Background(), ""); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization header = %q, want Bearer secret-token", gotAuth)
	}
}

func TestResolveNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	g := NewHTTPReleaseGateway(server.URL, "", &interfaces.NoOpLogger{})
	_, err := g.Resolve(context.Background(), "v0.0.0")
	if err == nil {
		t.Fatal("Resolve() should fail on HTTP 404")
	}
	if entities.KindOf(err) != entities.KindResolutionFailed {
		t.Errorf("error kind = %v, want %v", entities.KindOf(err), entities.KindResolutionFailed)
	}
}

func TestResolveDoesNotRetry(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	g := NewHTTPReleaseGateway(server.URL, "", &interfaces.NoOpLogger{})
	if _, err := g.Resolve(context.Background(), ""); err == nil {
		t.Fatal("Resolve() should fail on HTTP 503")
	}
	if requests != 1 {
		t.Errorf("resolution made %d requests, want exactly 1", requests)
	}
}

func TestResolveRateLimitExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	g := NewHTTPReleaseGateway(server.URL, "", &interfaces.NoOpLogger{})
	_, err := g.Resolve(context.Background(), "")
	if err == nil {
		t.Fatal("Resolve() should fail when rate limit is exhausted")
	}

	var engineErr *entities.EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("error = %T, want *entities.EngineError", err)
	}
	if engineErr.Hint == "" {
		t.Error("rate limit error should carry a token hint")
	}
}

func TestResolveEmptyTagInPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		//nolint:errcheck // Test server write
		w.Write([]byte(`{"assets": []}`))
	}))
	defer server.Close()

	g := NewHTTPReleaseGateway(server.URL, "", &interfaces.NoOpLogger{})
	if _, err := g.Resolve(context.Background(), ""); err == nil {
		t.Error("Resolve() should fail on a payload without a tag")
	}
}

func TestTokenFromEnv(t *testing.T) {
	t.Setenv("DECANT_TEST_TOKEN", "primary")
	t.Setenv("GITHUB_TOKEN", "fallback")
	t.Setenv("GH_TOKEN", "last")

	if got := TokenFromEnv("DECANT_TEST_TOKEN"); got != "primary" {
		t.Errorf("TokenFromEnv() = %q, want primary", got)
	}
	if got := TokenFromEnv("DECANT_UNSET_TOKEN"); got != "fallback" {
		t.Errorf("TokenFromEnv() fallback = %q, want fallback", got)
	}
	t.Setenv("GITHUB_TOKEN", "")
	if got := TokenFromEnv(""); got != "last" {
		t.Errorf("TokenFromEnv() = %q, want last", got)
	}
}
