// Package gateways defines contracts for external collaborators.
package gateways

import (
	"context"

	"github.com/ochairo/decant/internal/domain/entities"
)

// ReleaseGateway resolves release metadata from the hosted index.
// An empty tag resolves the latest stable release.
type ReleaseGateway interface {
	Resolve(ctx context.Context, tag string) (*entities.Release, error)
}

// ArtifactFetcher is the generic HTTP GET-to-file capability. Implementations
// own retry and resume semantics; the orchestrator never re-downloads on its
// own.
type ArtifactFetcher interface {
	// FetchFile downloads url to dest, retrying transient failures and
	// resuming partial transfers. dest never holds a partial download
	// under its final name.
	FetchFile(ctx context.Context, url, dest string) error
	// FetchText downloads a small text resource (checksum sidecars, keys).
	FetchText(ctx context.Context, url string) (string, error)
}
