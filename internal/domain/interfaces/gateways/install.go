package gateways

import (
	"context"

	"github.com/ochairo/decant/internal/domain/entities"
)

// Applier is the platform-specific mechanism that mutates the system: a
// package installer, an archive extractor, or an installer database runner.
// The engine hands it a verified local artifact and interprets the exit code.
type Applier interface {
	// Apply installs the artifact into the product's install root.
	// A non-zero installer exit code is returned as an ApplyFailed error
	// with the code surfaced verbatim.
	Apply(ctx context.Context, artifactPath string, product *entities.Product) error
}

// UninstallEntry is the normalized record an UninstallLocator returns.
type UninstallEntry struct {
	DisplayName string
	// InvocationCommand removes the install when executed. The first
	// element is the program, the rest are its arguments.
	InvocationCommand []string
	// InstallRoot is the directory tree the command removes, when known.
	InstallRoot string
}

// UninstallLocator discovers how an installed product can be removed.
// Implementations are platform-specific: filesystem-convention scanning on
// Unix, registry queries on Windows.
type UninstallLocator interface {
	// Locate returns nil (not an error) when nothing is installed.
	Locate(ctx context.Context, product *entities.Product) (*UninstallEntry, error)
}
