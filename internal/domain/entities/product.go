package entities

import (
	"fmt"
	"runtime"
)

// Product describes an installable product: where its releases are indexed,
// how its artifacts are named per platform, and where it lives on disk once
// installed. Loaded from a YAML definition and never mutated afterwards.
type Product struct {
	Name         string
	DisplayName  string
	Index        IndexConfig
	Install      InstallConfig
	Platforms    map[string]PlatformTarget
	Signature    SignatureConfig
	UserDataDirs []string
}

// PlatformKey is the lookup key for the running platform, e.g. "darwin-arm64".
func PlatformKey() string {
	return fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH)
}

// CurrentTarget returns the platform target for the running platform.
func (p *Product) CurrentTarget() (PlatformTarget, bool) {
	target, ok := p.Platforms[PlatformKey()]
	return target, ok
}

// IndexConfig points at the hosted release index for the product.
type IndexConfig struct {
	// BaseURL is the release index root, e.g.
	// "https://api.github.com/repos/ochairo/decant".
	BaseURL string
	// TokenEnv names an environment variable holding an optional bearer
	// token. Empty means anonymous requests.
	TokenEnv string
}

// InstallConfig describes the on-disk shape of an installed product.
type InstallConfig struct {
	// Root is the directory the product installs into.
	Root string
	// LauncherPath is the symlink (or shortcut) pointing into Root.
	LauncherPath string
	// BinaryName is the executable probed for the installed version.
	BinaryName string
	// VersionArgs are passed to the binary to make it report its version.
	VersionArgs []string
	// VersionPattern is a regex extracting the version from probe output.
	// Empty means the whole trimmed output is the version.
	VersionPattern string
}

// Mechanism identifies the platform-specific apply step for an artifact.
type Mechanism string

// Apply mechanisms supported by the engine.
const (
	MechanismPkg     Mechanism = "pkg"     // macOS installer package
	MechanismArchive Mechanism = "archive" // tar.gz extracted under Root
	MechanismMsi     Mechanism = "msi"     // Windows installer database
)

// PlatformTarget binds artifact-name matching rules to an apply mechanism
// for one platform key (e.g. "darwin-arm64").
type PlatformTarget struct {
	Platform
	Mechanism Mechanism
}

// SignatureConfig selects the signature verification mechanism, if any.
type SignatureConfig struct {
	// Method is "gpg", "minisign", "cosign" or "" for none.
	Method string
	// KeyPath is the local public key file for gpg/minisign.
	KeyPath string
	// SidecarSuffix is appended to the artifact name to locate the
	// signature asset (e.g. ".asc", ".minisig", ".sig").
	SidecarSuffix string
}
