// Package orchestrators coordinates complete workflows across domain
// services and gateways.
package orchestrators

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ochairo/decant/internal/domain/entities"
	"github.com/ochairo/decant/internal/domain/interfaces"
	"github.com/ochairo/decant/internal/domain/interfaces/gateways"
	"github.com/ochairo/decant/internal/domain/interfaces/repositories"
	"github.com/ochairo/decant/internal/domain/services"
)

// InstalledProbe reports the currently installed version of a product, or
// "" when nothing is installed.
type InstalledProbe interface {
	ProbeVersion(ctx context.Context, product *entities.Product) (string, error)
}

// Preflight runs the cheap guards before the engine commits to a transfer.
type Preflight interface {
	CheckConnectivity(ctx context.Context, url string) error
	CheckDiskSpace(path string, required uint64) error
}

// CommandRunner executes an uninstaller command discovered by a locator.
type CommandRunner interface {
	Invoke(ctx context.Context, argv []string) error
}

// Outcome classifies how a run ended. AlreadyCurrent and NothingToUninstall
// are successful outcomes, not errors.
type Outcome string

// Run outcomes.
const (
	OutcomeInstalled          Outcome = "installed"
	OutcomeAlreadyCurrent     Outcome = "already-current"
	OutcomeDryRun             Outcome = "dry-run"
	OutcomeUninstalled        Outcome = "uninstalled"
	OutcomeNothingToUninstall Outcome = "nothing-to-uninstall"
)

// Options holds per-run flags. Immutable once the run starts.
type Options struct {
	// Tag pins a specific release; empty resolves the latest stable.
	Tag string
	// OutputDir hosts the ephemeral work directory. Setting it also
	// retains the downloaded artifact there, like KeepArtifact.
	OutputDir string
	// KeepArtifact preserves the downloaded artifact after the install.
	KeepArtifact bool
	// Force reinstalls even when the installed version is current.
	Force bool
	// SkipChecksum bypasses integrity verification.
	SkipChecksum bool
	// DryRun stops after resolution and selection with no side effects.
	DryRun bool
}

// Result describes a finished run.
type Result struct {
	Outcome          Outcome
	Product          string
	Tag              string
	InstalledVersion string
	AssetName        string
	// ArtifactPath is set when the artifact was kept on disk.
	ArtifactPath string
	Checksum     gateways.VerificationStatus
	Signature    gateways.Trust
	// UserDataDirs lists directories deliberately left behind by uninstall.
	UserDataDirs []string
	Duration     time.Duration
}

// InstallOrchestrator drives the resolve-verify-apply workflow. It owns the
// ordering and the cleanup guarantees; all I/O happens behind the
// collaborator interfaces.
type InstallOrchestrator struct {
	products  repositories.ProductRepository
	resolver  gateways.ReleaseGateway
	fetcher   gateways.ArtifactFetcher
	integrity gateways.IntegrityVerifier
	signature gateways.SignatureVerifier
	applier   gateways.Applier
	locator   gateways.UninstallLocator
	runner    CommandRunner
	probe     InstalledProbe
	preflight Preflight
	logger    interfaces.Logger
}

// InstallOrchestratorConfig wires the orchestrator's collaborators.
// Signature and Runner may be nil; the corresponding steps degrade to a
// warning and a direct tree removal respectively.
type InstallOrchestratorConfig struct {
	Products  repositories.ProductRepository
	Resolver  gateways.ReleaseGateway
	Fetcher   gateways.ArtifactFetcher
	Integrity gateways.IntegrityVerifier
	Signature gateways.SignatureVerifier
	Applier   gateways.Applier
	Locator   gateways.UninstallLocator
	Runner    CommandRunner
	Probe     InstalledProbe
	Preflight Preflight
	Logger    interfaces.Logger
}

// NewInstallOrchestrator creates a new install orchestrator
func NewInstallOrchestrator(cfg InstallOrchestratorConfig) *InstallOrchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &InstallOrchestrator{
		products:  cfg.Products,
		resolver:  cfg.Resolver,
		fetcher:   cfg.Fetcher,
		integrity: cfg.Integrity,
		signature: cfg.Signature,
		applier:   cfg.Applier,
		locator:   cfg.Locator,
		runner:    cfg.Runner,
		probe:     cfg.Probe,
		preflight: cfg.Preflight,
		logger:    logger,
	}
}

// minDiskSpace is the free-space floor required before a download starts.
const minDiskSpace = 500 * 1024 * 1024

// Install runs the full workflow for one product. The returned Result is
// valid whenever err is nil, including the AlreadyCurrent and DryRun
// outcomes.
func (o *InstallOrchestrator) Install(ctx context.Context, productName string, opts Options) (*Result, error) {
	start := time.Now()

	product, err := o.products.GetProduct(ctx, productName)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", productName, err)
	}
	target, ok := product.CurrentTarget()
	if !ok {
		return nil, entities.NewError(entities.KindNotFound,
			"product %s has no artifact rules for platform %s", productName, entities.PlatformKey())
	}

	installed, err := o.probe.ProbeVersion(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("failed to probe installed version: %w", err)
	}

	// Connectivity is checked before resolution so an offline machine fails
	// with a precise cause instead of a generic HTTP error.
	if err := o.preflight.CheckConnectivity(ctx, product.Index.BaseURL); err != nil {
		return nil, err
	}

	release, err := o.resolver.Resolve(ctx, opts.Tag)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Product:          productName,
		Tag:              release.Tag,
		InstalledVersion: installed,
	}

	// Idempotency gate: the filesystem is the state. Nothing is downloaded
	// when the installed version already matches the target.
	if installed != "" && services.CompareVersions(installed, release.Tag) == services.Equal && !opts.Force {
		o.logger.Info("already current",
			interfaces.F("product", productName),
			interfaces.F("version", installed))
		result.Outcome = OutcomeAlreadyCurrent
		result.Duration = time.Since(start)
		return result, nil
	}

	selection, err := services.SelectAsset(release, target.Platform, product.Name)
	if err != nil {
		return nil, err
	}
	result.AssetName = selection.Asset.Name

	if opts.DryRun {
		o.logger.Info("dry run, stopping before any side effect",
			interfaces.F("asset", selection.Asset.Name),
			interfaces.F("tag", release.Tag))
		result.Outcome = OutcomeDryRun
		result.Duration = time.Since(start)
		return result, nil
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = os.TempDir()
	}
	if err := o.preflight.CheckDiskSpace(outputDir, minDiskSpace); err != nil {
		return nil, err
	}

	// Each run gets its own work directory so concurrent or interrupted
	// runs never trip over each other's files. The deferred removal is the
	// cleanup guarantee for every exit path below, error or not.
	workDir := filepath.Join(outputDir, "decant-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			o.logger.Warn("failed to remove work directory", interfaces.F("dir", workDir))
		}
	}()

	artifactPath := filepath.Join(workDir, selection.Asset.Name)
	o.removeStale(artifactPath)

	o.logger.Info("downloading artifact",
		interfaces.F("asset", selection.Asset.Name),
		interfaces.F("tag", release.Tag))
	if err := o.fetcher.FetchFile(ctx, selection.Asset.DownloadURL, artifactPath); err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", selection.Asset.Name, err)
	}

	result.Checksum, err = o.verifyIntegrity(ctx, artifactPath, selection, opts)
	if err != nil {
		return nil, err
	}

	result.Signature, err = o.verifySignature(ctx, artifactPath, release, selection, product)
	if err != nil {
		return nil, err
	}

	if err := o.applier.Apply(ctx, artifactPath, product); err != nil {
		return nil, err
	}

	o.confirmInstall(ctx, product, release.Tag)

	// An explicit output directory retains the artifact just like
	// KeepArtifact; only fully-default runs clean up everything.
	if opts.KeepArtifact || opts.OutputDir != "" {
		kept := filepath.Join(outputDir, selection.Asset.Name)
		o.removeStale(kept)
		if err := os.Rename(artifactPath, kept); err != nil {
			o.logger.Warn("failed to keep artifact", interfaces.F("error", err))
		} else {
			result.ArtifactPath = kept
		}
	}

	result.Outcome = OutcomeInstalled
	result.Duration = time.Since(start)
	o.logger.Info("install complete",
		interfaces.F("product", productName),
		interfaces.F("tag", release.Tag),
		interfaces.F("duration", result.Duration.Round(time.Millisecond)))
	return result, nil
}

// verifyIntegrity downloads the checksum sidecar, when published, and checks
// the artifact against it. The skip paths are loud on purpose.
func (o *InstallOrchestrator) verifyIntegrity(ctx context.Context, artifactPath string, selection *entities.Selection, opts Options) (gateways.VerificationStatus, error) {
	if opts.SkipChecksum {
		o.logger.Warn("checksum verification bypassed by request",
			interfaces.F("artifact", filepath.Base(artifactPath)))
		return gateways.VerificationSkipped, nil
	}

	sidecarPath := ""
	if selection.HasChecksum() {
		sidecar, err := o.fetcher.FetchText(ctx, selection.Checksum.DownloadURL)
		if err != nil {
			return "", fmt.Errorf("failed to download checksum sidecar: %w", err)
		}
		sidecarPath = artifactPath + ".sha256"
		if err := os.WriteFile(sidecarPath, []byte(sidecar), 0600); err != nil {
			return "", fmt.Errorf("failed to write checksum sidecar: %w", err)
		}
	}

	return o.integrity.Verify(artifactPath, sidecarPath)
}

// verifySignature checks the artifact's detached signature when the product
// configures a mechanism. Untrusted is fatal; Unknown degrades to a warning
// so a missing key never blocks an install silently claiming trust.
func (o *InstallOrchestrator) verifySignature(ctx context.Context, artifactPath string, release *entities.Release, selection *entities.Selection, product *entities.Product) (gateways.Trust, error) {
	if product.Signature.Method == "" {
		return "", nil
	}
	if o.signature == nil {
		o.logger.Warn("signature verification configured but no verifier wired",
			interfaces.F("method", product.Signature.Method))
		return gateways.Unknown, nil
	}

	sigName := selection.Asset.Name + product.Signature.SidecarSuffix
	var sigAsset *entities.Asset
	for i := range release.Assets {
		if release.Assets[i].Name == sigName {
			sigAsset = &release.Assets[i]
			break
		}
	}
	if sigAsset == nil {
		o.logger.Warn("signature asset not published", interfaces.F("expected", sigName))
		return gateways.Unknown, nil
	}

	sigPath := artifactPath + product.Signature.SidecarSuffix
	if err := o.fetcher.FetchFile(ctx, sigAsset.DownloadURL, sigPath); err != nil {
		return "", fmt.Errorf("failed to download signature: %w", err)
	}

	trust, err := o.signature.Verify(ctx, artifactPath, sigPath)
	if err != nil {
		return "", fmt.Errorf("signature verification failed: %w", err)
	}
	switch trust {
	case gateways.Untrusted:
		return trust, entities.NewError(entities.KindUntrustedSignature,
			"signature for %s does not verify against the trusted key", filepath.Base(artifactPath)).
			WithHint("the artifact may be corrupted or tampered with; do not install it")
	case gateways.Unknown:
		o.logger.Warn("signature could not be verified",
			interfaces.F("artifact", filepath.Base(artifactPath)))
	case gateways.Trusted:
		o.logger.Info("signature verified", interfaces.F("artifact", filepath.Base(artifactPath)))
	}
	return trust, nil
}

// confirmInstall re-probes the installed version after apply. A mismatch is
// reported but never fails the run: the installer already exited zero.
func (o *InstallOrchestrator) confirmInstall(ctx context.Context, product *entities.Product, tag string) {
	version, err := o.probe.ProbeVersion(ctx, product)
	if err != nil || version == "" {
		o.logger.Warn("could not confirm installed version after apply",
			interfaces.F("product", product.Name))
		return
	}
	if services.CompareVersions(version, tag) != services.Equal {
		o.logger.Warn("installed version does not match the applied release",
			interfaces.F("probed", version),
			interfaces.F("tag", tag))
	}
}

// removeStale deletes a leftover file under a final artifact name so a
// previous aborted run can never masquerade as a fresh download.
func (o *InstallOrchestrator) removeStale(path string) {
	if _, err := os.Stat(path); err == nil {
		o.logger.Debug("removing stale artifact", interfaces.F("path", path))
		if err := os.Remove(path); err != nil {
			o.logger.Warn("failed to remove stale artifact", interfaces.F("path", path))
		}
	}
}

// Uninstall removes an installed product. User data directories are
// reported, never deleted.
func (o *InstallOrchestrator) Uninstall(ctx context.Context, productName string) (*Result, error) {
	start := time.Now()

	product, err := o.products.GetProduct(ctx, productName)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", productName, err)
	}

	result := &Result{Product: productName}

	entry, err := o.locator.Locate(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("failed to locate installed product: %w", err)
	}
	if entry == nil {
		o.logger.Info("nothing to uninstall", interfaces.F("product", productName))
		result.Outcome = OutcomeNothingToUninstall
		result.Duration = time.Since(start)
		return result, nil
	}

	if len(entry.InvocationCommand) > 0 && o.runner != nil {
		o.logger.Info("running platform uninstaller",
			interfaces.F("command", strings.Join(entry.InvocationCommand, " ")))
		if err := o.runner.Invoke(ctx, entry.InvocationCommand); err != nil {
			return nil, err
		}
	} else if entry.InstallRoot != "" {
		o.logger.Info("removing install root", interfaces.F("root", entry.InstallRoot))
		if err := os.RemoveAll(entry.InstallRoot); err != nil {
			return nil, entities.WrapError(entities.KindApplyFailed, err,
				"failed to remove install root %s", entry.InstallRoot)
		}
	}

	o.removeLauncher(product, entry.InstallRoot)
	pruneEmptyParent(entry.InstallRoot)

	// User data stays. Listing it keeps the removal honest.
	for _, dir := range product.UserDataDirs {
		if _, err := os.Stat(dir); err == nil {
			result.UserDataDirs = append(result.UserDataDirs, dir)
			o.logger.Info("user data left in place", interfaces.F("dir", dir))
		}
	}

	result.Outcome = OutcomeUninstalled
	result.Duration = time.Since(start)
	return result, nil
}

// removeLauncher deletes the launcher symlink only when it points into the
// removed tree; a launcher owned by another install is left alone.
func (o *InstallOrchestrator) removeLauncher(product *entities.Product, removedRoot string) {
	launcher := product.Install.LauncherPath
	if launcher == "" || removedRoot == "" {
		return
	}
	target, err := os.Readlink(launcher)
	if err != nil {
		return
	}
	if !strings.HasPrefix(target, filepath.Clean(removedRoot)+string(os.PathSeparator)) &&
		target != filepath.Clean(removedRoot) {
		return
	}
	if err := os.Remove(launcher); err != nil {
		o.logger.Warn("failed to remove launcher", interfaces.F("launcher", launcher))
		return
	}
	o.logger.Info("launcher removed", interfaces.F("launcher", launcher))
}

// pruneEmptyParent removes the now-empty parent directory of the install
// root, best effort. os.Remove refuses non-empty directories, which is
// exactly the safety needed here.
func pruneEmptyParent(root string) {
	if root == "" {
		return
	}
	parent := filepath.Dir(filepath.Clean(root))
	if parent == "/" || parent == "." {
		return
	}
	//nolint:errcheck // Non-empty parents are left alone on purpose
	os.Remove(parent)
}
