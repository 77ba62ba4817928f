package gateways

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ochairo/decant/internal/domain/entities"
	"github.com/ochairo/decant/internal/domain/interfaces"
)

const applyTimeout = 30 * time.Minute

// Applier hands a verified artifact to the platform install mechanism. The
// artifact is already on disk and integrity-checked; from here on a failure
// is ApplyFailed.
type Applier struct {
	logger interfaces.Logger
}

// NewApplier creates a new install applier
func NewApplier(logger interfaces.Logger) *Applier {
	return &Applier{logger: logger}
}

// Apply installs artifactPath using the mechanism the product defines for
// the current platform.
func (a *Applier) Apply(ctx context.Context, artifactPath string, product *entities.Product) error {
	target, ok := product.CurrentTarget()
	if !ok {
		return entities.NewError(entities.KindApplyFailed, "product %s has no target for this platform", product.Name)
	}

	a.logger.Info("applying artifact",
		interfaces.F("artifact", filepath.Base(artifactPath)),
		interfaces.F("mechanism", string(target.Mechanism)))

	switch target.Mechanism {
	case entities.MechanismPkg:
		return a.runInstaller(ctx, "installer", "-pkg", artifactPath, "-target", "/")
	case entities.MechanismMsi:
		return a.runInstaller(ctx, "msiexec", "/i", artifactPath, "/qn", "/norestart")
	case entities.MechanismArchive:
		return a.applyArchive(artifactPath, product)
	default:
		return entities.NewError(entities.KindApplyFailed, "unknown install mechanism %q", target.Mechanism)
	}
}

// Invoke runs a discovered uninstaller command under the same exit-code
// handling as installs.
func (a *Applier) Invoke(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return entities.NewError(entities.KindApplyFailed, "empty uninstall command")
	}
	return a.runInstaller(ctx, argv[0], argv[1:]...)
}

// runInstaller executes a platform installer and surfaces its exit code
// verbatim; the engine never reinterprets installer failures.
func (a *Applier) runInstaller(ctx context.Context, name string, args ...string) error {
	execCtx, cancel := context.WithTimeout(ctx, applyTimeout)
	defer cancel()

	//nolint:gosec // G204: installer name is fixed, args come from engine-controlled paths
	cmd := exec.CommandContext(execCtx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	a.logger.Debug("running installer", interfaces.F("command", name), interfaces.F("args", strings.Join(args, " ")))

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		return entities.NewError(entities.KindApplyFailed,
			"%s exited with code %d: %s", name, exitErr.ExitCode(), detail)
	}
	if execCtx.Err() == context.DeadlineExceeded {
		return entities.NewError(entities.KindApplyFailed, "%s timed out after %v", name, applyTimeout)
	}
	return entities.WrapError(entities.KindApplyFailed, err, "failed to run %s", name)
}

// applyArchive unpacks a tar.gz artifact into the product's install root and
// relinks the launcher to the new binary.
func (a *Applier) applyArchive(artifactPath string, product *entities.Product) error {
	root := product.Install.Root
	if root == "" {
		return entities.NewError(entities.KindApplyFailed, "product %s defines no install root for archives", product.Name)
	}
	if err := os.MkdirAll(root, 0750); err != nil {
		return entities.WrapError(entities.KindApplyFailed, err, "failed to create install root %s", root)
	}

	if err := extractTarGz(artifactPath, root); err != nil {
		return entities.WrapError(entities.KindApplyFailed, err, "failed to extract %s", filepath.Base(artifactPath))
	}

	if launcher := product.Install.LauncherPath; launcher != "" && product.Install.BinaryName != "" {
		binary := filepath.Join(root, product.Install.BinaryName)
		if err := relink(binary, launcher); err != nil {
			return entities.WrapError(entities.KindApplyFailed, err, "failed to link launcher %s", launcher)
		}
		a.logger.Debug("launcher relinked", interfaces.F("launcher", launcher), interfaces.F("target", binary))
	}

	a.logger.Info("archive installed", interfaces.F("root", root))
	return nil
}

// extractTarGz unpacks a gzipped tar archive into destDir, rejecting entries
// that would escape it.
func extractTarGz(archivePath, destDir string) error {
	//nolint:gosec // G304: archive path is engine-controlled
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to open gzip stream: %w", err)
	}
	//nolint:errcheck // Defer close on gzip reader
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry: %w", err)
		}

		//nolint:gosec // G305: path traversal is rejected below
		target := filepath.Join(destDir, header.Name)
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes destination", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0750); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", target, err)
			}
			//nolint:gosec // G304: target is confined to destDir above
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode)&0755)
			if err != nil {
				return fmt.Errorf("failed to create file %s: %w", target, err)
			}
			//nolint:gosec // G110: release artifacts are trusted after integrity verification
			if _, err := io.Copy(out, tarReader); err != nil {
				//nolint:errcheck // Close on error path
				out.Close()
				return fmt.Errorf("failed to write file %s: %w", target, err)
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("failed to close file %s: %w", target, err)
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", target, err)
			}
			_ = os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("failed to create symlink %s: %w", target, err)
			}
		}
	}
	return nil
}

// relink points launcher at target atomically enough for a single-user
// machine: remove then recreate.
func relink(target, launcher string) error {
	if err := os.MkdirAll(filepath.Dir(launcher), 0750); err != nil {
		return err
	}
	if err := os.Remove(launcher); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Symlink(target, launcher)
}
