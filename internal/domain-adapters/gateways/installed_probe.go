package gateways

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ochairo/decant/internal/domain/entities"
	"github.com/ochairo/decant/internal/domain/interfaces"
)

const probeTimeout = 15 * time.Second

// InstalledProbe derives the currently installed version by invoking the
// product's own version-reporting entry point. Nothing is persisted: the
// filesystem is the state, recomputed every run.
type InstalledProbe struct {
	logger interfaces.Logger
}

// NewInstalledProbe creates a new installed-version probe
func NewInstalledProbe(logger interfaces.Logger) *InstalledProbe {
	return &InstalledProbe{logger: logger}
}

// ProbeVersion returns the installed version, or "" when the product is not
// installed. Absence of the binary is not an error.
func (ip *InstalledProbe) ProbeVersion(ctx context.Context, product *entities.Product) (string, error) {
	binary := ip.resolveBinary(product)
	if binary == "" {
		ip.logger.Debug("product not installed", interfaces.F("product", product.Name))
		return "", nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	args := product.Install.VersionArgs
	if len(args) == 0 {
		args = []string{"--version"}
	}

	//nolint:gosec // G204: binary path comes from the product definition
	cmd := exec.CommandContext(probeCtx, binary, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		// A binary that exists but cannot report its version is treated
		// as not installed rather than failing the run.
		ip.logger.Warn("version probe failed",
			interfaces.F("binary", binary),
			interfaces.F("error", err))
		return "", nil
	}

	version := extractVersion(out.String(), product.Install.VersionPattern)
	ip.logger.Debug("probed installed version",
		interfaces.F("product", product.Name),
		interfaces.F("version", version))
	return version, nil
}

// resolveBinary locates the product executable: launcher path first, then
// the install root, then PATH. Empty means not installed.
func (ip *InstalledProbe) resolveBinary(product *entities.Product) string {
	if launcher := product.Install.LauncherPath; launcher != "" {
		if _, err := os.Stat(launcher); err == nil {
			return launcher
		}
	}
	if root := product.Install.Root; root != "" && product.Install.BinaryName != "" {
		candidate := filepath.Join(root, product.Install.BinaryName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if product.Install.BinaryName != "" {
		if path, err := exec.LookPath(product.Install.BinaryName); err == nil {
			return path
		}
	}
	return ""
}

// extractVersion pulls the version out of probe output using the product's
// pattern; the first capture group wins when present, otherwise the full
// match. Without a pattern the whole trimmed output is the version.
func extractVersion(output, pattern string) string {
	output = strings.TrimSpace(output)
	if pattern == "" {
		return output
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return output
	}
	matches := re.FindStringSubmatch(output)
	if len(matches) == 0 {
		return output
	}
	if len(matches) > 1 && matches[1] != "" {
		return matches[1]
	}
	return matches[0]
}
