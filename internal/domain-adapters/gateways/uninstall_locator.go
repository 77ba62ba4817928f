package gateways

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ochairo/decant/internal/domain/entities"
	"github.com/ochairo/decant/internal/domain/interfaces"
	igw "github.com/ochairo/decant/internal/domain/interfaces/gateways"
)

const registryQueryTimeout = 30 * time.Second

// FilesystemLocator finds an installed product by convention: the install
// root exists on disk. Used on platforms without a central install registry.
type FilesystemLocator struct {
	logger interfaces.Logger
}

// NewFilesystemLocator creates a new filesystem-convention locator
func NewFilesystemLocator(logger interfaces.Logger) *FilesystemLocator {
	return &FilesystemLocator{logger: logger}
}

// Locate reports the product's install root if it exists. A nil entry means
// nothing is installed.
func (l *FilesystemLocator) Locate(_ context.Context, product *entities.Product) (*igw.UninstallEntry, error) {
	root := product.Install.Root
	if root == "" {
		return nil, nil
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		l.logger.Debug("install root absent", interfaces.F("root", root))
		return nil, nil
	}
	return &igw.UninstallEntry{
		DisplayName: product.DisplayName,
		InstallRoot: root,
	}, nil
}

// RegistryLocator finds an installed product through the Windows uninstall
// registry, shelling out to reg query so the same code compiles everywhere.
type RegistryLocator struct {
	logger interfaces.Logger
}

// NewRegistryLocator creates a new registry-query locator
func NewRegistryLocator(logger interfaces.Logger) *RegistryLocator {
	return &RegistryLocator{logger: logger}
}

const uninstallKey = `HKLM\SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`

// Locate searches the uninstall registry for an entry whose display name
// contains the product's display name. A nil entry means nothing is
// installed; an absent reg binary also means nothing to uninstall.
func (l *RegistryLocator) Locate(ctx context.Context, product *entities.Product) (*igw.UninstallEntry, error) {
	if _, err := exec.LookPath("reg"); err != nil {
		l.logger.Debug("reg binary not available, skipping registry lookup")
		return nil, nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, registryQueryTimeout)
	defer cancel()

	cmd := exec.CommandContext(queryCtx, "reg", "query", uninstallKey, "/s", "/f", product.DisplayName, "/d")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		// reg query exits non-zero when no entry matches.
		l.logger.Debug("registry query found nothing", interfaces.F("product", product.DisplayName))
		return nil, nil
	}

	entry := parseRegistryEntry(out.String(), product)
	if entry == nil {
		return nil, nil
	}
	return entry, nil
}

// parseRegistryEntry extracts DisplayName and UninstallString values from
// reg query output. Values are "    Name    REG_SZ    value" lines.
func parseRegistryEntry(output string, product *entities.Product) *igw.UninstallEntry {
	entry := &igw.UninstallEntry{
		DisplayName: product.DisplayName,
		InstallRoot: product.Install.Root,
	}
	found := false
	for _, line := range strings.Split(output, "\n") {
		name, value, ok := parseRegistryValue(line)
		if !ok {
			continue
		}
		switch name {
		case "DisplayName":
			entry.DisplayName = value
			found = true
		case "UninstallString":
			entry.InvocationCommand = splitCommandLine(value)
			found = true
		case "InstallLocation":
			if value != "" {
				entry.InstallRoot = value
			}
		}
	}
	if !found {
		return nil
	}
	return entry
}

// parseRegistryValue splits a "Name REG_TYPE value" line from reg query.
func parseRegistryValue(line string) (name, value string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 || !strings.HasPrefix(fields[1], "REG_") {
		return "", "", false
	}
	idx := strings.Index(line, fields[1])
	value = strings.TrimSpace(line[idx+len(fields[1]):])
	return fields[0], value, true
}

// splitCommandLine splits an UninstallString into argv, honoring a quoted
// executable path.
func splitCommandLine(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if end := strings.Index(s[1:], `"`); end >= 0 {
			head := s[1 : end+1]
			rest := strings.Fields(s[end+2:])
			return append([]string{head}, rest...)
		}
	}
	return strings.Fields(s)
}
