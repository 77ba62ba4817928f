package gateways

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ochairo/decant/internal/domain/entities"
	"github.com/ochairo/decant/internal/domain/interfaces"
)

// fakeBinary drops an executable shell script that prints output and exits.
func fakeBinary(t *testing.T, dir, name, output string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures require a POSIX shell")
	}
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\nprintf '%s' '" + output + "'\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write fake binary: %v", err)
	}
	return path
}

func TestProbeVersionNotInstalled(t *testing.T) {
	product := &entities.Product{
		Name: "app",
		Install: entities.InstallConfig{
			Root:       filepath.Join(t.TempDir(), "missing"),
			BinaryName: "decant-test-binary-that-does-not-exist",
		},
	}

	probe := NewInstalledProbe(&interfaces.NoOpLogger{})
	version, err := probe.ProbeVersion(context.Background(), product)
	if err != nil {
		t.Fatalf("ProbeVersion() error = %v", err)
	}
	if version != "" {
		t.Errorf("ProbeVersion() = %q, want empty for an uninstalled product", version)
	}
}

func TestProbeVersionFromLauncher(t *testing.T) {
	dir := t.TempDir()
	launcher := fakeBinary(t, dir, "app", "app version 7.5.10 (build 42)")

	product := &entities.Product{
		Name: "app",
		Install: entities.InstallConfig{
			LauncherPath:   launcher,
			VersionArgs:    []string{"--version"},
			VersionPattern: `version (\d+\.\d+\.\d+)`,
		},
	}

	probe := NewInstalledProbe(&interfaces.NoOpLogger{})
	version, err := probe.ProbeVersion(context.Background(), product)
	if err != nil {
		t.Fatalf("ProbeVersion() error = %v", err)
	}
	if version != "7.5.10" {
		t.Errorf("ProbeVersion() = %q, want 7.5.10", version)
	}
}

func TestProbeVersionWholeOutputWithoutPattern(t *testing.T) {
	dir := t.TempDir()
	launcher := fakeBinary(t, dir, "app", "1.2.3")

	product := &entities.Product{
		Name:    "app",
		Install: entities.InstallConfig{LauncherPath: launcher},
	}

	probe := NewInstalledProbe(&interfaces.NoOpLogger{})
	version, err := probe.ProbeVersion(context.Background(), product)
	if err != nil {
		t.Fatalf("ProbeVersion() error = %v", err)
	}
	if version != "1.2.3" {
		t.Errorf("ProbeVersion() = %q, want 1.2.3", version)
	}
}

func TestProbeVersionBinaryUnderRoot(t *testing.T) {
	root := t.TempDir()
	fakeBinary(t, root, "app", "v9.0.1")

	product := &entities.Product{
		Name: "app",
		Install: entities.InstallConfig{
			Root:       root,
			BinaryName: "app",
		},
	}

	probe := NewInstalledProbe(&interfaces.NoOpLogger{})
	version, err := probe.ProbeVersion(context.Background(), product)
	if err != nil {
		t.Fatalf("ProbeVersion() error = %v", err)
	}
	if version != "v9.0.1" {
		t.Errorf("ProbeVersion() = %q, want v9.0.1", version)
	}
}

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		pattern string
		want    string
	}{
		{"capture group", "app 7.5.4 stable", `app (\S+)`, "7.5.4"},
		{"full match without group", "7.5.4", `\d+\.\d+\.\d+`, "7.5.4"},
		{"no pattern trims output", "  1.0.0\n", "", "1.0.0"},
		{"pattern misses", "unexpected output", `version (\d+)`, "unexpected output"},
		{"invalid pattern falls back", "1.2.3", `version (`, "1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractVersion(tt.output, tt.pattern); got != tt.want {
				t.Errorf("extractVersion(%q, %q) = %q, want %q", tt.output, tt.pattern, got, tt.want)
			}
		})
	}
}
