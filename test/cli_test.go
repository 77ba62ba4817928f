package test_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// buildCLI builds the decant CLI binary for testing
func buildCLI(t *testing.T) string {
	t.Helper()

	buildDir := filepath.Join("..", "test-dist", "cli-bin")
	if err := os.MkdirAll(buildDir, 0750); err != nil {
		t.Fatalf("Failed to create build dir: %v", err)
	}

	cliPath := filepath.Join(buildDir, "decant")
	if runtime.GOOS == "windows" {
		cliPath += ".exe"
	}

	// Check if already built
	if _, err := os.Stat(cliPath); err == nil {
		return cliPath
	}

	cmd := exec.Command("go", "build", "-o", cliPath, "../cmd/decant") // #nosec G204 -- test code with controlled input
	cmd.Dir = "."
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build CLI: %v\nOutput: %s", err, output)
	}

	return cliPath
}

// writeProduct drops a product definition pointing at the given index URL.
func writeProduct(t *testing.T, dir, indexURL string) {
	t.Helper()
	definition := `
name: app
display_name: App
index:
  base_url: ` + indexURL + `
install:
  root: ` + filepath.Join(dir, "install-root") + `
  binary_name: app
platforms:
  ` + runtime.GOOS + "-" + runtime.GOARCH + `:
    arch_token: ` + runtime.GOARCH + `
    suffix: .tar.gz
    mechanism: archive
`
	if err := os.WriteFile(filepath.Join(dir, "app.yml"), []byte(definition), 0600); err != nil {
		t.Fatalf("Failed to write product definition: %v", err)
	}
}

// TestCLI_Help tests help output for all commands
func TestCLI_Help(t *testing.T) {
	cliPath := buildCLI(t)

	commands := []string{"", "install", "uninstall", "list"}
	for _, cmd := range commands {
		t.Run("help_"+cmd, func(t *testing.T) {
			args := []string{"--help"}
			if cmd != "" {
				args = []string{cmd, "--help"}
			}

			execCmd := exec.Command(cliPath, args...) // #nosec G204 -- test code with controlled input
			output, err := execCmd.CombinedOutput()

			// Help exits 0, usage errors exit 2
			if err != nil {
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					if exitErr.ExitCode() != 2 {
						t.Errorf("Help exited with code %d: %s", exitErr.ExitCode(), output)
					}
				} else {
					t.Fatalf("Failed to run CLI: %v", err)
				}
			}

			if !strings.Contains(string(output), "decant") {
				t.Errorf("Help output missing program name: %s", output)
			}
		})
	}
}

// TestCLI_UnknownCommand tests rejection of unknown subcommands
func TestCLI_UnknownCommand(t *testing.T) {
	cliPath := buildCLI(t)

	execCmd := exec.Command(cliPath, "frobnicate") // #nosec G204 -- test code with controlled input
	output, err := execCmd.CombinedOutput()
	if err == nil {
		t.Fatal("Unknown command should exit non-zero")
	}
	if !strings.Contains(string(output), "Unknown command") {
		t.Errorf("Output should name the unknown command: %s", output)
	}
}

// TestCLI_List tests listing product definitions
func TestCLI_List(t *testing.T) {
	cliPath := buildCLI(t)
	productsDir := t.TempDir()
	writeProduct(t, productsDir, "https://index.invalid/repos/acme/app")

	execCmd := exec.Command(cliPath, "list", "--products-dir", productsDir) // #nosec G204 -- test code with controlled input
	output, err := execCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("list failed: %v\n%s", err, output)
	}
	if !strings.Contains(string(output), "app") {
		t.Errorf("list output missing product: %s", output)
	}
}

// TestCLI_InstallDryRun exercises resolution and selection end to end
// against a local release index, with no side effects.
func TestCLI_InstallDryRun(t *testing.T) {
	cliPath := buildCLI(t)

	assetName := "app-1.2.3-" + runtime.GOARCH + ".tar.gz"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/releases/latest") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck // Test server write
		w.Write([]byte(`{"tag_name":"v1.2.3","assets":[{"name":"` + assetName + `","browser_download_url":"` + "http://127.0.0.1/unused" + `"}]}`))
	}))
	defer server.Close()

	productsDir := t.TempDir()
	writeProduct(t, productsDir, server.URL+"/repos/acme/app")

	execCmd := exec.Command(cliPath, "install", "app", "--products-dir", productsDir, "--dry-run") // #nosec G204 -- test code with controlled input
	output, err := execCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("install --dry-run failed: %v\n%s", err, output)
	}
	if !strings.Contains(string(output), "v1.2.3") || !strings.Contains(string(output), assetName) {
		t.Errorf("dry run should report tag and selected asset: %s", output)
	}
	if _, err := os.Stat(filepath.Join(productsDir, "install-root")); !os.IsNotExist(err) {
		t.Error("dry run must not create the install root")
	}
}

// TestCLI_UninstallNothingInstalled tests the nothing-to-uninstall outcome
func TestCLI_UninstallNothingInstalled(t *testing.T) {
	cliPath := buildCLI(t)
	productsDir := t.TempDir()
	writeProduct(t, productsDir, "https://index.invalid/repos/acme/app")

	execCmd := exec.Command(cliPath, "uninstall", "app", "--products-dir", productsDir) // #nosec G204 -- test code with controlled input
	output, err := execCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("uninstall failed: %v\n%s", err, output)
	}
	if !strings.Contains(string(output), "not installed") {
		t.Errorf("output should report nothing installed: %s", output)
	}
}
