package gateways

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ochairo/decant/internal/domain/entities"
	"github.com/ochairo/decant/internal/domain/interfaces"
)

func TestFilesystemLocatorInstalled(t *testing.T) {
	root := t.TempDir()
	product := &entities.Product{
		Name:        "app",
		DisplayName: "App",
		Install:     entities.InstallConfig{Root: root},
	}

	l := NewFilesystemLocator(&interfaces.NoOpLogger{})
	entry, err := l.Locate(context.Background(), product)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if entry == nil {
		t.Fatal("Locate() = nil, want an entry for an existing install root")
	}
	if entry.InstallRoot != root {
		t.Errorf("entry root = %s, want %s", entry.InstallRoot, root)
	}
	if entry.DisplayName != "App" {
		t.Errorf("entry display name = %s, want App", entry.DisplayName)
	}
}

func TestFilesystemLocatorNotInstalled(t *testing.T) {
	product := &entities.Product{
		Name:    "app",
		Install: entities.InstallConfig{Root: filepath.Join(t.TempDir(), "absent")},
	}

	l := NewFilesystemLocator(&interfaces.NoOpLogger{})
	entry, err := l.Locate(context.Background(), product)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if entry != nil {
		t.Errorf("Locate() = %+v, want nil for a missing install root", entry)
	}
}

func TestFilesystemLocatorNoRootConfigured(t *testing.T) {
	l := NewFilesystemLocator(&interfaces.NoOpLogger{})
	entry, err := l.Locate(context.Background(), &entities.Product{Name: "app"})
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if entry != nil {
		t.Error("Locate() should report nothing when no root is configured")
	}
}

func TestParseRegistryEntry(t *testing.T) {
	output := "\r\n" +
		"HKEY_LOCAL_MACHINE\\SOFTWARE\\Microsoft\\Windows\\CurrentVersion\\Uninstall\\{ABC-123}\r\n" +
		"    DisplayName    REG_SZ    App 7.5.10\r\n" +
		"    UninstallString    REG_SZ    \"C:\\Program Files\\App\\unins000.exe\" /SILENT\r\n" +
		"    InstallLocation    REG_SZ    C:\\Program Files\\App\r\n"

	product := &entities.Product{DisplayName: "App"}
	entry := parseRegistryEntry(output, product)
	if entry == nil {
		t.Fatal("parseRegistryEntry() = nil, want an entry")
	}
	if entry.DisplayName != "App 7.5.10" {
		t.Errorf("display name = %q", entry.DisplayName)
	}
	want := []string{`C:\Program Files\App\unins000.exe`, "/SILENT"}
	if !reflect.DeepEqual(entry.InvocationCommand, want) {
		t.Errorf("invocation command = %v, want %v", entry.InvocationCommand, want)
	}
	if entry.InstallRoot != `C:\Program Files\App` {
		t.Errorf("install root = %q", entry.InstallRoot)
	}
}

func TestParseRegistryEntryNoValues(t *testing.T) {
	product := &entities.Product{DisplayName: "App"}
	if entry := parseRegistryEntry("End of search: 0 match(es) found.\r\n", product); entry != nil {
		t.Errorf("parseRegistryEntry() = %+v, want nil when nothing matched", entry)
	}
}

func TestSplitCommandLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"quoted executable", `"C:\Program Files\App\unins.exe" /SILENT /NORESTART`,
			[]string{`C:\Program Files\App\unins.exe`, "/SILENT", "/NORESTART"}},
		{"bare command", `msiexec /x {ABC-123} /qn`, []string{"msiexec", "/x", "{ABC-123}", "/qn"}},
		{"empty", "", nil},
		{"quoted only", `"C:\App\unins.exe"`, []string{`C:\App\unins.exe`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitCommandLine(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitCommandLine(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
