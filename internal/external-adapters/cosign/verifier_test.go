package cosign

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	igw "github.com/ochairo/decant/internal/domain/interfaces/gateways"
)

// fakeCosign puts a stand-in cosign binary on PATH that exits with the
// given code, so verification outcomes can be tested without Sigstore.
func fakeCosign(t *testing.T, exitCode int) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake binary requires a POSIX shell")
	}

	dir := t.TempDir()
	script := "#!/bin/sh\nexit " + strconv.Itoa(exitCode) + "\n"
	if err := os.WriteFile(filepath.Join(dir, "cosign"), []byte(script), 0700); err != nil { // #nosec G306 -- test fixture must be executable
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)
}

func writeFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("content"), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVerifyUnknownWhenCosignMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	v := NewVerifier("/nonexistent/cert.pem", "")
	trust, err := v.Verify(context.Background(), "artifact", "artifact.sig")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if trust != igw.Unknown {
		t.Errorf("trust = %v, want %v when cosign is not installed", trust, igw.Unknown)
	}
}

func TestVerifyUnknownWhenCertificateMissing(t *testing.T) {
	fakeCosign(t, 0)

	v := NewVerifier(filepath.Join(t.TempDir(), "missing-cert.pem"), "")
	trust, err := v.Verify(context.Background(), "artifact", "artifact.sig")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if trust != igw.Unknown {
		t.Errorf("trust = %v, want %v when the certificate is absent", trust, igw.Unknown)
	}
}

func TestVerifyUnknownWithErrorWhenSignatureMissing(t *testing.T) {
	fakeCosign(t, 0)

	v := NewVerifier(writeFile(t, "cert.pem"), "")
	trust, err := v.Verify(context.Background(), "artifact", filepath.Join(t.TempDir(), "missing.sig"))
	if err == nil {
		t.Fatal("Verify() should report a missing signature file")
	}
	if trust != igw.Unknown {
		t.Errorf("trust = %v, want %v", trust, igw.Unknown)
	}
}

func TestVerifyUntrustedOnFailedVerification(t *testing.T) {
	fakeCosign(t, 1)

	v := NewVerifier(writeFile(t, "cert.pem"), "")
	trust, err := v.Verify(context.Background(), writeFile(t, "artifact"), writeFile(t, "artifact.sig"))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if trust != igw.Untrusted {
		t.Errorf("trust = %v, want %v on a failed verification", trust, igw.Untrusted)
	}
}

func TestVerifyTrustedOnSuccess(t *testing.T) {
	fakeCosign(t, 0)

	v := NewVerifier(writeFile(t, "cert.pem"), "")
	trust, err := v.Verify(context.Background(), writeFile(t, "artifact"), writeFile(t, "artifact.sig"))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if trust != igw.Trusted {
		t.Errorf("trust = %v, want %v", trust, igw.Trusted)
	}
}
