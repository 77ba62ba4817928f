package gateways

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ochairo/decant/internal/domain/entities"
	"github.com/ochairo/decant/internal/domain/interfaces"
	igw "github.com/ochairo/decant/internal/domain/interfaces/gateways"
)

// ChecksumVerifier confirms a downloaded artifact matches its published
// SHA256 sidecar. Pure Go, no external sha256sum binary.
type ChecksumVerifier struct {
	logger interfaces.Logger
}

// NewChecksumVerifier creates a new checksum verifier
func NewChecksumVerifier(logger interfaces.Logger) *ChecksumVerifier {
	return &ChecksumVerifier{logger: logger}
}

// Verify compares the artifact's SHA256 digest against the first
// whitespace-delimited token of the sidecar file. An empty sidecarPath means
// no checksum was published; the skip is logged at warning level and
// reported to the caller, never silent. On success the sidecar file is
// deleted, as it has no further use.
func (v *ChecksumVerifier) Verify(artifactPath, sidecarPath string) (igw.VerificationStatus, error) {
	if sidecarPath == "" {
		v.logger.Warn("no checksum available, integrity verification skipped",
			interfaces.F("artifact", artifactPath))
		return igw.VerificationSkipped, nil
	}

	//nolint:gosec // G304: sidecar path is engine-controlled
	sidecar, err := os.ReadFile(sidecarPath)
	if err != nil {
		return "", fmt.Errorf("failed to read checksum sidecar: %w", err)
	}

	expected, err := extractDigest(string(sidecar))
	if err != nil {
		return "", fmt.Errorf("invalid checksum sidecar %s: %w", sidecarPath, err)
	}

	actual, err := v.CalculateChecksum(artifactPath)
	if err != nil {
		return "", err
	}

	if !strings.EqualFold(expected, actual) {
		return "", entities.NewError(entities.KindIntegrityFailed,
			"checksum mismatch for %s: expected %s, got %s", artifactPath, expected, actual).
			WithHint("retry the download, or bypass checksum verification if the publisher's sidecar is known to be wrong")
	}

	if err := os.Remove(sidecarPath); err != nil {
		v.logger.Warn("failed to remove checksum sidecar", interfaces.F("path", sidecarPath))
	}

	v.logger.Info("checksum verified", interfaces.F("artifact", artifactPath))
	return igw.VerificationOK, nil
}

// CalculateChecksum calculates the SHA256 checksum of a file
func (v *ChecksumVerifier) CalculateChecksum(filePath string) (string, error) {
	//nolint:gosec // G304: File path is engine-controlled for checksum calculation
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// extractDigest pulls the expected digest out of sidecar content shaped as
// "<hex-digest> <optional-filename>". Only the first token is authoritative.
func extractDigest(content string) (string, error) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return "", fmt.Errorf("sidecar is empty")
	}
	digest := fields[0]
	if len(digest) != sha256.Size*2 {
		return "", fmt.Errorf("first token %q is not a SHA256 digest", digest)
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return "", fmt.Errorf("first token %q is not hex: %w", digest, err)
	}
	return digest, nil
}
