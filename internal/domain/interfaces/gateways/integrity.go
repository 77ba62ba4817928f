package gateways

// VerificationStatus is the outcome of an integrity check. A digest mismatch
// is not a status: it is a fatal error.
type VerificationStatus string

// Integrity check outcomes.
const (
	VerificationOK      VerificationStatus = "ok"
	VerificationSkipped VerificationStatus = "skipped"
)

// IntegrityVerifier confirms a downloaded artifact matches its published
// checksum sidecar. An empty sidecarPath means no checksum was published;
// the skip is reported, never silent.
type IntegrityVerifier interface {
	Verify(artifactPath, sidecarPath string) (VerificationStatus, error)
}
