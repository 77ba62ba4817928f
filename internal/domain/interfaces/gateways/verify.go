package gateways

import "context"

// Trust is the outcome of a signature verification.
type Trust string

// Signature verification outcomes. Unknown means the mechanism could not
// run (missing key, missing tool); it is surfaced as a warning, never
// silently treated as trusted.
const (
	Trusted   Trust = "trusted"
	Untrusted Trust = "untrusted"
	Unknown   Trust = "unknown"
)

// SignatureVerifier checks a detached signature over a local file. The
// concrete mechanism (GPG, minisign, cosign) is swappable per platform
// without touching orchestration logic.
type SignatureVerifier interface {
	Verify(ctx context.Context, filePath, sigPath string) (Trust, error)
}
