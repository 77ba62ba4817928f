// Package cosign provides Sigstore signature verification by shelling out
// to the cosign CLI.
package cosign

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	igw "github.com/ochairo/decant/internal/domain/interfaces/gateways"
)

// Verifier checks cosign blob signatures. The certificate identity pins
// which publisher's signing workflow is trusted.
type Verifier struct {
	certPath     string
	certIdentity string
	oidcIssuer   string
}

// NewVerifier creates a cosign verifier. certPath points at the signing
// certificate published next to the release; certIdentity is a regular
// expression over the workflow identity embedded in it.
func NewVerifier(certPath, certIdentity string) *Verifier {
	return &Verifier{
		certPath:     certPath,
		certIdentity: certIdentity,
		oidcIssuer:   "https://token.actions.githubusercontent.com",
	}
}

// Verify checks the signature at sigPath over filePath. An absent cosign
// binary or certificate is Unknown; a failing verification is Untrusted.
func (v *Verifier) Verify(ctx context.Context, filePath, sigPath string) (igw.Trust, error) {
	if _, err := exec.LookPath("cosign"); err != nil {
		return igw.Unknown, nil
	}
	if _, err := os.Stat(v.certPath); err != nil {
		return igw.Unknown, nil
	}
	if _, err := os.Stat(sigPath); err != nil {
		return igw.Unknown, fmt.Errorf("signature file not found: %w", err)
	}

	identity := v.certIdentity
	if identity == "" {
		identity = "^https://github.com/.*/.*/.*@.*$"
	}

	cmd := exec.CommandContext(ctx, "cosign", "verify-blob",
		"--signature", sigPath,
		"--certificate", v.certPath,
		"--certificate-oidc-issuer", v.oidcIssuer,
		"--certificate-identity-regexp", identity,
		filePath,
	)
	if _, err := cmd.CombinedOutput(); err != nil {
		return igw.Untrusted, nil
	}
	return igw.Trusted, nil
}
