// Package minisign provides signature verification for minisign-signed
// artifacts via the pure-Go github.com/jedisct1/go-minisign library.
package minisign

import (
	"context"
	"fmt"
	"os"

	"github.com/jedisct1/go-minisign"

	igw "github.com/ochairo/decant/internal/domain/interfaces/gateways"
)

// Verifier checks .minisig signatures against a local public key file.
type Verifier struct {
	keyPath string
}

// NewVerifier creates a verifier trusting the minisign public key at keyPath.
func NewVerifier(keyPath string) *Verifier {
	return &Verifier{keyPath: keyPath}
}

// Verify checks the signature at sigPath over filePath. A missing or
// unparseable key is Unknown; a signature that fails verification is
// Untrusted.
func (v *Verifier) Verify(_ context.Context, filePath, sigPath string) (igw.Trust, error) {
	if v.keyPath == "" {
		return igw.Unknown, nil
	}

	pubKey, err := minisign.NewPublicKeyFromFile(v.keyPath)
	if err != nil {
		return igw.Unknown, nil
	}

	sig, err := minisign.NewSignatureFromFile(sigPath)
	if err != nil {
		return igw.Unknown, fmt.Errorf("failed to read minisign signature: %w", err)
	}

	// go-minisign verifies over the full content; artifacts here are a few
	// hundred MB at most.
	//nolint:gosec // G304: artifact path is engine-controlled
	content, err := os.ReadFile(filePath)
	if err != nil {
		return igw.Unknown, fmt.Errorf("failed to read artifact: %w", err)
	}

	valid, err := pubKey.Verify(content, sig)
	if err != nil || !valid {
		return igw.Untrusted, nil
	}
	return igw.Trusted, nil
}
