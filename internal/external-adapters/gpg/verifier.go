// Package gpg provides GPG signature verification using ProtonMail's
// go-crypto, a maintained fork of golang.org/x/crypto/openpgp. It lives in
// external-adapters to isolate the dependency.
package gpg

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"

	igw "github.com/ochairo/decant/internal/domain/interfaces/gateways"
)

const armorHeader = "-----BEGIN PGP SIGNATURE---"

// Verifier checks detached GPG signatures against a local public key file.
type Verifier struct {
	keyring openpgp.EntityList
	keyPath string
}

// NewVerifier creates a verifier trusting the key(s) in keyPath. The key is
// loaded lazily on first use so a misconfigured path degrades to Unknown
// instead of failing engine startup.
func NewVerifier(keyPath string) *Verifier {
	return &Verifier{keyPath: keyPath}
}

// Verify checks the detached signature at sigPath over filePath.
// A signature that does not check out against the trusted key is Untrusted;
// a missing or unparseable key is Unknown.
func (v *Verifier) Verify(_ context.Context, filePath, sigPath string) (igw.Trust, error) {
	if len(v.keyring) == 0 {
		if err := v.loadKey(); err != nil {
			return igw.Unknown, nil
		}
	}

	//nolint:gosec // G304: signature path is engine-controlled
	sigFile, err := os.Open(sigPath)
	if err != nil {
		return igw.Unknown, fmt.Errorf("failed to open signature file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer sigFile.Close()

	//nolint:gosec // G304: data path is engine-controlled
	dataFile, err := os.Open(filePath)
	if err != nil {
		return igw.Unknown, fmt.Errorf("failed to open data file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer dataFile.Close()

	armored, err := isArmored(sigFile)
	if err != nil {
		return igw.Unknown, err
	}

	if armored {
		_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, dataFile, sigFile, nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(v.keyring, dataFile, sigFile, nil)
	}
	if err != nil {
		return igw.Untrusted, nil
	}
	return igw.Trusted, nil
}

// loadKey reads the trusted public key, accepting both armored and binary
// keyring formats.
func (v *Verifier) loadKey() error {
	if v.keyPath == "" {
		return fmt.Errorf("no key path configured")
	}

	//nolint:gosec // G304: key path comes from the product definition
	f, err := os.Open(v.keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	keys, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("failed to reset key file: %w", seekErr)
		}
		keys, err = openpgp.ReadKeyRing(f)
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}
	if len(keys) == 0 {
		return fmt.Errorf("no keys found in %s", v.keyPath)
	}

	v.keyring = keys
	return nil
}

// isArmored peeks at the signature header and rewinds the file.
func isArmored(sigFile *os.File) (bool, error) {
	peek := make([]byte, len(armorHeader))
	n, _ := io.ReadFull(sigFile, peek)
	if _, err := sigFile.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("failed to reset signature file: %w", err)
	}
	return n == len(armorHeader) && string(peek) == armorHeader, nil
}
