// Package crypto provides the keypair lifecycle and detached signatures for sigtool.
//
// This package implements:
//   - Ed25519 keypair generation as a single atomic unit
//   - Key files on disk with a no-clobber guard and textual encoding
//   - Detached signatures over a file digest
//   - Verification that separates malformed input from a failed check
package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	// ErrPreconditionFailed is returned when key files already exist and
	// overwriting was not requested
	ErrPreconditionFailed = errors.New("key files already exist; refusing to overwrite without force")

	// ErrKeyFormat is returned when a key file does not decode to a key of
	// the expected size
	ErrKeyFormat = errors.New("malformed key")

	// ErrSignatureFormat is returned when a signature cannot be decoded or
	// has the wrong size. It is never returned for a signature that decodes
	// correctly but does not match.
	ErrSignatureFormat = errors.New("malformed signature")
)

// Ed25519KeyPair represents an Ed25519 signing keypair.
// The private key is 64 bytes (seed + public key concatenated).
type Ed25519KeyPair struct {
	PublicKey  ed25519.PublicKey  // 32 bytes
	PrivateKey ed25519.PrivateKey // 64 bytes
}

// Destroy zeroes the private key's backing memory. The keypair must not be
// used for signing afterwards.
func (kp *Ed25519KeyPair) Destroy() {
	if kp == nil {
		return
	}
	Zero(kp.PrivateKey)
	kp.PrivateKey = nil
}

// ComputeFingerprint computes a SHA-256 fingerprint of a public key
func ComputeFingerprint(publicKey ed25519.PublicKey) string {
	hash := sha256.Sum256(publicKey)
	return "SHA256:" + hex.EncodeToString(hash[:])
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
