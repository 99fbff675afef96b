package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
)

// GenerateEd25519 generates a new Ed25519 signing keypair.
// Both halves come from a single call to the primitive; they are never
// generated independently.
//
// Returns:
//   - Ed25519KeyPair containing public and private keys
//   - error if random number generation fails
func GenerateEd25519() (*Ed25519KeyPair, error) {
	return generateEd25519(rand.Reader)
}

func generateEd25519(rng io.Reader) (*Ed25519KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rng)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Ed25519 keypair: %w", err)
	}

	return &Ed25519KeyPair{
		PublicKey:  pub,
		PrivateKey: priv,
	}, nil
}

// SelfCheck signs a fixed message with the private key and verifies it with
// the public key, confirming the two halves belong together.
func (kp *Ed25519KeyPair) SelfCheck() error {
	if len(kp.PrivateKey) != ed25519.PrivateKeySize || len(kp.PublicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: bad key sizes", ErrKeyFormat)
	}

	msg := []byte("sigtool keypair self-check")
	sig := ed25519.Sign(kp.PrivateKey, msg)
	if !ed25519.Verify(kp.PublicKey, msg, sig) {
		return fmt.Errorf("%w: public and private key do not form a pair", ErrKeyFormat)
	}
	return nil
}
