package crypto

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"os"

	"github.com/quantarax/sigtool/internal/digest"
	"github.com/quantarax/sigtool/internal/textenc"
)

// SignatureExt is appended to a file name to form its default detached
// signature path.
const SignatureExt = ".sig"

// signedMessage binds the algorithm name to the digest so a signature over a
// SHA-256 digest can never be replayed as one over a different algorithm.
func signedMessage(d digest.Digest) []byte {
	alg := d.Algorithm().String()
	sum := d.Bytes()

	msg := make([]byte, 0, len("sigtool/")+len(alg)+1+len(sum))
	msg = append(msg, "sigtool/"...)
	msg = append(msg, alg...)
	msg = append(msg, 0)
	return append(msg, sum...)
}

// SignDigest produces a detached Ed25519 signature over d.
func SignDigest(priv ed25519.PrivateKey, d digest.Digest) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: private key must be %d bytes", ErrKeyFormat, ed25519.PrivateKeySize)
	}
	if d.IsZero() {
		return nil, fmt.Errorf("cannot sign an empty digest")
	}
	return ed25519.Sign(priv, signedMessage(d)), nil
}

// VerifyDigest checks sig against d and pub.
//
// Returns:
//   - true, nil if the signature is authentic
//   - false, nil if it decodes correctly but does not match (tampered data,
//     wrong key or wrong algorithm)
//   - false, error wrapping ErrSignatureFormat or ErrKeyFormat if an input
//     is malformed
func VerifyDigest(pub ed25519.PublicKey, d digest.Digest, sig []byte) (bool, error) {
	if len(pub) != ed25519.PublicKeySize {
		return false, fmt.Errorf("%w: public key must be %d bytes, got %d", ErrKeyFormat, ed25519.PublicKeySize, len(pub))
	}
	if len(sig) != ed25519.SignatureSize {
		return false, fmt.Errorf("%w: expected %d bytes, got %d", ErrSignatureFormat, ed25519.SignatureSize, len(sig))
	}
	return ed25519.Verify(pub, signedMessage(d), sig), nil
}

// Signature is a detached signature together with the digest algorithm it
// was made over.
type Signature struct {
	Algorithm digest.Algorithm
	Bytes     []byte
}

// EncodeSignature renders sig as <algorithm>:<encoded-signature>\n, the
// on-disk form of a .sig file.
func EncodeSignature(sig Signature, enc textenc.Encoding) []byte {
	line := enc.EncodeLine(sig.Bytes)
	out := make([]byte, 0, len(sig.Algorithm)+1+len(line))
	out = append(out, sig.Algorithm...)
	out = append(out, ':')
	return append(out, line...)
}

// DecodeSignature parses the textual form of a detached signature. A missing
// or unknown algorithm tag is reported as ErrSignatureFormat.
func DecodeSignature(text []byte, enc textenc.Encoding) (Signature, error) {
	tag, body, ok := bytes.Cut(bytes.TrimSpace(text), []byte{':'})
	if !ok {
		return Signature{}, fmt.Errorf("%w: missing algorithm tag", ErrSignatureFormat)
	}
	alg, err := digest.ParseAlgorithm(string(tag))
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %w", ErrSignatureFormat, err)
	}

	sig, err := enc.DecodeLine(body)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %w", ErrSignatureFormat, err)
	}
	if len(sig) != ed25519.SignatureSize {
		return Signature{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrSignatureFormat, ed25519.SignatureSize, len(sig))
	}
	return Signature{Algorithm: alg, Bytes: sig}, nil
}

// ReadSignatureFile loads a detached signature written by WriteSignatureFile.
func ReadSignatureFile(path string, enc textenc.Encoding) (Signature, error) {
	data, err := os.ReadFile(path) //nolint:gosec // caller-supplied path
	if err != nil {
		return Signature{}, fmt.Errorf("failed to read signature file: %w", err)
	}
	return DecodeSignature(data, enc)
}

// WriteSignatureFile stores sig, replacing any previous signature at path.
func WriteSignatureFile(path string, sig Signature, enc textenc.Encoding) error {
	if err := writeKeyFile(path, EncodeSignature(sig, enc), publicKeyPerm, true); err != nil {
		return fmt.Errorf("failed to write signature file: %w", err)
	}
	return nil
}
