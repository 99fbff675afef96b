package digest

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Algorithm names a hash primitive the engine can drive.
type Algorithm string

const (
	SHA512     Algorithm = "sha512"
	SHA256     Algorithm = "sha256"
	BLAKE3     Algorithm = "blake3"
	BLAKE2b512 Algorithm = "blake2b-512"
	SHA3_256   Algorithm = "sha3-256"

	// DefaultAlgorithm matches libsodium's generic crypto_hash (SHA-512).
	DefaultAlgorithm = SHA512
)

// ErrUnknownAlgorithm is returned for a hash name that is not supported
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// Algorithms lists every supported algorithm in a stable order.
func Algorithms() []Algorithm {
	return []Algorithm{SHA512, SHA256, BLAKE3, BLAKE2b512, SHA3_256}
}

// ParseAlgorithm maps a user-supplied name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	switch a {
	case SHA512, SHA256, BLAKE3, BLAKE2b512, SHA3_256:
		return a, nil
	case "blake2b":
		return BLAKE2b512, nil
	case "sha3":
		return SHA3_256, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// String implements fmt.Stringer.
func (a Algorithm) String() string { return string(a) }

// Size returns the digest length in bytes, or 0 for an unknown algorithm.
func (a Algorithm) Size() int {
	switch a {
	case SHA512, BLAKE2b512:
		return 64
	case SHA256, BLAKE3, SHA3_256:
		return 32
	}
	return 0
}

func (a Algorithm) newHash() (hash.Hash, error) {
	switch a {
	case SHA512:
		return sha512.New(), nil
	case SHA256:
		return sha256.New(), nil
	case BLAKE3:
		return blake3.New(), nil
	case BLAKE2b512:
		// a nil key never fails
		return blake2b.New512(nil)
	case SHA3_256:
		return sha3.New256(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(a))
}
