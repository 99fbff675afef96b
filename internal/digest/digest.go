// Package digest computes content digests of byte streams in constant memory.
//
// The Engine pulls bounded chunks from an io.Reader into one reusable buffer
// and feeds them to a single-use State. The resulting Digest depends only on
// the bytes read, never on how the stream was split into chunks.
package digest

import (
	"bytes"
	"fmt"

	"github.com/quantarax/sigtool/internal/textenc"
)

// Digest is the immutable result of finalizing a State.
type Digest struct {
	alg Algorithm
	sum []byte
}

// Parse decodes a digest rendered with Hex or Base58 back into a Digest.
func Parse(alg Algorithm, enc textenc.Encoding, text string) (Digest, error) {
	if alg.Size() == 0 {
		return Digest{}, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(alg))
	}
	b, err := enc.Decode(text)
	if err != nil {
		return Digest{}, err
	}
	if len(b) != alg.Size() {
		return Digest{}, fmt.Errorf("%w: %s digest must be %d bytes, got %d",
			textenc.ErrDecode, alg, alg.Size(), len(b))
	}
	return Digest{alg: alg, sum: b}, nil
}

// Algorithm returns the primitive that produced d.
func (d Digest) Algorithm() Algorithm { return d.alg }

// Bytes returns a copy of the raw digest.
func (d Digest) Bytes() []byte { return bytes.Clone(d.sum) }

// Size returns the digest length in bytes.
func (d Digest) Size() int { return len(d.sum) }

// IsZero reports whether d is the zero value.
func (d Digest) IsZero() bool { return d.sum == nil }

// Hex renders every digest byte as lowercase hex.
func (d Digest) Hex() string { return textenc.Hex.Encode(d.sum) }

// Base58 renders the whole digest in the compact base-58 alphabet.
func (d Digest) Base58() string { return textenc.Base58.Encode(d.sum) }

// Encode renders d with enc.
func (d Digest) Encode(enc textenc.Encoding) string { return enc.Encode(d.sum) }

// Equal reports whether two digests share algorithm and value.
func (d Digest) Equal(o Digest) bool {
	return d.alg == o.alg && bytes.Equal(d.sum, o.sum)
}

// String returns "<algorithm>:<hex>".
func (d Digest) String() string { return string(d.alg) + ":" + d.Hex() }
