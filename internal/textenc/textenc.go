// Package textenc renders binary key, signature and digest material as text.
//
// Two encodings are supported:
//   - hex: lowercase hexadecimal, two characters per byte
//   - base58: the Bitcoin base-58 alphabet, compact and free of
//     visually ambiguous characters (0, O, I, l)
//
// Both are one-to-one: Decode(Encode(b)) reproduces b exactly, including
// leading zero bytes.
package textenc

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
)

// Encoding identifies a textual rendering of raw bytes.
type Encoding string

const (
	Hex    Encoding = "hex"
	Base58 Encoding = "base58"
)

var (
	// ErrDecode is returned when text is not valid for the selected encoding
	ErrDecode = errors.New("malformed encoded value")

	// ErrUnknownEncoding is returned for an encoding name that is not supported
	ErrUnknownEncoding = errors.New("unknown encoding")
)

// ParseEncoding maps a user-supplied name to an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch Encoding(strings.ToLower(strings.TrimSpace(name))) {
	case Hex:
		return Hex, nil
	case Base58, "b58":
		return Base58, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
}

// String implements fmt.Stringer.
func (e Encoding) String() string { return string(e) }

// Encode renders b as text. Unknown encodings fall back to hex.
func (e Encoding) Encode(b []byte) string {
	if e == Base58 {
		return base58.Encode(b)
	}
	return hex.EncodeToString(b)
}

// Decode parses text produced by Encode. Surrounding whitespace, including
// the trailing newline written by EncodeLine, is ignored.
func (e Encoding) Decode(s string) ([]byte, error) {
	s = strings.TrimSpace(s)

	switch e {
	case Hex:
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: hex: %v", ErrDecode, err)
		}
		return b, nil
	case Base58:
		if s == "" {
			return []byte{}, nil
		}
		// base58.Decode signals an invalid character with an empty result
		b := base58.Decode(s)
		if len(b) == 0 {
			return nil, fmt.Errorf("%w: base58: invalid character in %q", ErrDecode, truncate(s))
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, string(e))
	}
}

// EncodeLine renders b followed by a single newline, the on-disk form of
// key and signature files. The returned buffer is owned by the caller and
// may be zeroed after use.
func (e Encoding) EncodeLine(b []byte) []byte {
	if e == Base58 {
		s := base58.Encode(b)
		out := make([]byte, 0, len(s)+1)
		out = append(out, s...)
		return append(out, '\n')
	}

	out := make([]byte, hex.EncodedLen(len(b))+1)
	hex.Encode(out, b)
	out[len(out)-1] = '\n'
	return out
}

// DecodeLine is Decode for file contents.
func (e Encoding) DecodeLine(b []byte) ([]byte, error) {
	return e.Decode(string(bytes.TrimSpace(b)))
}

func truncate(s string) string {
	if len(s) > 16 {
		return s[:16] + "..."
	}
	return s
}
