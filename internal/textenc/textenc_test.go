package textenc_test

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/quantarax/sigtool/internal/textenc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase58_known_vectors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   []byte
		want string
	}{
		{[]byte("Hello World!"), "2NEpo7TZRRrLZSi2U"},
		{[]byte{0x00, 0x00, 0x01}, "112"},
		{[]byte{0x00}, "1"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, textenc.Base58.Encode(tc.in))

		got, err := textenc.Base58.Decode(tc.want)
		require.NoError(t, err)
		assert.Equal(t, tc.in, got)
	}
}

func TestHex_is_lowercase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "00abff", textenc.Hex.Encode([]byte{0x00, 0xab, 0xff}))
}

func TestRoundTrip_random_values(t *testing.T) {
	t.Parallel()

	for _, enc := range []textenc.Encoding{textenc.Hex, textenc.Base58} {
		for _, size := range []int{1, 16, 32, 64} {
			b := make([]byte, size)
			_, err := rand.Read(b)
			require.NoError(t, err)
			// leading zeros are the classic base58 pitfall
			b[0] = 0

			got, err := enc.Decode(enc.Encode(b))
			require.NoError(t, err)
			assert.True(t, bytes.Equal(b, got), "%s size %d", enc, size)

			got, err = enc.DecodeLine(enc.EncodeLine(b))
			require.NoError(t, err)
			assert.True(t, bytes.Equal(b, got), "%s line size %d", enc, size)
		}
	}
}

func TestEncodeLine_trailing_newline(t *testing.T) {
	t.Parallel()

	line := textenc.Hex.EncodeLine([]byte{0x01, 0x02})
	assert.Equal(t, "0102\n", string(line))

	line = textenc.Base58.EncodeLine([]byte("Hello World!"))
	assert.Equal(t, "2NEpo7TZRRrLZSi2U\n", string(line))
}

func TestDecode_rejects_malformed_input(t *testing.T) {
	t.Parallel()

	_, err := textenc.Base58.Decode("0OIl")
	require.ErrorIs(t, err, textenc.ErrDecode)

	_, err = textenc.Hex.Decode("abc")
	require.ErrorIs(t, err, textenc.ErrDecode)

	_, err = textenc.Hex.Decode("zz")
	require.ErrorIs(t, err, textenc.ErrDecode)
}

func TestParseEncoding(t *testing.T) {
	t.Parallel()

	enc, err := textenc.ParseEncoding(" HEX ")
	require.NoError(t, err)
	assert.Equal(t, textenc.Hex, enc)

	enc, err = textenc.ParseEncoding("b58")
	require.NoError(t, err)
	assert.Equal(t, textenc.Base58, enc)

	_, err = textenc.ParseEncoding("base64")
	require.ErrorIs(t, err, textenc.ErrUnknownEncoding)
}

func FuzzBase58RoundTrip(f *testing.F) {
	f.Add([]byte(""))
	f.Add([]byte{0x00, 0x00})
	f.Add([]byte("hello"))

	f.Fuzz(func(t *testing.T, data []byte) {
		got, err := textenc.Base58.Decode(textenc.Base58.Encode(data))
		require.NoError(t, err)
		assert.True(t, bytes.Equal(data, got))
	})
}
