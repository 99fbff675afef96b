package digest_test

import (
	"bytes"
	"crypto/sha512"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/quantarax/sigtool/internal/digest"
	"github.com/quantarax/sigtool/internal/textenc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum_empty_input_is_pinned(t *testing.T) {
	t.Parallel()

	want := map[digest.Algorithm]string{
		digest.SHA512:     "cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce47d0d13c5d85f2b0ff8318d2877eec2f63b931bd47417a81a538327af927da3e",
		digest.SHA256:     "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		digest.BLAKE3:     "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262",
		digest.BLAKE2b512: "786a02f742015903c6c6fd852552d272912f4740e15847618a86e217f71f5419d25e1031afee585313896444934eb04b903a685b1448b755d56f701afe9be2ce",
		digest.SHA3_256:   "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a",
	}

	for _, alg := range digest.Algorithms() {
		eng, err := digest.NewEngine(alg, 0)
		require.NoError(t, err)

		d, err := eng.Sum(bytes.NewReader(nil))
		require.NoError(t, err)

		assert.Equal(t, want[alg], d.Hex(), alg)
		assert.Equal(t, alg.Size(), d.Size(), alg)
	}
}

func TestSum_matches_one_shot_hash(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("streaming digest "), 10_000)
	want := sha512.Sum512(data)

	eng, err := digest.NewEngine(digest.SHA512, 4096)
	require.NoError(t, err)

	d, err := eng.Sum(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, want[:], d.Bytes())
}

func TestSum_independent_of_chunk_size(t *testing.T) {
	t.Parallel()

	data := make([]byte, 5000)
	for i := range data {
		data[i] = byte(i * 31)
	}

	for _, alg := range digest.Algorithms() {
		var first digest.Digest
		for _, size := range []int{512, 513, 1000, 1024, 4096, 4999, 5000, 5001, 65536} {
			eng, err := digest.NewEngine(alg, size)
			require.NoError(t, err)

			d, err := eng.Sum(bytes.NewReader(data))
			require.NoError(t, err)

			if first.IsZero() {
				first = d
				continue
			}
			assert.True(t, first.Equal(d), "%s chunk size %d", alg, size)
		}
	}
}

func TestSum_independent_of_reader_boundaries(t *testing.T) {
	t.Parallel()

	data := []byte(strings.Repeat("0123456789abcdef", 200))

	eng, err := digest.NewEngine(digest.BLAKE3, 1024)
	require.NoError(t, err)

	want, err := eng.Sum(bytes.NewReader(data))
	require.NoError(t, err)

	readers := map[string]io.Reader{
		"one-byte": iotest.OneByteReader(bytes.NewReader(data)),
		"half":     iotest.HalfReader(bytes.NewReader(data)),
		"data-err": iotest.DataErrReader(bytes.NewReader(data)),
	}
	for name, r := range readers {
		got, err := eng.Sum(r)
		require.NoError(t, err, name)
		assert.True(t, want.Equal(got), name)
	}
}

func TestState_every_split_yields_same_digest(t *testing.T) {
	t.Parallel()

	data := []byte("split-me!!")
	n := len(data)

	ref, err := digest.NewState(digest.SHA256)
	require.NoError(t, err)
	require.NoError(t, ref.Update(data))
	want, err := ref.Finalize()
	require.NoError(t, err)

	// each bit of mask marks a cut after that byte
	for mask := 0; mask < 1<<(n-1); mask++ {
		st, err := digest.NewState(digest.SHA256)
		require.NoError(t, err)

		start := 0
		for i := 0; i < n-1; i++ {
			if mask&(1<<i) != 0 {
				require.NoError(t, st.Update(data[start:i+1]))
				start = i + 1
			}
		}
		require.NoError(t, st.Update(data[start:]))

		got, err := st.Finalize()
		require.NoError(t, err)
		require.True(t, want.Equal(got), "mask %b", mask)
	}
}

func TestState_is_single_use(t *testing.T) {
	t.Parallel()

	st, err := digest.NewState(digest.SHA512)
	require.NoError(t, err)
	require.NoError(t, st.Update([]byte("abc")))
	assert.EqualValues(t, 3, st.Len())

	_, err = st.Finalize()
	require.NoError(t, err)

	_, err = st.Finalize()
	require.ErrorIs(t, err, digest.ErrFinalized)
	require.ErrorIs(t, st.Update([]byte("more")), digest.ErrFinalized)
}

func TestSum_ten_mebibytes_4k_vs_8k(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pa := filepath.Join(dir, "big.bin")
	require.NoError(t, os.WriteFile(pa, bytes.Repeat([]byte{0x41}, 10<<20), 0o600))

	small, err := digest.NewEngine(digest.DefaultAlgorithm, 4<<10)
	require.NoError(t, err)
	large, err := digest.NewEngine(digest.DefaultAlgorithm, 8<<10)
	require.NoError(t, err)

	d4, n4, err := small.SumFile(pa)
	require.NoError(t, err)
	d8, n8, err := large.SumFile(pa)
	require.NoError(t, err)

	assert.EqualValues(t, 10<<20, n4)
	assert.Equal(t, n4, n8)
	assert.Equal(t, d4.Hex(), d8.Hex())
	assert.Equal(t, d4.Base58(), d8.Base58())
}

func TestSum_observer_sees_bounded_chunks(t *testing.T) {
	t.Parallel()

	var chunks []int
	eng, err := digest.NewEngine(digest.SHA256, 1024, digest.WithChunkObserver(func(n int) {
		chunks = append(chunks, n)
	}))
	require.NoError(t, err)

	_, err = eng.Sum(iotest.OneByteReader(bytes.NewReader(make([]byte, 2500))))
	require.NoError(t, err)

	assert.Equal(t, []int{1024, 1024, 452}, chunks)
}

func TestSum_read_error_is_surfaced(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk on fire")
	r := io.MultiReader(bytes.NewReader(make([]byte, 3000)), iotest.ErrReader(boom))

	eng, err := digest.NewEngine(digest.SHA512, 1024)
	require.NoError(t, err)

	_, err = eng.Sum(r)
	require.ErrorIs(t, err, digest.ErrRead)
	require.ErrorIs(t, err, boom)
}

func TestSumFile_missing_file(t *testing.T) {
	t.Parallel()

	eng, err := digest.NewEngine(digest.SHA512, 0)
	require.NoError(t, err)

	_, _, err = eng.SumFile(filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewEngine_rejects_bad_parameters(t *testing.T) {
	t.Parallel()

	_, err := digest.NewEngine("md5", 0)
	require.ErrorIs(t, err, digest.ErrUnknownAlgorithm)

	_, err = digest.NewEngine(digest.SHA256, 16)
	require.ErrorIs(t, err, digest.ErrInvalidChunkSize)

	_, err = digest.NewEngine(digest.SHA256, digest.MaxChunkSize+1)
	require.ErrorIs(t, err, digest.ErrInvalidChunkSize)
}

func TestParse_roundtrip_hex_and_base58(t *testing.T) {
	t.Parallel()

	eng, err := digest.NewEngine(digest.SHA512, 0)
	require.NoError(t, err)
	d, err := eng.Sum(strings.NewReader("round trip"))
	require.NoError(t, err)

	fromHex, err := digest.Parse(digest.SHA512, textenc.Hex, d.Hex())
	require.NoError(t, err)
	fromB58, err := digest.Parse(digest.SHA512, textenc.Base58, d.Base58())
	require.NoError(t, err)

	assert.True(t, d.Equal(fromHex))
	assert.True(t, d.Equal(fromB58))
	assert.Equal(t, fromHex.Bytes(), fromB58.Bytes())

	_, err = digest.Parse(digest.SHA512, textenc.Hex, "abcd")
	require.ErrorIs(t, err, textenc.ErrDecode)
}

func TestDigest_bytes_is_a_copy(t *testing.T) {
	t.Parallel()

	eng, err := digest.NewEngine(digest.SHA256, 0)
	require.NoError(t, err)
	d, err := eng.Sum(strings.NewReader("immutable"))
	require.NoError(t, err)

	before := d.Hex()
	b := d.Bytes()
	b[0] ^= 0xff
	assert.Equal(t, before, d.Hex())
}

func TestParseAlgorithm(t *testing.T) {
	t.Parallel()

	a, err := digest.ParseAlgorithm("BLAKE2B")
	require.NoError(t, err)
	assert.Equal(t, digest.BLAKE2b512, a)

	_, err = digest.ParseAlgorithm("crc32")
	require.ErrorIs(t, err, digest.ErrUnknownAlgorithm)
}

func FuzzSum_chunk_size_independent(f *testing.F) {
	f.Add([]byte(""), uint16(0))
	f.Add([]byte("hello"), uint16(7))
	f.Add(bytes.Repeat([]byte{0xaa}, 2048), uint16(300))

	f.Fuzz(func(t *testing.T, data []byte, extra uint16) {
		base, err := digest.NewEngine(digest.SHA256, digest.MinChunkSize)
		require.NoError(t, err)
		other, err := digest.NewEngine(digest.SHA256, digest.MinChunkSize+int(extra))
		require.NoError(t, err)

		d1, err := base.Sum(bytes.NewReader(data))
		require.NoError(t, err)
		d2, err := other.Sum(iotest.HalfReader(bytes.NewReader(data)))
		require.NoError(t, err)

		assert.True(t, d1.Equal(d2))
	})
}
