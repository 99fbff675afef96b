package digest

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// DefaultChunkSize is the read size used when none is configured (16 KiB)
	DefaultChunkSize = 4096 * 4

	// MinChunkSize and MaxChunkSize bound the per-read buffer
	MinChunkSize = 512
	MaxChunkSize = 16 << 20
)

var (
	// ErrRead is returned when the byte source fails partway through
	ErrRead = errors.New("failed to read input")

	// ErrInvalidChunkSize is returned for a chunk size outside the allowed range
	ErrInvalidChunkSize = errors.New("invalid chunk size")
)

// Option configures an Engine.
type Option func(*Engine)

// WithChunkObserver registers fn to be called with the length of every
// chunk fed to the hash state.
func WithChunkObserver(fn func(n int)) Option {
	return func(e *Engine) { e.observe = fn }
}

// Engine computes digests of streams of unknown length.
type Engine struct {
	alg       Algorithm
	chunkSize int
	observe   func(n int)
}

// NewEngine creates an Engine for alg reading chunkSize bytes at a time.
// A chunkSize of 0 selects DefaultChunkSize.
func NewEngine(alg Algorithm, chunkSize int, opts ...Option) (*Engine, error) {
	if alg.Size() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(alg))
	}
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkSize < MinChunkSize || chunkSize > MaxChunkSize {
		return nil, fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidChunkSize, chunkSize, MinChunkSize, MaxChunkSize)
	}

	e := &Engine{alg: alg, chunkSize: chunkSize}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Algorithm returns the engine's hash primitive.
func (e *Engine) Algorithm() Algorithm { return e.alg }

// ChunkSize returns the per-read buffer size.
func (e *Engine) ChunkSize() int { return e.chunkSize }

// Sum reads r to exhaustion and returns its digest. r is borrowed for the
// duration of the call and is not closed.
//
// Memory use is O(chunk size) regardless of how much r yields. Input size
// never causes failure; only a read error does, in which case the error
// wraps ErrRead and the cause.
func (e *Engine) Sum(r io.Reader) (Digest, error) {
	state, err := NewState(e.alg)
	if err != nil {
		return Digest{}, err
	}

	chunker, err := NewChunker(r, e.chunkSize)
	if err != nil {
		return Digest{}, err
	}

	for {
		chunk, err := chunker.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Digest{}, fmt.Errorf("%w after %d bytes: %w", ErrRead, state.Len(), err)
		}

		if err := state.Update(chunk); err != nil {
			return Digest{}, err
		}
		if e.observe != nil {
			e.observe(len(chunk))
		}
	}

	return state.Finalize()
}

// SumFile opens path and digests its contents. The second result is the
// number of bytes hashed.
func (e *Engine) SumFile(path string) (d Digest, size int64, retErr error) {
	f, err := os.Open(path) //nolint:gosec // caller-supplied path
	if err != nil {
		return Digest{}, 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("failed to close file: %w", closeErr)
		}
	}()

	counter := &countingReader{r: f}
	d, err = e.Sum(counter)
	if err != nil {
		return Digest{}, 0, err
	}
	return d, counter.n, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
