package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/quantarax/sigtool/internal/digest"
	"github.com/quantarax/sigtool/internal/observability"
	"github.com/quantarax/sigtool/internal/validation"
)

// HashOptions overrides the configured algorithm and chunk size for a single
// call. Zero values keep the configuration.
type HashOptions struct {
	Algorithm digest.Algorithm
	ChunkSize int
}

// HashResult is the outcome of hashing one source.
type HashResult struct {
	Path      string        `json:"path"`
	Algorithm string        `json:"algorithm"`
	Hex       string        `json:"hex"`
	Base58    string        `json:"base58"`
	Bytes     int64         `json:"bytes"`
	Chunks    int           `json:"chunks"`
	Digest    digest.Digest `json:"-"`
}

// Line renders the digest the way the hash command prints it: lowercase
// hex, or base58 when short is set.
func (r HashResult) Line(short bool) string {
	if short {
		return r.Base58
	}
	return r.Hex
}

// Hash digests the file at path (or stdin for "-") in bounded memory.
func (s *Service) Hash(ctx context.Context, path string, opts HashOptions) (HashResult, error) {
	ctx, span, log := s.begin(ctx, "hash", attribute.String("sigtool.path", path))
	res, err := s.hash(ctx, path, opts, log)
	if err == nil {
		span.SetAttributes(
			attribute.String("sigtool.algorithm", res.Algorithm),
			attribute.Int64("sigtool.bytes", res.Bytes),
		)
	}
	observability.EndSpan(span, err)
	return res, err
}

func (s *Service) hash(_ context.Context, path string, opts HashOptions, log *observability.Logger) (HashResult, error) {
	alg := opts.Algorithm
	if alg == "" {
		alg = s.cfg.Algorithm()
	}
	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = s.cfg.ChunkSize
	}

	if path != StdinPath {
		if err := validation.ValidateReadableFile(path); err != nil {
			return HashResult{}, err
		}
	}

	d, n, chunks, err := s.digestSource(path, alg, chunkSize, log)
	if err != nil {
		return HashResult{}, err
	}

	return HashResult{
		Path:      path,
		Algorithm: alg.String(),
		Hex:       d.Hex(),
		Base58:    d.Base58(),
		Bytes:     n,
		Chunks:    chunks,
		Digest:    d,
	}, nil
}

// digestSource runs the engine over path and records metrics and logs.
func (s *Service) digestSource(path string, alg digest.Algorithm, chunkSize int, log *observability.Logger) (d digest.Digest, n int64, chunks int, retErr error) {
	log = log.WithFile(path)

	eng, err := digest.NewEngine(alg, chunkSize, digest.WithChunkObserver(func(size int) {
		chunks++
		n += int64(size)
		s.metrics.RecordChunk(alg.String(), size)
	}))
	if err != nil {
		return digest.Digest{}, 0, 0, err
	}

	src, err := s.openSource(path)
	if err != nil {
		return digest.Digest{}, 0, 0, err
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("failed to close file: %w", closeErr)
		}
	}()

	log.HashStarted(alg.String(), eng.ChunkSize())
	start := time.Now()

	d, err = eng.Sum(src)
	elapsed := time.Since(start)
	s.metrics.RecordHash(alg.String(), err == nil, elapsed.Seconds())
	if err != nil {
		log.Error(err, "hash failed")
		return digest.Digest{}, 0, 0, err
	}

	log.HashCompleted(alg.String(), n, chunks, elapsed)
	return d, n, chunks, nil
}
