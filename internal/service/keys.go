package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/quantarax/sigtool/internal/crypto"
	"github.com/quantarax/sigtool/internal/observability"
)

// KeyInfo describes the public half of the configured keypair.
type KeyInfo struct {
	Path        string `json:"path"`
	Encoding    string `json:"encoding"`
	PublicKey   string `json:"public_key"`
	Fingerprint string `json:"fingerprint"`
	KeyType     string `json:"key_type"`
}

// GenerateKeypair creates key.pub / key.sec. Without force it returns an
// error wrapping crypto.ErrPreconditionFailed, and writes nothing, when
// either file exists.
func (s *Service) GenerateKeypair(ctx context.Context, force bool) (*crypto.GenerateResult, error) {
	_, span, log := s.begin(ctx, "generate_keypair", attribute.Bool("sigtool.force", force))

	start := time.Now()
	res, err := s.keys.Generate(force)
	s.metrics.RecordCryptoOperation("keygen", time.Since(start).Seconds())

	switch {
	case errors.Is(err, crypto.ErrPreconditionFailed):
		s.metrics.RecordKeypairGeneration("exists")
		paths := s.keys.Paths()
		log.KeypairExists(paths.Public + ", " + paths.Secret)
	case err != nil:
		s.metrics.RecordKeypairGeneration("failure")
		log.Error(err, "keypair generation failed")
	default:
		s.metrics.RecordKeypairGeneration("generated")
		log.KeypairGenerated(res.Paths.Public, res.Paths.Secret, res.Fingerprint, res.Forced)
		span.SetAttributes(attribute.String("sigtool.fingerprint", res.Fingerprint))
	}

	observability.EndSpan(span, err)
	return res, err
}

// ShowPublicKey loads the configured public key.
func (s *Service) ShowPublicKey(ctx context.Context) (KeyInfo, error) {
	_, span, _ := s.begin(ctx, "show_key")

	path := s.keys.Paths().Public
	pub, err := s.keys.LoadPublicKey()
	observability.EndSpan(span, err)
	if err != nil {
		return KeyInfo{}, err
	}

	return KeyInfo{
		Path:        path,
		Encoding:    s.cfg.Encoding().String(),
		PublicKey:   s.cfg.Encoding().Encode(pub),
		Fingerprint: crypto.ComputeFingerprint(pub),
		KeyType:     "Ed25519",
	}, nil
}
