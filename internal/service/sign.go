package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/quantarax/sigtool/internal/crypto"
	"github.com/quantarax/sigtool/internal/observability"
)

// SignResult describes a detached signature written to disk.
type SignResult struct {
	Path          string `json:"path"`
	SignaturePath string `json:"signature_path"`
	Algorithm     string `json:"algorithm"`
	Digest        string `json:"digest"`
	Fingerprint   string `json:"fingerprint"`
}

// VerifyResult is the outcome of checking one detached signature.
type VerifyResult struct {
	Path          string `json:"path"`
	SignaturePath string `json:"signature_path"`
	PublicKeyPath string `json:"public_key_path"`
	Algorithm     string `json:"algorithm"`
	Fingerprint   string `json:"fingerprint"`
	Valid         bool   `json:"valid"`
}

// DefaultSignaturePath returns <path>.sig.
func DefaultSignaturePath(path string) string { return path + crypto.SignatureExt }

// Sign digests path with the configured algorithm and writes a detached
// signature with the configured secret key. An empty sigPath selects
// DefaultSignaturePath; signing stdin requires an explicit sigPath.
func (s *Service) Sign(ctx context.Context, path, sigPath string) (SignResult, error) {
	ctx, span, log := s.begin(ctx, "sign", attribute.String("sigtool.path", path))
	res, err := s.sign(ctx, path, sigPath, log)
	s.metrics.RecordSignature(err == nil)
	if err != nil {
		log.Error(err, "signing failed")
	}
	observability.EndSpan(span, err)
	return res, err
}

func (s *Service) sign(ctx context.Context, path, sigPath string, log *observability.Logger) (SignResult, error) {
	if sigPath == "" {
		if path == StdinPath {
			return SignResult{}, errors.New("signing standard input requires an explicit signature path")
		}
		sigPath = DefaultSignaturePath(path)
	}

	kp, err := s.keys.LoadKeyPair()
	if err != nil {
		return SignResult{}, err
	}
	defer kp.Destroy()

	h, err := s.hash(ctx, path, HashOptions{}, log)
	if err != nil {
		return SignResult{}, err
	}

	start := time.Now()
	sig, err := crypto.SignDigest(kp.PrivateKey, h.Digest)
	s.metrics.RecordCryptoOperation("sign", time.Since(start).Seconds())
	if err != nil {
		return SignResult{}, err
	}

	signature := crypto.Signature{Algorithm: h.Digest.Algorithm(), Bytes: sig}
	if err := crypto.WriteSignatureFile(sigPath, signature, s.cfg.Encoding()); err != nil {
		return SignResult{}, err
	}

	fp := crypto.ComputeFingerprint(kp.PublicKey)
	log.SignatureWritten(sigPath, h.Algorithm, fp)

	return SignResult{
		Path:          path,
		SignaturePath: sigPath,
		Algorithm:     h.Algorithm,
		Digest:        h.Hex,
		Fingerprint:   fp,
	}, nil
}

// Verify checks the detached signature at sigPath for the file at path
// against the public key at pubPath. Empty sigPath / pubPath select
// DefaultSignaturePath and the configured public key.
//
// Inputs are decoded before any hashing. The file is hashed with the
// algorithm recorded in the signature, not the configured one. A malformed
// public key or signature is an error (crypto.ErrKeyFormat,
// crypto.ErrSignatureFormat); a well-formed signature that does not match
// yields Valid == false and a nil error.
func (s *Service) Verify(ctx context.Context, path, sigPath, pubPath string) (VerifyResult, error) {
	ctx, span, log := s.begin(ctx, "verify", attribute.String("sigtool.path", path))
	res, err := s.verify(ctx, path, sigPath, pubPath, log)

	switch {
	case errors.Is(err, crypto.ErrSignatureFormat), errors.Is(err, crypto.ErrKeyFormat):
		s.metrics.RecordVerification("malformed")
		log.Error(err, "malformed verification input")
	case err != nil:
		s.metrics.RecordVerification("error")
		log.Error(err, "verification failed")
	case res.Valid:
		s.metrics.RecordVerification("valid")
	default:
		s.metrics.RecordVerification("invalid")
	}
	if err == nil {
		span.SetAttributes(attribute.Bool("sigtool.valid", res.Valid))
		log.VerificationResult(res.SignaturePath, res.Fingerprint, res.Valid)
	}

	observability.EndSpan(span, err)
	return res, err
}

func (s *Service) verify(ctx context.Context, path, sigPath, pubPath string, log *observability.Logger) (VerifyResult, error) {
	if sigPath == "" {
		if path == StdinPath {
			return VerifyResult{}, errors.New("verifying standard input requires an explicit signature path")
		}
		sigPath = DefaultSignaturePath(path)
	}
	if pubPath == "" {
		pubPath = s.keys.Paths().Public
	}

	res := VerifyResult{
		Path:          path,
		SignaturePath: sigPath,
		PublicKeyPath: pubPath,
	}

	pub, err := crypto.LoadPublicKey(pubPath, s.cfg.Encoding())
	if err != nil {
		return res, err
	}
	res.Fingerprint = crypto.ComputeFingerprint(pub)

	sig, err := crypto.ReadSignatureFile(sigPath, s.cfg.Encoding())
	if err != nil {
		return res, err
	}
	res.Algorithm = sig.Algorithm.String()

	h, err := s.hash(ctx, path, HashOptions{Algorithm: sig.Algorithm}, log)
	if err != nil {
		return res, err
	}

	start := time.Now()
	valid, err := crypto.VerifyDigest(pub, h.Digest, sig.Bytes)
	s.metrics.RecordCryptoOperation("verify", time.Since(start).Seconds())
	if err != nil {
		return res, err
	}

	res.Valid = valid
	return res, nil
}
