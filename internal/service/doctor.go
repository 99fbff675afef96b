package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/quantarax/sigtool/internal/crypto"
	"github.com/quantarax/sigtool/internal/digest"
	"github.com/quantarax/sigtool/internal/observability"
)

// Doctor inspects the local installation: the digest engine, the keys
// directory and the configured keypair.
func (s *Service) Doctor(ctx context.Context, version string) observability.HealthCheckResponse {
	ctx, span, _ := s.begin(ctx, "doctor")
	defer span.End()

	hc := observability.NewHealthChecker(version)
	hc.RegisterCheck("digest_engine", s.engineCheck)
	hc.RegisterCheck("keys_directory", s.keysDirectoryCheck)
	hc.RegisterCheck("keypair", s.keypairCheck)
	return hc.Check(ctx)
}

// engineCheck hashes a fixed buffer with the smallest and the configured
// chunk size; the digests must agree.
func (s *Service) engineCheck(context.Context) observability.ComponentHealth {
	data := bytes.Repeat([]byte{0x41}, 3*digest.MinChunkSize+7)

	var sums []digest.Digest
	for _, size := range []int{digest.MinChunkSize, s.cfg.ChunkSize} {
		eng, err := digest.NewEngine(s.cfg.Algorithm(), size)
		if err != nil {
			return unhealthy(err)
		}
		d, err := eng.Sum(bytes.NewReader(data))
		if err != nil {
			return unhealthy(err)
		}
		sums = append(sums, d)
	}

	if !sums[0].Equal(sums[1]) {
		return observability.ComponentHealth{
			Status:  observability.HealthStatusUnhealthy,
			Message: "digest depends on chunk size",
		}
	}
	return observability.ComponentHealth{
		Status:  observability.HealthStatusOK,
		Message: fmt.Sprintf("%s, %d byte chunks", s.cfg.Algorithm(), s.cfg.ChunkSize),
	}
}

func (s *Service) keysDirectoryCheck(context.Context) observability.ComponentHealth {
	dir := filepath.Dir(s.keys.Paths().Secret)
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return observability.ComponentHealth{
			Status:  observability.HealthStatusDegraded,
			Message: fmt.Sprintf("%s does not exist; generate-keypair will create it", dir),
		}
	case err != nil:
		return unhealthy(err)
	case !info.IsDir():
		return observability.ComponentHealth{
			Status:  observability.HealthStatusUnhealthy,
			Message: fmt.Sprintf("%s is not a directory", dir),
		}
	}
	return observability.ComponentHealth{Status: observability.HealthStatusOK, Message: dir}
}

func (s *Service) keypairCheck(context.Context) observability.ComponentHealth {
	existing, err := s.keys.Existing()
	if err != nil {
		return unhealthy(err)
	}
	if len(existing) == 0 {
		return observability.ComponentHealth{
			Status:  observability.HealthStatusDegraded,
			Message: "no keypair; run generate-keypair",
		}
	}

	kp, err := s.keys.LoadKeyPair()
	if err != nil {
		return unhealthy(err)
	}
	defer kp.Destroy()

	return observability.ComponentHealth{
		Status:  observability.HealthStatusOK,
		Message: crypto.ComputeFingerprint(kp.PublicKey),
	}
}

func unhealthy(err error) observability.ComponentHealth {
	return observability.ComponentHealth{
		Status:  observability.HealthStatusUnhealthy,
		Message: err.Error(),
	}
}
