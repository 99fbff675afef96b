// Package service runs one sigtool operation end to end: it wires the digest
// engine and the keypair manager to configuration, structured logging,
// metrics and tracing.
package service

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/quantarax/sigtool/internal/config"
	"github.com/quantarax/sigtool/internal/crypto"
	"github.com/quantarax/sigtool/internal/observability"
)

// StdinPath selects standard input as the byte source for Hash, Sign and
// Verify.
const StdinPath = "-"

// Service executes sigtool operations. Each call owns its own hash state or
// keypair; a Service holds no per-operation state.
type Service struct {
	cfg     *config.Config
	log     *observability.Logger
	metrics *observability.Metrics
	keys    *crypto.Manager
	stdin   io.Reader
}

// New validates cfg and builds a Service. A nil logger discards output and
// nil metrics are replaced by a fresh private set.
func New(cfg *config.Config, logger *observability.Logger, metrics *observability.Metrics) (*Service, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	return &Service{
		cfg:     cfg,
		log:     logger,
		metrics: metrics,
		keys:    crypto.NewManager(cfg.KeyPaths(), cfg.Encoding()),
		stdin:   os.Stdin,
	}, nil
}

// SetStdin replaces the reader used for StdinPath.
func (s *Service) SetStdin(r io.Reader) { s.stdin = r }

// Config returns the validated configuration.
func (s *Service) Config() *config.Config { return s.cfg }

// Metrics returns the metrics the service records into.
func (s *Service) Metrics() *observability.Metrics { return s.metrics }

// begin assigns an operation ID and opens a span for one operation.
func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, oteltrace.Span, *observability.Logger) {
	id := uuid.NewString()
	attrs = append(attrs, attribute.String("sigtool.operation_id", id))
	ctx, span := observability.StartSpan(ctx, "sigtool."+op, oteltrace.WithAttributes(attrs...))
	return ctx, span, s.log.WithOperation(id)
}

// openSource opens path for reading, or returns stdin for StdinPath.
func (s *Service) openSource(path string) (io.ReadCloser, error) {
	if path == StdinPath {
		return io.NopCloser(s.stdin), nil
	}
	f, err := os.Open(path) //nolint:gosec // caller-supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}
