package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for one sigtool invocation, registered
// on a private registry rather than the global default.
type Metrics struct {
	registry *prometheus.Registry

	// Digest metrics
	HashOperationsTotal *prometheus.CounterVec
	BytesHashedTotal    *prometheus.CounterVec
	ChunksHashedTotal   prometheus.Counter
	HashDuration        prometheus.Histogram

	// Key metrics
	KeypairGenerationsTotal *prometheus.CounterVec

	// Signature metrics
	SignaturesTotal         *prometheus.CounterVec
	VerificationsTotal      *prometheus.CounterVec
	CryptoOperationDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		HashOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigtool_hash_operations_total",
				Help: "Digest computations by algorithm and result",
			},
			[]string{"algorithm", "result"},
		),

		BytesHashedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigtool_bytes_hashed_total",
				Help: "Bytes fed to the digest engine",
			},
			[]string{"algorithm"},
		),

		ChunksHashedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sigtool_chunks_hashed_total",
				Help: "Chunks fed to the digest engine",
			},
		),

		HashDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sigtool_hash_duration_seconds",
				Help:    "Digest computation time distribution",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
		),

		KeypairGenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigtool_keypair_generations_total",
				Help: "Keypair generation attempts by result",
			},
			[]string{"result"},
		),

		SignaturesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigtool_signatures_total",
				Help: "Detached signatures produced by result",
			},
			[]string{"result"},
		),

		VerificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigtool_verifications_total",
				Help: "Signature verifications by result (valid, invalid, malformed, error)",
			},
			[]string{"result"},
		),

		CryptoOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sigtool_crypto_operation_duration_seconds",
				Help:    "Keygen, sign and verify latency",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"operation"},
		),
	}

	return m
}

// Registry exposes the private registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RecordChunk counts one chunk of n bytes.
func (m *Metrics) RecordChunk(algorithm string, n int) {
	m.ChunksHashedTotal.Inc()
	m.BytesHashedTotal.WithLabelValues(algorithm).Add(float64(n))
}

// RecordHash records a finished digest computation.
func (m *Metrics) RecordHash(algorithm string, success bool, durationSeconds float64) {
	m.HashOperationsTotal.WithLabelValues(algorithm, resultLabel(success)).Inc()
	if success {
		m.HashDuration.Observe(durationSeconds)
	}
}

// RecordKeypairGeneration records a generation attempt. result is one of
// "generated", "exists" or "failure".
func (m *Metrics) RecordKeypairGeneration(result string) {
	m.KeypairGenerationsTotal.WithLabelValues(result).Inc()
}

// RecordSignature records a signing attempt.
func (m *Metrics) RecordSignature(success bool) {
	m.SignaturesTotal.WithLabelValues(resultLabel(success)).Inc()
}

// RecordVerification records a verification outcome.
func (m *Metrics) RecordVerification(result string) {
	m.VerificationsTotal.WithLabelValues(result).Inc()
}

// RecordCryptoOperation records cryptographic operation duration.
func (m *Metrics) RecordCryptoOperation(operation string, durationSeconds float64) {
	m.CryptoOperationDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// WriteTextfile dumps all metrics in Prometheus text format to path, for
// node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
