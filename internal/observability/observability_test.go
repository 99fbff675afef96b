package observability_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/quantarax/sigtool/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_json_fields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := observability.NewLogger("sigtool", "test", &buf, observability.LoggerOptions{
		Level:  "info",
		Format: "json",
	}).WithOperation("op-1")

	log.HashCompleted("sha512", 42, 1, time.Millisecond)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sigtool", entry["service"])
	assert.Equal(t, "op-1", entry["operation_id"])
	assert.Equal(t, "sha512", entry["algorithm"])
	assert.EqualValues(t, 42, entry["bytes"])
	assert.Equal(t, "hash completed", entry["message"])
}

func TestLogger_level_filters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := observability.NewLogger("sigtool", "test", &buf, observability.LoggerOptions{
		Level:  "warn",
		Format: "json",
	})

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.KeypairExists("key.pub")
	assert.Contains(t, buf.String(), "--force")
}

func TestLogger_console_format(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := observability.NewLogger("sigtool", "test", &buf, observability.LoggerOptions{
		Level:  "info",
		Format: "console",
	})
	log.Info("hello")

	assert.False(t, strings.HasPrefix(buf.String(), "{"))
	assert.Contains(t, buf.String(), "hello")
}

func TestMetrics_record_and_write_textfile(t *testing.T) {
	t.Parallel()

	m := observability.NewMetrics()
	m.RecordChunk("sha512", 100)
	m.RecordChunk("sha512", 50)
	m.RecordHash("sha512", true, 0.01)
	m.RecordKeypairGeneration("exists")
	m.RecordVerification("invalid")

	assert.InDelta(t, 150, testutil.ToFloat64(m.BytesHashedTotal.WithLabelValues("sha512")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ChunksHashedTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.HashOperationsTotal.WithLabelValues("sha512", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.KeypairGenerationsTotal.WithLabelValues("exists")), 0)

	pa := filepath.Join(t.TempDir(), "sigtool.prom")
	require.NoError(t, m.WriteTextfile(pa))

	data, err := os.ReadFile(pa)
	require.NoError(t, err)
	assert.Contains(t, string(data), `sigtool_verifications_total{result="invalid"} 1`)
}

func TestMetrics_instances_are_independent(t *testing.T) {
	t.Parallel()

	a := observability.NewMetrics()
	b := observability.NewMetrics()
	a.RecordSignature(true)

	assert.InDelta(t, 1, testutil.ToFloat64(a.SignaturesTotal.WithLabelValues("success")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.SignaturesTotal.WithLabelValues("success")), 0)
}

func TestHealthChecker_aggregates_worst_status(t *testing.T) {
	t.Parallel()

	hc := observability.NewHealthChecker("test")
	hc.RegisterCheck("b", func(context.Context) observability.ComponentHealth {
		return observability.ComponentHealth{Status: observability.HealthStatusDegraded}
	})
	hc.RegisterCheck("a", func(context.Context) observability.ComponentHealth {
		return observability.ComponentHealth{Status: observability.HealthStatusOK}
	})

	resp := hc.Check(context.Background())
	assert.Equal(t, observability.HealthStatusDegraded, resp.Status)
	assert.Equal(t, []string{"a", "b"}, hc.Names())

	hc.RegisterCheck("c", func(context.Context) observability.ComponentHealth {
		return observability.ComponentHealth{Status: observability.HealthStatusUnhealthy}
	})
	assert.Equal(t, observability.HealthStatusUnhealthy, hc.Check(context.Background()).Status)
}

func TestInitTracing_noop_without_endpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_JAEGER_ENDPOINT", "")

	shutdown, err := observability.InitTracing(context.Background(), "sigtool", "test")
	require.NoError(t, err)

	ctx, span := observability.StartSpan(context.Background(), "noop")
	assert.NotNil(t, ctx)
	observability.EndSpan(span, errors.New("recorded"))
	require.NoError(t, shutdown(context.Background()))
}
