package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveProvider(t *testing.T) {
	m := NewMetricsForTesting()

	m.ObserveProvider("openmeteo", 120*time.Millisecond, nil)
	m.ObserveProvider("openmeteo", 80*time.Millisecond, errors.New("timeout"))
	m.ObserveProvider("weatherapi", 10*time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("openmeteo", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("openmeteo", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("weatherapi", "success")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.AdapterDuration))
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.StaleCycles.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.StaleCycles))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.StaleCycles))
}

func TestNewLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "debug", "json").Debug("hello", "city", "erzurum")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "erzurum", line["city"])

	buf.Reset()
	newLogger(&buf, "warn", "text").Info("dropped")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
