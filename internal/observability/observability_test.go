package observability

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_FreshRegistryEachCall(t *testing.T) {
	m1 := NewMetrics()
	m2 := NewMetrics()

	m1.RowsCleaned.Set(12)
	m1.RowsLoaded.WithLabelValues("remote").Set(100)
	m1.ArtifactsWritten.WithLabelValues("trend").Inc()

	assert.InDelta(t, 12, testutil.ToFloat64(m1.RowsCleaned), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m2.RowsCleaned), 0)

	families, err := m1.Registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "covid_tracker_rows_cleaned")
	assert.Contains(t, names, "covid_tracker_rows_loaded")
	assert.Contains(t, names, "covid_tracker_artifacts_written_total")
}

func TestMetrics_Push(t *testing.T) {
	var gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMetrics()
	m.RowsCleaned.Set(42)

	require.NoError(t, m.Push(context.Background(), srv.URL))
	assert.Equal(t, "/metrics/job/covid_tracker", gotPath)
	assert.NotEmpty(t, gotBody)
}

func TestMetrics_PushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewMetrics().Push(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push metrics")
}

func TestNewLogger(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, "info", "json")
		logger.Info("hello", "rows", 3)
		assert.Contains(t, buf.String(), `"msg":"hello"`)
		assert.Contains(t, buf.String(), `"rows":3`)
	})

	t.Run("text filters below level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, "warn", "text")
		logger.Info("quiet")
		logger.Warn("loud")
		assert.NotContains(t, buf.String(), "quiet")
		assert.Contains(t, buf.String(), "msg=loud")
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
