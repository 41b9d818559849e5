package owid

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/covid-data-tracker/internal/domain"
	"github.com/couchcryptid/covid-data-tracker/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	rows  []domain.Observation
	err   error
	calls int
}

func (s *stubFetcher) Fetch(_ context.Context) ([]domain.Observation, error) {
	s.calls++
	return s.rows, s.err
}

func writeLocal(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "owid-covid-data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_RemoteSuccess(t *testing.T) {
	remote := &stubFetcher{rows: []domain.Observation{{Location: "Kenya"}}}
	var console bytes.Buffer
	metrics := observability.NewMetrics()

	l := NewLoader(remote, "does-not-exist.csv", &console, observability.DiscardLogger(), metrics)
	ds, err := l.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.SourceRemote, ds.Source)
	assert.Len(t, ds.Observations, 1)
	assert.Contains(t, console.String(), "Successfully loaded live data")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RowsLoaded.WithLabelValues("remote")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.SourceFallbacks), 0)
}

func TestLoader_FallsBackToLocal(t *testing.T) {
	remote := &stubFetcher{err: errors.New("dial tcp: no route to host")}
	path := writeLocal(t, sampleCSV)
	var console bytes.Buffer
	metrics := observability.NewMetrics()

	l := NewLoader(remote, path, &console, observability.DiscardLogger(), metrics)
	ds, err := l.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.SourceLocal, ds.Source)
	assert.Len(t, ds.Observations, 2)
	assert.Contains(t, console.String(), "Online load failed: dial tcp: no route to host")
	assert.Contains(t, console.String(), "Loading local file...")
	assert.Contains(t, console.String(), "Loaded local data from "+path+"\n")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SourceFallbacks), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RowsLoaded.WithLabelValues("local")), 0)
}

func TestLoader_BothSourcesFail(t *testing.T) {
	remoteErr := errors.New("remote down")
	remote := &stubFetcher{err: remoteErr}

	l := NewLoader(remote, filepath.Join(t.TempDir(), "missing.csv"), &bytes.Buffer{}, observability.DiscardLogger(), observability.NewMetrics())
	_, err := l.Load(context.Background())

	require.Error(t, err)
	require.ErrorIs(t, err, remoteErr)
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "load dataset")
}

func TestLoader_LocalParseError(t *testing.T) {
	remote := &stubFetcher{err: errors.New("timeout")}
	path := writeLocal(t, "location,date\nKenya,not-a-date\n")

	l := NewLoader(remote, path, &bytes.Buffer{}, observability.DiscardLogger(), observability.NewMetrics())
	_, err := l.Load(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode local dataset")
	assert.Equal(t, 1, remote.calls, "no retries beyond the single fallback")
}
