package owid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/covid-data-tracker/internal/domain"
	"github.com/couchcryptid/covid-data-tracker/internal/observability"
)

// Fetcher retrieves the remote dataset.
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.Observation, error)
}

// Loader obtains the dataset from the remote source, falling back to a local
// copy on any remote failure. It implements pipeline.DatasetLoader.
type Loader struct {
	remote    Fetcher
	localPath string
	console   io.Writer
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewLoader creates a Loader. console receives the one-line status message
// naming the source that succeeded.
func NewLoader(remote Fetcher, localPath string, console io.Writer, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		remote:    remote,
		localPath: localPath,
		console:   console,
		logger:    logger,
		metrics:   metrics,
	}
}

// Load returns the full, unfiltered dataset. It fails only when both the
// remote and the local source fail.
func (l *Loader) Load(ctx context.Context) (domain.Dataset, error) {
	rows, remoteErr := l.remote.Fetch(ctx)
	if remoteErr == nil {
		fmt.Fprintln(l.console, "Successfully loaded live data from OWID")
		l.metrics.RowsLoaded.WithLabelValues(string(domain.SourceRemote)).Set(float64(len(rows)))
		return domain.Dataset{Observations: rows, Source: domain.SourceRemote}, nil
	}

	l.logger.Warn("remote dataset unavailable, using local copy",
		"error", remoteErr,
		"path", l.localPath,
	)
	l.metrics.SourceFallbacks.Inc()
	fmt.Fprintf(l.console, "Online load failed: %v\nLoading local file...\n", remoteErr)

	rows, localErr := readLocal(l.localPath)
	if localErr != nil {
		return domain.Dataset{}, fmt.Errorf("load dataset: %w", errors.Join(remoteErr, localErr))
	}

	fmt.Fprintf(l.console, "Loaded local data from %s\n", l.localPath)
	l.metrics.RowsLoaded.WithLabelValues(string(domain.SourceLocal)).Set(float64(len(rows)))
	return domain.Dataset{Observations: rows, Source: domain.SourceLocal}, nil
}

func readLocal(path string) ([]domain.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open local dataset: %w", err)
	}
	defer f.Close()

	rows, err := domain.DecodeCSV(f)
	if err != nil {
		return nil, fmt.Errorf("decode local dataset %s: %w", path, err)
	}
	return rows, nil
}
