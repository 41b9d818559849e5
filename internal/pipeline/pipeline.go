package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/covid-data-tracker/internal/console"
	"github.com/couchcryptid/covid-data-tracker/internal/domain"
	"github.com/couchcryptid/covid-data-tracker/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DatasetLoader obtains the full, unfiltered dataset.
type DatasetLoader interface {
	Load(ctx context.Context) (domain.Dataset, error)
}

// Transformer turns the loaded dataset into the tables renderers consume.
type Transformer interface {
	Clean(ctx context.Context, ds domain.Dataset) domain.Tables
}

// Renderer writes one output artifact.
type Renderer interface {
	Name() string
	Render(ctx context.Context, tables domain.Tables) (domain.Artifact, error)
}

// Publisher ships cleaned observations to an external system.
type Publisher interface {
	Publish(ctx context.Context, rows []domain.Observation) error
}

// Stages groups the collaborators of a Runner. Publisher may be nil.
type Stages struct {
	Loader    DatasetLoader
	Cleaner   Transformer
	Renderers []Renderer
	Publisher Publisher
}

// Manifest summarizes a completed run.
type Manifest struct {
	Source    domain.Source
	RawRows   int
	Cleaned   int
	Countries []string
	Artifacts []domain.Artifact
	Published int
}

// Runner executes the load-clean-render sequence once.
type Runner struct {
	stages    Stages
	outputDir string
	console   io.Writer
	decorate  bool
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Runner. Console output (banners, manifest) goes to out;
// emoji markers are added only when out is a terminal.
func New(stages Stages, outputDir string, out io.Writer, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		stages:    stages,
		outputDir: outputDir,
		console:   out,
		decorate:  console.IsTerminal(out),
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run performs one analysis. Any load or render failure aborts the run;
// publishing is best-effort.
func (r *Runner) Run(ctx context.Context) (Manifest, error) {
	var m Manifest
	r.banner("🦠 ", "COVID-19 DATA ANALYSIS STARTED")

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return m, fmt.Errorf("create output directory: %w", err)
	}

	start := r.clock.Now()
	ds, err := r.stages.Loader.Load(ctx)
	if err != nil {
		return m, err
	}
	r.observe("load", start)
	m.Source = ds.Source
	m.RawRows = len(ds.Observations)

	start = r.clock.Now()
	tables := r.stages.Cleaner.Clean(ctx, ds)
	r.observe("clean", start)
	m.Cleaned = len(tables.Cleaned)
	m.Countries = tables.Countries
	r.metrics.RowsCleaned.Set(float64(len(tables.Cleaned)))
	r.metrics.CountriesRendered.Set(float64(len(tables.Countries)))
	if len(tables.Cleaned) == 0 {
		r.logger.Warn("no observations for the selected countries, rendering empty artifacts")
	}

	start = r.clock.Now()
	for _, rd := range r.stages.Renderers {
		if err := ctx.Err(); err != nil {
			return m, err
		}
		art, err := rd.Render(ctx, tables)
		if err != nil {
			return m, fmt.Errorf("render %s: %w", rd.Name(), err)
		}
		r.metrics.ArtifactsWritten.WithLabelValues(rd.Name()).Inc()
		r.logger.Info("artifact written", "renderer", rd.Name(), "path", art.Path)
		m.Artifacts = append(m.Artifacts, art)
	}
	r.observe("render", start)

	if r.stages.Publisher != nil {
		start = r.clock.Now()
		m.Published = r.publish(ctx, tables.Cleaned)
		r.observe("publish", start)
	}

	r.metrics.LastSuccess.Set(float64(r.clock.Now().Unix()))
	r.banner("✅ ", "ANALYSIS COMPLETE")
	r.printManifest(m)
	return m, nil
}

func (r *Runner) publish(ctx context.Context, rows []domain.Observation) int {
	if err := r.stages.Publisher.Publish(ctx, rows); err != nil {
		r.logger.Warn("publish observations failed", "error", err, "count", len(rows))
		r.metrics.PublishErrors.Inc()
		return 0
	}
	r.metrics.ObservationsPublished.Add(float64(len(rows)))
	return len(rows)
}

func (r *Runner) observe(stage string, start time.Time) {
	elapsed := r.clock.Since(start)
	r.metrics.StageDuration.WithLabelValues(stage).Set(elapsed.Seconds())
	r.logger.Debug("stage finished", "stage", stage, "duration", elapsed)
}

func (r *Runner) banner(marker, title string) {
	if r.decorate {
		title = marker + title
	}
	fmt.Fprintln(r.console, "\n"+console.Banner(title))
}

func (r *Runner) printManifest(m Manifest) {
	p := message.NewPrinter(language.English)
	p.Fprintf(r.console, "Data source: %s (%d rows), %d cleaned rows across %d countries\n",
		m.Source, m.RawRows, m.Cleaned, len(m.Countries))

	rows := make([][]string, 0, len(m.Artifacts))
	for _, a := range m.Artifacts {
		rows = append(rows, []string{a.Name, a.Path, a.Description})
	}
	fmt.Fprintln(r.console, console.Table([]string{"Artifact", "Path", "Description"}, rows, nil))
}
