package chart

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/couchcryptid/covid-data-tracker/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

const (
	// TrendFile is the file name of the trend composite inside the output directory.
	TrendFile = "time_series.png"

	rollingWindow = 7
)

func rolling(get func(domain.Observation) *float64) func([]domain.Observation) []*float64 {
	raw := field(get)
	return func(series []domain.Observation) []*float64 {
		return domain.RollingMean(raw(series), rollingWindow)
	}
}

var trendPanels = [2][2]panelSpec{
	{
		{
			title:  "Total COVID-19 Cases",
			yLabel: "Total Cases",
			counts: true,
			values: field(func(o domain.Observation) *float64 { return o.TotalCases }),
		},
		{
			title:  "Total COVID-19 Deaths",
			yLabel: "Total Deaths",
			counts: true,
			values: field(func(o domain.Observation) *float64 { return o.TotalDeaths }),
		},
	},
	{
		{
			title:  "7-Day Average of New Cases",
			yLabel: "New Cases (7-day avg)",
			counts: true,
			values: rolling(func(o domain.Observation) *float64 { return o.NewCases }),
		},
		{
			title:  "7-Day Average Death Rate",
			yLabel: "Death Rate (deaths / cases)",
			values: rolling(func(o domain.Observation) *float64 { return o.DeathRate }),
		},
	},
}

// TrendRenderer writes the 2×2 case/death trend composite.
type TrendRenderer struct {
	outputDir string
	console   io.Writer
	logger    *slog.Logger
}

// NewTrendRenderer creates a TrendRenderer writing into outputDir.
func NewTrendRenderer(outputDir string, console io.Writer, logger *slog.Logger) *TrendRenderer {
	return &TrendRenderer{outputDir: outputDir, console: console, logger: logger}
}

// Name identifies the renderer in logs and metrics.
func (r *TrendRenderer) Name() string { return "trend" }

// Render draws the cleaned table and writes the PNG. An empty table still
// produces a file with empty axes.
func (r *TrendRenderer) Render(_ context.Context, tables domain.Tables) (domain.Artifact, error) {
	plots, err := TrendPlots(tables.Cleaned, tables.Countries)
	if err != nil {
		return domain.Artifact{}, err
	}

	path := filepath.Join(r.outputDir, TrendFile)
	if err := saveGrid(path, 16*vg.Inch, 12*vg.Inch, plots); err != nil {
		return domain.Artifact{}, fmt.Errorf("save trend plots: %w", err)
	}

	r.logger.Debug("trend plots written", "path", path, "countries", len(tables.Countries))
	fmt.Fprintf(r.console, "Saved time series plots to %s\n", path)
	return domain.Artifact{
		Name:        TrendFile,
		Path:        path,
		Description: "Cumulative cases/deaths and 7-day averages per country",
	}, nil
}

// TrendPlots builds the four trend panels. The legend is drawn on the first
// panel only.
func TrendPlots(cleaned []domain.Observation, countries []string) ([][]*plot.Plot, error) {
	plots := make([][]*plot.Plot, len(trendPanels))
	for row := range trendPanels {
		plots[row] = make([]*plot.Plot, len(trendPanels[row]))
		for col, spec := range trendPanels[row] {
			p, err := buildPanel(spec, cleaned, countries, breakLine, row == 0 && col == 0)
			if err != nil {
				return nil, err
			}
			plots[row][col] = p
		}
	}
	return plots, nil
}
