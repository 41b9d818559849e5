// Package report writes the tabular outputs: the latest-observation summary
// as CSV and console table, and the Excel workbook.
package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/couchcryptid/covid-data-tracker/internal/console"
	"github.com/couchcryptid/covid-data-tracker/internal/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SummaryFile is the file name of the summary CSV inside the output directory.
const SummaryFile = "latest_summary.csv"

var printer = message.NewPrinter(language.English)

// Summary is the latest cleaned observation of each rendered country.
func Summary(tables domain.Tables) []domain.Observation {
	latest := domain.LatestPerLocation(tables.Cleaned)
	byLocation := make(map[string]domain.Observation, len(latest))
	for _, o := range latest {
		byLocation[o.Location] = o
	}

	out := make([]domain.Observation, 0, len(tables.Countries))
	for _, c := range tables.Countries {
		if o, ok := byLocation[c]; ok {
			out = append(out, o)
		}
	}
	return out
}

// SummaryFrame holds one row per country. Absent numbers are NaN, gota's
// missing value.
func SummaryFrame(rows []domain.Observation) dataframe.DataFrame {
	locations := make([]string, len(rows))
	dates := make([]string, len(rows))
	for i, o := range rows {
		locations[i] = o.Location
		dates[i] = o.Date.Format(domain.DateLayout)
	}

	return dataframe.New(
		series.New(locations, series.String, "location"),
		series.New(dates, series.String, "date"),
		floatSeries(rows, "total_cases", func(o domain.Observation) *float64 { return o.TotalCases }),
		floatSeries(rows, "total_deaths", func(o domain.Observation) *float64 { return o.TotalDeaths }),
		floatSeries(rows, "total_vaccinations", func(o domain.Observation) *float64 { return o.TotalVaccinations }),
		floatSeries(rows, "death_rate", func(o domain.Observation) *float64 { return o.DeathRate }),
		floatSeries(rows, "cases_per_million", func(o domain.Observation) *float64 { return o.CasesPerMillion }),
		floatSeries(rows, "vaccination_per_hundred", func(o domain.Observation) *float64 { return o.VaccinationsPerHundred }),
	)
}

func floatSeries(rows []domain.Observation, name string, get func(domain.Observation) *float64) series.Series {
	vals := make([]float64, len(rows))
	for i, o := range rows {
		if v := get(o); v != nil {
			vals[i] = *v
		} else {
			vals[i] = math.NaN()
		}
	}
	return series.New(vals, series.Float, name)
}

// SummaryRenderer writes latest_summary.csv and prints the same rows as a
// console table.
type SummaryRenderer struct {
	outputDir string
	console   io.Writer
	logger    *slog.Logger
}

// NewSummaryRenderer creates a SummaryRenderer writing into outputDir.
func NewSummaryRenderer(outputDir string, out io.Writer, logger *slog.Logger) *SummaryRenderer {
	return &SummaryRenderer{outputDir: outputDir, console: out, logger: logger}
}

// Name identifies the renderer in logs and metrics.
func (r *SummaryRenderer) Name() string { return "summary" }

// Render writes the summary CSV and table.
func (r *SummaryRenderer) Render(_ context.Context, tables domain.Tables) (domain.Artifact, error) {
	rows := Summary(tables)
	df := SummaryFrame(rows)
	if df.Err != nil {
		return domain.Artifact{}, fmt.Errorf("build summary frame: %w", df.Err)
	}

	path := filepath.Join(r.outputDir, SummaryFile)
	f, err := os.Create(path)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("create %s: %w", path, err)
	}
	if err := df.WriteCSV(f); err != nil {
		f.Close()
		return domain.Artifact{}, fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return domain.Artifact{}, fmt.Errorf("close %s: %w", path, err)
	}

	r.logger.Debug("summary written", "path", path, "countries", len(rows))
	fmt.Fprintln(r.console, "\nLatest snapshot per country:")
	fmt.Fprintln(r.console, SummaryTable(rows))
	fmt.Fprintf(r.console, "Saved latest summary to %s\n", path)

	return domain.Artifact{
		Name:        SummaryFile,
		Path:        path,
		Description: "Latest observation per country",
	}, nil
}

// SummaryTable renders rows for the terminal.
func SummaryTable(rows []domain.Observation) string {
	headers := []string{"Country", "Date", "Total Cases", "Total Deaths", "Death Rate", "Cases/Million", "Vaccinations/100"}
	aligns := []console.Alignment{
		console.AlignLeft, console.AlignLeft,
		console.AlignRight, console.AlignRight, console.AlignRight, console.AlignRight, console.AlignRight,
	}

	cells := make([][]string, 0, len(rows))
	for _, o := range rows {
		cells = append(cells, []string{
			o.Location,
			o.Date.Format(domain.DateLayout),
			formatInt(o.TotalCases),
			formatInt(o.TotalDeaths),
			formatDecimal(o.DeathRate, 4),
			formatDecimal(o.CasesPerMillion, 1),
			formatDecimal(o.VaccinationsPerHundred, 1),
		})
	}
	return console.Table(headers, cells, aligns)
}

func formatInt(v *float64) string {
	if v == nil {
		return "-"
	}
	return printer.Sprintf("%d", int64(*v))
}

func formatDecimal(v *float64, places int) string {
	if v == nil {
		return "-"
	}
	return printer.Sprintf("%.*f", places, *v)
}
