// Package choropleth renders the interactive world map of the latest
// snapshot as an HTML page backed by Plotly.js. When the library source is
// supplied it is inlined, so the page opens without network access.
package choropleth

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/covid-data-tracker/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// File is the file name of the map inside the output directory.
	File = "choropleth.html"

	// LibraryURL is where the page loads Plotly.js from when no local copy
	// was supplied.
	LibraryURL = "https://cdn.plot.ly/plotly-2.35.2.min.js"
)

//go:embed choropleth.html.tmpl
var pageTemplate string

var (
	page    = template.Must(template.New("choropleth").Parse(pageTemplate))
	printer = message.NewPrinter(language.English)
)

// Trace is the single Plotly choropleth trace. Field names follow the
// Plotly.js schema.
type Trace struct {
	Type          string     `json:"type"`
	LocationMode  string     `json:"locationmode"`
	Locations     []string   `json:"locations"`
	Z             []*float64 `json:"z"`
	Text          []string   `json:"text"`
	HoverTemplate string     `json:"hovertemplate"`
	ColorScale    string     `json:"colorscale"`
	ColorBar      ColorBar   `json:"colorbar"`
}

// ColorBar labels the color legend.
type ColorBar struct {
	Title struct {
		Text string `json:"text"`
	} `json:"title"`
}

// Map is everything the page template needs.
type Map struct {
	Title string
	AsOf  time.Time
	Trace Trace

	// Library is the inlined Plotly.js source. LibraryURL is used only
	// when it is empty.
	Library    template.JS
	LibraryURL string
}

// Renderer writes the choropleth page.
type Renderer struct {
	outputDir string
	library   []byte
	console   io.Writer
	logger    *slog.Logger
}

// NewRenderer creates a Renderer writing into outputDir. library is the
// Plotly.js source to inline; nil makes the page load it from LibraryURL.
func NewRenderer(outputDir string, library []byte, console io.Writer, logger *slog.Logger) *Renderer {
	return &Renderer{outputDir: outputDir, library: library, console: console, logger: logger}
}

// Name identifies the renderer in logs and metrics.
func (r *Renderer) Name() string { return "choropleth" }

// Render maps the latest snapshot of the raw, unfiltered table.
func (r *Renderer) Render(_ context.Context, tables domain.Tables) (domain.Artifact, error) {
	m := Build(tables.Raw)
	if len(r.library) > 0 {
		m.Library = template.JS(r.library) //nolint:gosec // trusted local copy of Plotly.js
	} else {
		r.logger.Warn("plotly.js not available locally, map will need network access", "url", LibraryURL)
	}

	path := filepath.Join(r.outputDir, File)
	if err := writePage(path, m); err != nil {
		return domain.Artifact{}, err
	}

	r.logger.Debug("choropleth written",
		"path", path,
		"as_of", m.AsOf,
		"countries", len(m.Trace.Locations),
		"inlined_library", m.Library != "",
	)
	fmt.Fprintf(r.console, "Saved interactive choropleth to %s\n", path)
	return domain.Artifact{
		Name:        File,
		Path:        path,
		Description: "Cases per million on " + asOfLabel(m.AsOf),
	}, nil
}

// Build selects the rows of the latest date in raw and turns the ones with
// a country code into map data. Aggregates such as OWID_WRL are part of
// the snapshot but cannot be placed on a map.
func Build(raw []domain.Observation) Map {
	asOf, snapshot := domain.LatestSnapshot(raw)

	tr := Trace{
		Type:          "choropleth",
		LocationMode:  "ISO-3",
		Locations:     []string{},
		Z:             []*float64{},
		Text:          []string{},
		HoverTemplate: "%{text}<extra></extra>",
		ColorScale:    "Plasma",
	}
	tr.ColorBar.Title.Text = "Cases per Million"

	for i := range snapshot {
		o := snapshot[i]
		if !IsCountryCode(o.ISOCode) {
			continue
		}
		tr.Locations = append(tr.Locations, o.ISOCode)
		tr.Z = append(tr.Z, casesPerMillion(o))
		tr.Text = append(tr.Text, hoverText(o))
	}

	return Map{
		Title:      "COVID-19 Cases per Million (as of " + asOfLabel(asOf) + ")",
		AsOf:       asOf,
		Trace:      tr,
		LibraryURL: LibraryURL,
	}
}

// IsCountryCode reports whether code is an ISO 3166-1 alpha-3 country code.
func IsCountryCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	region, err := language.ParseRegion(code)
	if err != nil {
		return false
	}
	return region.IsCountry()
}

// casesPerMillion prefers the value derived from the row's own totals and
// falls back to the source column.
func casesPerMillion(o domain.Observation) *float64 {
	if v := domain.Derive(o).CasesPerMillion; v != nil {
		return v
	}
	return o.SourceCasesPerMillion
}

func hoverText(o domain.Observation) string {
	return fmt.Sprintf("<b>%s</b><br>Total cases: %s<br>Total deaths: %s",
		o.Location, count(o.TotalCases), count(o.TotalDeaths))
}

func count(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return printer.Sprintf("%d", int64(*v))
}

func asOfLabel(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.Format(domain.DateLayout)
}

func writePage(path string, m Map) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := page.Execute(f, m); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}
