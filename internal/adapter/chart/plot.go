// Package chart renders the static PNG composites: case/death trends and
// vaccination progress, one line per country per panel.
package chart

import (
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/couchcryptid/covid-data-tracker/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// DPI is the raster resolution of every PNG written by this package.
const DPI = 300

var numberPrinter = message.NewPrinter(language.English)

// absentPolicy decides what an absent value does to a country's line.
type absentPolicy int

const (
	// breakLine leaves a visible gap.
	breakLine absentPolicy = iota
	// skipPoint drops the row and joins its neighbours.
	skipPoint
)

// segments splits a series into drawable runs. Dates and values are
// parallel slices in chronological order.
func segments(dates []time.Time, values []*float64, policy absentPolicy) []plotter.XYs {
	var (
		out     []plotter.XYs
		current plotter.XYs
	)
	for i, v := range values {
		if v == nil {
			if policy == breakLine && len(current) > 0 {
				out = append(out, current)
				current = nil
			}
			continue
		}
		current = append(current, plotter.XY{X: float64(dates[i].Unix()), Y: *v})
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}

// addCountry draws one country's series on p. The legend entry is added
// once, on the first segment, when withLegend is set.
func addCountry(p *plot.Plot, name string, idx int, dates []time.Time, values []*float64, policy absentPolicy, withLegend bool) error {
	c := plotutil.Color(idx)
	for n, xys := range segments(dates, values, policy) {
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("line for %s: %w", name, err)
		}
		line.LineStyle.Color = c
		line.LineStyle.Width = vg.Points(1.2)
		p.Add(line)
		if withLegend && n == 0 {
			p.Legend.Add(name, line)
		}
	}
	return nil
}

// newPanel creates a subplot with the shared styling: title, y label, date
// x axis and background grid.
func newPanel(title, yLabel string, counts bool) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.Text = yLabel
	p.Y.Label.TextStyle.Font.Size = vg.Points(10)
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	if counts {
		p.Y.Tick.Marker = countTicks{}
	}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.TextStyle.Font.Size = vg.Points(8)
	grid := plotter.NewGrid()
	grid.Vertical.Color = color.Gray{Y: 220}
	grid.Horizontal.Color = color.Gray{Y: 220}
	p.Add(grid)
	return p
}

// countTicks labels large counts with thousands separators instead of
// scientific notation.
type countTicks struct{}

func (countTicks) Ticks(minV, maxV float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(minV, maxV)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = formatCount(ticks[i].Value)
		}
	}
	return ticks
}

func formatCount(v float64) string {
	return numberPrinter.Sprintf("%d", int64(v))
}

// saveGrid lays plots out in a rows×cols grid on one canvas and writes it as PNG.
func saveGrid(path string, width, height vg.Length, plots [][]*plot.Plot) error {
	img := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(DPI))
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      len(plots[0]),
		PadX:      vg.Millimeter * 6,
		PadY:      vg.Millimeter * 6,
		PadTop:    vg.Millimeter * 3,
		PadBottom: vg.Millimeter * 3,
		PadLeft:   vg.Millimeter * 3,
		PadRight:  vg.Millimeter * 3,
	}
	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i := range plots[j] {
			if plots[j][i] != nil {
				plots[j][i].Draw(canvases[j][i])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// panelSpec describes one subplot: what to draw and how to label it.
type panelSpec struct {
	title  string
	yLabel string
	counts bool
	// values maps one country's chronological series to the plotted values.
	values func(series []domain.Observation) []*float64
}

// field adapts a single Observation field to panelSpec.values.
func field(get func(domain.Observation) *float64) func([]domain.Observation) []*float64 {
	return func(series []domain.Observation) []*float64 {
		out := make([]*float64, len(series))
		for i := range series {
			out[i] = get(series[i])
		}
		return out
	}
}

// buildPanel draws every country of the subset on one subplot. Colors are
// assigned by the country's position in countries so they match across
// panels.
func buildPanel(spec panelSpec, rows []domain.Observation, countries []string, policy absentPolicy, withLegend bool) (*plot.Plot, error) {
	p := newPanel(spec.title, spec.yLabel, spec.counts)
	for i, country := range countries {
		series := domain.SeriesFor(rows, country)
		if len(series) == 0 {
			continue
		}
		dates := make([]time.Time, len(series))
		for j := range series {
			dates[j] = series[j].Date
		}
		if err := addCountry(p, country, i, dates, spec.values(series), policy, withLegend); err != nil {
			return nil, fmt.Errorf("%s: %w", spec.title, err)
		}
	}
	return p, nil
}
