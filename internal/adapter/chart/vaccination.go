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

// VaccinationFile is the file name of the vaccination composite inside the output directory.
const VaccinationFile = "vaccination.png"

var vaccinationPanels = []panelSpec{
	{
		title:  "Total Vaccinations",
		yLabel: "Doses Administered",
		counts: true,
		values: field(func(o domain.Observation) *float64 { return o.TotalVaccinations }),
	},
	{
		title:  "Vaccinations per 100 People",
		yLabel: "Doses per 100",
		values: field(func(o domain.Observation) *float64 { return o.VaccinationsPerHundred }),
	},
}

// VaccinationRenderer writes the 1×2 vaccination progress composite.
type VaccinationRenderer struct {
	outputDir string
	console   io.Writer
	logger    *slog.Logger
}

// NewVaccinationRenderer creates a VaccinationRenderer writing into outputDir.
func NewVaccinationRenderer(outputDir string, console io.Writer, logger *slog.Logger) *VaccinationRenderer {
	return &VaccinationRenderer{outputDir: outputDir, console: console, logger: logger}
}

// Name identifies the renderer in logs and metrics.
func (r *VaccinationRenderer) Name() string { return "vaccination" }

// Render draws vaccination progress for the cleaned table and writes the PNG.
func (r *VaccinationRenderer) Render(_ context.Context, tables domain.Tables) (domain.Artifact, error) {
	plots, err := VaccinationPlots(tables.Cleaned, tables.Countries)
	if err != nil {
		return domain.Artifact{}, err
	}

	path := filepath.Join(r.outputDir, VaccinationFile)
	if err := saveGrid(path, 16*vg.Inch, 6*vg.Inch, plots); err != nil {
		return domain.Artifact{}, fmt.Errorf("save vaccination plots: %w", err)
	}

	r.logger.Debug("vaccination plots written", "path", path)
	fmt.Fprintf(r.console, "Saved vaccination plots to %s\n", path)
	return domain.Artifact{
		Name:        VaccinationFile,
		Path:        path,
		Description: "Total vaccinations and doses per 100 people",
	}, nil
}

// VaccinationPlots builds the two vaccination panels side by side. Rows
// without the plotted value are skipped, so a country's line joins the
// neighbouring reported points. Only the first panel carries the legend.
func VaccinationPlots(cleaned []domain.Observation, countries []string) ([][]*plot.Plot, error) {
	row := make([]*plot.Plot, len(vaccinationPanels))
	for i, spec := range vaccinationPanels {
		p, err := buildPanel(spec, cleaned, countries, skipPoint, i == 0)
		if err != nil {
			return nil, err
		}
		row[i] = p
	}
	return [][]*plot.Plot{row}, nil
}
