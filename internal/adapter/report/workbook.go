package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/couchcryptid/covid-data-tracker/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	// WorkbookFile is the file name of the workbook inside the output directory.
	WorkbookFile = "covid_summary.xlsx"

	LatestSheet  = "Latest"
	CleanedSheet = "Cleaned"
)

var workbookHeader = []any{
	"location", "iso_code", "date",
	"total_cases", "new_cases", "total_deaths", "total_vaccinations", "population",
	"death_rate", "cases_per_million", "vaccination_per_hundred",
}

// WorkbookRenderer writes covid_summary.xlsx with the per-country summary
// and the full cleaned table on separate sheets.
type WorkbookRenderer struct {
	outputDir string
	console   io.Writer
	logger    *slog.Logger
}

// NewWorkbookRenderer creates a WorkbookRenderer writing into outputDir.
func NewWorkbookRenderer(outputDir string, console io.Writer, logger *slog.Logger) *WorkbookRenderer {
	return &WorkbookRenderer{outputDir: outputDir, console: console, logger: logger}
}

// Name identifies the renderer in logs and metrics.
func (r *WorkbookRenderer) Name() string { return "workbook" }

// Render writes the workbook.
func (r *WorkbookRenderer) Render(_ context.Context, tables domain.Tables) (domain.Artifact, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LatestSheet); err != nil {
		return domain.Artifact{}, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(CleanedSheet); err != nil {
		return domain.Artifact{}, fmt.Errorf("add sheet: %w", err)
	}

	if err := writeSheet(f, LatestSheet, Summary(tables)); err != nil {
		return domain.Artifact{}, err
	}
	if err := writeSheet(f, CleanedSheet, tables.Cleaned); err != nil {
		return domain.Artifact{}, err
	}

	path := filepath.Join(r.outputDir, WorkbookFile)
	if err := f.SaveAs(path); err != nil {
		return domain.Artifact{}, fmt.Errorf("save %s: %w", path, err)
	}

	r.logger.Debug("workbook written", "path", path, "rows", len(tables.Cleaned))
	fmt.Fprintf(r.console, "Saved workbook to %s\n", path)
	return domain.Artifact{
		Name:        WorkbookFile,
		Path:        path,
		Description: "Summary and cleaned observations (Excel)",
	}, nil
}

func writeSheet(f *excelize.File, sheet string, rows []domain.Observation) error {
	if err := f.SetSheetRow(sheet, "A1", &workbookHeader); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	for i, o := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i, err)
		}
		values := []any{
			o.Location, o.ISOCode, o.Date.Format(domain.DateLayout),
			cellValue(o.TotalCases), cellValue(o.NewCases), cellValue(o.TotalDeaths),
			cellValue(o.TotalVaccinations), cellValue(o.Population),
			cellValue(o.DeathRate), cellValue(o.CasesPerMillion), cellValue(o.VaccinationsPerHundred),
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i, err)
		}
	}
	return nil
}

// cellValue leaves absent values as blank cells.
func cellValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
