package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/covid-data-tracker/internal/domain"
	"github.com/couchcryptid/covid-data-tracker/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var (
	d1 = time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)
	d2 = time.Date(2021, time.June, 2, 0, 0, 0, 0, time.UTC)
)

func f(v float64) *float64 { return &v }

func tablesFixture() domain.Tables {
	cleaned := []domain.Observation{
		domain.Derive(domain.Observation{Location: "Kenya", ISOCode: "KEN", Date: d1, TotalCases: f(170000), TotalDeaths: f(3300), Population: f(54000000)}),
		domain.Derive(domain.Observation{Location: "India", ISOCode: "IND", Date: d2, TotalCases: f(28000000), TotalDeaths: f(330000), Population: f(1400000000)}),
		domain.Derive(domain.Observation{Location: "Kenya", ISOCode: "KEN", Date: d2, TotalCases: f(171000), TotalDeaths: f(3310), Population: f(54000000)}),
		domain.Derive(domain.Observation{Location: "India", ISOCode: "IND", Date: d1, TotalCases: f(27900000), TotalDeaths: f(329000), Population: f(1400000000)}),
	}
	return domain.Tables{Cleaned: cleaned, Countries: []string{"Kenya", "India"}}
}

func TestSummary_LatestPerCountryInCountryOrder(t *testing.T) {
	rows := Summary(tablesFixture())

	require.Len(t, rows, 2)
	assert.Equal(t, "Kenya", rows[0].Location)
	assert.Equal(t, d2, rows[0].Date)
	assert.InDelta(t, 171000, *rows[0].TotalCases, 0)
	assert.Equal(t, "India", rows[1].Location)
	assert.Equal(t, d2, rows[1].Date)
}

func TestSummary_SkipsCountriesWithoutRows(t *testing.T) {
	tables := tablesFixture()
	tables.Countries = []string{"Germany", "India"}

	rows := Summary(tables)
	require.Len(t, rows, 1)
	assert.Equal(t, "India", rows[0].Location)
}

func TestSummaryFrame(t *testing.T) {
	rows := Summary(tablesFixture())
	rows[1].TotalVaccinations = nil

	df := SummaryFrame(rows)
	require.NoError(t, df.Err)

	assert.Equal(t, []string{
		"location", "date", "total_cases", "total_deaths", "total_vaccinations",
		"death_rate", "cases_per_million", "vaccination_per_hundred",
	}, df.Names())
	assert.Equal(t, 2, df.Nrow())
	assert.Equal(t, []string{"Kenya", "India"}, df.Col("location").Records())
	assert.True(t, df.Col("total_vaccinations").Elem(1).IsNA())
	assert.InDelta(t, 3310.0/171000, df.Col("death_rate").Elem(0).Float(), 1e-9)
}

func TestSummaryTable(t *testing.T) {
	out := SummaryTable(Summary(tablesFixture()))

	assert.Contains(t, out, "Country")
	assert.Contains(t, out, "Kenya")
	assert.Contains(t, out, "171,000")
	assert.Contains(t, out, "28,000,000")
	assert.Contains(t, out, "0.0194") // Kenya death rate, 3310/171000
}

func TestSummaryRenderer_Render(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	r := NewSummaryRenderer(dir, &console, observability.DiscardLogger())

	art, err := r.Render(context.Background(), tablesFixture())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SummaryFile), art.Path)
	assert.Contains(t, console.String(), "Saved latest summary to "+art.Path)

	fh, err := os.Open(art.Path)
	require.NoError(t, err)
	defer fh.Close()
	records, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "location", records[0][0])
	assert.Equal(t, []string{"Kenya", "2021-06-02"}, records[1][:2])
	assert.Equal(t, []string{"India", "2021-06-02"}, records[2][:2])
}

func TestSummaryRenderer_EmptyTables(t *testing.T) {
	dir := t.TempDir()
	r := NewSummaryRenderer(dir, &bytes.Buffer{}, observability.DiscardLogger())

	art, err := r.Render(context.Background(), domain.Tables{})
	require.NoError(t, err)
	assert.FileExists(t, art.Path)
}

func TestWorkbookRenderer_Render(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	r := NewWorkbookRenderer(dir, &console, observability.DiscardLogger())

	tables := tablesFixture()
	tables.Cleaned[0].TotalVaccinations = nil
	art, err := r.Render(context.Background(), tables)
	require.NoError(t, err)
	assert.Equal(t, "Saved workbook to "+art.Path+"\n", console.String())

	wb, err := excelize.OpenFile(art.Path)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{LatestSheet, CleanedSheet}, wb.GetSheetList())

	latest, err := wb.GetRows(LatestSheet)
	require.NoError(t, err)
	require.Len(t, latest, 3)
	assert.Equal(t, "location", latest[0][0])
	assert.Equal(t, []string{"Kenya", "KEN", "2021-06-02", "171000"}, latest[1][:4])

	cleaned, err := wb.GetRows(CleanedSheet)
	require.NoError(t, err)
	assert.Len(t, cleaned, len(tables.Cleaned)+1)

	blank, err := wb.GetCellValue(CleanedSheet, "G2")
	require.NoError(t, err)
	assert.Empty(t, blank, "absent values stay blank")
}

func TestWorkbookRenderer_UnwritableDir(t *testing.T) {
	r := NewWorkbookRenderer(filepath.Join(t.TempDir(), "missing"), &bytes.Buffer{}, observability.DiscardLogger())
	_, err := r.Render(context.Background(), tablesFixture())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save")
}
