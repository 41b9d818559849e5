package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the OWID date format.
const DateLayout = "2006-01-02"

// OWID column names read by DecodeCSV and written by EncodeCSV.
const (
	ColISOCode              = "iso_code"
	ColContinent            = "continent"
	ColLocation             = "location"
	ColDate                 = "date"
	ColTotalCases           = "total_cases"
	ColNewCases             = "new_cases"
	ColTotalDeaths          = "total_deaths"
	ColTotalCasesPerMillion = "total_cases_per_million"
	ColTotalVaccinations    = "total_vaccinations"
	ColPopulation           = "population"
)

// sourceColumns is the column order used by EncodeCSV.
var sourceColumns = []string{
	ColISOCode, ColContinent, ColLocation, ColDate,
	ColTotalCases, ColNewCases, ColTotalDeaths, ColTotalCasesPerMillion,
	ColTotalVaccinations, ColPopulation,
}

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("missing required column")

// DecodeCSV reads an OWID-format CSV. The location and date columns are
// required; every other column is optional and decodes to nil when absent
// from the header, empty, or not a finite number. Extra columns are ignored.
func DecodeCSV(r io.Reader) ([]Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range []string{ColLocation, ColDate} {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var rows []Observation //nolint:prealloc // size depends on input
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		date, err := time.Parse(DateLayout, get(row, colIdx, ColDate))
		if err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: parse date: %w", line, err)
		}

		rows = append(rows, Observation{
			Location:              get(row, colIdx, ColLocation),
			ISOCode:               get(row, colIdx, ColISOCode),
			Continent:             get(row, colIdx, ColContinent),
			Date:                  date,
			TotalCases:            parseOptionalFloat(get(row, colIdx, ColTotalCases)),
			TotalDeaths:           parseOptionalFloat(get(row, colIdx, ColTotalDeaths)),
			TotalVaccinations:     parseOptionalFloat(get(row, colIdx, ColTotalVaccinations)),
			Population:            parseOptionalFloat(get(row, colIdx, ColPopulation)),
			NewCases:              parseOptionalFloat(get(row, colIdx, ColNewCases)),
			SourceCasesPerMillion: parseOptionalFloat(get(row, colIdx, ColTotalCasesPerMillion)),
		})
	}

	if rows == nil {
		rows = []Observation{}
	}
	return rows, nil
}

// EncodeCSV writes observations back out in OWID column layout. Derived
// fields are not written; they are recomputed on every load.
func EncodeCSV(w io.Writer, rows []Observation) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(sourceColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range rows {
		o := &rows[i]
		record := []string{
			o.ISOCode,
			o.Continent,
			o.Location,
			o.Date.Format(DateLayout),
			formatOptionalFloat(o.TotalCases),
			formatOptionalFloat(o.NewCases),
			formatOptionalFloat(o.TotalDeaths),
			formatOptionalFloat(o.SourceCasesPerMillion),
			formatOptionalFloat(o.TotalVaccinations),
			formatOptionalFloat(o.Population),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseOptionalFloat parses s as float64, returning nil for empty,
// malformed, NaN or infinite values.
func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
