package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/covid-data-tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func failed(phases []*phase) []string {
	var names []string
	for _, p := range phases {
		if !p.passed() {
			names = append(names, p.name)
		}
	}
	return names
}

func TestRun_SampleFixturePasses(t *testing.T) {
	code := run(filepath.Join("..", "..", "data", "mock", "owid_sample.csv"), nil)
	assert.Equal(t, 0, code)
}

func TestRun_MissingFile(t *testing.T) {
	assert.Equal(t, 1, run(filepath.Join(t.TempDir(), "missing.csv"), nil))
}

func TestValidate_DetectsBrokenTables(t *testing.T) {
	d0 := time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)
	raw := []domain.Observation{
		{Location: "Kenya", Date: d0, TotalCases: f(100), TotalDeaths: f(1)},
		{Location: "Kenya", Date: d0.AddDate(0, 0, 1), TotalDeaths: f(2)},
	}
	countries := []string{"Kenya"}

	require.Empty(t, failed(validate(raw, domain.Clean(raw, countries), countries)))

	broken := domain.Clean(raw, countries)
	broken[1].TotalCases = nil
	broken[1].DeathRate = f(0.5)

	assert.ElementsMatch(t, []string{
		"Forward fill within each location",
		"Derived metrics",
		"Cleaning is idempotent",
	}, failed(validate(raw, broken, countries)))
}
