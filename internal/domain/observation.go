package domain

import "time"

// DefaultCountries is the country subset analysed when the caller supplies none.
var DefaultCountries = []string{"United States", "India", "Brazil", "Germany", "Kenya", "South Africa"}

// Observation is one (location, date) row. Numeric fields are nil when the
// source did not report a value.
type Observation struct {
	Location  string    `json:"location"`
	ISOCode   string    `json:"iso_code,omitempty"`
	Continent string    `json:"continent,omitempty"`
	Date      time.Time `json:"date"`

	TotalCases        *float64 `json:"total_cases,omitempty"`
	TotalDeaths       *float64 `json:"total_deaths,omitempty"`
	TotalVaccinations *float64 `json:"total_vaccinations,omitempty"`
	Population        *float64 `json:"population,omitempty"`
	NewCases          *float64 `json:"new_cases,omitempty"`

	// SourceCasesPerMillion is OWID's own total_cases_per_million column.
	// It is only used for rows that never pass through Clean.
	SourceCasesPerMillion *float64 `json:"total_cases_per_million,omitempty"`

	// Derived fields, set by Derive.
	DeathRate              *float64 `json:"death_rate,omitempty"`
	CasesPerMillion        *float64 `json:"cases_per_million,omitempty"`
	VaccinationsPerHundred *float64 `json:"vaccination_per_hundred,omitempty"`
}

// Key returns the uniqueness key of the row, "location|YYYY-MM-DD".
func (o Observation) Key() string {
	return o.Location + "|" + o.Date.Format(DateLayout)
}

// Source identifies where a dataset was loaded from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Dataset is the full, unfiltered table produced by the data source adapter.
type Dataset struct {
	Observations []Observation
	Source       Source
}

// Tables is what the renderers consume: the raw table for global views, the
// cleaned subset, and the countries actually present in the cleaned subset.
type Tables struct {
	Raw       []Observation
	Cleaned   []Observation
	Countries []string
}

// Artifact describes one file written by a renderer.
type Artifact struct {
	Name        string
	Path        string
	Description string
}

// Float returns a pointer to v. Handy for building observations in code.
func Float(v float64) *float64 {
	return &v
}
