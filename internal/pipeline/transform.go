package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/covid-data-tracker/internal/domain"
)

// Cleaner implements Transformer using the domain cleaning functions.
type Cleaner struct {
	countries []string
	logger    *slog.Logger
}

// NewCleaner creates a Cleaner for the given country subset. Pass nil to use
// domain.DefaultCountries.
func NewCleaner(countries []string, logger *slog.Logger) *Cleaner {
	return &Cleaner{
		countries: countries,
		logger:    logger,
	}
}

// Clean filters, fills and derives the dataset. The raw table is passed
// through untouched for renderers that need the global view.
func (c *Cleaner) Clean(_ context.Context, ds domain.Dataset) domain.Tables {
	cleaned := domain.Clean(ds.Observations, c.countries)
	countries := domain.Locations(cleaned)

	c.logger.Info("dataset cleaned",
		"source", ds.Source,
		"raw_rows", len(ds.Observations),
		"cleaned_rows", len(cleaned),
		"countries", len(countries),
	)

	return domain.Tables{
		Raw:       ds.Observations,
		Cleaned:   cleaned,
		Countries: countries,
	}
}
