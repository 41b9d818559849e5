// Command genmock trims a full OWID COVID-19 CSV into a small fixture for
// the test suites. It keeps the analysed countries within a date window,
// plus every row of the latest date in the file so the world map still has
// a snapshot to draw.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -in data/owid-covid-data.csv \
//	  -out data/mock/owid_sample.csv \
//	  -from 2021-03-01 -to 2021-03-14
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/covid-data-tracker/internal/config"
	"github.com/couchcryptid/covid-data-tracker/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", config.LocalDataPath, "path to the full OWID CSV")
	out := flag.String("out", "data/mock/owid_sample.csv", "output path for the fixture")
	from := flag.String("from", "2021-03-01", "first date to keep (YYYY-MM-DD)")
	to := flag.String("to", "2021-03-14", "last date to keep (YYYY-MM-DD)")
	countries := flag.String("countries", strings.Join(domain.DefaultCountries, ","), "comma-separated locations to keep")
	flag.Parse()

	window, err := parseWindow(*from, *to)
	if err != nil {
		return err
	}

	rows, err := readCSV(*in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *in, err)
	}
	log.Printf("read %d rows from %s", len(rows), *in)

	fixture := trim(rows, config.ParseList(*countries), window)
	if err := writeCSV(*out, fixture); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d rows to %s", len(fixture), *out)

	printStats(fixture)
	return nil
}

type dateWindow struct {
	from, to time.Time
}

func (w dateWindow) contains(t time.Time) bool {
	return !t.Before(w.from) && !t.After(w.to)
}

func parseWindow(from, to string) (dateWindow, error) {
	f, err := time.Parse(domain.DateLayout, from)
	if err != nil {
		return dateWindow{}, fmt.Errorf("invalid -from: %w", err)
	}
	t, err := time.Parse(domain.DateLayout, to)
	if err != nil {
		return dateWindow{}, fmt.Errorf("invalid -to: %w", err)
	}
	if t.Before(f) {
		return dateWindow{}, fmt.Errorf("-to %s is before -from %s", to, from)
	}
	return dateWindow{from: f, to: t}, nil
}

// trim keeps rows of the listed countries inside the window and every row
// of the latest date in rows. Input order is preserved and no row appears
// twice.
func trim(rows []domain.Observation, countries []string, window dateWindow) []domain.Observation {
	wanted := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		wanted[c] = struct{}{}
	}
	latest, _ := domain.LatestSnapshot(rows)

	var out []domain.Observation
	for i := range rows {
		_, ok := wanted[rows[i].Location]
		inWindow := ok && window.contains(rows[i].Date)
		if inWindow || rows[i].Date.Equal(latest) {
			out = append(out, rows[i])
		}
	}
	return out
}

func readCSV(path string) ([]domain.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return domain.DecodeCSV(f)
}

func writeCSV(path string, rows []domain.Observation) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := domain.EncodeCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printStats(rows []domain.Observation) {
	counts := make(map[string]int)
	for i := range rows {
		counts[rows[i].Location]++
	}
	fmt.Println("\nRows per location:")
	for _, loc := range domain.Locations(rows) {
		fmt.Printf("  %-20s %d\n", loc, counts[loc])
	}
}
