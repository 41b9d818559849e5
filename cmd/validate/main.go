// Command validate runs the cleaning pipeline over an OWID CSV and checks
// the data invariants phase by phase: key uniqueness, country membership,
// the drop rule, per-location forward fill, derived metrics, idempotence and
// the latest-date snapshot. It exits 1 when any phase fails.
//
// Usage:
//
//	go run ./cmd/validate -csv data/mock/owid_sample.csv
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/couchcryptid/covid-data-tracker/internal/config"
	"github.com/couchcryptid/covid-data-tracker/internal/domain"
	"github.com/google/go-cmp/cmp"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "data/mock/owid_sample.csv", "path to an OWID-format CSV")
	countries := flag.String("countries", strings.Join(domain.DefaultCountries, ","), "comma-separated locations to clean")
	flag.Parse()

	if code := run(*csvPath, config.ParseList(*countries)); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath string, countries []string) int {
	if len(countries) == 0 {
		countries = domain.DefaultCountries
	}
	fmt.Println("=== COVID-19 Data Integrity Validation ===")
	fmt.Println()

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open CSV: %v\n", err)
		return 1
	}
	raw, err := domain.DecodeCSV(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode CSV: %v\n", err)
		return 1
	}

	cleaned := domain.Clean(raw, countries)

	phases := validate(raw, cleaned, countries)

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d raw, %d cleaned, %d locations\n",
		len(raw), len(cleaned), len(domain.Locations(cleaned)))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validate(raw, cleaned []domain.Observation, countries []string) []*phase {
	return []*phase{
		validateUniqueKeys(raw),
		validateMembership(raw, cleaned, countries),
		validateDropRule(raw, cleaned, countries),
		validateForwardFill(raw, cleaned),
		validateDerived(cleaned),
		validateIdempotence(cleaned, countries),
		validateSnapshot(raw),
	}
}

// ── Phases ──

func validateUniqueKeys(raw []domain.Observation) *phase {
	p := &phase{name: "Unique (location, date) keys"}
	seen := make(map[string]struct{}, len(raw))
	for i := range raw {
		k := raw[i].Key()
		if _, dup := seen[k]; dup {
			p.errorf("duplicate row %s", k)
		}
		seen[k] = struct{}{}
	}
	return p
}

func validateMembership(raw, cleaned []domain.Observation, countries []string) *phase {
	p := &phase{name: "Country membership"}
	wanted := toSet(countries)
	for i := range cleaned {
		if _, ok := wanted[cleaned[i].Location]; !ok {
			p.errorf("unexpected location %q in cleaned table", cleaned[i].Location)
		}
	}

	present := toSet(domain.Locations(cleaned))
	for i := range raw {
		o := raw[i]
		if _, ok := wanted[o.Location]; !ok || (o.TotalCases == nil && o.TotalDeaths == nil) {
			continue
		}
		if _, ok := present[o.Location]; !ok {
			p.errorf("location %q has qualifying rows but is missing from the cleaned table", o.Location)
			present[o.Location] = struct{}{}
		}
	}
	return p
}

func validateDropRule(raw, cleaned []domain.Observation, countries []string) *phase {
	p := &phase{name: "Rows without cases and deaths dropped"}
	wanted := toSet(countries)
	qualifying := 0
	for i := range raw {
		if _, ok := wanted[raw[i].Location]; ok && (raw[i].TotalCases != nil || raw[i].TotalDeaths != nil) {
			qualifying++
		}
	}
	if qualifying != len(cleaned) {
		p.errorf("expected %d cleaned rows, got %d", qualifying, len(cleaned))
	}
	return p
}

func validateForwardFill(raw, cleaned []domain.Observation) *phase {
	p := &phase{name: "Forward fill within each location"}
	source := make(map[string]domain.Observation, len(raw))
	for i := range raw {
		source[raw[i].Key()] = raw[i]
	}

	for _, loc := range domain.Locations(cleaned) {
		var last *float64
		for _, o := range domain.SeriesFor(cleaned, loc) {
			src := source[o.Key()]
			switch {
			case src.TotalCases != nil:
				if o.TotalCases == nil || *o.TotalCases != *src.TotalCases {
					p.errorf("%s: reported total_cases changed by cleaning", o.Key())
				}
				last = src.TotalCases
			case last == nil:
				if o.TotalCases != nil {
					p.errorf("%s: leading gap filled with %v", o.Key(), *o.TotalCases)
				}
			default:
				if o.TotalCases == nil || *o.TotalCases != *last {
					p.errorf("%s: gap not filled from the previous value %v", o.Key(), *last)
				}
			}
		}
	}
	return p
}

func validateDerived(cleaned []domain.Observation) *phase {
	p := &phase{name: "Derived metrics"}
	for i := range cleaned {
		o := cleaned[i]
		wantRate := o.TotalCases != nil && o.TotalDeaths != nil && *o.TotalCases > 0
		if wantRate != (o.DeathRate != nil) {
			p.errorf("%s: death rate definedness is %t, want %t", o.Key(), o.DeathRate != nil, wantRate)
		} else if wantRate && !approxEqual(*o.DeathRate, *o.TotalDeaths / *o.TotalCases) {
			p.errorf("%s: death rate %v != deaths/cases", o.Key(), *o.DeathRate)
		}
		if o.CasesPerMillion != nil && o.Population != nil && o.TotalCases != nil {
			if !approxEqual(*o.CasesPerMillion, *o.TotalCases / *o.Population * 1e6) {
				p.errorf("%s: cases per million %v != cases/population*1e6", o.Key(), *o.CasesPerMillion)
			}
		}
	}
	return p
}

func validateIdempotence(cleaned []domain.Observation, countries []string) *phase {
	p := &phase{name: "Cleaning is idempotent"}
	again := domain.Clean(cleaned, countries)
	if diff := cmp.Diff(cleaned, again); diff != "" {
		p.errorf("second pass changed the table (-first +second):\n%s", diff)
	}
	return p
}

func validateSnapshot(raw []domain.Observation) *phase {
	p := &phase{name: "Latest-date snapshot"}
	latest, snapshot := domain.LatestSnapshot(raw)
	if len(raw) > 0 && len(snapshot) == 0 {
		p.errorf("no snapshot rows for non-empty table")
	}
	for i := range raw {
		if raw[i].Date.After(latest) {
			p.errorf("%s is later than the snapshot date %s", raw[i].Key(), latest.Format(domain.DateLayout))
		}
	}
	for i := range snapshot {
		if !snapshot[i].Date.Equal(latest) {
			p.errorf("%s in snapshot has the wrong date", snapshot[i].Key())
		}
	}
	return p
}

// ── Helpers ──

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}
