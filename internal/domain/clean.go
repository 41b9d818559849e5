package domain

import "sort"

// Clean filters rows to the given countries, drops rows with neither total
// cases nor total deaths, forward-fills the cumulative columns per location
// and recomputes the derived metrics. An empty countries list selects
// DefaultCountries. Output order follows input order; the input slice is
// not modified. No matching rows yields an empty, non-nil slice.
func Clean(rows []Observation, countries []string) []Observation {
	if len(countries) == 0 {
		countries = DefaultCountries
	}
	wanted := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		wanted[c] = struct{}{}
	}

	cleaned := make([]Observation, 0, len(rows))
	for i := range rows {
		if _, ok := wanted[rows[i].Location]; !ok {
			continue
		}
		if rows[i].TotalCases == nil && rows[i].TotalDeaths == nil {
			continue
		}
		cleaned = append(cleaned, rows[i])
	}

	ForwardFill(cleaned)
	for i := range cleaned {
		cleaned[i] = Derive(cleaned[i])
	}
	return cleaned
}

// ForwardFill replaces absent total cases, total deaths, total vaccinations
// and population with the most recent earlier value of the same location.
// Each location is walked in date order (ties keep row order); values never
// cross locations and leading absences stay absent. rows is modified in place
// but keeps its order.
func ForwardFill(rows []Observation) {
	for _, idx := range chronologicalIndex(rows) {
		var cases, deaths, vaccinations, population *float64
		for _, i := range idx {
			o := &rows[i]
			cases = fillOrRemember(&o.TotalCases, cases)
			deaths = fillOrRemember(&o.TotalDeaths, deaths)
			vaccinations = fillOrRemember(&o.TotalVaccinations, vaccinations)
			population = fillOrRemember(&o.Population, population)
		}
	}
}

// fillOrRemember sets *field to last when it is absent, and returns the value
// to carry forward.
func fillOrRemember(field **float64, last *float64) *float64 {
	if *field == nil {
		if last != nil {
			v := *last
			*field = &v
		}
		return last
	}
	return *field
}

// Derive recomputes the derived metrics of o from its cumulative columns.
//   - death rate = total deaths / total cases, absent when cases is absent or 0
//   - cases per million = total cases / population * 1e6
//   - vaccinations per hundred = total vaccinations / population * 100
func Derive(o Observation) Observation {
	o.DeathRate = ratio(o.TotalDeaths, o.TotalCases, 1)
	o.CasesPerMillion = ratio(o.TotalCases, o.Population, 1e6)
	o.VaccinationsPerHundred = ratio(o.TotalVaccinations, o.Population, 100)
	return o
}

func ratio(num, den *float64, scale float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	v := *num / *den * scale
	return &v
}

// Locations returns the distinct locations in rows, in order of first appearance.
func Locations(rows []Observation) []string {
	seen := make(map[string]struct{})
	locations := make([]string, 0)
	for i := range rows {
		if _, ok := seen[rows[i].Location]; ok {
			continue
		}
		seen[rows[i].Location] = struct{}{}
		locations = append(locations, rows[i].Location)
	}
	return locations
}

// SeriesFor returns the rows of one location sorted by date.
func SeriesFor(rows []Observation, location string) []Observation {
	var series []Observation
	for i := range rows {
		if rows[i].Location == location {
			series = append(series, rows[i])
		}
	}
	sort.SliceStable(series, func(a, b int) bool {
		return series[a].Date.Before(series[b].Date)
	})
	return series
}

// chronologicalIndex groups row indices by location, each group sorted by date.
func chronologicalIndex(rows []Observation) map[string][]int {
	groups := make(map[string][]int)
	for i := range rows {
		groups[rows[i].Location] = append(groups[rows[i].Location], i)
	}
	for _, idx := range groups {
		sort.SliceStable(idx, func(a, b int) bool {
			return rows[idx[a]].Date.Before(rows[idx[b]].Date)
		})
	}
	return groups
}
