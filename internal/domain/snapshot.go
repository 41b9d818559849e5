package domain

import "time"

// LatestSnapshot returns the most recent date present anywhere in rows and
// every row carrying exactly that date, in input order. It returns the zero
// time and no rows when rows is empty.
func LatestSnapshot(rows []Observation) (time.Time, []Observation) {
	var latest time.Time
	for i := range rows {
		if rows[i].Date.After(latest) {
			latest = rows[i].Date
		}
	}
	if latest.IsZero() {
		return time.Time{}, nil
	}

	var snapshot []Observation
	for i := range rows {
		if rows[i].Date.Equal(latest) {
			snapshot = append(snapshot, rows[i])
		}
	}
	return latest, snapshot
}

// LatestPerLocation returns the most recent row of each location, in order
// of first appearance of the location.
func LatestPerLocation(rows []Observation) []Observation {
	latest := make(map[string]int)
	for i := range rows {
		j, ok := latest[rows[i].Location]
		if !ok || !rows[i].Date.Before(rows[j].Date) {
			latest[rows[i].Location] = i
		}
	}

	out := make([]Observation, 0, len(latest))
	for _, loc := range Locations(rows) {
		out = append(out, rows[latest[loc]])
	}
	return out
}

// RollingMean returns the trailing mean over window consecutive values.
// A position is nil until the window is full and whenever any value inside
// the window is nil.
func RollingMean(values []*float64, window int) []*float64 {
	out := make([]*float64, len(values))
	if window <= 0 {
		return out
	}

	var sum float64
	missing := 0
	for i, v := range values {
		if v == nil {
			missing++
		} else {
			sum += *v
		}
		if i >= window {
			if old := values[i-window]; old == nil {
				missing--
			} else {
				sum -= *old
			}
		}
		if i >= window-1 && missing == 0 {
			mean := sum / float64(window)
			out[i] = &mean
		}
	}
	return out
}
