package main

import (
	"testing"
	"time"

	"github.com/couchcryptid/covid-data-tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(d int) time.Time {
	return time.Date(2021, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestTrim(t *testing.T) {
	rows := []domain.Observation{
		{Location: "Kenya", Date: date(1)},
		{Location: "Kenya", Date: date(5)},
		{Location: "Kenya", Date: date(20)},
		{Location: "France", Date: date(3)},
		{Location: "France", Date: date(20)},
		{Location: "World", Date: date(20)},
	}
	window, err := parseWindow("2021-03-02", "2021-03-10")
	require.NoError(t, err)

	got := trim(rows, []string{"Kenya"}, window)

	keys := make([]string, len(got))
	for i, o := range got {
		keys[i] = o.Key()
	}
	assert.Equal(t, []string{
		"Kenya|2021-03-05",
		"Kenya|2021-03-20",
		"France|2021-03-20",
		"World|2021-03-20",
	}, keys)
}

func TestParseWindow(t *testing.T) {
	_, err := parseWindow("2021-03-10", "2021-03-01")
	require.Error(t, err)

	_, err = parseWindow("March 1", "2021-03-01")
	require.Error(t, err)

	w, err := parseWindow("2021-03-01", "2021-03-01")
	require.NoError(t, err)
	assert.True(t, w.contains(date(1)))
	assert.False(t, w.contains(date(2)))
}
