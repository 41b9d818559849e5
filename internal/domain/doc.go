// Package domain models the Our World in Data (OWID) COVID-19 dataset and
// the cleaning rules applied before charting.
//
// # Data Source
//
// OWID publishes one wide CSV, https://covid.ourworldindata.org/data/owid-covid-data.csv,
// with one row per (location, date). Only a handful of its ~67 columns are
// read here; see [DecodeCSV] for the list. Rows are grouped by location and
// sorted by date inside each group.
//
// # OWID Data Conventions
//
// Missing values:
//
//	Empty cells mean "not reported". They are decoded as nil pointers and
//	never as zero, so a country that reported 0 deaths is distinguishable
//	from one that reported nothing.
//
// Cumulative columns:
//
//	total_cases, total_deaths and total_vaccinations are running totals.
//	Reporting is irregular (weekly for many countries after 2022), so gaps
//	between two reports are repaired by forward-fill within one location.
//
// Aggregates:
//
//	Rows such as "World", "Europe" or "High income" carry an iso_code with
//	the "OWID_" prefix instead of an ISO 3166-1 alpha-3 code. They are kept
//	in the raw table but cannot be placed on a map.
//
// Dates:
//
//	ISO-8601 calendar dates ("2021-03-14"), parsed as UTC midnight.
//
// # Derived Metrics
//
// Death rate, cases per million and vaccinations per hundred are always
// recomputed from the filled cumulative columns, even though OWID ships
// similar columns. See [Derive].
package domain
