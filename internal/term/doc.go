// Package term provides the academic calendar data model and the date-range parser.
//
// A year is split into four terms (U1 summer, T1, T2, T3). Each term carries a small set
// of named sessions (O-Week, teaching period, flexibility week, study period, exams),
// each of which is a Period of two ISO dates. ParseRange turns the free-text ranges
// found on the source page ("28 Dec - 3 Jan") into Periods, and ValidateYear applies the
// strict schema used both before storing scraped data and when loading the cache file.
package term
