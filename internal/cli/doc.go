// Package cli implements the command-line interface for term-dates.
//
// The cli package provides the Cobra-based CLI. serve runs the HTTP API together with
// the daily refresh; refresh runs one refresh pass; scrape fetches a year without
// touching the cache; show prints a cached year as text, JSON or iCalendar.
package cli
