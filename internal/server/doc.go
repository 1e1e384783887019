// Package server exposes the cached term dates over a small read-only HTTP API.
//
// Routes:
//
//	GET /v1/dates/:year      term dates for a year as JSON
//	GET /v1/dates/:year/ics  the same dates as an iCalendar feed
//	GET /health              last refresh outcome, 503 when failed or stale
//	GET /metrics             Prometheus exposition
//
// The server never scrapes; it only reads what the refresh pipeline committed.
package server
