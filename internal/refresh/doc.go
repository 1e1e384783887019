// Package refresh runs the scrape-validate-store pipeline over a two-year window.
//
// A run scrapes the current year and the next one, validates each result and writes the
// successes into the cache store. Failures never escape a run; they are folded into the
// store's refresh status. A failure for the current year always fails the run. A failure
// for the next year only fails the run when that year was cached before, because an
// uncached next year usually just has not been published yet.
package refresh
