// Package scraper provides HTTP fetching and HTML parsing for the academic calendar page.
//
// The scraper fetches the public key-dates page and extracts, for one year, the four term
// tables (Summer Term, Term 1, Term 2, Term 3). Each table row names a session and a
// free-text date range which is parsed with term.ParseRange. Failures are classified so
// that callers can tell a year that is not published yet (NotFoundError) from a page
// whose structure changed (SchemaError) or a network problem (FetchError).
package scraper
