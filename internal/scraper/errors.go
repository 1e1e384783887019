package scraper

import (
	"errors"
	"fmt"
)

var (
	ErrFetch    = errors.New("fetch failed")
	ErrNotFound = errors.New("not found")
	ErrSchema   = errors.New("unexpected page structure")
)

// FetchError reports a transport failure or a non-200 response
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// NotFoundError reports that an expected section of the page is absent. For the year
// block this usually means the year has not been published yet.
type NotFoundError struct {
	What string
	Year int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find %s", e.What)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// SchemaError reports a page whose structure does not match what the parser expects
type SchemaError struct {
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *SchemaError) Unwrap() error { return e.Err }

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// Kind returns a short label for an error produced by this package, for logs and metrics
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrFetch):
		return "fetch"
	default:
		return "other"
	}
}
