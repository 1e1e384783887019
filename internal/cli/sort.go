package cli

import (
	"fmt"
	"sort"

	"github.com/pfrederiksen/term-dates/internal/term"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByTerm SortOrder = "term"
	SortByDate SortOrder = "date"
)

// ParseSortOrder validates a --sort value
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case SortByTerm, SortByDate:
		return o, nil
	}
	return "", fmt.Errorf("invalid sort order: %s (must be 'term' or 'date')", s)
}

// sessionEntry is a session tagged with its term
type sessionEntry struct {
	Code    term.Code
	Rank    int // position of the term in term.Codes
	Index   int // position of the session within its term
	Session term.Session
}

// collectSessions flattens a year into entries in term order
func collectSessions(y term.YearData) []sessionEntry {
	var entries []sessionEntry
	for rank, code := range term.Codes {
		td := y.Term(code)
		if td == nil {
			continue
		}
		for i, s := range td.Sessions() {
			entries = append(entries, sessionEntry{Code: code, Rank: rank, Index: i, Session: s})
		}
	}
	return entries
}

// sortSessions sorts entries based on the specified sort order
func sortSessions(entries []sessionEntry, order SortOrder) {
	switch order {
	case SortByTerm:
		sort.SliceStable(entries, func(i, j int) bool {
			return compareByTerm(entries[i], entries[j])
		})
	case SortByDate:
		sort.SliceStable(entries, func(i, j int) bool {
			return compareByDate(entries[i], entries[j])
		})
	}
}

func compareByTerm(i, j sessionEntry) bool {
	if i.Rank != j.Rank {
		return i.Rank < j.Rank
	}
	return i.Index < j.Index
}

// compareByDate orders by start date, then end date. ISO dates compare as strings.
// Sessions that share both dates keep term order.
func compareByDate(i, j sessionEntry) bool {
	if i.Session.Period.Start != j.Session.Period.Start {
		return i.Session.Period.Start < j.Session.Period.Start
	}
	if i.Session.Period.End != j.Session.Period.End {
		return i.Session.Period.End < j.Session.Period.End
	}
	return compareByTerm(i, j)
}
