package term

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedRange is matched by every MalformedRangeError
var ErrMalformedRange = errors.New("malformed date range")

// MalformedRangeError reports date text that ParseRange could not understand
type MalformedRangeError struct {
	Text   string
	Reason string
}

func (e *MalformedRangeError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("bad range: %q", e.Text)
	}
	return fmt.Sprintf("bad range: %q: %s", e.Text, e.Reason)
}

func (e *MalformedRangeError) Is(target error) bool {
	return target == ErrMalformedRange
}

const isoLayout = "2006-01-02"

// "D Mon [YYYY] - D Mon [YYYY]", applied after Normalize
var rangePattern = regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]+)(?:\s+(\d{4}))?\s*-\s*(\d{1,2})\s+([A-Za-z]+)(?:\s+(\d{4}))?$`)

var whitespace = regexp.MustCompile(`\s+`)

var months = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

// Normalize collapses whitespace (including non-breaking spaces) and turns en/em
// dashes into ASCII hyphens
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.NewReplacer("\u2013", "-", "\u2014", "-").Replace(s)
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// lookupMonth resolves a month word by its first three letters; "sept" is accepted
func lookupMonth(word string) (time.Month, bool) {
	w := strings.ToLower(word)
	if w == "sept" {
		return time.September, true
	}
	if len(w) < 3 {
		return 0, false
	}
	m, ok := months[w[:3]]
	return m, ok
}

// ParseRange parses text like "28 Dec - 3 Jan" or "30 Nov 2025 - 2 Feb 2026" into a
// Period. Omitted years default to baseYear. When the end year is omitted and the end
// date falls before the start date, the end is moved to baseYear+1.
func ParseRange(text string, baseYear int) (Period, error) {
	m := rangePattern.FindStringSubmatch(Normalize(text))
	if m == nil {
		return Period{}, &MalformedRangeError{Text: text}
	}

	startYear, endYear := baseYear, baseYear
	if m[3] != "" {
		startYear, _ = strconv.Atoi(m[3])
	}
	endYearWritten := m[6] != ""
	if endYearWritten {
		endYear, _ = strconv.Atoi(m[6])
	}

	start, err := buildDate(m[1], m[2], startYear)
	if err != nil {
		return Period{}, &MalformedRangeError{Text: text, Reason: err.Error()}
	}
	end, err := buildDate(m[4], m[5], endYear)
	if err != nil {
		return Period{}, &MalformedRangeError{Text: text, Reason: err.Error()}
	}

	// Dec-Jan wrap, only from the unshifted dates
	if !endYearWritten && end.Before(start) {
		end, err = buildDate(m[4], m[5], baseYear+1)
		if err != nil {
			return Period{}, &MalformedRangeError{Text: text, Reason: err.Error()}
		}
	}

	return Period{
		Start: start.Format(isoLayout),
		End:   end.Format(isoLayout),
	}, nil
}

// buildDate validates day and month words and returns the calendar date in UTC
func buildDate(dayText, monthText string, year int) (time.Time, error) {
	month, ok := lookupMonth(monthText)
	if !ok {
		return time.Time{}, fmt.Errorf("unknown month %q", monthText)
	}
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q", dayText)
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalises 31 Apr into 1 May
	if t.Day() != day || t.Month() != month {
		return time.Time{}, fmt.Errorf("%d %s does not exist in %d", day, month, year)
	}
	return t, nil
}

// ParseISODate parses a YYYY-MM-DD date as written in a Period
func ParseISODate(s string) (time.Time, error) {
	return time.Parse(isoLayout, s)
}
