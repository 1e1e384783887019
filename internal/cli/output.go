package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/term-dates/internal/calendar"
	"github.com/pfrederiksen/term-dates/internal/storage"
	"github.com/pfrederiksen/term-dates/internal/term"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatICS  OutputFormat = "ics"
)

// ParseOutputFormat validates a --format value
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatText, FormatJSON, FormatICS:
		return f, nil
	}
	return "", fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'ics')", s)
}

// OutputResult contains data to be output
type OutputResult struct {
	Year      int           `json:"year"`
	Source    string        `json:"source"`
	CheckedAt time.Time     `json:"checked_at"`
	Data      term.YearData `json:"data"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, order SortOrder) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, order)
	case FormatICS:
		_, err := io.WriteString(w, calendar.GenerateYearICS(result.Year, result.Data, result.CheckedAt))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, order SortOrder) error {
	entries := collectSessions(result.Data)
	if len(entries) == 0 {
		fmt.Fprintf(w, "No term dates for %d.\n", result.Year)
		return nil
	}

	fmt.Fprintf(w, "UNSW term dates %d (%s)\n", result.Year, result.Source)
	sortSessions(entries, order)

	if order == SortByTerm {
		var current term.Code
		for _, e := range entries {
			if e.Code != current {
				current = e.Code
				fmt.Fprintf(w, "\n%s:\n", termLabel(e.Code))
			}
			fmt.Fprintf(w, "  %-18s %s to %s\n", e.Session.Label, e.Session.Period.Start, e.Session.Period.End)
		}
	} else {
		fmt.Fprintln(w)
		for _, e := range entries {
			fmt.Fprintf(w, "  %s to %s  %s %s\n",
				e.Session.Period.Start, e.Session.Period.End, e.Code, e.Session.Label)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d sessions\n", len(entries))
	return nil
}

// writeHealth prints the cache status after a refresh
func writeHealth(w io.Writer, status storage.HealthStatus, years []int, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, struct {
			storage.HealthStatus
			Years []int `json:"years"`
		}{status, years})
	}

	result := "failed"
	if status.OK {
		result = "succeeded"
	}
	fmt.Fprintf(w, "Refresh %s.\n", result)
	if status.LastRefreshAt != nil {
		fmt.Fprintf(w, "Last refresh: %s\n", status.LastRefreshAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Cached years: %v\n", years)
	return nil
}

func termLabel(code term.Code) string {
	if code.IsSummer() {
		return "Summer Term (U1)"
	}
	return fmt.Sprintf("Term %s (%s)", string(code)[1:], code)
}
