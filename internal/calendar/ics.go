package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/term-dates/internal/term"
)

// termNames are the human readable names used in event summaries
var termNames = map[term.Code]string{
	term.CodeSummer: "Summer Term",
	term.CodeT1:     "Term 1",
	term.CodeT2:     "Term 2",
	term.CodeT3:     "Term 3",
}

// GenerateYearICS generates an iCalendar (.ics) file with one all-day event per session
// of the year. DTEND is exclusive, so it is the day after the session's last day.
// Sessions with dates that do not parse are skipped.
func GenerateYearICS(year int, data term.YearData, now time.Time) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//term-dates//term-dates//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	ics.WriteString(fmt.Sprintf("X-WR-CALNAME:%s\r\n", escapeICS(fmt.Sprintf("UNSW term dates %d", year))))

	stamp := formatICSTime(now)
	for _, code := range term.Codes {
		td := data.Term(code)
		if td == nil {
			continue
		}
		for _, s := range td.Sessions() {
			writeEvent(&ics, year, code, s, stamp)
		}
	}

	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

func writeEvent(ics *strings.Builder, year int, code term.Code, s term.Session, stamp string) {
	start, err := term.ParseISODate(s.Period.Start)
	if err != nil {
		return
	}
	end, err := term.ParseISODate(s.Period.End)
	if err != nil {
		return
	}

	ics.WriteString("BEGIN:VEVENT\r\n")
	ics.WriteString(fmt.Sprintf("UID:%d-%s-%s@term-dates\r\n", year, code, s.Key))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", stamp))
	ics.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", formatICSDate(start)))
	ics.WriteString(fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", formatICSDate(end.AddDate(0, 0, 1))))

	summary := fmt.Sprintf("%s %d: %s", termNames[code], year, s.Label)
	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(summary)))

	ics.WriteString("STATUS:CONFIRMED\r\n")
	// all-day sessions should not block time
	ics.WriteString("TRANSP:TRANSPARENT\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// formatICSDate formats a date value for all-day events
func formatICSDate(t time.Time) string {
	return t.Format("20060102")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
