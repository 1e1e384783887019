// Package termtest provides fixtures for tests that need well-formed term data.
package termtest

import (
	"fmt"

	"github.com/pfrederiksen/term-dates/internal/term"
)

func period(year int, start, end string) *term.Period {
	return &term.Period{
		Start: fmt.Sprintf("%d-%s", year, start),
		End:   fmt.Sprintf("%d-%s", year, end),
	}
}

// SampleYear returns a schema-valid YearData with dates in the given year
func SampleYear(year int) term.YearData {
	return term.YearData{
		U1: &term.TermData{
			TeachingPeriod: period(year, "01-06", "02-07"),
			Exams:          period(year, "02-10", "02-12"),
		},
		T1: &term.TermData{
			OWeek:          period(year, "02-10", "02-14"),
			TeachingPeriod: period(year, "02-17", "04-25"),
			FlexWeek:       period(year, "03-24", "03-28"),
			StudyPeriod:    period(year, "04-26", "04-29"),
			Exams:          period(year, "05-02", "05-15"),
		},
		T2: &term.TermData{
			OWeek:          period(year, "05-26", "05-30"),
			TeachingPeriod: period(year, "06-02", "08-08"),
			FlexWeek:       period(year, "07-07", "07-11"),
			StudyPeriod:    period(year, "08-09", "08-12"),
			Exams:          period(year, "08-15", "08-28"),
		},
		T3: &term.TermData{
			OWeek:          period(year, "09-08", "09-12"),
			TeachingPeriod: period(year, "09-15", "11-21"),
			FlexWeek:       period(year, "10-20", "10-24"),
			StudyPeriod:    period(year, "11-22", "11-25"),
			Exams:          period(year, "11-28", "12-11"),
		},
	}
}
