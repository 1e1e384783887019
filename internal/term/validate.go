package term

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrSchema is matched by every SchemaError
var ErrSchema = errors.New("schema violation")

// SchemaError reports the first field of a YearData that breaks the schema
type SchemaError struct {
	Field  string // path such as "T2.flex_week.start"
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateYear checks that all four terms are present, that every term carries its
// mandatory sessions (all five for T1-T3) and that every date is YYYY-MM-DD
func ValidateYear(y YearData) error {
	for _, code := range Codes {
		td := y.Term(code)
		if td == nil {
			return &SchemaError{Field: string(code), Reason: "missing term"}
		}
		if err := validateTerm(code, *td); err != nil {
			return err
		}
	}
	return nil
}

func validateTerm(code Code, td TermData) error {
	fields := []struct {
		key      string
		p        *Period
		required bool
	}{
		{"o_week", td.OWeek, !code.IsSummer()},
		{"teaching_period", td.TeachingPeriod, true},
		{"flex_week", td.FlexWeek, !code.IsSummer()},
		{"study_period", td.StudyPeriod, !code.IsSummer()},
		{"exams", td.Exams, true},
	}

	for _, f := range fields {
		path := string(code) + "." + f.key
		if f.p == nil {
			if f.required {
				return &SchemaError{Field: path, Reason: "missing session"}
			}
			continue
		}
		if err := ValidatePeriod(path, *f.p); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePeriod checks that both ends of a period are YYYY-MM-DD dates
func ValidatePeriod(path string, p Period) error {
	if !isoDatePattern.MatchString(p.Start) {
		return &SchemaError{Field: path + ".start", Reason: fmt.Sprintf("%q is not YYYY-MM-DD", p.Start)}
	}
	if !isoDatePattern.MatchString(p.End) {
		return &SchemaError{Field: path + ".end", Reason: fmt.Sprintf("%q is not YYYY-MM-DD", p.End)}
	}
	return nil
}
