package term

import "fmt"

// Code identifies one of the four terms of an academic year
type Code string

const (
	CodeSummer Code = "U1"
	CodeT1     Code = "T1"
	CodeT2     Code = "T2"
	CodeT3     Code = "T3"
)

// Codes lists every term code in calendar order
var Codes = []Code{CodeSummer, CodeT1, CodeT2, CodeT3}

// termNames maps the headings used on the source page to term codes
var termNames = map[string]Code{
	"Summer Term": CodeSummer,
	"Term 1":      CodeT1,
	"Term 2":      CodeT2,
	"Term 3":      CodeT3,
}

// CodeForName returns the term code for a page heading such as "Term 2"
func CodeForName(name string) (Code, bool) {
	code, ok := termNames[name]
	return code, ok
}

// IsSummer reports whether the code is the summer term
func (c Code) IsSummer() bool {
	return c == CodeSummer
}

// Period is an inclusive range of two YYYY-MM-DD dates
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TermData holds the sessions of one term. TeachingPeriod and Exams are mandatory;
// the summer term usually has no O-Week, flexibility week or study period.
type TermData struct {
	OWeek          *Period `json:"o_week,omitempty"`
	TeachingPeriod *Period `json:"teaching_period"`
	FlexWeek       *Period `json:"flex_week,omitempty"`
	StudyPeriod    *Period `json:"study_period,omitempty"`
	Exams          *Period `json:"exams"`
}

// Session is a named period within a term
type Session struct {
	Key    string // JSON field name, e.g. "flex_week"
	Label  string // human readable, e.g. "Flexibility week"
	Period Period
}

// Sessions returns the populated sessions of the term in calendar order
func (t TermData) Sessions() []Session {
	all := []struct {
		key, label string
		p          *Period
	}{
		{"o_week", "O-Week", t.OWeek},
		{"teaching_period", "Teaching period", t.TeachingPeriod},
		{"flex_week", "Flexibility week", t.FlexWeek},
		{"study_period", "Study period", t.StudyPeriod},
		{"exams", "Exams", t.Exams},
	}

	sessions := make([]Session, 0, len(all))
	for _, s := range all {
		if s.p == nil {
			continue
		}
		sessions = append(sessions, Session{Key: s.key, Label: s.label, Period: *s.p})
	}
	return sessions
}

// YearData holds all four terms of one calendar year
type YearData struct {
	U1 *TermData `json:"U1"`
	T1 *TermData `json:"T1"`
	T2 *TermData `json:"T2"`
	T3 *TermData `json:"T3"`
}

// Term returns the data for a term code, or nil if it is not set
func (y *YearData) Term(code Code) *TermData {
	switch code {
	case CodeSummer:
		return y.U1
	case CodeT1:
		return y.T1
	case CodeT2:
		return y.T2
	case CodeT3:
		return y.T3
	}
	return nil
}

// SetTerm stores the data for a term code
func (y *YearData) SetTerm(code Code, td *TermData) error {
	switch code {
	case CodeSummer:
		y.U1 = td
	case CodeT1:
		y.T1 = td
	case CodeT2:
		y.T2 = td
	case CodeT3:
		y.T3 = td
	default:
		return fmt.Errorf("unknown term code: %s", code)
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate shared state
func (y YearData) Clone() YearData {
	var out YearData
	for _, code := range Codes {
		if td := y.Term(code); td != nil {
			c := td.clone()
			_ = out.SetTerm(code, &c)
		}
	}
	return out
}

func (t TermData) clone() TermData {
	cp := func(p *Period) *Period {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	return TermData{
		OWeek:          cp(t.OWeek),
		TeachingPeriod: cp(t.TeachingPeriod),
		FlexWeek:       cp(t.FlexWeek),
		StudyPeriod:    cp(t.StudyPeriod),
		Exams:          cp(t.Exams),
	}
}
