package term

import "fmt"

// Change types reported by DetectChanges
const (
	ChangeNew     = "new"
	ChangeDate    = "date"
	ChangeRemoved = "removed"
)

// Change is a difference in one session between two versions of a year
type Change struct {
	Term       Code   `json:"term"`
	Session    string `json:"session"`     // Session.Key
	ChangeType string `json:"change_type"` // "new", "date", "removed"
	OldValue   string `json:"old_value"`
	NewValue   string `json:"new_value"`
}

func (c Change) String() string {
	return fmt.Sprintf("%s %s %s: %q -> %q", c.Term, c.Session, c.ChangeType, c.OldValue, c.NewValue)
}

// DetectChanges compares two versions of a year session by session, in term order
func DetectChanges(previous, current YearData) []Change {
	var changes []Change

	for _, code := range Codes {
		before := sessionMap(previous.Term(code))
		after := current.Term(code)

		if after != nil {
			for _, s := range after.Sessions() {
				value := formatPeriod(s.Period)
				old, existed := before[s.Key]
				delete(before, s.Key)

				switch {
				case !existed:
					changes = append(changes, Change{Term: code, Session: s.Key, ChangeType: ChangeNew, NewValue: value})
				case old != value:
					changes = append(changes, Change{Term: code, Session: s.Key, ChangeType: ChangeDate, OldValue: old, NewValue: value})
				}
			}
		}

		// whatever is left was dropped from the new version
		if prev := previous.Term(code); prev != nil {
			for _, s := range prev.Sessions() {
				if old, ok := before[s.Key]; ok {
					changes = append(changes, Change{Term: code, Session: s.Key, ChangeType: ChangeRemoved, OldValue: old})
				}
			}
		}
	}

	return changes
}

func sessionMap(td *TermData) map[string]string {
	m := make(map[string]string)
	if td == nil {
		return m
	}
	for _, s := range td.Sessions() {
		m[s.Key] = formatPeriod(s.Period)
	}
	return m
}

func formatPeriod(p Period) string {
	return p.Start + "/" + p.End
}
