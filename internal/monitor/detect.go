package monitor

import "regwatch/internal/dataset"

// Dataset columns of interest. FieldSubjectName is captured for display only
// and never diffed.
const (
	FieldClosureDate  = "Closure Date"
	FieldDecisionDate = "Decision Date"
	FieldSubjectName  = "Subject Name"
)

// TrackedFields is the fixed diff order: closure date first, then decision date.
var TrackedFields = []string{FieldClosureDate, FieldDecisionDate}

// EmptyPlaceholder is how an absent value renders in user-facing output.
// Internally absent values compare as "".
const EmptyPlaceholder = "(empty)"

type FieldChange struct {
	Field string
	From  string
	To    string
}

// ExtractFields pulls the tracked fields plus the subject name out of a row.
func ExtractFields(row dataset.Row) map[string]string {
	out := make(map[string]string, len(TrackedFields)+1)
	for _, f := range TrackedFields {
		out[f] = row.Get(f)
	}
	out[FieldSubjectName] = row.Get(FieldSubjectName)
	return out
}

// Detect compares the previous snapshot values against the current ones and
// returns one FieldChange per differing tracked field, in TrackedFields order.
// Equal values produce no entry.
func Detect(prev, cur map[string]string) []FieldChange {
	var changes []FieldChange
	for _, f := range TrackedFields {
		from := prev[f]
		to := cur[f]
		if from == to {
			continue
		}
		changes = append(changes, FieldChange{
			Field: f,
			From:  displayValue(from),
			To:    displayValue(to),
		})
	}
	return changes
}

func displayValue(s string) string {
	if s == "" {
		return EmptyPlaceholder
	}
	return s
}
