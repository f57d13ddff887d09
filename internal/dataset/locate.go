package dataset

import "strings"

// Upstream exports are inconsistent about which column carries the register
// number: some leave the header blank, some name it. The resolvers below are
// tried in order and the first non-empty candidate wins; the last one falls
// back to the leftmost column by position.
type resolver struct {
	name string
	fn   func(Row) string
}

var identifierResolvers = []resolver{
	{name: "blank header", fn: func(r Row) string {
		return r.Get("")
	}},
	{name: "named column", fn: func(r Row) string {
		for _, h := range identifierAliases {
			if v := r.Get(h); v != "" {
				return v
			}
		}
		return ""
	}},
	{name: "first column", fn: func(r Row) string {
		if len(r.Headers) == 0 {
			return ""
		}
		return r.Get(r.Headers[0])
	}},
}

var identifierAliases = []string{
	"Register Number",
	"Registration Number",
	"Reference",
	"ID",
}

// ResolveIdentifier derives the candidate identifier for one row, trimmed.
func ResolveIdentifier(r Row) string {
	for _, res := range identifierResolvers {
		if v := strings.TrimSpace(res.fn(r)); v != "" {
			return v
		}
	}
	return ""
}

// Locate scans rows in order and returns the first row whose candidate
// identifier equals targetID. Duplicate identifiers are not specially
// handled; the earliest match wins. Not-found is an outcome, not an error.
func Locate(rows []Row, targetID string) (Row, bool) {
	targetID = strings.TrimSpace(targetID)
	for _, row := range rows {
		if ResolveIdentifier(row) == targetID {
			return row, true
		}
	}
	return Row{}, false
}
