package spreadsheet

import "strings"

// Field is a result attribute a sheet column can map to.
type Field string

const (
	FieldRace         Field = "race"
	FieldCandidate    Field = "candidate"
	FieldParty        Field = "party"
	FieldVotes        Field = "votes"
	FieldPrecinct     Field = "precinct"
	FieldElectionDate Field = "election_date"
	FieldElectionType Field = "election_type"
	FieldPercentage   Field = "percentage"
)

// fieldKeywords is checked in order; a column claimed by an earlier field is
// not offered to later ones.
var fieldKeywords = []struct {
	field    Field
	keywords []string
}{
	{FieldRace, []string{"race", "contest", "office", "position"}},
	{FieldCandidate, []string{"candidate", "name", "cand"}},
	{FieldParty, []string{"party", "pty", "affiliation"}},
	{FieldVotes, []string{"votes", "vote", "total", "count", "ballots"}},
	{FieldPrecinct, []string{"precinct", "pct", "ward", "district"}},
	{FieldElectionDate, []string{"date", "election date", "elec date"}},
	{FieldElectionType, []string{"type", "election type", "elec type"}},
	{FieldPercentage, []string{"percent", "pct", "%", "vote %", "vote_pct"}},
}

// Columns maps a field to its zero-based column index.
type Columns map[Field]int

// DetectColumns maps header cells to fields by keyword.
func DetectColumns(header []string) Columns {
	cols := make(Columns)
	claimed := make(map[int]bool)
	for _, fk := range fieldKeywords {
		for i, cell := range header {
			if claimed[i] {
				continue
			}
			if containsAny(strings.ToLower(strings.TrimSpace(cell)), fk.keywords) {
				cols[fk.field] = i
				claimed[i] = true
				break
			}
		}
	}
	return cols
}

// Usable reports whether the mapping can produce result tuples.
func (c Columns) Usable() bool {
	_, race := c[FieldRace]
	_, cand := c[FieldCandidate]
	_, votes := c[FieldVotes]
	return (race || cand) && votes
}

func (c Columns) cell(row []string, f Field) (string, bool) {
	i, ok := c[f]
	if !ok || i >= len(row) {
		return "", false
	}
	v := strings.TrimSpace(row[i])
	return v, v != ""
}

func containsAny(s string, kws []string) bool {
	if s == "" {
		return false
	}
	for _, kw := range kws {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
