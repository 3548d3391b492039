// Package analytics answers cross-election questions over loaded results.
// It only reads.
package analytics

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/election-results/internal/repository"
)

var folder = cases.Fold()

// PrecinctKey folds a precinct name so spellings from different years
// compare equal: Unicode compatibility form, case folded, punctuation and
// repeated whitespace collapsed, leading zeros dropped from numbers.
func PrecinctKey(name string) string {
	s := folder.String(norm.NFKC.String(name))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_' || r == '.' || r == ','
	})
	for i, f := range fields {
		if isDigits(f) {
			if t := strings.TrimLeft(f, "0"); t != "" {
				fields[i] = t
			} else {
				fields[i] = "0"
			}
		}
	}
	return strings.Join(fields, " ")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// PrecinctTotal is the vote total of one party in one precinct of one election.
type PrecinctTotal struct {
	ElectionDate string
	PrecinctKey  string
	Precinct     string // first spelling seen
	Party        string
	Votes        int
}

// Shift compares a party's share of the vote in one precinct across two elections.
type Shift struct {
	Precinct string
	ShareA   float64 // percent
	ShareB   float64
	Change   float64 // ShareB - ShareA, percentage points
	VotesA   int     // all votes in the precinct
	VotesB   int
}

type Store struct {
	results repository.ResultRepository
	logger  *slog.Logger
}

func NewStore(results repository.ResultRepository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{results: results, logger: logger}
}

// PrecinctTotals sums votes per (election date, folded precinct, party) for
// races whose name contains raceSubstr. County-wide rows are excluded.
func (s *Store) PrecinctTotals(ctx context.Context, raceSubstr string) ([]PrecinctTotal, error) {
	rows, err := s.results.List(ctx, raceSubstr)
	if err != nil {
		return nil, err
	}
	type key struct{ date, precinct, party string }
	idx := make(map[key]int)
	var out []PrecinctTotal
	for _, r := range rows {
		if r.PrecinctName == "" {
			continue
		}
		k := key{r.ElectionDate, PrecinctKey(r.PrecinctName), r.Party}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, PrecinctTotal{ElectionDate: k.date, PrecinctKey: k.precinct, Precinct: r.PrecinctName, Party: k.party})
		}
		out[i].Votes += r.Votes
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ElectionDate != b.ElectionDate {
			return a.ElectionDate < b.ElectionDate
		}
		if a.PrecinctKey != b.PrecinctKey {
			return a.PrecinctKey < b.PrecinctKey
		}
		return a.Party < b.Party
	})
	s.logger.Debug("precinct totals", "race", raceSubstr, "rows", len(rows), "totals", len(out))
	return out, nil
}

// Shifts returns, for every precinct present in both elections, the change in
// party's share between dateA and dateB, largest gain first.
func Shifts(totals []PrecinctTotal, dateA, dateB, party string) []Shift {
	type acc struct {
		name         string
		partyA, allA int
		partyB, allB int
		seenA, seenB bool
	}
	by := make(map[string]*acc)
	for _, t := range totals {
		if t.ElectionDate != dateA && t.ElectionDate != dateB {
			continue
		}
		a := by[t.PrecinctKey]
		if a == nil {
			a = &acc{name: t.Precinct}
			by[t.PrecinctKey] = a
		}
		if t.ElectionDate == dateA {
			a.seenA = true
			a.allA += t.Votes
			if t.Party == party {
				a.partyA += t.Votes
			}
		} else {
			a.seenB = true
			a.allB += t.Votes
			if t.Party == party {
				a.partyB += t.Votes
			}
		}
	}

	var out []Shift
	for _, a := range by {
		if !a.seenA || !a.seenB {
			continue
		}
		sa, sb := share(a.partyA, a.allA), share(a.partyB, a.allB)
		out = append(out, Shift{
			Precinct: a.name,
			ShareA:   sa,
			ShareB:   sb,
			Change:   round2(sb - sa),
			VotesA:   a.allA,
			VotesB:   a.allB,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Change != out[j].Change {
			return out[i].Change > out[j].Change
		}
		return out[i].Precinct < out[j].Precinct
	})
	return out
}

func share(part, all int) float64 {
	if all == 0 {
		return 0
	}
	return round2(float64(part) / float64(all) * 100)
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
