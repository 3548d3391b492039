package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/election-results/constants"
)

// UnknownDate and UnknownElectionName are stored when the header lacks them.
const (
	UnknownDate         = "Unknown"
	UnknownElectionName = "Unknown Election"
)

var (
	reElectionDate = regexp.MustCompile(`Election Date:\s*(\d+)/(\d+)/(\d+)`)
	reElectionName = regexp.MustCompile(`(?i)(\d{4}\s+(?:General|Primary|Special|Municipal)\s+Election)`)

	reNumberOfPrecincts = regexp.MustCompile(`NUMBER OF PRECINCTS:\s*(\d+)`)
)

// ElectionDate returns the first "Election Date: m/d/yyyy" as YYYY-MM-DD.
func ElectionDate(text string) string {
	m := reElectionDate.FindStringSubmatch(text)
	if m == nil {
		return UnknownDate
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year := m[3]
	if len(year) == 2 {
		year = "20" + year
	}
	return fmt.Sprintf("%s-%02d-%02d", year, month, day)
}

// ElectionName returns e.g. "2024 General Election".
func ElectionName(text string) string {
	if m := reElectionName.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return UnknownElectionName
}

// ClassifyElectionType maps an election name to its type.
func ClassifyElectionType(name string) constants.ElectionType {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "general"):
		return constants.ElectionGeneral
	case strings.Contains(lower, "primary"):
		return constants.ElectionPrimary
	case strings.Contains(lower, "special"):
		return constants.ElectionSpecial
	case strings.Contains(lower, "municipal"):
		return constants.ElectionMunicipal
	}
	return constants.ElectionOther
}

// PageTotals are the county-wide header figures of a report's first page.
type PageTotals struct {
	RegisteredVoters *int
	BallotsCast      *int
	Precincts        *int
}

// FirstPageTotals reads the header figures printed on a first page.
func FirstPageTotals(page string) PageTotals {
	var t PageTotals
	if m := reRegistered.FindStringSubmatch(page); m != nil {
		t.RegisteredVoters = parseCount(m[1])
	}
	if m := rePublicCount.FindStringSubmatch(page); m != nil {
		t.BallotsCast = parseCount(m[1])
	}
	if m := reNumberOfPrecincts.FindStringSubmatch(page); m != nil {
		t.Precincts = parseCount(m[1])
	}
	return t
}

// IsCountySummaryPage reports whether a page carries county-wide totals rather
// than one precinct's header.
func IsCountySummaryPage(page string) bool {
	return strings.Contains(page, markerSummaryReport) || reNumberOfPrecincts.MatchString(page)
}

var reNumericLead = regexp.MustCompile(`^\d+\s+\d+\s+\d+\s+\d+`)

// RaceNames scans a document for race-name markers in both orderings without
// a full parse. Names are returned de-duplicated in first-seen order.
func RaceNames(text string) []string {
	lines := splitLines(text)
	var names []string
	seen := make(map[string]struct{})
	add := func(n string) {
		n = strings.TrimSpace(n)
		if n == "" {
			return
		}
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if precinctGrammar.start.MatchString(line) && i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if !strings.HasPrefix(next, "VOTES") && !reNumericLead.MatchString(next) {
				add(next)
			}
		}
	}
	for _, line := range lines {
		if m := reCountFirstStart.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			if n := strings.TrimSpace(m[2]); n != "" && !reNumericLead.MatchString(n) {
				add(n)
			}
		}
	}
	return names
}
