package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/election-results/constants"
)

var (
	// Four vote columns (three channels and their sum), a percentage, then the name.
	reCandidateLine  = regexp.MustCompile(`(\d+)\s+(\d+)\s+(\d+)\s+(\d+)\s+([\d.]+)%\s+(.+)`)
	reLeadingParty   = regexp.MustCompile(`^\((\w+)\)\s+(.+)$`)
	reTrailingParty  = regexp.MustCompile(`^(.+?)\s*\((\w+)\)\s*$`)
	reRacePartyToken = regexp.MustCompile(`^\((\w+)\)\s+(.+)$`)
)

var ballotMeasureNames = map[string]string{
	"yes":      "Yes",
	"no":       "No",
	"write-in": "Write-In",
}

// SplitCandidate decomposes a candidate name field into display name and party
// code. Checked in order: a leading "(CODE) Name", a trailing "Name (CODE)",
// then the literal ballot-measure tokens which carry no party.
func SplitCandidate(field string) (name, party string) {
	field = strings.TrimSpace(field)
	if m := reLeadingParty.FindStringSubmatch(field); m != nil {
		party, _ = constants.CanonicalParty(m[1])
		return strings.TrimSpace(m[2]), party
	}
	if m := reTrailingParty.FindStringSubmatch(field); m != nil {
		if code, ok := constants.CanonicalParty(m[2]); ok {
			return strings.TrimSpace(m[1]), code
		}
	}
	if title, ok := ballotMeasureNames[strings.ToLower(field)]; ok {
		return title, ""
	}
	return field, ""
}

// SplitRaceParty strips a primary-ballot party prefix such as "(D) Governor".
// Only major-party tokens count; anything else is left in the name.
func SplitRaceParty(raceName string) (name, party string) {
	raceName = strings.TrimSpace(raceName)
	m := reRacePartyToken.FindStringSubmatch(raceName)
	if m == nil {
		return raceName, ""
	}
	code, ok := constants.RacePartyPrefix[strings.ToUpper(m[1])]
	if !ok {
		return raceName, ""
	}
	return strings.TrimSpace(m[2]), code
}

// CandidateLine is one decoded candidate line.
type CandidateLine struct {
	Channels [3]int
	Total    int
	Percent  float64
	Name     string
	Party    string
}

// findCandidateLines returns every candidate line in a race block body.
func findCandidateLines(body string) []CandidateLine {
	matches := reCandidateLine.FindAllStringSubmatch(body, -1)
	out := make([]CandidateLine, 0, len(matches))
	for _, m := range matches {
		if cl, ok := candidateFromMatch(m); ok {
			out = append(out, cl)
		}
	}
	return out
}

func candidateFromMatch(m []string) (CandidateLine, bool) {
	var cl CandidateLine
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return cl, false
		}
		cl.Channels[i] = n
	}
	total, err := strconv.Atoi(m[4])
	if err != nil {
		return cl, false
	}
	pct, err := strconv.ParseFloat(m[5], 64)
	if err != nil {
		return cl, false
	}
	cl.Total = total
	cl.Percent = pct
	cl.Name, cl.Party = SplitCandidate(m[6])
	return cl, true
}

// DecodeCandidateLine decodes text that begins with a candidate line, as found
// in race names where the candidate pattern never matched during extraction.
func DecodeCandidateLine(s string) (CandidateLine, bool) {
	m := reCandidateLine.FindStringSubmatchIndex(s)
	if m == nil || strings.TrimSpace(s[:m[0]]) != "" {
		return CandidateLine{}, false
	}
	return candidateFromMatch(reCandidateLine.FindStringSubmatch(s))
}
