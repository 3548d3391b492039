package parser

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/election-results/constants"
)

var (
	reMachineMarker = regexp.MustCompile(`M\s*-?\s*#\s*(?:Of|OF)\s*Machine`)
	reCombinedIDAny = regexp.MustCompile(`\d+-\w+`)
)

const (
	markerElectionDay   = "E - # Of Election Day"
	markerPrecinctID    = "Precinct ID:"
	markerSummaryReport = "Election Summary Report"
)

// detectRule is one entry of the ordered detection list. Rules share markers,
// so the first match wins and the order below must not change.
type detectRule struct {
	name   string
	format constants.Format
	match  func(text string) bool
}

var detectRules = []detectRule{
	{"election-day+precinct-id", constants.FormatA, func(t string) bool {
		return strings.Contains(t, markerElectionDay) && strings.Contains(t, markerPrecinctID)
	}},
	{"election-day", constants.FormatB, func(t string) bool {
		return strings.Contains(t, markerElectionDay)
	}},
	{"machine+precinct-id", constants.FormatC1, func(t string) bool {
		return reMachineMarker.MatchString(t) && strings.Contains(t, markerPrecinctID)
	}},
	{"machine+combined-id", constants.FormatC2, func(t string) bool {
		return reMachineMarker.MatchString(t) && reCombinedIDAny.MatchString(t)
	}},
	{"machine", constants.FormatC2, func(t string) bool {
		return reMachineMarker.MatchString(t)
	}},
	{"summary-only", constants.FormatD, func(t string) bool {
		return strings.Contains(t, markerSummaryReport) && !strings.Contains(t, "Precinct")
	}},
}

// DetectFormat classifies the concatenated page text of a document.
func DetectFormat(text string) constants.Format {
	for _, r := range detectRules {
		if r.match(text) {
			return r.format
		}
	}
	return constants.FormatUnknown
}
