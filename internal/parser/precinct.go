package parser

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/entity"
)

var (
	rePrecinctID    = regexp.MustCompile(`Precinct ID:\s*(\d+)`)
	rePrecinctName  = regexp.MustCompile(`Precinct Name:\s*([^\n]+)`)
	reCombinedID    = regexp.MustCompile(`(?m)^[ \t]*(\d{2})-([^\n]+)`)
	reRegistered    = regexp.MustCompile(`REGISTERED VOTERS:\s*([\d,]+)`)
	rePublicCount   = regexp.MustCompile(`PUBLIC COUNT:\s*([\d,]+)`)
	reVoterTurnout  = regexp.MustCompile(`VOTER TURNOUT:\s*([\d.]+)%`)
	reRegisteredPct = regexp.MustCompile(`REGISTERED VOTERS:\s*[\d,]+\s+([\d.]+)%`)
)

// ExtractPrecinct reads the header region of one section. It returns nil when
// no precinct identifier is present, which tells the caller to drop the section.
func ExtractPrecinct(section string, f constants.Format) *entity.PrecinctInfo {
	var code, name string
	switch f {
	case constants.FormatA, constants.FormatC1:
		if m := rePrecinctID.FindStringSubmatch(section); m != nil {
			code = m[1]
		}
		if m := rePrecinctName.FindStringSubmatch(section); m != nil {
			name = strings.TrimSpace(m[1])
		}
	default:
		if m := reCombinedID.FindStringSubmatch(section); m != nil {
			code = m[1]
			name = strings.TrimSpace(m[2])
		}
	}
	if code == "" {
		return nil
	}
	if name == "" {
		name = "Precinct " + code
	}

	info := &entity.PrecinctInfo{Code: code, Name: name}
	if m := reRegistered.FindStringSubmatch(section); m != nil {
		info.RegisteredVoters = parseCount(m[1])
	}
	if m := rePublicCount.FindStringSubmatch(section); m != nil {
		info.BallotsCast = parseCount(m[1])
	}
	// The labeled field wins; older reports append the percentage to the
	// registered-voters figure instead.
	if m := reVoterTurnout.FindStringSubmatch(section); m != nil {
		info.TurnoutPct = parsePercent(m[1])
	} else if m := reRegisteredPct.FindStringSubmatch(section); m != nil {
		info.TurnoutPct = parsePercent(m[1])
	}
	return info
}
