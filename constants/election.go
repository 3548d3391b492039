package constants

import "strings"

// ElectionType is stored in elections.election_type.
type ElectionType string

const (
	ElectionGeneral   ElectionType = "general"
	ElectionPrimary   ElectionType = "primary"
	ElectionSpecial   ElectionType = "special"
	ElectionMunicipal ElectionType = "municipal"
	ElectionOther     ElectionType = "other"
)

// ParseElectionType accepts a stored or user supplied value.
func ParseElectionType(s string) (ElectionType, bool) {
	switch t := ElectionType(strings.ToLower(strings.TrimSpace(s))); t {
	case ElectionGeneral, ElectionPrimary, ElectionSpecial, ElectionMunicipal, ElectionOther:
		return t, true
	}
	return ElectionOther, false
}

// RaceLevel is stored in races.race_level.
type RaceLevel string

const (
	LevelFederal       RaceLevel = "federal"
	LevelState         RaceLevel = "state"
	LevelCounty        RaceLevel = "county"
	LevelLocal         RaceLevel = "local"
	LevelBallotMeasure RaceLevel = "ballot_measure"
	LevelParty         RaceLevel = "party"
	LevelOther         RaceLevel = "other"
)

// Party codes stored in candidates.party.
const (
	PartyDemocratic  = "D"
	PartyRepublican  = "R"
	PartyLibertarian = "L"
	PartyIndependent = "I"
	PartyWTP         = "WTP"
	PartyNonPartisan = "NP"
)

// StraightPartyRace is the pseudo-race holding straight-ticket counts.
const StraightPartyRace = "Straight Party"

var partyAliases = map[string]string{
	"R":   PartyRepublican,
	"REP": PartyRepublican,
	"D":   PartyDemocratic,
	"DEM": PartyDemocratic,
	"L":   PartyLibertarian,
	"LIB": PartyLibertarian,
	"I":   PartyIndependent,
	"IND": PartyIndependent,
	"WTP": PartyWTP,
	"NP":  PartyNonPartisan,
}

// CanonicalParty maps a party token to its stored code. Unknown tokens are
// returned upper-cased with ok=false.
func CanonicalParty(token string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(token))
	if code, ok := partyAliases[t]; ok {
		return code, true
	}
	return t, false
}

// RacePartyPrefix maps the prefixes allowed on primary race names.
var RacePartyPrefix = map[string]string{
	"R":   PartyRepublican,
	"REP": PartyRepublican,
	"D":   PartyDemocratic,
	"DEM": PartyDemocratic,
	"L":   PartyLibertarian,
	"LIB": PartyLibertarian,
}

// StraightPartyNames maps straight-ticket labels to party codes.
var StraightPartyNames = map[string]string{
	"Democratic Party":  PartyDemocratic,
	"Republican Party":  PartyRepublican,
	"Libertarian Party": PartyLibertarian,
}
