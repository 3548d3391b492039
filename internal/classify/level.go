// Package classify assigns a government level to a race name.
package classify

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/election-results/constants"
)

// Classifier maps a race name to its level.
type Classifier interface {
	Classify(raceName string) constants.RaceLevel
}

// Func adapts a plain function to Classifier.
type Func func(raceName string) constants.RaceLevel

func (f Func) Classify(raceName string) constants.RaceLevel { return f(raceName) }

type rule struct {
	level    constants.RaceLevel
	keywords []string
	exclude  []string
}

func (r rule) matches(name string) bool {
	for _, ex := range r.exclude {
		if strings.Contains(name, ex) {
			return false
		}
	}
	for _, kw := range r.keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

type keywordClassifier struct {
	rules       []rule
	stripPrefix bool
}

var reLevelPartyPrefix = regexp.MustCompile(`^\([rdl]\)\s+`)

func (c keywordClassifier) Classify(raceName string) constants.RaceLevel {
	name := strings.ToLower(strings.TrimSpace(raceName))
	if c.stripPrefix {
		name = reLevelPartyPrefix.ReplaceAllString(name, "")
	}
	for _, r := range c.rules {
		if r.matches(name) {
			return r.level
		}
	}
	return constants.LevelOther
}

// Basic is the classifier used by initial imports.
var Basic Classifier = keywordClassifier{rules: []rule{
	{level: constants.LevelFederal, keywords: []string{
		"president", "united states senator", "united states rep", "us rep", "us senator",
	}},
	{level: constants.LevelState, keywords: []string{
		"governor", "attorney general", "secretary of state", "auditor of state",
		"treasurer of state", "state senator", "state rep", "supreme court", "court of appeals",
	}},
	{level: constants.LevelCounty, keywords: []string{
		"county", "circuit court", "coroner", "commissioner", "council", "auditor",
		"recorder", "treasurer", "sheriff", "surveyor", "assessor", "prosecuting",
	}},
	{level: constants.LevelLocal, keywords: []string{
		"school", "community school", "twp", "township", "town council",
	}},
	{level: constants.LevelBallotMeasure, keywords: []string{
		"public question", "const amendment", "straight party",
	}},
}}

// DefaultTowns are the municipalities whose names mark a local race.
var DefaultTowns = []string{"zionsville", "lebanon", "whitestown", "advance", "thorntown", "jamestown", "ulen"}

// NewStrict returns the stricter classifier used by repairs and reclassification.
// It ignores a primary party prefix, knows party-internal offices and treats
// the given town names as local.
func NewStrict(towns []string) Classifier {
	local := []string{"school", "community school", "twp", "township", "town council", "town board", "mayor"}
	for _, t := range towns {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			local = append(local, t)
		}
	}
	return keywordClassifier{stripPrefix: true, rules: []rule{
		{level: constants.LevelFederal, keywords: []string{
			"president", "united states senator", "u.s. senator", "united states rep",
			"u.s. rep", "us rep", "congress",
		}},
		{level: constants.LevelState, keywords: []string{
			"governor", "lieutenant governor", "attorney general", "secretary of state",
			"auditor of state", "treasurer of state", "superintendent of public instruction",
			"state senator", "state rep", "supreme court", "court of appeals",
		}},
		{level: constants.LevelCounty, exclude: []string{"town council"}, keywords: []string{
			"county", "circuit court", "coroner", "commissioner", "council member",
			"council at large", "council district", "auditor", "recorder", "treasurer",
			"sheriff", "surveyor", "assessor", "prosecuting", "clerk",
		}},
		{level: constants.LevelLocal, keywords: local},
		{level: constants.LevelBallotMeasure, keywords: []string{
			"public question", "constitutional amendment", "const amendment", "referendum", "straight party",
		}},
		{level: constants.LevelParty, keywords: []string{
			"committeeman", "committeewoman", "committeeperson", "delegate", "convention", "state conv",
		}},
	}}
}
