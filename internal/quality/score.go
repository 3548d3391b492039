// Package quality assigns every loaded election a confidence score from five
// weighted signals.
package quality

import (
	"math"

	"github.com/joseph-ayodele/election-results/constants"
)

const (
	weightSource         = 0.25
	weightRaceNamesClean = 0.20
	weightTurnout        = 0.20
	weightPrecinctCount  = 0.15
	weightCrossValidated = 0.20

	highThreshold   = 0.85
	mediumThreshold = 0.45
)

var sourceScores = map[constants.SourceType]float64{
	constants.SourceDigitalPDF:  1.0,
	constants.SourceExcel:       0.9,
	constants.SourceManualEntry: 0.5,
	constants.SourceScannedPDF:  0.3,
}

// Signals are the inputs of the score.
type Signals struct {
	SourceType         constants.SourceType
	RaceNamesClean     bool
	TurnoutConsistent  bool
	PrecinctCountMatch bool
	CrossValidated     bool
}

// Score returns the weighted score rounded to three decimals and its level.
func Score(s Signals) (float64, constants.ConfidenceLevel) {
	src, ok := sourceScores[s.SourceType]
	if !ok {
		src = sourceScores[constants.SourceManualEntry]
	}
	score := weightSource*src +
		weightRaceNamesClean*b2f(s.RaceNamesClean) +
		weightTurnout*b2f(s.TurnoutConsistent) +
		weightPrecinctCount*b2f(s.PrecinctCountMatch) +
		weightCrossValidated*b2f(s.CrossValidated)
	score = math.Round(score*1000) / 1000
	return score, Level(score)
}

// Level maps a rounded score to its label.
func Level(score float64) constants.ConfidenceLevel {
	switch {
	case score >= highThreshold:
		return constants.ConfidenceHigh
	case score >= mediumThreshold:
		return constants.ConfidenceMedium
	default:
		return constants.ConfidenceLow
	}
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
