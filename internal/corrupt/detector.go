// Package corrupt recognizes race names that swallowed an unparsed candidate
// line and decodes the vote data embedded in them.
package corrupt

import (
	"fmt"
	"regexp"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/parser"
)

// DefaultSignature matches three or more integer groups followed by a
// percentage and more text.
const DefaultSignature = `\d+(?:\s+\d+){2,}\s+[\d.]+%\s*\S`

// Detector flags corrupted race names. Only races left unclassified are
// tested; legitimate names can look numeric.
type Detector struct {
	signature *regexp.Regexp
}

// NewDetector compiles the signature; an empty pattern selects DefaultSignature.
func NewDetector(pattern string) (*Detector, error) {
	if pattern == "" {
		pattern = DefaultSignature
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile corruption signature: %w", err)
	}
	return &Detector{signature: re}, nil
}

// MustDetector is NewDetector for patterns known to compile.
func MustDetector(pattern string) *Detector {
	d, err := NewDetector(pattern)
	if err != nil {
		panic(err)
	}
	return d
}

// IsCorrupted reports whether a stored race looks like a parse failure.
func (d *Detector) IsCorrupted(raceName string, level constants.RaceLevel) bool {
	if level != constants.LevelOther {
		return false
	}
	return d.signature.MatchString(raceName)
}

// Decoded is the vote data recovered from a corrupted race name.
type Decoded struct {
	Channels  [3]int
	Total     int
	Percent   float64
	Candidate string
	Party     string
}

// Decode extracts the embedded candidate line from a corrupted name.
func Decode(raceName string) (Decoded, bool) {
	cl, ok := parser.DecodeCandidateLine(raceName)
	if !ok {
		return Decoded{}, false
	}
	return Decoded{
		Channels:  cl.Channels,
		Total:     cl.Total,
		Percent:   cl.Percent,
		Candidate: cl.Name,
		Party:     cl.Party,
	}, true
}
