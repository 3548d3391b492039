package validate

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/corrupt"
	"github.com/joseph-ayodele/election-results/internal/repository"
)

// Variant is one spelling of a race name and the number of elections using it.
type Variant struct {
	Name      string
	Elections int
}

// VariantGroup is a set of spellings sharing one normalized key.
type VariantGroup struct {
	Key      string
	Variants []Variant
}

var (
	reNamePartyPrefix = regexp.MustCompile(`^\([a-z]+\)\s+`)
	reNameUS          = regexp.MustCompile(`\bu\.\s?s\.?`)
	reNamePunct       = regexp.MustCompile(`[^a-z0-9]+`)
)

var nameWordAliases = map[string]string{
	"representative": "rep",
}

// NormalizeRaceName returns the comparison key of a race name: lower case,
// no party prefix, punctuation collapsed, US/U.S. and Rep/Representative unified.
func NormalizeRaceName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = reNamePartyPrefix.ReplaceAllString(s, "")
	s = reNameUS.ReplaceAllString(s, "us")
	s = strings.TrimSpace(reNamePunct.ReplaceAllString(s, " "))
	words := strings.Fields(s)
	for i, w := range words {
		if alias, ok := nameWordAliases[w]; ok {
			words[i] = alias
		}
	}
	return strings.Join(words, " ")
}

// GroupVariants groups names by their normalized key and returns the groups
// holding more than one spelling, sorted by key. Corrupted names are ignored.
func GroupVariants(names map[string]int, detector *corrupt.Detector) []VariantGroup {
	if detector == nil {
		detector = corrupt.MustDetector("")
	}
	groups := make(map[string][]Variant)
	for name, n := range names {
		if detector.IsCorrupted(name, constants.LevelOther) {
			continue
		}
		key := NormalizeRaceName(name)
		groups[key] = append(groups[key], Variant{Name: name, Elections: n})
	}
	var out []VariantGroup
	for key, vs := range groups {
		if len(vs) < 2 {
			continue
		}
		sort.Slice(vs, func(i, j int) bool { return vs[i].Name < vs[j].Name })
		out = append(out, VariantGroup{Key: key, Variants: vs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// AuditRaceNames loads every distinct race name and groups the variants.
func AuditRaceNames(ctx context.Context, races repository.RaceRepository, detector *corrupt.Detector) ([]VariantGroup, error) {
	names, err := races.DistinctNames(ctx)
	if err != nil {
		return nil, err
	}
	return GroupVariants(names, detector), nil
}
