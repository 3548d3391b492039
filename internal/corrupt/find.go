package corrupt

import (
	"context"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/entity"
)

// RaceLister lists stored races of one level across all elections.
type RaceLister interface {
	ListByLevel(ctx context.Context, level constants.RaceLevel) ([]entity.ElectionRace, error)
}

// Finding is a stored race whose name carries the corruption signature.
type Finding struct {
	entity.ElectionRace
	Decoded   Decoded
	Decodable bool
}

// Find returns every corrupted race, ordered as the lister returns them.
func (d *Detector) Find(ctx context.Context, races RaceLister) ([]Finding, error) {
	list, err := races.ListByLevel(ctx, constants.LevelOther)
	if err != nil {
		return nil, err
	}
	var out []Finding
	for _, r := range list {
		if !d.IsCorrupted(r.Name, r.Level) {
			continue
		}
		f := Finding{ElectionRace: r}
		f.Decoded, f.Decodable = Decode(r.Name)
		out = append(out, f)
	}
	return out, nil
}
