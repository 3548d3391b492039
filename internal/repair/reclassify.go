package repair

import (
	"context"
	"sort"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/classify"
	"github.com/joseph-ayodele/election-results/internal/corrupt"
	"github.com/joseph-ayodele/election-results/internal/repository"
)

// Change is one race whose level moves.
type Change struct {
	ElectionDate string
	RaceID       int64
	RaceName     string
	Old          constants.RaceLevel
	New          constants.RaceLevel
}

// ReclassifyReport lists the changes and counts them per new level.
type ReclassifyReport struct {
	Examined int
	Changes  []Change
	ByLevel  map[constants.RaceLevel]int
	DryRun   bool
}

// Levels returns the new levels in a stable order.
func (r ReclassifyReport) Levels() []constants.RaceLevel {
	out := make([]constants.RaceLevel, 0, len(r.ByLevel))
	for l := range r.ByLevel {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type updater interface {
	WithTx(ctx context.Context, fn func(*repository.Repositories) error) error
	Repos() *repository.Repositories
}

// Reclassify re-runs classifier over races still at level other, skipping
// names that carry the corruption signature. With dryRun nothing is written.
func Reclassify(ctx context.Context, db updater, classifier classify.Classifier, detector *corrupt.Detector, dryRun bool) (ReclassifyReport, error) {
	if classifier == nil {
		classifier = classify.NewStrict(classify.DefaultTowns)
	}
	if detector == nil {
		detector = corrupt.MustDetector("")
	}
	rep := ReclassifyReport{ByLevel: make(map[constants.RaceLevel]int), DryRun: dryRun}

	races, err := db.Repos().Races.ListByLevel(ctx, constants.LevelOther)
	if err != nil {
		return rep, err
	}
	for _, r := range races {
		if detector.IsCorrupted(r.Name, r.Level) {
			continue
		}
		rep.Examined++
		level := classifier.Classify(r.Name)
		if level == constants.LevelOther {
			continue
		}
		rep.Changes = append(rep.Changes, Change{
			ElectionDate: r.ElectionDate,
			RaceID:       r.ID,
			RaceName:     r.Name,
			Old:          r.Level,
			New:          level,
		})
		rep.ByLevel[level]++
	}
	if dryRun || len(rep.Changes) == 0 {
		return rep, nil
	}
	err = db.WithTx(ctx, func(tx *repository.Repositories) error {
		for _, c := range rep.Changes {
			if err := tx.Races.UpdateLevel(ctx, c.RaceID, c.New); err != nil {
				return err
			}
		}
		return nil
	})
	return rep, err
}
