package loader

import (
	"context"

	"github.com/joseph-ayodele/election-results/internal/classify"
	"github.com/joseph-ayodele/election-results/internal/entity"
	"github.com/joseph-ayodele/election-results/internal/repository"
)

// loadState holds the caches of one document load. It never outlives the
// transaction it was built for.
type loadState struct {
	repos      *repository.Repositories
	countyID   int64
	electionID int64
	classifier classify.Classifier

	precincts  map[string]int64    // precinct code (or name) -> id
	races      map[string]int64    // race name -> id
	candidates map[[2]string]int64 // (name, party) -> id
	raceVotes  map[string]map[string]int
	turnout    map[int64]bool // precinct ids with a turnout row
}

func precinctKey(code, name string) string {
	if code != "" {
		return code
	}
	return name
}

func (s *loadState) precinct(ctx context.Context, code, name string) (int64, error) {
	key := precinctKey(code, name)
	if id, ok := s.precincts[key]; ok {
		return id, nil
	}
	if name == "" {
		name = code
	}
	id, err := s.repos.Precincts.Ensure(ctx, entity.Precinct{CountyID: s.countyID, Name: name, Code: code})
	if err != nil {
		return 0, err
	}
	s.precincts[key] = id
	return id, nil
}

func (s *loadState) race(ctx context.Context, name string, voteFor int) (int64, error) {
	if id, ok := s.races[name]; ok {
		return id, nil
	}
	id, err := s.repos.Races.Ensure(ctx, entity.Race{
		ElectionID: s.electionID,
		Name:       name,
		Level:      s.classifier.Classify(name),
		VoteFor:    voteFor,
	})
	if err != nil {
		return 0, err
	}
	s.races[name] = id
	return id, nil
}

func (s *loadState) candidate(ctx context.Context, name, party string) (int64, error) {
	key := [2]string{name, party}
	if id, ok := s.candidates[key]; ok {
		return id, nil
	}
	id, err := s.repos.Candidates.Ensure(ctx, name, party)
	if err != nil {
		return 0, err
	}
	s.candidates[key] = id
	return id, nil
}

func (s *loadState) result(ctx context.Context, row entity.ResultRow) error {
	raceID, err := s.race(ctx, row.RaceName, row.VoteFor)
	if err != nil {
		return err
	}
	candidateID, err := s.candidate(ctx, row.CandidateName, row.Party)
	if err != nil {
		return err
	}
	res := entity.Result{
		RaceID:      raceID,
		CandidateID: candidateID,
		Votes:       row.Votes,
		VotePct:     row.VotePct,
		Channel1:    row.Channel1,
		Channel2:    row.Channel2,
		Channel3:    row.Channel3,
	}
	if row.PrecinctCode != "" || row.PrecinctName != "" {
		pid, err := s.precinct(ctx, row.PrecinctCode, row.PrecinctName)
		if err != nil {
			return err
		}
		res.PrecinctID = &pid
	}
	if _, err := s.repos.Results.Insert(ctx, res); err != nil {
		return err
	}
	if row.RaceVotes != nil {
		// every row of a race block repeats the block's VOTES= figure
		per, ok := s.raceVotes[row.RaceName]
		if !ok {
			per = make(map[string]int)
			s.raceVotes[row.RaceName] = per
		}
		per[precinctKey(row.PrecinctCode, row.PrecinctName)] = *row.RaceVotes
	}
	return nil
}

// storeRaceTotals sets races.total_votes from the summed VOTES= figures.
func (s *loadState) storeRaceTotals(ctx context.Context) error {
	for name, per := range s.raceVotes {
		total := 0
		for _, v := range per {
			total += v
		}
		if err := s.repos.Races.SetTotalVotes(ctx, s.races[name], total); err != nil {
			return err
		}
	}
	return nil
}
