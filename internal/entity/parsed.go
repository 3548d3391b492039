package entity

import "github.com/joseph-ayodele/election-results/constants"

// PrecinctInfo is the header metadata recovered from one precinct section.
type PrecinctInfo struct {
	Code             string   `json:"code"` // source-assigned identifier, e.g. "01"
	Name             string   `json:"name"`
	RegisteredVoters *int     `json:"registered_voters,omitempty"`
	BallotsCast      *int     `json:"ballots_cast,omitempty"`
	TurnoutPct       *float64 `json:"turnout_pct,omitempty"`
}

// ResultRow is one candidate's count in one race for one precinct.
// An empty PrecinctCode marks a county-wide aggregate row.
type ResultRow struct {
	PrecinctCode  string   `json:"precinct_code"`
	PrecinctName  string   `json:"precinct_name"`
	RaceName      string   `json:"race_name"`
	VoteFor       int      `json:"vote_for"`
	RaceVotes     *int     `json:"race_votes,omitempty"` // explicit VOTES= figure of the race block
	CandidateName string   `json:"candidate_name"`
	Party         string   `json:"party,omitempty"`
	Channel1      *int     `json:"channel1,omitempty"`
	Channel2      *int     `json:"channel2,omitempty"`
	Channel3      *int     `json:"channel3,omitempty"`
	Votes         int      `json:"votes"`
	VotePct       *float64 `json:"vote_pct,omitempty"`
}

// ParsedDocument is the full extraction of one source document.
type ParsedDocument struct {
	SourceFile      string                 `json:"source_file"`
	Format          constants.Format       `json:"format"`
	Strategy        string                 `json:"strategy"` // name of the attempt that produced the results
	Pages           int                    `json:"pages"`
	ElectionDate    string                 `json:"election_date"`
	ElectionName    string                 `json:"election_name"`
	ElectionType    constants.ElectionType `json:"election_type"`
	TotalRegistered *int                   `json:"total_registered,omitempty"`
	TotalBallots    *int                   `json:"total_ballots,omitempty"`
	HasPrecincts    bool                   `json:"has_precincts"`
	Precincts       []PrecinctInfo         `json:"precincts"`
	Results         []ResultRow            `json:"results"`
}

// RaceCount returns the number of distinct race names in the results.
func (d *ParsedDocument) RaceCount() int {
	seen := make(map[string]struct{})
	for _, r := range d.Results {
		seen[r.RaceName] = struct{}{}
	}
	return len(seen)
}

// CandidateCount returns the number of distinct (name, party) pairs in the results.
func (d *ParsedDocument) CandidateCount() int {
	seen := make(map[[2]string]struct{})
	for _, r := range d.Results {
		seen[[2]string{r.CandidateName, r.Party}] = struct{}{}
	}
	return len(seen)
}
