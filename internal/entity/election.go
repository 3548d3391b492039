package entity

import (
	"strconv"
	"time"

	"github.com/joseph-ayodele/election-results/constants"
)

// County is the top-level tenant.
type County struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	State    string `json:"state"`
	FIPSCode string `json:"fips_code,omitempty"`
	Website  string `json:"clerk_website,omitempty"`
}

// Election is one loaded election for a county.
type Election struct {
	ID                    int64                  `json:"id"`
	CountyID              int64                  `json:"county_id"`
	Date                  string                 `json:"election_date"`
	Type                  constants.ElectionType `json:"election_type"`
	Name                  string                 `json:"election_name"`
	TotalRegisteredVoters *int                   `json:"total_registered_voters,omitempty"`
	TotalBallotsCast      *int                   `json:"total_ballots_cast,omitempty"`
	SourceFile            string                 `json:"source_file"`
}

// Year returns the four-digit year of the election date, or 0.
func (e Election) Year() int {
	if len(e.Date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(e.Date[:4])
	if err != nil {
		return 0
	}
	return y
}

// Race is an office contest inside one election.
type Race struct {
	ID         int64               `json:"id"`
	ElectionID int64               `json:"election_id"`
	Name       string              `json:"race_name"`
	Level      constants.RaceLevel `json:"race_level"`
	VoteFor    int                 `json:"vote_for"`
	TotalVotes *int                `json:"total_votes,omitempty"`
}

// Turnout is the per-precinct participation row.
type Turnout struct {
	ElectionID       int64    `json:"election_id"`
	PrecinctID       *int64   `json:"precinct_id,omitempty"`
	RegisteredVoters *int     `json:"registered_voters,omitempty"`
	BallotsCast      *int     `json:"ballots_cast,omitempty"`
	TurnoutPct       *float64 `json:"turnout_percentage,omitempty"`
}

// DataQuality is the stored confidence assessment of an election.
type DataQuality struct {
	ElectionID         int64                     `json:"election_id"`
	ElectionDate       string                    `json:"election_date"`
	Level              constants.ConfidenceLevel `json:"confidence_level"`
	Score              float64                   `json:"confidence_score"`
	SourceType         constants.SourceType      `json:"source_type"`
	RaceNamesClean     bool                      `json:"race_names_clean"`
	TurnoutConsistent  bool                      `json:"turnout_consistent"`
	PrecinctCountMatch bool                      `json:"precinct_count_match"`
	CrossValidated     bool                      `json:"cross_validated"`
	PDFParsedOK        bool                      `json:"pdf_parsed_ok"`
	Notes              string                    `json:"notes,omitempty"`
	AssessedAt         time.Time                 `json:"assessed_at"`
}

// ImportLog is one append-only audit row.
type ImportLog struct {
	ID              int64                  `json:"id"`
	Filename        string                 `json:"filename"`
	FileType        string                 `json:"file_type"`
	RecordsImported int                    `json:"records_imported"`
	Status          constants.ImportStatus `json:"status"`
	Notes           string                 `json:"notes,omitempty"`
	BatchID         string                 `json:"batch_id,omitempty"`
	ContentHash     string                 `json:"content_hash,omitempty"`
	ImportedAt      time.Time              `json:"imported_at"`
}

// Precinct is a voting precinct, stable across elections.
type Precinct struct {
	ID       int64  `json:"id"`
	CountyID int64  `json:"county_id"`
	Name     string `json:"precinct_name"`
	Code     string `json:"precinct_code,omitempty"`
	Township string `json:"township,omitempty"`
}

// Candidate is shared across races and elections, keyed by name and party.
type Candidate struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Party string `json:"party,omitempty"`
}

// Result is one vote count. A nil PrecinctID marks a county-wide aggregate.
type Result struct {
	ID          int64    `json:"id"`
	RaceID      int64    `json:"race_id"`
	CandidateID int64    `json:"candidate_id"`
	PrecinctID  *int64   `json:"precinct_id,omitempty"`
	Votes       int      `json:"votes"`
	VotePct     *float64 `json:"vote_percentage,omitempty"`
	Channel1    *int     `json:"channel1_votes,omitempty"`
	Channel2    *int     `json:"channel2_votes,omitempty"`
	Channel3    *int     `json:"channel3_votes,omitempty"`
}

// ElectionRace is a race together with the date of its election.
type ElectionRace struct {
	Race
	ElectionDate string `json:"election_date"`
}

// ElectionStats is a row-count snapshot of one election.
type ElectionStats struct {
	Races      int64 `json:"races"`
	Results    int64 `json:"results"`
	Turnout    int64 `json:"turnout"`
	TotalVotes int64 `json:"total_votes"`
	Precincts  int64 `json:"precincts"`
}
