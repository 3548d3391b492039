package classify

import (
	"testing"

	"github.com/joseph-ayodele/election-results/constants"
)

func TestBasic(t *testing.T) {
	tests := []struct {
		name string
		want constants.RaceLevel
	}{
		{"President of the United States", constants.LevelFederal},
		{"US Representative District 4", constants.LevelFederal},
		{"Governor", constants.LevelState},
		{"State Rep District 24", constants.LevelState},
		{"County Commissioner District 1", constants.LevelCounty},
		{"Sheriff", constants.LevelCounty},
		{"Center Township Trustee", constants.LevelLocal},
		{"Public Question 1", constants.LevelBallotMeasure},
		{"Straight Party", constants.LevelBallotMeasure},
		{"Precinct Committeeman Center 1", constants.LevelOther},
		{"244 32 0 276 68.15% DAN COATS (R)", constants.LevelOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Basic.Classify(tt.name); got != tt.want {
				t.Errorf("Basic.Classify(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestStrict(t *testing.T) {
	strict := NewStrict(DefaultTowns)
	tests := []struct {
		name string
		want constants.RaceLevel
	}{
		{"(R) U.S. Senator", constants.LevelFederal},
		{"Congress District 4", constants.LevelFederal},
		{"(D) Lieutenant Governor", constants.LevelState},
		{"Superintendent of Public Instruction", constants.LevelState},
		{"Circuit Court Clerk", constants.LevelCounty},
		{"Council Member At Large", constants.LevelCounty},
		{"Zionsville Town Council Ward 2", constants.LevelLocal},
		{"Mayor of Lebanon", constants.LevelLocal},
		{"Whitestown Town Clerk-Treasurer", constants.LevelCounty},
		{"Constitutional Amendment 1", constants.LevelBallotMeasure},
		{"Precinct Committeeman Center 1", constants.LevelParty},
		{"Delegate to State Convention", constants.LevelParty},
		{"Something Else", constants.LevelOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strict.Classify(tt.name); got != tt.want {
				t.Errorf("strict.Classify(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestFunc(t *testing.T) {
	c := Func(func(string) constants.RaceLevel { return constants.LevelLocal })
	if got := c.Classify("anything"); got != constants.LevelLocal {
		t.Errorf("Func.Classify = %q", got)
	}
}
