package parser

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/entity"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return string(b)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		fixture string
		want    constants.Format
	}{
		{"format_a.txt", constants.FormatA},
		{"format_b.txt", constants.FormatB},
		{"format_c1.txt", constants.FormatC1},
		{"format_c2.txt", constants.FormatC2},
		{"format_d.txt", constants.FormatD},
	}
	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			if got := DetectFormat(loadFixture(t, tt.fixture)); got != tt.want {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectFormat_Inline(t *testing.T) {
	tests := []struct {
		name string
		text string
		want constants.Format
	}{
		{"empty", "", constants.FormatUnknown},
		{"plain prose", "Official results for the county", constants.FormatUnknown},
		{"machine marker only", "M-# OF Machine Ballots 20", constants.FormatC2},
		{"summary mentioning precincts", "Election Summary Report\nPrecinct totals", constants.FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.text); got != tt.want {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSegment_SectionCounts(t *testing.T) {
	tests := []struct {
		fixture string
		format  constants.Format
		want    int
	}{
		{"format_a.txt", constants.FormatA, 2},
		{"format_b.txt", constants.FormatB, 3},
		{"format_c1.txt", constants.FormatC1, 2},
		{"format_c2.txt", constants.FormatC2, 2},
		{"format_d.txt", constants.FormatD, 1},
	}
	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			sections := Segment(loadFixture(t, tt.fixture), tt.format)
			if len(sections) != tt.want {
				t.Fatalf("Segment() returned %d sections, want %d", len(sections), tt.want)
			}
			for i, s := range sections {
				if len(s) < minSectionLen {
					t.Errorf("section %d has %d chars", i, len(s))
				}
			}
		})
	}
}

func TestSegment_ShortTextYieldsNothing(t *testing.T) {
	if got := Segment("too short", constants.FormatD); got != nil {
		t.Errorf("Segment() = %v, want nil", got)
	}
}

func TestSegment_MultiPageMergesPrecinct(t *testing.T) {
	sections := Segment(loadFixture(t, "format_c2.txt"), constants.FormatC2)
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	first := sections[0]
	for _, want := range []string{"01-Center 1", "VOTES= 480 President", "VOTES= 470 Governor", "REGISTERED VOTERS: 800 62.50%", "PUBLIC COUNT: 500"} {
		if !strings.Contains(first, want) {
			t.Errorf("merged section missing %q", want)
		}
	}
	for _, gone := range []string{"INBOOG12", "M A P TOTAL %", "Precinct Summary Report"} {
		if strings.Contains(first, gone) {
			t.Errorf("merged section still holds page boilerplate %q", gone)
		}
	}
}

func TestParsePrecincts_MultiPageTurnout(t *testing.T) {
	precincts, _ := ParsePrecincts(loadFixture(t, "format_c2.txt"), constants.FormatC2)
	if len(precincts) != 2 {
		t.Fatalf("got %d precincts, want 2", len(precincts))
	}
	want := []struct {
		code       string
		registered int
		ballots    int
	}{
		{"01", 800, 500},
		{"02", 900, 500},
	}
	for i, w := range want {
		p := precincts[i]
		if p.Code != w.code {
			t.Errorf("precinct %d code = %q, want %q", i, p.Code, w.code)
		}
		if p.RegisteredVoters == nil || *p.RegisteredVoters != w.registered {
			t.Errorf("precinct %s registered = %v, want %d", w.code, p.RegisteredVoters, w.registered)
		}
		if p.BallotsCast == nil || *p.BallotsCast != w.ballots {
			t.Errorf("precinct %s ballots = %v, want %d", w.code, p.BallotsCast, w.ballots)
		}
	}
}

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		fixture      string
		format       constants.Format
		strategy     string
		date         string
		electionType constants.ElectionType
		precincts    int
		results      int
		races        int
		hasPrecincts bool
	}{
		{"format_a.txt", constants.FormatA, "precinct-A", "2024-11-05", constants.ElectionGeneral, 2, 4, 2, true},
		{"format_b.txt", constants.FormatB, "precinct-B", "2022-11-08", constants.ElectionGeneral, 3, 6, 2, true},
		{"format_c1.txt", constants.FormatC1, "precinct-C1", "2016-11-08", constants.ElectionGeneral, 2, 7, 2, true},
		{"format_c2.txt", constants.FormatC2, "precinct-C2", "2012-11-06", constants.ElectionGeneral, 2, 6, 2, true},
		{"format_d.txt", constants.FormatD, "summary", "2017-05-02", constants.ElectionMunicipal, 0, 3, 2, false},
	}
	p := NewParser(quietLogger())
	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			doc := p.Parse([]string{loadFixture(t, tt.fixture)}, "/tmp/in/"+tt.fixture)
			if doc.SourceFile != tt.fixture {
				t.Errorf("SourceFile = %q, want %q", doc.SourceFile, tt.fixture)
			}
			if doc.Format != tt.format {
				t.Errorf("Format = %q, want %q", doc.Format, tt.format)
			}
			if doc.Strategy != tt.strategy {
				t.Errorf("Strategy = %q, want %q", doc.Strategy, tt.strategy)
			}
			if doc.ElectionDate != tt.date {
				t.Errorf("ElectionDate = %q, want %q", doc.ElectionDate, tt.date)
			}
			if doc.ElectionType != tt.electionType {
				t.Errorf("ElectionType = %q, want %q", doc.ElectionType, tt.electionType)
			}
			if len(doc.Precincts) != tt.precincts {
				t.Errorf("precincts = %d, want %d", len(doc.Precincts), tt.precincts)
			}
			if len(doc.Results) != tt.results {
				t.Errorf("results = %d, want %d", len(doc.Results), tt.results)
			}
			if got := doc.RaceCount(); got != tt.races {
				t.Errorf("RaceCount() = %d, want %d", got, tt.races)
			}
			if doc.HasPrecincts != tt.hasPrecincts {
				t.Errorf("HasPrecincts = %v, want %v", doc.HasPrecincts, tt.hasPrecincts)
			}
		})
	}
}

func TestParser_Parse_FormatA(t *testing.T) {
	doc := NewParser(quietLogger()).Parse([]string{loadFixture(t, "format_a.txt")}, "a.pdf")

	if doc.ElectionName != "2024 General Election" {
		t.Errorf("ElectionName = %q", doc.ElectionName)
	}
	if doc.TotalRegistered != nil || doc.TotalBallots != nil {
		t.Errorf("precinct first page must not set county totals")
	}

	first := doc.Precincts[0]
	if first.Code != "01" || first.Name != "Center 01" {
		t.Errorf("precinct 0 = %q/%q", first.Code, first.Name)
	}
	if first.RegisteredVoters == nil || *first.RegisteredVoters != 1000 {
		t.Errorf("registered = %v, want 1000", first.RegisteredVoters)
	}
	if first.BallotsCast == nil || *first.BallotsCast != 640 {
		t.Errorf("ballots = %v, want 640", first.BallotsCast)
	}
	if first.TurnoutPct == nil || *first.TurnoutPct != 64.0 {
		t.Errorf("turnout = %v, want 64", first.TurnoutPct)
	}

	want := []entity.ResultRow{
		{PrecinctCode: "01", RaceName: "United States Senator", CandidateName: "JANE DOE", Party: "D", Votes: 300},
		{PrecinctCode: "01", RaceName: "United States Senator", CandidateName: "JOHN SMITH", Party: "R", Votes: 300},
		{PrecinctCode: "01", RaceName: constants.StraightPartyRace, CandidateName: "Democratic Party", Party: "D", Votes: 40},
		{PrecinctCode: "01", RaceName: constants.StraightPartyRace, CandidateName: "Republican Party", Party: "R", Votes: 55},
	}
	if len(doc.Results) != len(want) {
		t.Fatalf("got %d results, want %d", len(doc.Results), len(want))
	}
	for i, w := range want {
		got := doc.Results[i]
		if got.PrecinctCode != w.PrecinctCode || got.RaceName != w.RaceName ||
			got.CandidateName != w.CandidateName || got.Party != w.Party || got.Votes != w.Votes {
			t.Errorf("result %d = %+v, want %+v", i, got, w)
		}
	}

	senator := doc.Results[0]
	if senator.RaceVotes == nil || *senator.RaceVotes != 600 {
		t.Errorf("race votes = %v, want 600", senator.RaceVotes)
	}
	if senator.VoteFor != 1 {
		t.Errorf("VoteFor = %d, want 1", senator.VoteFor)
	}
	if senator.Channel1 == nil || *senator.Channel1 != 200 || *senator.Channel2 != 50 || *senator.Channel3 != 50 {
		t.Errorf("channels = %v/%v/%v", senator.Channel1, senator.Channel2, senator.Channel3)
	}
}

func TestParser_Parse_RacePartyInherited(t *testing.T) {
	doc := NewParser(quietLogger()).Parse([]string{loadFixture(t, "format_b.txt")}, "b.pdf")
	var found bool
	for _, r := range doc.Results {
		if r.CandidateName != "DIEGO MORALES" {
			continue
		}
		found = true
		if r.RaceName != "Secretary of State" {
			t.Errorf("race name = %q, want prefix stripped", r.RaceName)
		}
		if r.Party != constants.PartyRepublican {
			t.Errorf("party = %q, want inherited R", r.Party)
		}
	}
	if !found {
		t.Fatal("candidate DIEGO MORALES not extracted")
	}
	for _, r := range doc.Results {
		if r.CandidateName == "DESTINY WELLS" && r.Party != constants.PartyDemocratic {
			t.Errorf("explicit candidate party overridden: %q", r.Party)
		}
		if r.CandidateName == "Yes" && r.Party != "" {
			t.Errorf("ballot measure answer has party %q", r.Party)
		}
	}
}

func TestParser_Parse_MultiPageCountFirst(t *testing.T) {
	doc := NewParser(quietLogger()).Parse([]string{loadFixture(t, "format_c2.txt")}, "c2.pdf")
	if doc.TotalRegistered == nil || *doc.TotalRegistered != 1700 {
		t.Errorf("TotalRegistered = %v, want 1700", doc.TotalRegistered)
	}
	if doc.TotalBallots == nil || *doc.TotalBallots != 1000 {
		t.Errorf("TotalBallots = %v, want 1000", doc.TotalBallots)
	}
	p := doc.Precincts[0]
	if p.Code != "01" || p.Name != "Center 1" {
		t.Errorf("precinct = %q/%q", p.Code, p.Name)
	}
	if p.TurnoutPct == nil || *p.TurnoutPct != 62.5 {
		t.Errorf("turnout = %v, want 62.5", p.TurnoutPct)
	}
	races := map[string]int{}
	for _, r := range doc.Results {
		if r.PrecinctCode == "01" {
			races[r.RaceName]++
		}
	}
	if races["President"] != 2 || races["Governor"] != 2 {
		t.Errorf("precinct 01 races = %v", races)
	}
}

func TestParser_Parse_Summary(t *testing.T) {
	doc := NewParser(quietLogger()).Parse([]string{loadFixture(t, "format_d.txt")}, "d.pdf")
	if doc.TotalRegistered == nil || *doc.TotalRegistered != 5000 {
		t.Errorf("TotalRegistered = %v, want 5000", doc.TotalRegistered)
	}
	for _, r := range doc.Results {
		if r.PrecinctCode != "" || r.PrecinctName != "County Total" {
			t.Errorf("summary row carries precinct %q/%q", r.PrecinctCode, r.PrecinctName)
		}
	}
	if got := doc.Results[0]; got.CandidateName != "MATT GENTRY" || got.Party != "R" || got.Votes != 420 {
		t.Errorf("first row = %+v", got)
	}
}

func TestParser_Parse_Fallbacks(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		format   constants.Format
		strategy string
		results  int
	}{
		{
			name:     "precinct id marker only in preamble",
			text:     "Precinct ID: see individual pages\n" + loadFixture(t, "format_b.txt"),
			format:   constants.FormatA,
			strategy: "precinct-B",
			results:  6,
		},
		{
			name: "unknown layout falls through to summary",
			text: "Official Results\nVOTE FOR 1\nSheriff\nVOTES=100\n" +
				"60 0 0 60 60.00% JOE BLOGGS (R)\n40 0 0 40 40.00% ANN ROE (D)\n",
			format:   constants.FormatUnknown,
			strategy: "summary",
			results:  2,
		},
		{
			name:     "nothing parseable",
			text:     "this document has no tabulated results at all, only prose",
			format:   constants.FormatUnknown,
			strategy: "summary",
			results:  0,
		},
	}
	p := NewParser(quietLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := p.Parse([]string{tt.text}, "x.pdf")
			if doc.Format != tt.format {
				t.Errorf("Format = %q, want %q", doc.Format, tt.format)
			}
			if doc.Strategy != tt.strategy {
				t.Errorf("Strategy = %q, want %q", doc.Strategy, tt.strategy)
			}
			if len(doc.Results) != tt.results {
				t.Errorf("results = %d, want %d", len(doc.Results), tt.results)
			}
		})
	}
}

func TestParser_Parse_EmptyPages(t *testing.T) {
	doc := NewParser(nil).Parse([]string{"", "   \n"}, "blank.pdf")
	if doc.Format != constants.FormatUnknown {
		t.Errorf("Format = %q", doc.Format)
	}
	if doc.ElectionDate != UnknownDate || doc.ElectionName != UnknownElectionName {
		t.Errorf("metadata = %q/%q", doc.ElectionDate, doc.ElectionName)
	}
	if doc.Pages != 2 || len(doc.Results) != 0 {
		t.Errorf("pages=%d results=%d", doc.Pages, len(doc.Results))
	}
}
