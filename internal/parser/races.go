package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/entity"
)

// raceBlock is one race header plus the body holding its candidate lines.
type raceBlock struct {
	name    string
	voteFor int
	votes   *int
	body    string
}

// headerFirstGrammar describes the newer ordering: a "VOTE FOR N" line, the
// race name (optionally carrying a VOTES= prefix), an optional VOTES= line,
// then candidate lines until a stop line.
type headerFirstGrammar struct {
	start       *regexp.Regexp // captures N; matched against the end of a line
	votesPrefix *regexp.Regexp // captures the count and the remaining name text
	votesLine   *regexp.Regexp // a line holding only the race total
	stop        *regexp.Regexp // a line that ends the body
}

var precinctGrammar = headerFirstGrammar{
	start:       regexp.MustCompile(`VOTE FOR (\d+)$`),
	votesPrefix: regexp.MustCompile(`^VOTES=([\d,]+)(?:\s+(.*))?$`),
	votesLine:   regexp.MustCompile(`^VOTES=([\d,]+)$`),
	stop:        regexp.MustCompile(`^(?:VOTE FOR \d|Straight Party|Precinct Summary Report)`),
}

var summaryGrammar = headerFirstGrammar{
	start:       regexp.MustCompile(`VOTES?\s+FOR\s+(\d+)$`),
	votesPrefix: regexp.MustCompile(`^VOTES\s*=\s*([\d,]+)(?:\s+(.*))?$`),
	votesLine:   regexp.MustCompile(`^VOTES\s*=\s*([\d,]+)$`),
	stop:        regexp.MustCompile(`^(?:VOTES?\s+FOR\s+\d|Straight Party)`),
}

var (
	// Older ordering: "VOTES= N Race Name", then "VOTE FOR N".
	reCountFirstStart = regexp.MustCompile(`VOTES=\s*([\d,]+)(?:\s+(.*))?$`)
	reVoteForLine     = regexp.MustCompile(`^VOTE FOR (\d+)$`)
	reCountFirstStop  = regexp.MustCompile(`^(?:VOTES=\s*[\d,]+|Straight Party)`)

	reVotesResidue  = regexp.MustCompile(`^VOTES[\s=]*[\d,]+\s*`)
	reStraightParty = regexp.MustCompile(`(Democratic Party|Republican Party|Libertarian Party)\s+(\d+)`)
)

// scanHeaderFirst walks lines and collects race blocks in the newer ordering.
func scanHeaderFirst(lines []string, g headerFirstGrammar) []raceBlock {
	var blocks []raceBlock
	i := 0
	for i < len(lines) {
		m := g.start.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if m == nil {
			i++
			continue
		}
		voteFor, _ := strconv.Atoi(m[1])

		j := i + 1
		if j >= len(lines) {
			break
		}
		var votes *int
		name := strings.TrimSpace(lines[j])
		if pm := g.votesPrefix.FindStringSubmatch(name); pm != nil {
			votes = parseCount(pm[1])
			name = strings.TrimSpace(pm[2])
			if name == "" {
				// count stood alone; the name is on the next non-blank line
				j = nextNonBlank(lines, j+1)
				if j >= len(lines) {
					i++
					continue
				}
				name = strings.TrimSpace(lines[j])
			}
		}
		if name == "" {
			i++
			continue
		}
		j++
		if j < len(lines) {
			if vm := g.votesLine.FindStringSubmatch(strings.TrimSpace(lines[j])); vm != nil {
				if votes == nil {
					votes = parseCount(vm[1])
				}
				j++
			}
		}

		k := j
		for k < len(lines) && !g.stop.MatchString(strings.TrimSpace(lines[k])) {
			k++
		}
		blocks = append(blocks, raceBlock{
			name:    cleanRaceName(name),
			voteFor: voteFor,
			votes:   votes,
			body:    strings.Join(lines[j:k], "\n"),
		})
		i = k
	}
	return blocks
}

// scanCountFirst walks lines and collects race blocks in the older ordering.
func scanCountFirst(lines []string) []raceBlock {
	var blocks []raceBlock
	i := 0
	for i < len(lines) {
		m := reCountFirstStart.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if m == nil {
			i++
			continue
		}
		votes := parseCount(m[1])
		name := strings.TrimSpace(m[2])
		j := i
		if name == "" {
			j = nextNonBlank(lines, i+1)
			if j >= len(lines) {
				i++
				continue
			}
			name = strings.TrimSpace(lines[j])
		}
		j++
		if j >= len(lines) {
			i++
			continue
		}
		vm := reVoteForLine.FindStringSubmatch(strings.TrimSpace(lines[j]))
		if vm == nil {
			i++
			continue
		}
		voteFor, _ := strconv.Atoi(vm[1])
		j++

		k := j
		for k < len(lines) && !reCountFirstStop.MatchString(strings.TrimSpace(lines[k])) {
			k++
		}
		blocks = append(blocks, raceBlock{
			name:    cleanRaceName(name),
			voteFor: voteFor,
			votes:   votes,
			body:    strings.Join(lines[j:k], "\n"),
		})
		i = k
	}
	return blocks
}

func nextNonBlank(lines []string, from int) int {
	for from < len(lines) && strings.TrimSpace(lines[from]) == "" {
		from++
	}
	return from
}

func cleanRaceName(name string) string {
	return strings.TrimSpace(reVotesResidue.ReplaceAllString(strings.TrimSpace(name), ""))
}

// chooseBlocks runs both orderings and keeps the one with more blocks. On a
// tie the multi-page older layout prefers count-first; every other format
// prefers header-first.
func chooseBlocks(section string, f constants.Format) []raceBlock {
	lines := splitLines(section)
	headerFirst := scanHeaderFirst(lines, precinctGrammar)
	countFirst := scanCountFirst(lines)
	useHeaderFirst := len(headerFirst) >= len(countFirst)
	if f == constants.FormatC2 {
		useHeaderFirst = len(headerFirst) > len(countFirst)
	}
	if useHeaderFirst {
		return headerFirst
	}
	return countFirst
}

// ExtractRaces returns every result tuple of one precinct section, including
// the straight-party pseudo-race.
func ExtractRaces(section string, p entity.PrecinctInfo, f constants.Format) []entity.ResultRow {
	var rows []entity.ResultRow
	for _, b := range chooseBlocks(section, f) {
		rows = append(rows, blockRows(b, p.Code, p.Name)...)
	}
	rows = append(rows, ExtractStraightParty(section, p)...)
	return rows
}

func blockRows(b raceBlock, precinctCode, precinctName string) []entity.ResultRow {
	raceName, raceParty := SplitRaceParty(b.name)
	lines := findCandidateLines(b.body)
	rows := make([]entity.ResultRow, 0, len(lines))
	for _, cl := range lines {
		party := cl.Party
		if party == "" {
			party = raceParty
		}
		c1, c2, c3 := cl.Channels[0], cl.Channels[1], cl.Channels[2]
		pct := cl.Percent
		rows = append(rows, entity.ResultRow{
			PrecinctCode:  precinctCode,
			PrecinctName:  precinctName,
			RaceName:      raceName,
			VoteFor:       b.voteFor,
			RaceVotes:     b.votes,
			CandidateName: cl.Name,
			Party:         party,
			Channel1:      &c1,
			Channel2:      &c2,
			Channel3:      &c3,
			Votes:         cl.Total,
			VotePct:       &pct,
		})
	}
	return rows
}

// ExtractStraightParty reads the straight-ticket counts of a section.
func ExtractStraightParty(section string, p entity.PrecinctInfo) []entity.ResultRow {
	var rows []entity.ResultRow
	for _, m := range reStraightParty.FindAllStringSubmatch(section, -1) {
		votes, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		rows = append(rows, entity.ResultRow{
			PrecinctCode:  p.Code,
			PrecinctName:  p.Name,
			RaceName:      constants.StraightPartyRace,
			VoteFor:       1,
			CandidateName: m[1],
			Party:         constants.StraightPartyNames[m[1]],
			Votes:         votes,
		})
	}
	return rows
}

// ExtractSummary parses a county-wide summary report. Every row is an
// aggregate with no precinct.
func ExtractSummary(text string) []entity.ResultRow {
	var rows []entity.ResultRow
	for _, b := range scanHeaderFirst(splitLines(text), summaryGrammar) {
		rows = append(rows, blockRows(b, "", "County Total")...)
	}
	return rows
}
