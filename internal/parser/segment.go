package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/election-results/constants"
)

// minSectionLen drops page fragments too short to hold a precinct.
const minSectionLen = 50

const precinctReportMarker = "Precinct Summary Report"

var (
	boundaryElectionDay = regexp.MustCompile(`E - # Of Election Day\s+\d+\s+PRECINCT STATUS:`)
	boundaryMachineC1   = regexp.MustCompile(`M - # Of Machine Ballots\s+\d+\s+PRECINCT STATUS:`)
	boundaryMachine     = regexp.MustCompile(`M-?\s*#\s*OF\s*Machine Ballots?\s+\d+`)

	reC2PageID      = regexp.MustCompile(`Election Date:\s*\d+/\d+/\d+\n[ \t]*(\d{2})-([^\n]+)`)
	reC2PageHeader  = regexp.MustCompile(`(?s)Precinct Summary Report\n.*?M\s+A\s+P\s+TOTAL\s+%\n`)
	reC2PageFooter  = regexp.MustCompile(`INB\w+\s+Page \d+ of \d+`)
	reC2HeaderBlock = regexp.MustCompile(`(?s)M-?\s*#\s*OF\s*Machine Ballots.*?REGISTERED VOTERS:\s*[\d,]+[ \t]*[\d.]*%?(?:\s*PUBLIC COUNT:\s*[\d,]+)?`)
	reC2IDLine      = regexp.MustCompile(`\d{2}-[^\n]+`)
)

// Segment splits a document into per-precinct sections for the given format.
// Format D (and anything that is not a precinct layout) yields one section
// holding the whole text.
func Segment(text string, f constants.Format) []string {
	switch f {
	case constants.FormatA, constants.FormatB:
		return splitAtBoundary(text, boundaryElectionDay)
	case constants.FormatC1:
		return splitAtBoundary(text, boundaryMachineC1)
	case constants.FormatC2:
		if sections := segmentMultiPage(text); len(sections) > 0 {
			return sections
		}
		return splitAtBoundary(text, boundaryMachine)
	default:
		if len(strings.TrimSpace(text)) < minSectionLen {
			return nil
		}
		return []string{text}
	}
}

// splitAtBoundary cuts text at every boundary match. Each section starts at its
// boundary; text before the first boundary carries no precinct and is dropped.
func splitAtBoundary(text string, boundary *regexp.Regexp) []string {
	locs := boundary.FindAllStringIndex(text, -1)
	var out []string
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		section := text[loc[0]:end]
		if len(strings.TrimSpace(section)) < minSectionLen {
			continue
		}
		out = append(out, section)
	}
	return out
}

// segmentMultiPage handles the older layout where one precinct spans several
// pages. County summary pages before the first precinct report are discarded,
// pages are grouped by their two-digit precinct id, and repeated page
// boilerplate is removed so race blocks read across page breaks.
func segmentMultiPage(text string) []string {
	start := strings.Index(text, precinctReportMarker)
	if start < 0 {
		return nil
	}
	text = text[start:]

	pages := make(map[string][]string)
	for _, chunk := range splitPages(text) {
		if len(strings.TrimSpace(chunk)) < minSectionLen {
			continue
		}
		m := reC2PageID.FindStringSubmatch(chunk)
		if m == nil {
			continue
		}
		pages[m[1]] = append(pages[m[1]], chunk)
	}

	ids := make([]string, 0, len(pages))
	for id := range pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		group := pages[id]
		combined := strings.Join(group, "\n")
		combined = reC2PageHeader.ReplaceAllString(combined, "")
		combined = reC2PageFooter.ReplaceAllString(combined, "")

		first := group[0]
		header := reC2HeaderBlock.FindString(first)
		idLine := reC2IDLine.FindString(first)
		if header != "" && idLine != "" {
			combined = idLine + "\n" + header + "\n" + combined
		}
		out = append(out, combined)
	}
	return out
}

// splitPages cuts text before every "Precinct Summary Report" line.
func splitPages(text string) []string {
	marker := precinctReportMarker + "\n"
	var out []string
	for {
		next := strings.Index(text[1:], marker)
		if next < 0 {
			out = append(out, text)
			return out
		}
		out = append(out, text[:next+1])
		text = text[next+1:]
	}
}
