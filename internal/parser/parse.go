package parser

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/entity"
)

// attempt is one named extraction strategy. Attempts are tried in order until
// one yields results.
type attempt struct {
	name   string
	format constants.Format // layout used for segmentation; FormatD means summary
}

func (a attempt) run(text string) ([]entity.PrecinctInfo, []entity.ResultRow) {
	if a.format == constants.FormatD {
		return nil, ExtractSummary(text)
	}
	return ParsePrecincts(text, a.format)
}

var (
	precinctA  = attempt{"precinct-A", constants.FormatA}
	precinctB  = attempt{"precinct-B", constants.FormatB}
	precinctC1 = attempt{"precinct-C1", constants.FormatC1}
	precinctC2 = attempt{"precinct-C2", constants.FormatC2}
	summary    = attempt{"summary", constants.FormatD}
)

// attemptChain returns the fallback order for a detected format: the format's
// own parser, the adjacent precinct parser, then the summary parser.
func attemptChain(f constants.Format) []attempt {
	switch f {
	case constants.FormatA:
		return []attempt{precinctA, precinctB, summary}
	case constants.FormatB:
		return []attempt{precinctB, precinctA, summary}
	case constants.FormatC1:
		return []attempt{precinctC1, precinctC2, summary}
	case constants.FormatC2:
		return []attempt{precinctC2, precinctC1, summary}
	case constants.FormatD:
		return []attempt{summary}
	default:
		return []attempt{precinctA, precinctB, summary}
	}
}

// ParsePrecincts segments text with the given layout and extracts precinct
// metadata and results for every section that has a precinct identifier.
func ParsePrecincts(text string, f constants.Format) ([]entity.PrecinctInfo, []entity.ResultRow) {
	var precincts []entity.PrecinctInfo
	var results []entity.ResultRow
	for _, section := range Segment(text, f) {
		info := ExtractPrecinct(section, f)
		if info == nil {
			continue
		}
		precincts = append(precincts, *info)
		results = append(results, ExtractRaces(section, *info, f)...)
	}
	return precincts, results
}

// Parser turns per-page document text into a ParsedDocument.
type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse never fails on content: unknown layouts and empty parses degrade to a
// document with zero results.
func (p *Parser) Parse(pages []string, sourcePath string) *entity.ParsedDocument {
	var nonEmpty []string
	for _, pg := range pages {
		if strings.TrimSpace(pg) != "" {
			nonEmpty = append(nonEmpty, pg)
		}
	}
	text := strings.Join(nonEmpty, "\n")

	doc := &entity.ParsedDocument{
		SourceFile:   filepath.Base(sourcePath),
		Pages:        len(pages),
		Format:       DetectFormat(text),
		ElectionDate: ElectionDate(text),
		ElectionName: ElectionName(text),
	}
	doc.ElectionType = ClassifyElectionType(doc.ElectionName)
	if len(nonEmpty) > 0 && IsCountySummaryPage(nonEmpty[0]) {
		totals := FirstPageTotals(nonEmpty[0])
		doc.TotalRegistered = totals.RegisteredVoters
		doc.TotalBallots = totals.BallotsCast
	}

	log := p.logger.With("source_file", doc.SourceFile, "format", doc.Format)
	log.Debug("detected format", "election_date", doc.ElectionDate, "election_type", doc.ElectionType)

	for _, a := range attemptChain(doc.Format) {
		precincts, results := a.run(text)
		doc.Strategy = a.name
		doc.Precincts = precincts
		doc.Results = results
		doc.HasPrecincts = a.format != constants.FormatD
		if len(results) > 0 {
			log.Info("parsed document",
				"strategy", a.name,
				"precincts", len(precincts),
				"results", len(results),
			)
			return doc
		}
		log.Warn("parse attempt yielded no results", "strategy", a.name, "precincts", len(precincts))
	}
	log.Warn("document parsed with zero results", "strategy", doc.Strategy)
	return doc
}
