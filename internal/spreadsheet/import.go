// Package spreadsheet turns clerk-produced result sheets into the same parsed
// document the PDF parser emits, so they load through the same loader.
package spreadsheet

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/entity"
)

// headerScanRows bounds the search for the header row.
const headerScanRows = 10

type Options struct {
	Date  string                 // YYYY-MM-DD; falls back to the sheet's date column
	Type  constants.ElectionType // falls back to the sheet's type column, then general
	Sheet string                 // default: first sheet
}

type Reader struct {
	logger *slog.Logger
}

func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// Read opens an xlsx workbook and converts one sheet to result tuples.
func (r *Reader) Read(ctx context.Context, path string, opts Options) (*entity.ParsedDocument, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, common.ValidationError(fmt.Sprintf("%s has no sheets", path), common.ErrInvalidInput)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := Convert(rows, filepath.Base(path), opts)
	if err != nil {
		return nil, err
	}
	r.logger.Info("read spreadsheet", "path", path, "sheet", sheet, "rows", len(rows), "results", len(doc.Results))
	return doc, nil
}

// Convert maps sheet rows to a parsed document. The header is the first of the
// leading rows whose cells map to a usable set of columns.
func Convert(rows [][]string, sourceFile string, opts Options) (*entity.ParsedDocument, error) {
	headerAt, cols := -1, Columns(nil)
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		if c := DetectColumns(rows[i]); c.Usable() {
			headerAt, cols = i, c
			break
		}
	}
	if headerAt < 0 {
		return nil, common.ValidationError(
			fmt.Sprintf("%s: no header row with race or candidate and vote columns", sourceFile), common.ErrInvalidInput)
	}
	body := rows[headerAt+1:]

	date := opts.Date
	if date == "" {
		date = firstValue(body, cols, FieldElectionDate)
	}
	date, err := normalizeDate(date)
	if err != nil {
		return nil, common.ValidationError(fmt.Sprintf("%s: election date", sourceFile), err)
	}
	typ := opts.Type
	if typ == "" {
		typ = constants.ElectionGeneral
		if raw := firstValue(body, cols, FieldElectionType); raw != "" {
			typ, _ = constants.ParseElectionType(raw)
		}
	}

	doc := &entity.ParsedDocument{
		SourceFile:   sourceFile,
		Format:       constants.FormatSheet,
		Strategy:     "spreadsheet",
		Pages:        1,
		ElectionDate: date,
		ElectionType: typ,
		ElectionName: fmt.Sprintf("%s %s Election", date[:4], titleWord(string(typ))),
	}
	_, doc.HasPrecincts = cols[FieldPrecinct]

	seen := make(map[string]bool)
	for _, row := range body {
		if blank(row) {
			continue
		}
		res := entity.ResultRow{RaceName: "Unknown Race", CandidateName: "Unknown", VoteFor: 1}
		if v, ok := cols.cell(row, FieldRace); ok {
			res.RaceName = v
		}
		if v, ok := cols.cell(row, FieldCandidate); ok {
			res.CandidateName = v
		}
		if v, ok := cols.cell(row, FieldParty); ok {
			res.Party, _ = constants.CanonicalParty(v)
		}
		if v, ok := cols.cell(row, FieldVotes); ok {
			res.Votes = parseVotes(v)
		}
		if v, ok := cols.cell(row, FieldPercentage); ok {
			res.VotePct = parsePct(v)
		}
		if v, ok := cols.cell(row, FieldPrecinct); ok {
			res.PrecinctName = v
			if !seen[v] {
				seen[v] = true
				doc.Precincts = append(doc.Precincts, entity.PrecinctInfo{Name: v})
			}
		}
		doc.Results = append(doc.Results, res)
	}
	return doc, nil
}

var dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", "1/2/06", "01-02-06", "2006-01-02 15:04:05", "2006/01/02"}

func normalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("missing: %w", common.ErrInvalidInput)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q: %w", s, common.ErrInvalidInput)
}

// parseVotes reads a count, treating anything unreadable as zero.
func parseVotes(s string) int {
	s = strings.ReplaceAll(s, ",", "")
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return int(f)
	}
	return 0
}

func parsePct(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
	if err != nil {
		return nil
	}
	return &f
}

func firstValue(rows [][]string, cols Columns, f Field) string {
	for _, row := range rows {
		if v, ok := cols.cell(row, f); ok {
			return v
		}
	}
	return ""
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
