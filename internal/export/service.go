package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/election-results/internal/corrupt"
	"github.com/joseph-ayodele/election-results/internal/entity"
	"github.com/joseph-ayodele/election-results/internal/repository"
)

// Sheet names of the workbook.
const (
	SheetElections = "Elections"
	SheetResults   = "Results"
	SheetCorrupted = "Corrupted"
)

// Counts are the data rows written per sheet.
type Counts struct {
	Elections int
	Results   int
	Corrupted int
}

// Service is a small façade over repositories that produces XLSX workbooks.
type Service struct {
	repos    *repository.Repositories
	detector *corrupt.Detector
	logger   *slog.Logger
}

func NewService(repos *repository.Repositories, detector *corrupt.Detector, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if detector == nil {
		detector = corrupt.MustDetector("")
	}
	return &Service{repos: repos, detector: detector, logger: logger}
}

// WriteFile builds the workbook and writes it to path.
func (s *Service) WriteFile(ctx context.Context, path string) (Counts, error) {
	buf, counts, err := s.ExportXLSX(ctx)
	if err != nil {
		return counts, err
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return counts, fmt.Errorf("write %s: %w", path, err)
	}
	return counts, nil
}

// ExportXLSX returns a workbook with every election and its quality
// assessment, every result row and every corrupted race.
func (s *Service) ExportXLSX(ctx context.Context) ([]byte, Counts, error) {
	start := time.Now()
	var counts Counts

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", SheetElections); err != nil {
		return nil, counts, err
	}
	for _, name := range []string{SheetResults, SheetCorrupted} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, counts, err
		}
	}

	var err error
	if counts.Elections, err = s.elections(ctx, f); err != nil {
		return nil, counts, err
	}
	if counts.Results, err = s.results(ctx, f); err != nil {
		return nil, counts, err
	}
	if counts.Corrupted, err = s.corrupted(ctx, f); err != nil {
		return nil, counts, err
	}

	idx, _ := f.GetSheetIndex(SheetElections)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, counts, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"elections", counts.Elections,
		"results", counts.Results,
		"corrupted", counts.Corrupted,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), counts, nil
}

// sheetWriter fills one sheet row by row.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func newSheet(f *excelize.File, sheet string, headers ...any) *sheetWriter {
	w := &sheetWriter{f: f, sheet: sheet}
	w.write(headers...)
	return w
}

func (w *sheetWriter) write(values ...any) {
	if w.err != nil {
		return
	}
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(w.sheet, cell, &values)
}

// rows returns the number of data rows written.
func (w *sheetWriter) rows() int { return w.row - 1 }

func (s *Service) elections(ctx context.Context, f *excelize.File) (int, error) {
	elections, err := s.repos.Elections.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("query elections: %w", err)
	}
	assessments, err := s.repos.DataQuality.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("query data quality: %w", err)
	}
	byElection := make(map[int64]entity.DataQuality, len(assessments))
	for _, dq := range assessments {
		byElection[dq.ElectionID] = dq
	}

	w := newSheet(f, SheetElections,
		"Election Date", "Type", "Name", "Source File", "Registered Voters", "Ballots Cast",
		"Confidence", "Score", "Source Type", "Race Names Clean", "Turnout Consistent",
		"Precinct Count Match", "Cross Validated", "PDF Parsed OK", "Notes")
	for _, e := range elections {
		dq, ok := byElection[e.ID]
		if !ok {
			w.write(e.Date, string(e.Type), e.Name, e.SourceFile, optInt(e.TotalRegisteredVoters), optInt(e.TotalBallotsCast))
			continue
		}
		w.write(e.Date, string(e.Type), e.Name, e.SourceFile, optInt(e.TotalRegisteredVoters), optInt(e.TotalBallotsCast),
			string(dq.Level), dq.Score, string(dq.SourceType), dq.RaceNamesClean, dq.TurnoutConsistent,
			dq.PrecinctCountMatch, dq.CrossValidated, dq.PDFParsedOK, truncate(dq.Notes, 500))
	}
	_ = f.SetColWidth(SheetElections, "A", "B", 12)
	_ = f.SetColWidth(SheetElections, "C", "D", 30)
	_ = f.SetColWidth(SheetElections, "O", "O", 60)
	return w.rows(), w.err
}

func (s *Service) results(ctx context.Context, f *excelize.File) (int, error) {
	rows, err := s.repos.Results.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("query results: %w", err)
	}
	w := newSheet(f, SheetResults, "Election Date", "Race", "Level", "Precinct", "Candidate", "Party", "Votes", "Pct")
	for _, r := range rows {
		var pct any = ""
		if r.VotePct != nil {
			pct = *r.VotePct
		}
		w.write(r.ElectionDate, r.RaceName, r.RaceLevel, r.PrecinctName, r.Candidate, r.Party, r.Votes, pct)
	}
	_ = f.SetColWidth(SheetResults, "B", "B", 40)
	_ = f.SetColWidth(SheetResults, "D", "E", 24)
	return w.rows(), w.err
}

func (s *Service) corrupted(ctx context.Context, f *excelize.File) (int, error) {
	found, err := s.detector.Find(ctx, s.repos.Races)
	if err != nil {
		return 0, fmt.Errorf("query corrupted races: %w", err)
	}
	w := newSheet(f, SheetCorrupted, "Election Date", "Race ID", "Race Name",
		"Decoded Candidate", "Party", "Channel 1", "Channel 2", "Channel 3", "Total", "Pct")
	for _, c := range found {
		if !c.Decodable {
			w.write(c.ElectionDate, c.ID, c.Name)
			continue
		}
		d := c.Decoded
		w.write(c.ElectionDate, c.ID, c.Name, d.Candidate, d.Party,
			d.Channels[0], d.Channels[1], d.Channels[2], d.Total, d.Percent)
	}
	_ = f.SetColWidth(SheetCorrupted, "C", "D", 44)
	return w.rows(), w.err
}

func optInt(p *int) any {
	if p == nil {
		return ""
	}
	return *p
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
