// Package pipeline runs one source file through text extraction, parsing and
// loading, and reports an Outcome per file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/classify"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/entity"
	"github.com/joseph-ayodele/election-results/internal/loader"
	"github.com/joseph-ayodele/election-results/internal/spreadsheet"
)

type SheetReader interface {
	Read(ctx context.Context, path string, opts spreadsheet.Options) (*entity.ParsedDocument, error)
}

// Outcome is one row of the batch summary table.
type Outcome struct {
	File      string
	Election  string
	Date      string
	Format    constants.Format
	Method    string // text extraction method, empty for spreadsheets
	Precincts int
	Results   int // parsed result tuples
	Summary   loader.Summary
	Status    constants.ImportStatus
	Err       error
	Duration  time.Duration
}

// Loaded is the number of result rows written.
func (o Outcome) Loaded() int { return o.Summary.Records }

// Processor coordinates text extraction, parsing and the load.
type Processor struct {
	Logger     *slog.Logger
	OCR        *OCRStage
	Parse      *ParseStage
	Sheets     SheetReader
	Classifier classify.Classifier
	SheetOpts  spreadsheet.Options
}

func NewProcessor(logger *slog.Logger, ocr *OCRStage, parse *ParseStage, sheets SheetReader) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, OCR: ocr, Parse: parse, Sheets: sheets}
}

// ProcessFile imports one file. The returned Outcome is filled in even when
// err is non-nil so batch summaries can list failures.
func (p *Processor) ProcessFile(ctx context.Context, path string) (out Outcome, err error) {
	start := time.Now()
	out = Outcome{File: filepath.Base(path), Status: constants.ImportStatusFailed}
	defer func() { out.Duration = time.Since(start) }()

	var doc *entity.ParsedDocument
	fileType := constants.MapExtToFileType(filepath.Ext(path))
	switch fileType {
	case constants.FileTypePDF:
		doc, err = p.pdf(ctx, path, &out)
	case constants.FileTypeXLSX:
		if p.Sheets == nil {
			err = fmt.Errorf("spreadsheet import not configured: %w", common.ErrInvalidInput)
			break
		}
		doc, err = p.Sheets.Read(ctx, path, p.SheetOpts)
		if err != nil {
			p.recordFailure(ctx, path, fileType, err)
		}
	default:
		err = fmt.Errorf("unsupported file %s: %w", out.File, common.ErrInvalidInput)
	}
	if err != nil {
		out.Err = err
		p.Logger.Error("processor.extract.failed", "path", path, "error", err)
		return out, err
	}

	out.Election = doc.ElectionName
	out.Date = doc.ElectionDate
	out.Format = doc.Format
	out.Precincts = len(doc.Precincts)
	out.Results = len(doc.Results)

	sum, err := p.Parse.Load(ctx, doc, loader.Options{FileType: fileType, Classifier: p.Classifier})
	out.Summary = sum
	if err != nil {
		out.Err = err
		p.Logger.Error("processor.load.failed", "path", path, "election_date", doc.ElectionDate, "error", err)
		return out, err
	}
	out.Status = sum.Status
	p.Logger.Info("processor.load.ok",
		"path", path,
		"election_date", doc.ElectionDate,
		"status", sum.Status,
		"records", sum.Records,
		"races", sum.Races,
	)
	return out, nil
}

func (p *Processor) pdf(ctx context.Context, path string, out *Outcome) (*entity.ParsedDocument, error) {
	res, err := p.OCR.Run(ctx, path)
	out.Method = res.Method
	if err != nil {
		if !errors.Is(err, common.ErrNoText) {
			p.recordFailure(ctx, path, constants.FileTypePDF, err)
		}
		return nil, err
	}
	return p.Parse.Parse(res.Pages, path), nil
}

func (p *Processor) recordFailure(ctx context.Context, path, fileType string, cause error) {
	if err := p.Parse.Loader.RecordFailure(ctx, path, fileType, cause.Error()); err != nil {
		p.Logger.Error("failed to record import failure", "path", path, "error", err)
	}
}
