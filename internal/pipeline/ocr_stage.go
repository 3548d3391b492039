package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/ocr"
)

// NoTextNote is recorded for image-only documents when OCR is off.
const NoTextNote = "no extractable text; OCR required"

type TextExtractor interface {
	Extract(ctx context.Context, path string) (ocr.Extraction, error)
}

// FailureRecorder writes a failed import_log row outside any load transaction.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, sourceFile, fileType, notes string) error
}

type OCRStage struct {
	TextExtractor TextExtractor
	Failures      FailureRecorder
	Logger        *slog.Logger
}

func NewOCRStage(tx TextExtractor, failures FailureRecorder, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRStage{TextExtractor: tx, Failures: failures, Logger: logger}
}

// Run extracts page text from a PDF. An image-only document without OCR is
// logged as a failed import and returned as common.ErrNoText.
func (s *OCRStage) Run(ctx context.Context, path string) (ocr.Extraction, error) {
	res, err := s.TextExtractor.Extract(ctx, path)
	if err == nil {
		for _, w := range res.Warnings {
			s.Logger.Warn("text extraction warning", "path", path, "warning", w)
		}
		return res, nil
	}
	if errors.Is(err, common.ErrNoText) {
		if rerr := s.Failures.RecordFailure(ctx, path, constants.FileTypePDF, NoTextNote); rerr != nil {
			s.Logger.Error("failed to record import failure", "path", path, "error", rerr)
		}
		return res, err
	}
	return res, fmt.Errorf("extract text: %w", err)
}
