package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/common"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Lang        string // default "eng"
	DPI         int    // rasterization DPI for scanned PDFs, default 300
	PSM         int    // default 6, a uniform block of text
	MaxPages    int    // 0 = no limit
	Parallelism int    // concurrent tesseract processes, default 4

	// Enabled allows image-only documents to go through OCR. When false they
	// are reported with common.ErrNoText.
	Enabled bool

	// CacheDir holds "<name>_ocr.txt" files. Empty means next to the source.
	CacheDir string

	// MinCharsPerPage is the average non-space character count below which a
	// document is treated as image-only. Default 40.
	MinCharsPerPage int
}

// Method names recorded on an Extraction.
const (
	MethodPdftotext = "pdftotext"
	MethodPDFReader = "pdf-reader"
	MethodOCR       = "ocr"
	MethodOCRCache  = "ocr-cache"
)

type Extraction struct {
	Pages     []string // normalized text, one entry per page
	Method    string
	ImageOnly bool // the document carried no usable text layer
	Duration  time.Duration
	Warnings  []string
}

type Extractor struct {
	cfg    Config
	runner Runner
	reader func(path string) ([]string, error)
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	if cfg.MinCharsPerPage <= 0 {
		cfg.MinCharsPerPage = 40
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, reader: readPDFPages, logger: logger}
}

// WithRunner swaps the command runner; tests use it to stub poppler and tesseract.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Extract returns the per-page text of a PDF. Digital documents are read with
// pdftotext, falling back to the in-process reader when the binary is missing.
// Image-only documents are OCR'd when enabled (reusing a cached transcript),
// otherwise the returned error wraps common.ErrNoText.
func (e *Extractor) Extract(ctx context.Context, path string) (Extraction, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	if constants.MapExtToFileType(ext) != constants.FileTypePDF {
		return Extraction{}, fmt.Errorf("unsupported extension %q: %w", ext, common.ErrInvalidInput)
	}
	if _, err := os.Stat(path); err != nil {
		return Extraction{}, fmt.Errorf("stat %s: %w", path, err)
	}
	log := e.logger.With("path", path)
	log.Debug("starting text extraction")

	res := Extraction{Method: MethodPdftotext}
	pages, warns, err := e.pdfToText(ctx, path)
	if err != nil {
		if !errors.Is(err, exec.ErrNotFound) {
			return res, fmt.Errorf("pdftotext %s: %w", path, err)
		}
		log.Warn("pdftotext not available, using in-process reader", "error", err)
		res.Method = MethodPDFReader
		pages, err = e.reader(path)
		if err != nil {
			return res, fmt.Errorf("read pdf %s: %w", path, err)
		}
	}
	res.Warnings = append(res.Warnings, warns...)
	res.Pages = NormalizePages(pages)

	if !IsImageOnly(res.Pages, e.cfg.MinCharsPerPage) {
		res.Duration = time.Since(start)
		log.Debug("text extraction done", "method", res.Method, "pages", len(res.Pages), "duration_ms", res.Duration.Milliseconds())
		return res, nil
	}

	res.ImageOnly = true
	if cached, ok := e.readCache(path); ok {
		res.Method = MethodOCRCache
		res.Pages = cached
		res.Duration = time.Since(start)
		log.Info("using cached ocr transcript", "pages", len(cached))
		return res, nil
	}
	if !e.cfg.Enabled {
		res.Duration = time.Since(start)
		log.Warn("document has no text layer and ocr is disabled")
		return res, fmt.Errorf("%s: %w", path, common.ErrNoText)
	}

	ocrPages, warns, err := e.ocrPages(ctx, path)
	res.Warnings = append(res.Warnings, warns...)
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}
	res.Method = MethodOCR
	res.Pages = ocrPages
	return res, nil
}

// OCR transcribes a PDF regardless of its text layer. A cached transcript is
// reused unless force is set.
func (e *Extractor) OCR(ctx context.Context, path string, force bool) ([]string, error) {
	if !force {
		if cached, ok := e.readCache(path); ok {
			return cached, nil
		}
	}
	pages, warns, err := e.ocrPages(ctx, path)
	for _, w := range warns {
		e.logger.Warn("ocr warning", "path", path, "warning", w)
	}
	return pages, err
}

func (e *Extractor) ocrPages(ctx context.Context, path string) ([]string, []string, error) {
	pages, warns, err := e.pdfToOCR(ctx, path)
	if err != nil {
		return nil, warns, fmt.Errorf("ocr %s: %w", path, err)
	}
	pages = NormalizePages(pages)
	if err := e.writeCache(path, pages); err != nil {
		e.logger.Warn("failed to write ocr cache", "path", path, "error", err)
		warns = append(warns, err.Error())
	}
	return pages, warns, nil
}
