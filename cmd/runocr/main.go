package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/ocr"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <file.pdf>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	c := cfg.OCR
	x := ocr.NewExtractor(ocr.Config{
		Pdftotext:       c.Pdftotext,
		Pdftoppm:        c.Pdftoppm,
		Tesseract:       c.Tesseract,
		Lang:            c.Lang,
		DPI:             c.DPI,
		PSM:             c.PSM,
		Parallelism:     c.Parallelism,
		Enabled:         true,
		CacheDir:        c.CacheDir,
		MinCharsPerPage: c.MinCharsPerPage,
	}, logger)

	// Extract takes the text layer when there is one and falls back to OCR.
	start := time.Now()
	res, err := x.Extract(ctx, path)
	dur := time.Since(start)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(common.ExitCode(err))
	}

	chars := 0
	for _, p := range res.Pages {
		chars += len(p)
	}
	logger.Info("text extraction OK",
		"path", path,
		"method", res.Method,
		"pages", len(res.Pages),
		"image_only", res.ImageOnly,
		"chars", chars,
		"warnings", len(res.Warnings),
		"duration_ms", dur.Milliseconds(),
	)
}
