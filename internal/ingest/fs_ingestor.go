package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/common"
)

// FSIngestor reads from the local filesystem.
type FSIngestor struct {
	Imports    HashLookup // nil disables deduplication
	SkipHidden bool
	Logger     *slog.Logger
}

func NewFSIngestor(imports HashLookup, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{Imports: imports, SkipHidden: true, Logger: logger}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	out := IngestionResult{SourcePath: path}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	out.SourcePath = abs
	out.FileExt = constants.NormalizeExt(filepath.Ext(abs))
	if out.FileExt == "" || !AllowedExt(out.FileExt) {
		return out, fmt.Errorf("unsupported or missing extension %q: %w", out.FileExt, common.ErrInvalidInput)
	}

	out.HashHex, out.Size, err = HashFile(abs)
	if err != nil {
		return out, err
	}

	if i.Imports != nil {
		prev, err := i.Imports.FindByHash(ctx, out.HashHex)
		switch {
		case err == nil:
			out.Deduplicated = true
			i.Logger.Debug("content already imported", "path", abs, "previous", prev.Filename)
		case !errors.Is(err, common.ErrNotFound):
			return out, err
		}
	}
	return out, nil
}

// IngestDirectory walks root, skipping hidden entries and cached OCR
// transcripts, and hashes every pdf and xlsx file. Results are sorted by path.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, fmt.Errorf("root path is required: %w", common.ErrInvalidInput)
	}

	var paths []string
	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if i.SkipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || isOCRCache(path) || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	sort.Strings(paths)
	for _, p := range paths {
		r, err := i.IngestPath(ctx, p)
		if err != nil {
			i.Logger.Warn("failed to ingest file", "path", p, "error", err)
			r.Err = err.Error()
			results = append(results, r)
			stats.Failed++
			continue
		}
		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
	}
	return results, stats, nil
}

// HashFile returns the sha256 hex digest and size of a file.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
