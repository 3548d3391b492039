// Package ingest discovers source files on disk, hashes them and feeds them
// to the import queue, either once for a directory or continuously via fsnotify.
package ingest

import (
	"context"

	"github.com/joseph-ayodele/election-results/internal/entity"
)

// IngestionResult is the per-file discovery outcome.
type IngestionResult struct {
	SourcePath   string
	HashHex      string
	Size         int64
	FileExt      string
	Deduplicated bool // an earlier successful import had the same content
	Err          string
}

// DirStats summarizes a directory walk.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// HashLookup finds a successful import by content hash.
type HashLookup interface {
	FindByHash(ctx context.Context, hash string) (*entity.ImportLog, error)
}

// Ingestor is the behavior the import commands depend on.
type Ingestor interface {
	// IngestPath hashes a single file.
	IngestPath(ctx context.Context, path string) (IngestionResult, error)
	// IngestDirectory hashes all matching files under root in path order.
	IngestDirectory(ctx context.Context, root string) ([]IngestionResult, DirStats, error)
}
