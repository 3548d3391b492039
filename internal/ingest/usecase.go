package ingest

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/async"
	"github.com/joseph-ayodele/election-results/internal/pipeline"
)

// Usecase runs discovered files through the import queue.
type Usecase struct {
	Ingestor  Ingestor
	Processor async.FileProcessor
	Workers   int
	QueueSize int           // 0 keeps the queue default
	Timeout   time.Duration // per file
	Force     bool          // import files whose content was already imported
	Logger    *slog.Logger
}

func NewUsecase(ing Ingestor, proc async.FileProcessor, logger *slog.Logger) *Usecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &Usecase{Ingestor: ing, Processor: proc, Workers: 1, Timeout: 10 * time.Minute, Logger: logger}
}

// NewBatchID tags every import_log row written by one command invocation.
func NewBatchID() string { return uuid.NewString() }

// queue builds a worker pool whose jobs are cancelled when ctx ends.
func (u *Usecase) queue(ctx context.Context, onResult async.ResultFunc) *async.ProcessorQueue {
	return async.NewProcessorQueue(u.Processor, u.Logger,
		async.WithContext(ctx),
		async.WithWorkers(u.Workers),
		async.WithQueueSize(u.QueueSize),
		async.WithProcessTimeout(u.Timeout),
		async.WithOnResult(onResult),
	)
}

// ImportDirectory imports every pdf and xlsx under root and returns one
// outcome per matched file, sorted by file name. A file that fails does not
// stop the batch.
func (u *Usecase) ImportDirectory(ctx context.Context, root string) ([]pipeline.Outcome, DirStats, error) {
	files, stats, err := u.Ingestor.IngestDirectory(ctx, root)
	if err != nil {
		return nil, stats, err
	}

	var (
		mu       sync.Mutex
		outcomes []pipeline.Outcome
	)
	collect := func(_ async.Job, out pipeline.Outcome, _ error) {
		mu.Lock()
		outcomes = append(outcomes, out)
		mu.Unlock()
	}

	batch := NewBatchID()
	u.Logger.Info("starting directory import", "root", root, "batch_id", batch, "files", stats.Matched, "workers", u.Workers)
	q := u.queue(ctx, collect)
	for _, f := range files {
		switch {
		case f.Err != "":
			collect(async.Job{}, pipeline.Outcome{
				File:   filepath.Base(f.SourcePath),
				Status: constants.ImportStatusFailed,
				Err:    errors.New(f.Err),
			}, nil)
		case f.Deduplicated && !u.Force:
			collect(async.Job{}, pipeline.Outcome{File: filepath.Base(f.SourcePath), Status: constants.ImportStatusSkipped}, nil)
		default:
			if err := q.Enqueue(ctx, async.Job{Path: f.SourcePath, ContentHash: f.HashHex, BatchID: batch}); err != nil {
				collect(async.Job{}, pipeline.Outcome{
					File:   filepath.Base(f.SourcePath),
					Status: constants.ImportStatusFailed,
					Err:    err,
				}, err)
			}
		}
	}
	q.Shutdown(ctx)

	mu.Lock()
	defer mu.Unlock()
	sort.SliceStable(outcomes, func(i, j int) bool { return outcomes[i].File < outcomes[j].File })
	return outcomes, stats, ctx.Err()
}

// Watch imports files as they appear under roots until ctx ends. onResult
// receives every finished import.
func (u *Usecase) Watch(ctx context.Context, roots []string, debounce time.Duration, onResult async.ResultFunc) error {
	events, errs, err := StartWatcher(ctx, WatchConfig{Roots: roots, Debounce: debounce, Logger: u.Logger})
	if err != nil {
		return err
	}
	batch := NewBatchID()
	q := u.queue(ctx, onResult)
	defer func() {
		drain, cancel := context.WithTimeout(context.Background(), u.Timeout)
		defer cancel()
		q.Shutdown(drain)
	}()

	u.Logger.Info("watching for new files", "roots", roots, "batch_id", batch, "debounce", debounce)
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return nil
			}
			f, err := u.Ingestor.IngestPath(ctx, path)
			if err != nil {
				u.Logger.Warn("skipping file", "path", path, "error", err)
				continue
			}
			if f.Deduplicated && !u.Force {
				u.Logger.Info("content already imported", "path", path)
				continue
			}
			if err := q.Enqueue(ctx, async.Job{Path: f.SourcePath, ContentHash: f.HashHex, BatchID: batch}); err != nil {
				u.Logger.Warn("file not queued", "path", path, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			u.Logger.Warn("watch error", "error", err)
		}
	}
}
