package async

import (
	"context"
	"time"
)

// Job is one file submitted for import.
type Job struct {
	Path        string
	ContentHash string // sha256 hex, carried into import_log
	BatchID     string
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
