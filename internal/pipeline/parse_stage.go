package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/election-results/internal/entity"
	"github.com/joseph-ayodele/election-results/internal/loader"
	"github.com/joseph-ayodele/election-results/internal/parser"
)

type DocumentLoader interface {
	FailureRecorder
	Load(ctx context.Context, doc *entity.ParsedDocument, opts loader.Options) (loader.Summary, error)
}

// Locker serializes work on one election date.
type Locker interface {
	Lock(key string) (unlock func())
}

type ParseStage struct {
	Parser *parser.Parser
	Loader DocumentLoader
	Locks  Locker
	Logger *slog.Logger
}

func NewParseStage(p *parser.Parser, l DocumentLoader, locks Locker, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	if locks == nil {
		locks = NewElectionLocks()
	}
	return &ParseStage{Parser: p, Loader: l, Locks: locks, Logger: logger}
}

// Parse turns page text into a document. Content problems never fail here;
// an unparseable document comes back with zero results.
func (s *ParseStage) Parse(pages []string, path string) *entity.ParsedDocument {
	return s.Parser.Parse(pages, path)
}

// Load writes doc while holding the lock of its election date. A load error
// is recorded as a failed import.
func (s *ParseStage) Load(ctx context.Context, doc *entity.ParsedDocument, opts loader.Options) (loader.Summary, error) {
	unlock := s.Locks.Lock(doc.ElectionDate)
	defer unlock()

	sum, err := s.Loader.Load(ctx, doc, opts)
	if err != nil {
		if rerr := s.Loader.RecordFailure(ctx, doc.SourceFile, opts.FileType, err.Error()); rerr != nil {
			s.Logger.Error("failed to record import failure", "source_file", doc.SourceFile, "error", rerr)
		}
		return sum, err
	}
	return sum, nil
}
