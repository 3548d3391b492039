package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/loader"
	"github.com/joseph-ayodele/election-results/internal/ocr"
	"github.com/joseph-ayodele/election-results/internal/parser"
	"github.com/joseph-ayodele/election-results/internal/repository"
	"github.com/joseph-ayodele/election-results/internal/spreadsheet"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubExtractor struct {
	pages []string
	err   error
}

func (s stubExtractor) Extract(context.Context, string) (ocr.Extraction, error) {
	return ocr.Extraction{Pages: s.pages, Method: ocr.MethodPdftotext}, s.err
}

func fixturePages(t *testing.T, name string) []string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("..", "parser", "testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return []string{string(b)}
}

func newProcessor(t *testing.T, ex TextExtractor) (*Processor, *repository.DB) {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{Driver: common.DriverSQLite, DSN: ":memory:"}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(db.Close)
	if err := db.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	l := loader.NewLoader(db, common.CountyConfig{Name: "Boone", State: "IN"}, quietLogger())
	p := NewProcessor(quietLogger(),
		NewOCRStage(ex, l, quietLogger()),
		NewParseStage(parser.NewParser(quietLogger()), l, nil, quietLogger()),
		spreadsheet.NewReader(quietLogger()))
	return p, db
}

func lastLog(t *testing.T, db *repository.DB) (status constants.ImportStatus, notes, fileType string) {
	t.Helper()
	logs, err := db.Repos().ImportLog.List(context.Background(), 1)
	if err != nil || len(logs) == 0 {
		t.Fatalf("import log: %v (%d rows)", err, len(logs))
	}
	return logs[0].Status, logs[0].Notes, logs[0].FileType
}

func TestElectionLocks(t *testing.T) {
	locks := NewElectionLocks()
	var active, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("2012-11-06")
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
			unlock()
		}()
	}
	wg.Wait()
	if peak != 1 {
		t.Errorf("peak holders = %d, want 1", peak)
	}
	if n := locks.held(); n != 0 {
		t.Errorf("held keys after release = %d", n)
	}

	// distinct keys do not block each other
	a := locks.Lock("2012-11-06")
	done := make(chan struct{})
	go func() { locks.Lock("2014-11-04")(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another date blocked")
	}
	a()
}

func TestProcessFile_PDF(t *testing.T) {
	p, db := newProcessor(t, stubExtractor{pages: fixturePages(t, "format_a.txt")})
	out, err := p.ProcessFile(context.Background(), "/data/2024-General.pdf")
	if err != nil {
		t.Fatalf("ProcessFile() error = %v", err)
	}
	if out.Status != constants.ImportStatusSuccess || out.Loaded() != 4 || out.Results != 4 || out.Precincts != 2 {
		t.Errorf("outcome = %+v", out)
	}
	if out.File != "2024-General.pdf" || out.Method != ocr.MethodPdftotext || out.Format != constants.FormatA {
		t.Errorf("outcome = %+v", out)
	}

	out, err = p.ProcessFile(context.Background(), "/data/copy/2024-General.pdf")
	if err != nil || out.Status != constants.ImportStatusSkipped {
		t.Errorf("second import = %+v, %v", out, err)
	}
	if status, _, _ := lastLog(t, db); status != constants.ImportStatusSkipped {
		t.Errorf("last log status = %s", status)
	}
}

func TestProcessFile_Failures(t *testing.T) {
	tests := []struct {
		name      string
		extractor stubExtractor
		path      string
		wantErr   error
		wantNote  string
		loaded    bool // reached the loader
	}{
		{
			name:      "image only",
			extractor: stubExtractor{err: fmt.Errorf("scan.pdf: %w", common.ErrNoText)},
			path:      "scan.pdf",
			wantErr:   common.ErrNoText,
			wantNote:  NoTextNote,
		},
		{
			name:      "no election date",
			extractor: stubExtractor{pages: []string{"VOTES= 10 Governor\nVOTE FOR 1\n10 0 0 10 100.00% A B (R)"}},
			path:      "undated.pdf",
			wantErr:   common.ErrInvalidInput,
			loaded:    true,
		},
		{
			name:      "extractor error",
			extractor: stubExtractor{err: errors.New("pdftotext exited 1")},
			path:      "broken.pdf",
			wantNote:  "extract text: pdftotext exited 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, db := newProcessor(t, tt.extractor)
			out, err := p.ProcessFile(context.Background(), tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if out.Status != constants.ImportStatusFailed || out.Err == nil {
				t.Errorf("outcome = %+v", out)
			}
			if tt.loaded && out.Summary.Status != constants.ImportStatusFailed {
				t.Errorf("summary status = %q, want failed", out.Summary.Status)
			}
			status, notes, _ := lastLog(t, db)
			if status != constants.ImportStatusFailed {
				t.Errorf("log status = %s", status)
			}
			if tt.wantNote != "" && notes != tt.wantNote {
				t.Errorf("log notes = %q, want %q", notes, tt.wantNote)
			}
		})
	}
}

func TestProcessFile_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2019-municipal.xlsx")
	f := excelize.NewFile()
	_ = f.SetSheetRow("Sheet1", "A1", &[]any{"Election Date", "Precinct", "Office", "Candidate", "Party", "Votes"})
	_ = f.SetSheetRow("Sheet1", "A2", &[]any{"2019-11-05", "Center 1", "Mayor of Lebanon", "ANN LEE", "R", 500})
	_ = f.SetSheetRow("Sheet1", "A3", &[]any{"2019-11-05", "Center 2", "Mayor of Lebanon", "ANN LEE", "R", 250})
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	p, db := newProcessor(t, stubExtractor{})
	p.SheetOpts = spreadsheet.Options{Type: constants.ElectionMunicipal}
	out, err := p.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile() error = %v", err)
	}
	if out.Status != constants.ImportStatusSuccess || out.Loaded() != 2 || out.Date != "2019-11-05" || out.Format != constants.FormatSheet {
		t.Errorf("outcome = %+v", out)
	}
	if _, _, fileType := lastLog(t, db); fileType != constants.FileTypeXLSX {
		t.Errorf("file type = %q", fileType)
	}
}

func TestProcessFile_Unsupported(t *testing.T) {
	p, _ := newProcessor(t, stubExtractor{})
	if _, err := p.ProcessFile(context.Background(), "notes.txt"); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("error = %v", err)
	}
}
