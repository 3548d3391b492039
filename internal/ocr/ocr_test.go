package ocr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/joseph-ayodele/election-results/internal/common"
)

type stubRunner struct {
	mu        sync.Mutex
	pdftotext string
	textErr   error
	pages     int
	calls     map[string]int
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[name]++
	switch name {
	case "pdftotext":
		if s.textErr != nil {
			return nil, []byte("boom"), s.textErr
		}
		return []byte(s.pdftotext), nil, nil
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := 1; i <= s.pages; i++ {
			img := prefix + "-" + string(rune('0'+i)) + ".png"
			if err := os.WriteFile(img, []byte("png"), 0o644); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		base := strings.TrimSuffix(filepath.Base(args[0]), ".png")
		return []byte("Precinct   Summary Report   " + base + "\n  VOTE FOR 1  \n"), nil, nil
	}
	return nil, nil, errors.New("unexpected command " + name)
}

func (s *stubRunner) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func testExtractor(cfg Config, r Runner) *Extractor {
	return NewExtractor(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))).WithRunner(r)
}

func touchPDF(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "2016 General.pdf")
	if err := os.WriteFile(p, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

var digitalText = "Precinct Summary Report\n" + strings.Repeat("REGISTERED VOTERS:     1,000    64.00%\n", 3) +
	"\f" + strings.Repeat("VOTE FOR 1\nPresident\n", 4) + "\f"

func TestExtract_Digital(t *testing.T) {
	r := &stubRunner{pdftotext: digitalText}
	res, err := testExtractor(Config{}, r).Extract(context.Background(), touchPDF(t))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Method != MethodPdftotext || res.ImageOnly {
		t.Errorf("method=%q imageOnly=%v", res.Method, res.ImageOnly)
	}
	if len(res.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(res.Pages))
	}
	if !strings.Contains(res.Pages[0], "REGISTERED VOTERS: 1,000 64.00%") {
		t.Errorf("page 0 not normalized: %q", res.Pages[0])
	}
	if r.count("tesseract") != 0 {
		t.Error("digital document was OCR'd")
	}
}

func TestExtract_ImageOnlyDisabled(t *testing.T) {
	r := &stubRunner{pdftotext: "\f\f"}
	res, err := testExtractor(Config{}, r).Extract(context.Background(), touchPDF(t))
	if !errors.Is(err, common.ErrNoText) {
		t.Fatalf("error = %v, want ErrNoText", err)
	}
	if !res.ImageOnly {
		t.Error("ImageOnly not flagged")
	}
}

func TestExtract_ImageOnlyOCRAndCache(t *testing.T) {
	path := touchPDF(t)
	r := &stubRunner{pdftotext: " \f ", pages: 3}
	e := testExtractor(Config{Enabled: true, MinCharsPerPage: 10, Parallelism: 2}, r)

	res, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Method != MethodOCR || !res.ImageOnly {
		t.Errorf("method=%q imageOnly=%v", res.Method, res.ImageOnly)
	}
	if len(res.Pages) != 3 {
		t.Fatalf("pages = %d, want 3", len(res.Pages))
	}
	for i, p := range res.Pages {
		want := "Precinct Summary Report page-" + string(rune('1'+i))
		if !strings.HasPrefix(p, want) {
			t.Errorf("page %d = %q, want prefix %q", i, p, want)
		}
	}
	if _, err := os.Stat(e.CachePath(path)); err != nil {
		t.Fatalf("cache not written: %v", err)
	}
	if !strings.HasSuffix(e.CachePath(path), "2016 General_ocr.txt") {
		t.Errorf("cache path = %q", e.CachePath(path))
	}

	again, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("second Extract() error = %v", err)
	}
	if again.Method != MethodOCRCache {
		t.Errorf("second method = %q, want cache", again.Method)
	}
	if r.count("tesseract") != 3 {
		t.Errorf("tesseract ran %d times, want 3", r.count("tesseract"))
	}
}

func TestExtract_ReaderFallback(t *testing.T) {
	r := &stubRunner{textErr: &exec.Error{Name: "pdftotext", Err: exec.ErrNotFound}}
	e := testExtractor(Config{}, r)
	e.reader = func(string) ([]string, error) {
		return []string{strings.Repeat("Election Summary Report ", 5)}, nil
	}
	res, err := e.Extract(context.Background(), touchPDF(t))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Method != MethodPDFReader || len(res.Pages) != 1 {
		t.Errorf("method=%q pages=%d", res.Method, len(res.Pages))
	}
}

func TestExtract_Errors(t *testing.T) {
	e := testExtractor(Config{}, &stubRunner{textErr: errors.New("exit status 1")})
	if _, err := e.Extract(context.Background(), touchPDF(t)); err == nil {
		t.Error("expected pdftotext failure to surface")
	}
	if _, err := e.Extract(context.Background(), "/tmp/report.docx"); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("docx error = %v, want ErrInvalidInput", err)
	}
	if _, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected missing file error")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  VOTE FOR 1  ", "VOTE FOR 1"},
		{"200    50\t\t50   300  50.00%   JANE DOE", "200 50 50 300 50.00% JANE DOE"},
		{"a\r\n  b  \r\n", "a\nb\n"},
		{"01-Center 01", "01-Center 01"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsImageOnly(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  bool
	}{
		{"no pages", nil, true},
		{"blank pages", []string{" ", "\n\n"}, true},
		{"dense text", []string{strings.Repeat("x", 100)}, false},
		{"one dense of three", []string{strings.Repeat("x", 150), "", ""}, false},
		{"one short of three", []string{strings.Repeat("x", 100), "", ""}, true},
		{"sparse", []string{"abc", "de"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsImageOnly(tt.pages, 40); got != tt.want {
				t.Errorf("IsImageOnly() = %v, want %v", got, tt.want)
			}
		})
	}
}
