package ocr

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/election-results/constants"
)

var reSpaceRun = regexp.MustCompile(`[ \t\x{00A0}]+`)

// Normalize trims every line and collapses runs of blanks to a single space.
// Column alignment from -layout output is not needed by the parser.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimSpace(reSpaceRun.ReplaceAllString(ln, " "))
	}
	return strings.Join(lines, "\n")
}

func NormalizePages(pages []string) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = Normalize(p)
	}
	return out
}

// CachePath returns where the OCR transcript of a source document is kept.
func (e *Extractor) CachePath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dir := e.cfg.CacheDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	return filepath.Join(dir, stem+constants.OCRCacheSuffix)
}

func (e *Extractor) readCache(path string) ([]string, bool) {
	b, err := os.ReadFile(e.CachePath(path))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			e.logger.Warn("unreadable ocr cache", "path", path, "error", err)
		}
		return nil, false
	}
	if strings.TrimSpace(string(b)) == "" {
		return nil, false
	}
	return strings.Split(string(b), "\f"), true
}

func (e *Extractor) writeCache(path string, pages []string) error {
	target := e.CachePath(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, []byte(strings.Join(pages, "\f")), 0o644)
}
