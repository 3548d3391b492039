package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/election-results/constants"
)

// AllowedExt checks if a file extension is importable (pdf, xlsx).
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// isOCRCache reports whether path is a cached OCR transcript.
func isOCRCache(path string) bool {
	return strings.HasSuffix(path, constants.OCRCacheSuffix)
}
