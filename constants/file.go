package constants

import "strings"

// File types recorded in import_log.file_type.
const (
	FileTypePDF         = "pdf"
	FileTypePDFReimport = "pdf_reimport"
	FileTypeXLSX        = "xlsx"
)

// AllowedExtensions holds the extensions picked up by directory imports and the watcher.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"xlsx": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFileType maps a normalized extension to an import_log file type.
// Returns "" when the extension is not importable.
func MapExtToFileType(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return FileTypePDF
	case "xlsx", "xls", "csv":
		return FileTypeXLSX
	default:
		return ""
	}
}

// OCRCacheSuffix is appended to a source file stem for cached OCR text.
const OCRCacheSuffix = "_ocr.txt"
