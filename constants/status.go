package constants

// ImportStatus is the canonical status for rows in import_log.
type ImportStatus string

// Stable values (store these exact strings in DB).
const (
	ImportStatusSuccess ImportStatus = "success"
	ImportStatusSkipped ImportStatus = "skipped" // election already loaded
	ImportStatusEmpty   ImportStatus = "empty"   // parsed, zero results
	ImportStatusFailed  ImportStatus = "failed"
)

// SourceType classifies where an election's rows came from.
type SourceType string

const (
	SourceDigitalPDF  SourceType = "digital_pdf"
	SourceExcel       SourceType = "excel"
	SourceScannedPDF  SourceType = "scanned_pdf"
	SourceManualEntry SourceType = "manual_entry"
)

// ConfidenceLevel is the categorical data_quality label.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// RepairStatus is the outcome of a delete-and-reimport run.
type RepairStatus string

const (
	RepairPass RepairStatus = "PASS"
	RepairFail RepairStatus = "FAIL"
)
