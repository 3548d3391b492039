package constants

// Format is a document layout tag produced by the format detector.
type Format string

const (
	FormatA       Format = "A"  // E/A/W columns, "Precinct ID:" and "Precinct Name:" lines
	FormatB       Format = "B"  // E/A/W columns, combined "NN-Name" line
	FormatC1      Format = "C1" // M/A/P columns, separate ID and name lines
	FormatC2      Format = "C2" // M/A/P columns, combined line, multi-page precincts
	FormatD       Format = "D"  // county-wide summary only
	FormatSheet   Format = "sheet"
	FormatUnknown Format = "unknown"
)

// IsPrecinct reports whether the format carries a per-precinct breakdown.
func (f Format) IsPrecinct() bool {
	switch f {
	case FormatA, FormatB, FormatC1, FormatC2:
		return true
	}
	return false
}
