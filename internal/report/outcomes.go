package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/pipeline"
)

// StatusStyle colors an import status.
func StatusStyle(s constants.ImportStatus) *color.Color {
	switch s {
	case constants.ImportStatusSuccess:
		return okStyle
	case constants.ImportStatusSkipped, constants.ImportStatusEmpty:
		return warnStyle
	default:
		return failStyle
	}
}

// LevelStyle colors a confidence level.
func LevelStyle(l constants.ConfidenceLevel) *color.Color {
	switch l {
	case constants.ConfidenceHigh:
		return okStyle
	case constants.ConfidenceMedium:
		return warnStyle
	default:
		return failStyle
	}
}

// Outcomes writes the batch summary table followed by per-status totals.
func Outcomes(w io.Writer, outcomes []pipeline.Outcome) error {
	t := NewTable("FILE", "ELECTION", "DATE", "PRECINCTS", "RESULTS", "LOADED", "STATUS")
	counts := make(map[constants.ImportStatus]int)
	loaded := 0
	for _, o := range outcomes {
		status := string(o.Status)
		if o.Err != nil {
			status += ": " + o.Err.Error()
		}
		t.Add(StatusStyle(o.Status), o.File, o.Election, o.Date,
			strconv.Itoa(o.Precincts), strconv.Itoa(o.Results), strconv.Itoa(o.Loaded()), status)
		counts[o.Status]++
		loaded += o.Loaded()
	}
	if err := t.Render(w); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d files: %d success, %d skipped, %d empty, %d failed; %d result rows loaded\n",
		len(outcomes),
		counts[constants.ImportStatusSuccess],
		counts[constants.ImportStatusSkipped],
		counts[constants.ImportStatusEmpty],
		counts[constants.ImportStatusFailed],
		loaded)
	return err
}
