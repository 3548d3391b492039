// Package report renders human-readable tables for the CLI.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// MaxCellWidth truncates long cells such as file names and notes.
const MaxCellWidth = 48

var (
	headerStyle = color.New(color.Bold, color.FgHiWhite)
	okStyle     = color.New(color.FgGreen)
	warnStyle   = color.New(color.FgYellow)
	failStyle   = color.New(color.FgRed)
	dimStyle    = color.New(color.Faint)
)

// Table is a column-aligned text table. Widths are measured in terminal
// cells so names with wide runes line up.
type Table struct {
	headers []string
	rows    [][]string
	styles  []*color.Color
}

func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// Add appends a row; style colors the whole row and may be nil.
func (t *Table) Add(style *color.Color, cells ...string) {
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = runewidth.Truncate(cells[i], MaxCellWidth, "…")
		}
	}
	t.rows = append(t.rows, row)
	t.styles = append(t.styles, style)
}

// Len is the number of rows added.
func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Render(w io.Writer) error {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, c := range row {
			if n := runewidth.StringWidth(c); n > widths[i] {
				widths[i] = n
			}
		}
	}

	line := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = runewidth.FillRight(c, widths[i])
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	if _, err := headerStyle.Fprintln(w, line(t.headers)); err != nil {
		return err
	}
	sep := make([]string, len(widths))
	for i, n := range widths {
		sep[i] = strings.Repeat("-", n)
	}
	if _, err := dimStyle.Fprintln(w, line(sep)); err != nil {
		return err
	}
	for i, row := range t.rows {
		var err error
		if s := t.styles[i]; s != nil {
			_, err = s.Fprintln(w, line(row))
		} else {
			_, err = fmt.Fprintln(w, line(row))
		}
		if err != nil {
			return err
		}
	}
	return nil
}
