package viz

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/odetrace/internal/dynamo"
)

// Columns returns the table headers for t. Exact-solution columns are
// included only when the trace carries an exact value or an exact failure.
func Columns(t *dynamo.Trace) []string {
	cols := []string{"i", "x", "y"}
	cols = append(cols, t.Stages...)
	if showExact(t) {
		cols = append(cols, "exact", "abs error", "rel error %")
	}
	return cols
}

func showExact(t *dynamo.Trace) bool {
	return t.HasExact() || len(t.ExactErrors) > 0
}

// Rows formats every record of t with prec decimals.
func Rows(t *dynamo.Trace, prec int) [][]string {
	exact := showExact(t)
	rows := make([][]string, 0, t.Len())
	for _, r := range t.Records() {
		row := []string{
			strconv.Itoa(r.Index),
			strconv.FormatFloat(r.X, 'f', prec, 64),
			strconv.FormatFloat(r.Y, 'f', prec, 64),
		}
		for i := range t.Stages {
			row = append(row, r.Stage(i).Format(prec))
		}
		if exact {
			row = append(row, r.Exact.Format(prec), r.AbsError.Format(prec), r.RelError.Format(prec))
		}
		rows = append(rows, row)
	}
	return rows
}

// RenderTable writes the trace as a bordered table.
func RenderTable(w io.Writer, t *dynamo.Trace, opts Options) error {
	opts = opts.withDefaults()
	st := opts.styles()
	rows := Rows(t, opts.Precision)

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.Border).
		Headers(Columns(t)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.Header
			}
			if row >= 0 && row < len(rows) && col < len(rows[row]) && rows[row][col] == dynamo.NotApplicable {
				return st.Absent
			}
			return st.Cell
		})

	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}
