package viz

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/odetrace/internal/dynamo"
	"github.com/san-kum/odetrace/internal/metrics"
)

// RenderSummary writes the run summary as aligned label/value lines.
func RenderSummary(w io.Writer, s metrics.Summary, opts Options) error {
	opts = opts.withDefaults()
	st := opts.styles()
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', opts.Precision, 64) }

	status := st.Done.Render(s.Status.String())
	if s.Status == dynamo.Failed {
		status = st.Failed.Render(s.Status.String())
	}

	lines := [][2]string{
		{"method", s.Method},
		{"status", status},
		{"start", fmt.Sprintf("(%s, %s)", f(s.X0), f(s.Y0))},
		{"h", strconv.FormatFloat(s.H, 'g', -1, 64)},
		{"steps", fmt.Sprintf("%d of %d", s.StepsTaken, s.StepCount)},
		{"final point", fmt.Sprintf("(%s, %s)", f(s.FinalX), f(s.FinalY))},
		{"exact at final x", s.FinalExact.Format(opts.Precision)},
		{"abs error", s.FinalAbsError.Format(opts.Precision)},
		{"rel error %", s.FinalRelError.Format(opts.Precision)},
	}
	names := make([]string, 0, len(s.Metrics))
	for name := range s.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lines = append(lines, [2]string{strings.ReplaceAll(name, "_", " "), s.Metrics[name].Format(opts.Precision)})
	}
	if s.Failure != "" {
		lines = append(lines, [2]string{"failure", st.Failed.Render(s.Failure)})
	}

	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(st.Label.Render(l[0]))
		sb.WriteString(st.Value.Render(l[1]))
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// RenderComparison writes one row per method with its end point and error
// figures.
func RenderComparison(w io.Writer, summaries []metrics.Summary, opts Options) error {
	opts = opts.withDefaults()
	st := opts.styles()
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', opts.Precision, 64) }

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Method,
			s.Status.String(),
			strconv.Itoa(s.StepsTaken),
			f(s.FinalX),
			f(s.FinalY),
			s.FinalAbsError.Format(opts.Precision),
			s.Metrics["max_abs_error"].Format(opts.Precision),
			s.Metrics["rms_abs_error"].Format(opts.Precision),
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.Border).
		Headers("method", "status", "steps", "final x", "final y", "abs error", "max abs error", "rms abs error").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return st.Header
			case col == 1 && rows[row][1] == dynamo.Failed.String():
				return st.Failed.Padding(0, 1)
			case rows[row][col] == dynamo.NotApplicable:
				return st.Absent
			}
			return st.Cell
		})

	if _, err := fmt.Fprintln(w, tbl.Render()); err != nil {
		return err
	}
	for _, s := range summaries {
		if s.Failure != "" {
			if _, err := fmt.Fprintf(w, "%s: %s\n", s.Method, st.Failed.Render(s.Failure)); err != nil {
				return err
			}
		}
	}
	return nil
}
