package viz

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/odetrace/internal/dynamo"
	"github.com/san-kum/odetrace/internal/metrics"
)

const (
	viewerWidth  = 100
	viewerHeight = 24
	chartHeight  = 10
)

// Viewer is a Bubble Tea model that scrolls through a trace with its
// summary and an optional chart.
type Viewer struct {
	trace     *dynamo.Trace
	summary   metrics.Summary
	opts      Options
	table     table.Model
	showChart bool
	width     int
	height    int
}

func NewViewer(t *dynamo.Trace, opts Options) Viewer {
	opts = opts.withDefaults()
	v := Viewer{
		trace:   t,
		summary: metrics.Summarize(t),
		opts:    opts,
		width:   viewerWidth,
		height:  viewerHeight,
	}
	v.table = newTraceTable(t, opts.Precision, v.tableHeight())
	v.applyTheme()
	return v
}

func newTraceTable(t *dynamo.Trace, prec, height int) table.Model {
	headers := Columns(t)
	rows := Rows(t, prec)

	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		w := len(h)
		for _, r := range rows {
			if len(r[i]) > w {
				w = len(r[i])
			}
		}
		cols[i] = table.Column{Title: h, Width: w}
	}
	trs := make([]table.Row, len(rows))
	for i, r := range rows {
		trs[i] = table.Row(r)
	}

	return table.New(
		table.WithColumns(cols),
		table.WithRows(trs),
		table.WithFocused(true),
		table.WithHeight(height),
	)
}

func (v *Viewer) applyTheme() {
	s := table.DefaultStyles()
	if v.opts.Styled {
		th := v.opts.Theme
		s.Header = s.Header.Foreground(th.Primary).Bold(true).
			BorderStyle(lipgloss.NormalBorder()).BorderForeground(th.Muted).BorderBottom(true)
		s.Selected = s.Selected.Foreground(th.Text).Background(th.Muted).Bold(true)
	}
	v.table.SetStyles(s)
}

func (v Viewer) tableHeight() int {
	h := v.height - 14
	if v.showChart {
		h -= chartHeight + 2
	}
	if h < 3 {
		h = 3
	}
	return h
}

// Selected returns the record under the cursor.
func (v Viewer) Selected() dynamo.StepRecord {
	return v.trace.At(v.table.Cursor())
}

func (v Viewer) Init() tea.Cmd { return nil }

func (v Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return v, tea.Quit
		case "c":
			v.showChart = !v.showChart
			v.table.SetHeight(v.tableHeight())
			return v, nil
		case "t":
			v.opts.Theme = nextTheme(v.opts.Theme)
			v.applyTheme()
			return v, nil
		}
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
		v.table.SetHeight(v.tableHeight())
		return v, nil
	}

	var cmd tea.Cmd
	v.table, cmd = v.table.Update(msg)
	return v, cmd
}

func (v Viewer) View() string {
	st := v.opts.styles()
	var sb strings.Builder

	sb.WriteString(st.Header.Render(v.trace.Method + " trace"))
	sb.WriteString("\n\n")
	sb.WriteString(v.table.View())
	sb.WriteString("\n\n")

	if v.showChart {
		w := v.width - 12
		if w < 20 {
			w = 20
		}
		sb.WriteString(Chart(v.trace, w, chartHeight, v.opts.Styled))
		sb.WriteString("\n\n")
	}

	var summary strings.Builder
	_ = RenderSummary(&summary, v.summary, v.opts)
	sb.WriteString(summary.String())
	sb.WriteString("\n")
	sb.WriteString(st.KeyHint.Render("↑/↓ move • c chart • t theme • q quit"))
	sb.WriteString("\n")
	return sb.String()
}
