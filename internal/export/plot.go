package export

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/odetrace/internal/config"
	"github.com/san-kum/odetrace/internal/dynamo"
)

var (
	approxColor = color.RGBA{R: 0xd9, G: 0x48, B: 0x1c, A: 0xff}
	exactColor  = color.RGBA{R: 0x1f, G: 0x6f, B: 0xb4, A: 0xff}
)

// PlotOptions controls the comparison plot.
type PlotOptions struct {
	Title  string
	Grid   int
	Width  vg.Length
	Height vg.Length
}

func (o PlotOptions) withDefaults() PlotOptions {
	if o.Grid < config.MinGrid {
		o.Grid = config.DefaultGrid
	}
	if o.Grid > config.MaxGrid {
		o.Grid = config.MaxGrid
	}
	if o.Width == 0 {
		o.Width = 8 * vg.Inch
	}
	if o.Height == 0 {
		o.Height = 5 * vg.Inch
	}
	return o
}

// ExactCurve samples exact on grid evenly spaced points over [from, to].
// Points where exact fails are dropped and split the curve into segments.
func ExactCurve(exact dynamo.Formula, from, to float64, grid int) []plotter.XYs {
	if grid < 2 {
		grid = 2
	}
	xs := floats.Span(make([]float64, grid), from, to)

	var segments []plotter.XYs
	var cur plotter.XYs
	for _, x := range xs {
		y, err := exact.Eval(x)
		if err != nil || !dynamo.IsFinite(y) {
			if len(cur) > 0 {
				segments = append(segments, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: x, Y: y})
	}
	if len(cur) > 0 {
		segments = append(segments, cur)
	}
	return segments
}

// NewPlot draws the trace points and, when exact is set, the closed-form
// curve on a dense grid spanning the trace.
func NewPlot(t *dynamo.Trace, exact dynamo.Formula, opts PlotOptions) (*plot.Plot, error) {
	if t.Len() == 0 {
		return nil, fmt.Errorf("plot: empty trace")
	}
	opts = opts.withDefaults()

	p := plot.New()
	p.Title.Text = opts.Title
	if p.Title.Text == "" {
		p.Title.Text = fmt.Sprintf("%s, h = %g", t.Method, t.H)
	}
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, t.Len())
	for i, r := range t.Records() {
		pts[i] = plotter.XY{X: r.X, Y: r.Y}
	}
	line, scatter, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, err
	}
	line.Color = approxColor
	scatter.Color = approxColor
	p.Add(line, scatter)
	p.Legend.Add(t.Method, line, scatter)

	if exact != nil {
		xs := t.Xs()
		from, to := floats.Min(xs), floats.Max(xs)
		if from == to {
			from, to = from-0.5, to+0.5
		}
		for i, seg := range ExactCurve(exact, from, to, opts.Grid) {
			l, err := plotter.NewLine(seg)
			if err != nil {
				return nil, err
			}
			l.Color = exactColor
			l.Width = vg.Points(1.5)
			p.Add(l)
			if i == 0 {
				p.Legend.Add("exact", l)
			}
		}
	}
	p.Legend.Top = true
	return p, nil
}

// WritePlot renders the plot in the given format (png, svg, pdf, ...).
func WritePlot(w io.Writer, t *dynamo.Trace, exact dynamo.Formula, format string, opts PlotOptions) error {
	p, err := NewPlot(t, exact, opts)
	if err != nil {
		return err
	}
	opts = opts.withDefaults()
	wt, err := p.WriterTo(opts.Width, opts.Height, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// SavePlot writes the plot to path, choosing the format by extension.
func SavePlot(path string, t *dynamo.Trace, exact dynamo.Formula, opts PlotOptions) error {
	p, err := NewPlot(t, exact, opts)
	if err != nil {
		return err
	}
	if filepath.Ext(path) == "" {
		return fmt.Errorf("plot: %s has no extension", path)
	}
	opts = opts.withDefaults()
	return p.Save(opts.Width, opts.Height, path)
}

