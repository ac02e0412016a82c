package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/odetrace/internal/dynamo"
)

// Chart plots y and, when present, the exact solution at each record.
// Absent exact values leave gaps.
func Chart(t *dynamo.Trace, width, height int, styled bool) string {
	if t.Len() == 0 {
		return ""
	}
	series := [][]float64{t.Ys()}
	legends := []string{t.Method}
	colors := []asciigraph.AnsiColor{asciigraph.Goldenrod}

	if t.HasExact() {
		exact := make([]float64, t.Len())
		for i, r := range t.Records() {
			exact[i] = r.Exact.Or(math.NaN())
		}
		series = append(series, exact)
		legends = append(legends, "exact")
		colors = append(colors, asciigraph.DodgerBlue)
	}

	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("y over x"),
		asciigraph.SeriesLegends(legends...),
	}
	if styled {
		opts = append(opts, asciigraph.SeriesColors(colors...))
	}
	return asciigraph.PlotMany(series, opts...)
}
