package export

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/odetrace/internal/config"
	"github.com/san-kum/odetrace/internal/dynamo"
	"github.com/san-kum/odetrace/internal/expr"
	"github.com/san-kum/odetrace/internal/integrators"
	"github.com/san-kum/odetrace/internal/sim"
)

func solve(t *testing.T, method dynamo.Method, slope, exact string, x0, y0, h, xEnd float64) *dynamo.Trace {
	t.Helper()
	req := dynamo.Request{X0: x0, Y0: y0, H: h, XEnd: xEnd, Slope: expr.MustCompile(slope, "x", "y")}
	if exact != "" {
		req.Exact = expr.MustCompile(exact, "x")
	}
	trace, _ := sim.New(method).Solve(req)
	require.NotNil(t, trace)
	return trace
}

func TestCSVRoundTrip(t *testing.T) {
	trace := solve(t, integrators.NewRK4(), "y", "x", 0, 1, 0.25, 1)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, trace, -1))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "index,x,y,k1,k2,k3,k4,exact,abs_error,rel_error_pct", lines[0])
	assert.Len(t, lines, trace.Len()+1)
	// exact is zero at x = 0, so the relative error cell is empty
	assert.True(t, strings.HasSuffix(lines[1], ","), lines[1])

	stages, recs, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, trace.Stages, stages)
	assert.Equal(t, trace.Records(), recs)
}

func TestCSVWithoutStages(t *testing.T) {
	trace := solve(t, integrators.NewEuler(), "y", "", 0, 1, 0.5, 1)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, trace, 4))
	assert.Contains(t, buf.String(), "index,x,y,exact,abs_error,rel_error_pct\n")
	assert.Contains(t, buf.String(), "1,0.5000,1.5000,,,\n")

	stages, recs, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Empty(t, stages)
	require.Len(t, recs, 3)
	assert.False(t, recs[2].Exact.Valid())
	assert.Equal(t, 2.25, recs[2].Y)
}

func TestReadCSVRejectsGarbage(t *testing.T) {
	_, _, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, _, err = ReadCSV(strings.NewReader("time,x0\n0,1\n"))
	assert.Error(t, err)

	_, _, err = ReadCSV(strings.NewReader("index,x,y,exact,abs_error,rel_error_pct\n0,zero,1,,,\n"))
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	trace := solve(t, integrators.NewEuler(), "1/x", "log(abs(x))", -1, 0, 0.25, 1)
	require.Equal(t, dynamo.Failed, trace.Phase)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewDocument("1/x", "log(abs(x))", trace)))

	var doc struct {
		Slope   string `json:"slope"`
		Summary struct {
			Status  string `json:"status"`
			Failure string `json:"failure"`
		} `json:"summary"`
		Trace struct {
			Status  string `json:"status"`
			Records []struct {
				Exact    *float64 `json:"exact"`
				AbsError *float64 `json:"abs_error"`
			} `json:"records"`
		} `json:"trace"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "1/x", doc.Slope)
	assert.Equal(t, "failed", doc.Summary.Status)
	assert.NotEmpty(t, doc.Summary.Failure)
	assert.Equal(t, "failed", doc.Trace.Status)
	require.Len(t, doc.Trace.Records, 5)
	assert.NotNil(t, doc.Trace.Records[0].Exact)
	assert.Nil(t, doc.Trace.Records[4].Exact, "log(0) must be null")
}

func TestExactCurveSkipsFailures(t *testing.T) {
	segs := ExactCurve(expr.MustCompile("log(abs(x))", "x"), -1, 1, 3)
	require.Len(t, segs, 2)
	assert.Len(t, segs[0], 1)
	assert.Len(t, segs[1], 1)

	segs = ExactCurve(expr.MustCompile("exp(x)", "x"), 0, 1, config.DefaultGrid)
	require.Len(t, segs, 1)
	assert.Len(t, segs[0], config.DefaultGrid)
	assert.Equal(t, 0.0, segs[0][0].X)
	assert.Equal(t, 1.0, segs[0][config.DefaultGrid-1].X)
}

func TestWritePlot(t *testing.T) {
	trace := solve(t, integrators.NewRK4(), "y", "exp(x)", 0, 1, 0.1, 1)

	var svg bytes.Buffer
	require.NoError(t, WritePlot(&svg, trace, expr.MustCompile("exp(x)", "x"), "svg", PlotOptions{Grid: 50}))
	assert.Contains(t, svg.String(), "<svg")

	var png bytes.Buffer
	require.NoError(t, WritePlot(&png, trace, nil, "png", PlotOptions{}))
	assert.True(t, bytes.HasPrefix(png.Bytes(), []byte("\x89PNG")))
}

func TestSavePlot(t *testing.T) {
	trace := solve(t, integrators.NewHeun(), "-2*y", "exp(-2*x)", 0, 1, 0.2, 2)
	dir := t.TempDir()

	require.NoError(t, SavePlot(filepath.Join(dir, "run.png"), trace, nil, PlotOptions{}))
	assert.Error(t, SavePlot(filepath.Join(dir, "run"), trace, nil, PlotOptions{}))
}

func TestPlotOptionsGridBounds(t *testing.T) {
	assert.Equal(t, config.DefaultGrid, PlotOptions{}.withDefaults().Grid)
	assert.Equal(t, config.DefaultGrid, PlotOptions{Grid: 1}.withDefaults().Grid)
	assert.Equal(t, config.MaxGrid, PlotOptions{Grid: config.MaxGrid + 1}.withDefaults().Grid)
	assert.Equal(t, config.MinGrid, PlotOptions{Grid: config.MinGrid}.withDefaults().Grid)
}
