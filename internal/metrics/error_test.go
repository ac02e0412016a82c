package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/odetrace/internal/dynamo"
	"github.com/san-kum/odetrace/internal/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrace(t *testing.T, points ...[2]float64) *dynamo.Trace {
	t.Helper()
	req := dynamo.Request{X0: points[0][0], Y0: points[0][1], H: 0.5, XEnd: points[len(points)-1][0]}
	tr := dynamo.NewTrace("test", nil, req, len(points)-1)
	for _, p := range points {
		tr.Append(dynamo.StepRecord{X: p[0], Y: p[1]})
	}
	tr.Phase = dynamo.Done
	return tr
}

func TestCompare(t *testing.T) {
	abs, rel := Compare(1.1, 1.0)
	v, ok := abs.Get()
	require.True(t, ok)
	assert.InDelta(t, 0.1, v, 1e-12)
	r, ok := rel.Get()
	require.True(t, ok)
	assert.InDelta(t, 10.0, r, 1e-9)

	abs, rel = Compare(0.25, 0)
	assert.True(t, abs.Valid())
	assert.False(t, rel.Valid(), "relative error must be unavailable when exact is zero")
}

func TestApplyExact_ZeroExactIsUnavailable(t *testing.T) {
	tr := newTrace(t, [2]float64{0, 0.1}, [2]float64{0.5, 0.6})
	ApplyExact(tr, expr.MustCompile("x", "x"))

	first := tr.At(0)
	exact, ok := first.Exact.Get()
	require.True(t, ok)
	assert.Equal(t, 0.0, exact)
	assert.True(t, first.AbsError.Valid())
	assert.False(t, first.RelError.Valid())
	_, relOK := first.RelError.Get()
	assert.False(t, relOK)
	assert.Equal(t, dynamo.NotApplicable, first.RelError.Format(6))

	second := tr.At(1)
	rel, ok := second.RelError.Get()
	require.True(t, ok)
	assert.False(t, math.IsInf(rel, 0) || math.IsNaN(rel))
	assert.InDelta(t, 20.0, rel, 1e-9)
	assert.Empty(t, tr.ExactErrors)
}

func TestApplyExact_FailureIsIsolated(t *testing.T) {
	tr := newTrace(t, [2]float64{-1, 1}, [2]float64{0, 1}, [2]float64{1, 1})
	ApplyExact(tr, expr.MustCompile("1/x", "x"))

	require.Len(t, tr.ExactErrors, 1)
	var ee *dynamo.ExactSolutionEvaluationError
	require.True(t, errors.As(tr.ExactErrors[0], &ee))
	assert.Equal(t, 1, ee.Index)
	assert.True(t, errors.Is(tr.ExactErrors[0], dynamo.ErrExactEvaluation))
	assert.True(t, errors.Is(tr.ExactErrors[0], expr.ErrDivisionByZero))

	assert.True(t, tr.At(0).HasError())
	assert.False(t, tr.At(1).Exact.Valid())
	assert.False(t, tr.At(1).AbsError.Valid())
	assert.False(t, tr.At(1).RelError.Valid())
	assert.True(t, tr.At(2).HasError())
	assert.Equal(t, 3, tr.Len())
}

func TestApplyExact_NilExact(t *testing.T) {
	tr := newTrace(t, [2]float64{0, 1}, [2]float64{1, 2})
	ApplyExact(tr, nil)
	for _, r := range tr.Records() {
		assert.False(t, r.Exact.Valid())
		assert.False(t, r.AbsError.Valid())
	}
}

func TestApplyExact_PreservesApproximation(t *testing.T) {
	tr := newTrace(t, [2]float64{0, 1}, [2]float64{0.5, 1.5})
	tr.SetStages(0, []float64{1, 2})
	ApplyExact(tr, expr.MustCompile("exp(x)", "x"))

	r := tr.At(0)
	assert.Equal(t, 1.0, r.Y)
	assert.Equal(t, 2.0, r.Stage(1).Or(0))
	assert.Equal(t, 0, r.Index)
}

func TestSummarize(t *testing.T) {
	tr := newTrace(t, [2]float64{0, 0}, [2]float64{0.5, 0.6}, [2]float64{1, 1.3})
	ApplyExact(tr, expr.MustCompile("x", "x"))

	s := Summarize(tr)
	assert.Equal(t, 2, s.StepsTaken)
	assert.Equal(t, 1.0, s.FinalX)
	assert.Equal(t, 1.3, s.FinalY)
	assert.InDelta(t, 0.3, s.FinalAbsError.Or(-1), 1e-12)
	assert.InDelta(t, 30.0, s.FinalRelError.Or(-1), 1e-9)
	assert.InDelta(t, 0.3, s.Metrics["max_abs_error"].Or(-1), 1e-12)
	assert.InDelta(t, 30.0, s.Metrics["max_rel_error_pct"].Or(-1), 1e-9)
	assert.True(t, s.Metrics["rms_abs_error"].Valid())
	assert.Empty(t, s.Failure)
}

func TestSummarize_NoExact(t *testing.T) {
	tr := newTrace(t, [2]float64{0, 1}, [2]float64{1, 2})
	s := Summarize(tr)
	assert.False(t, s.FinalExact.Valid())
	assert.False(t, s.Metrics["max_abs_error"].Valid())
}

func TestMaxErrorReset(t *testing.T) {
	m := NewMaxAbsError()
	m.Observe(dynamo.StepRecord{X: 2, AbsError: dynamo.Some(3)})
	m.Observe(dynamo.StepRecord{X: 3, AbsError: dynamo.Some(1)})
	assert.Equal(t, 3.0, m.Value().Or(0))
	assert.Equal(t, 2.0, m.At())

	m.Reset()
	assert.False(t, m.Value().Valid())
}
