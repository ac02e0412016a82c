package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/odetrace/internal/config"
	"github.com/san-kum/odetrace/internal/dynamo"
	"github.com/san-kum/odetrace/internal/expr"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"euler", "heun", "midpoint", "rk4"}, r.List())
	assert.ElementsMatch(t, config.Methods, r.List())

	m, err := r.Get("rk4")
	require.NoError(t, err)
	assert.Equal(t, 4, m.Order())

	_, err = r.Get("leapfrog")
	assert.Error(t, err)

	info := r.Info()
	require.Len(t, info, 4)
	assert.Equal(t, "euler", info[0].Name)
	assert.Empty(t, info[0].Stages)
	assert.Equal(t, []string{"k1", "k2", "k3", "k4"}, info[3].Stages)
}

func TestNew_FormulaError(t *testing.T) {
	cfg := config.GetPreset("growth")
	cfg.Slope = "x**2 + someDisallowedName"

	_, err := New(cfg)
	require.Error(t, err)
	var fe *expr.FormulaError
	assert.True(t, errors.As(err, &fe))

	cfg = config.GetPreset("growth")
	cfg.Exact = "sqrt("
	_, err = New(cfg)
	assert.True(t, errors.As(err, &fe))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.GetPreset("growth")
	cfg.Method = "verlet"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	e, err := New(config.GetPreset("growth"))
	require.NoError(t, err)

	trace, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rk4", trace.Method)
	assert.Equal(t, 11, trace.Len())

	last, ok := trace.Last()
	require.True(t, ok)
	assert.InDelta(t, math.E, last.Y, 1e-5)
}

func TestRun_InvalidRequest(t *testing.T) {
	cfg := config.GetPreset("growth")
	cfg.H = 0
	e, err := New(cfg)
	require.NoError(t, err)

	trace, err := e.Run(context.Background())
	assert.Nil(t, trace)
	assert.ErrorIs(t, err, dynamo.ErrInvalidRequest)
}

func TestRun_Cancelled(t *testing.T) {
	e, err := New(config.GetPreset("growth"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompare(t *testing.T) {
	e, err := New(config.GetPreset("growth"))
	require.NoError(t, err)

	out, err := e.Compare(context.Background(), []string{"euler", "midpoint", "heun", "rk4"})
	require.NoError(t, err)
	require.Len(t, out, 4)

	for i, name := range []string{"euler", "midpoint", "heun", "rk4"} {
		assert.Equal(t, name, out[i].Method)
		assert.NoError(t, out[i].Err)
		assert.Equal(t, dynamo.Done, out[i].Summary.Status)
	}
	euler := out[0].Summary.FinalAbsError.Or(math.Inf(1))
	rk4 := out[3].Summary.FinalAbsError.Or(math.Inf(1))
	assert.Less(t, rk4, euler)
}

func TestCompare_StepFailureKept(t *testing.T) {
	e, err := New(config.GetPreset("singular"))
	require.NoError(t, err)

	out, err := e.Compare(context.Background(), []string{"euler", "rk4"})
	require.NoError(t, err)
	for _, o := range out {
		assert.ErrorIs(t, o.Err, dynamo.ErrStepEvaluation)
		assert.Equal(t, dynamo.Failed, o.Trace.Phase)
		assert.NotEmpty(t, o.Summary.Failure)
	}
}

func TestCompare_UnknownMethod(t *testing.T) {
	e, err := New(config.GetPreset("growth"))
	require.NoError(t, err)
	_, err = e.Compare(context.Background(), []string{"rk4", "nope"})
	assert.Error(t, err)
}
