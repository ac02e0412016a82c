package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/odetrace/internal/config"
	"github.com/san-kum/odetrace/internal/dynamo"
	"github.com/san-kum/odetrace/internal/experiment"
	"github.com/san-kum/odetrace/internal/metrics"
)

// ErrNoExact is returned when a study is asked for without an exact solution.
var ErrNoExact = errors.New("optim: step study needs an exact solution")

// StepStudy solves one problem at a sequence of halved step sizes and
// measures how the final error shrinks.
type StepStudy struct {
	steps []float64
}

// NewStepStudy starts at h and halves it levels-1 times.
func NewStepStudy(h float64, levels int) *StepStudy {
	if levels < 2 {
		levels = 2
	}
	steps := make([]float64, levels)
	for i := range steps {
		steps[i] = h / math.Pow(2, float64(i))
	}
	return &StepStudy{steps: steps}
}

func (s *StepStudy) Steps() []float64 { return append([]float64(nil), s.steps...) }

// StudyPoint is the outcome at one step size. Order is the observed order
// of convergence against the previous point.
type StudyPoint struct {
	H        float64      `json:"h"`
	Steps    int          `json:"steps"`
	Status   dynamo.Phase `json:"status"`
	FinalY   float64      `json:"final_y"`
	AbsError dynamo.Value `json:"abs_error"`
	MaxError dynamo.Value `json:"max_abs_error"`
	Order    dynamo.Value `json:"order"`
	Err      error        `json:"-"`
}

// Run solves cfg with method at every step size. Invalid requests stop the
// study; step failures are kept on their point.
func (s *StepStudy) Run(ctx context.Context, cfg *config.Config, method string) ([]StudyPoint, error) {
	if cfg.Exact == "" {
		return nil, ErrNoExact
	}

	points := make([]StudyPoint, 0, len(s.steps))
	for _, h := range s.steps {
		c := cfg.Clone()
		c.H = h
		c.Method = method

		exp, err := experiment.New(c)
		if err != nil {
			return nil, err
		}
		trace, err := exp.Run(ctx)
		if trace == nil {
			return nil, fmt.Errorf("h=%g: %w", h, err)
		}

		sum := metrics.Summarize(trace)
		points = append(points, StudyPoint{
			H:        h,
			Steps:    sum.StepsTaken,
			Status:   trace.Phase,
			FinalY:   sum.FinalY,
			AbsError: sum.FinalAbsError,
			MaxError: sum.Metrics["max_abs_error"],
			Err:      err,
		})
	}

	for i := 1; i < len(points); i++ {
		points[i].Order = observedOrder(points[i-1], points[i])
	}
	return points, nil
}

func observedOrder(coarse, fine StudyPoint) dynamo.Value {
	if coarse.Status != dynamo.Done || fine.Status != dynamo.Done {
		return dynamo.Absent()
	}
	e1, ok1 := coarse.AbsError.Get()
	e2, ok2 := fine.AbsError.Get()
	if !ok1 || !ok2 || e1 == 0 || e2 == 0 {
		return dynamo.Absent()
	}
	p := math.Log(e1/e2) / math.Log(coarse.H/fine.H)
	if !dynamo.IsFinite(p) {
		return dynamo.Absent()
	}
	return dynamo.Some(p)
}

// Coarsest returns the largest step whose final error is within tol.
func Coarsest(points []StudyPoint, tol float64) (StudyPoint, bool) {
	best := StudyPoint{}
	found := false
	for _, p := range points {
		e, ok := p.AbsError.Get()
		if !ok || p.Status != dynamo.Done || e > tol {
			continue
		}
		if !found || math.Abs(p.H) > math.Abs(best.H) {
			best, found = p, true
		}
	}
	return best, found
}
