package sim

import (
	"log/slog"

	"github.com/san-kum/odetrace/internal/dynamo"
	"github.com/san-kum/odetrace/internal/metrics"
)

// Simulator drives a fixed-step method over a request. One loop serves every
// method; methods differ only in how a step computes its slopes.
type Simulator struct {
	method    dynamo.Method
	logger    *slog.Logger
	observers []Observer
}

type Option func(*Simulator)

// WithLogger sets the logger step failures and completions are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(method dynamo.Method, opts ...Option) *Simulator {
	s := &Simulator{
		method:    method,
		logger:    slog.New(slog.DiscardHandler),
		observers: make([]Observer, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Method() dynamo.Method { return s.method }

// Solve runs req to completion or failure. See Run.Solve.
func (s *Simulator) Solve(req dynamo.Request) (*dynamo.Trace, error) {
	return s.NewRun(req).Solve()
}

// Run is a single integration run. It starts Ready and ends Done or Failed.
type Run struct {
	sim   *Simulator
	req   dynamo.Request
	phase dynamo.Phase
}

func (s *Simulator) NewRun(req dynamo.Request) *Run {
	return &Run{sim: s, req: req, phase: dynamo.Ready}
}

func (r *Run) Phase() dynamo.Phase { return r.phase }

// Solve validates the request and steps it. An invalid request returns a nil
// trace and an *dynamo.InvalidRequestError. A failing step returns the
// completed prefix together with the *dynamo.StepEvaluationError, which is
// also kept on the trace. The trace belongs to the caller once returned.
func (r *Run) Solve() (*dynamo.Trace, error) {
	if r.phase != dynamo.Ready {
		return nil, dynamo.ErrAlreadySolved
	}

	steps, err := r.req.Validate()
	if err != nil {
		r.phase = dynamo.Failed
		return nil, err
	}

	s := r.sim
	req := r.req
	stages := s.method.Stages()
	trace := dynamo.NewTrace(s.method.Name(), stages, req, steps)
	logger := s.logger.With("method", s.method.Name())

	if (req.H > 0) != (req.XEnd > req.X0) && req.XEnd != req.X0 {
		logger.Warn("step direction points away from x_end", "x0", req.X0, "x_end", req.XEnd, "h", req.H)
	}

	r.phase = dynamo.Stepping
	trace.Phase = dynamo.Stepping

	x, y := req.X0, req.Y0
	trace.Append(dynamo.StepRecord{X: x, Y: y, Stages: dynamo.AbsentStages(len(stages))})
	k := make([]float64, len(stages))

	var stepErr *dynamo.StepEvaluationError
	for i := 0; i < steps; i++ {
		next, err := s.method.Step(req.Slope, x, y, req.H, k)
		if err == nil && !dynamo.IsFinite(next) {
			err = dynamo.ErrNonFinite
		}
		if err != nil {
			stepErr = dynamo.NewStepEvaluationError(i, x, y, err)
			logger.Warn("step failed", "step", i, "x", x, "y", y, "stage", stepErr.Stage, "error", stepErr.Err)
			break
		}

		if len(k) > 0 {
			trace.SetStages(i, k)
		}
		s.notify(trace, i)

		x = dynamo.GridX(req.X0, req.H, i+1)
		y = next
		trace.Append(dynamo.StepRecord{X: x, Y: y, Stages: dynamo.AbsentStages(len(stages))})
	}
	s.notify(trace, trace.Len()-1)

	if stepErr != nil {
		r.phase = dynamo.Failed
		trace.Phase = dynamo.Failed
		trace.Err = stepErr
	} else {
		r.phase = dynamo.Done
		trace.Phase = dynamo.Done
	}

	metrics.ApplyExact(trace, req.Exact)
	for _, e := range trace.ExactErrors {
		logger.Debug("exact solution unavailable", "error", e)
	}
	logger.Debug("run finished", "phase", trace.Phase, "records", trace.Len(), "steps", steps)

	if stepErr != nil {
		return trace, stepErr
	}
	return trace, nil
}

func (s *Simulator) notify(t *dynamo.Trace, i int) {
	if len(s.observers) == 0 {
		return
	}
	rec := t.At(i)
	for _, o := range s.observers {
		o.OnRecord(rec)
	}
}
