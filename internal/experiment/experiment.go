package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/odetrace/internal/config"
	"github.com/san-kum/odetrace/internal/dynamo"
	"github.com/san-kum/odetrace/internal/expr"
	"github.com/san-kum/odetrace/internal/metrics"
	"github.com/san-kum/odetrace/internal/sim"
)

// Experiment is a compiled problem ready to be solved by one or more
// methods. Its formulas are shared between runs.
type Experiment struct {
	cfg      *config.Config
	req      dynamo.Request
	registry *Registry
	logger   *slog.Logger
}

type Option func(*Experiment)

func WithLogger(l *slog.Logger) Option {
	return func(e *Experiment) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

// New validates cfg and compiles its formulas. Formula failures are
// returned as *expr.FormulaError.
func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slope, err := expr.Compile(cfg.Slope, "x", "y")
	if err != nil {
		return nil, fmt.Errorf("slope: %w", err)
	}
	req := dynamo.Request{
		X0:       cfg.X0,
		Y0:       cfg.Y0,
		H:        cfg.H,
		XEnd:     cfg.XEnd,
		Slope:    slope,
		MaxSteps: cfg.MaxSteps,
	}
	if cfg.Exact != "" {
		exact, err := expr.Compile(cfg.Exact, "x")
		if err != nil {
			return nil, fmt.Errorf("exact: %w", err)
		}
		req.Exact = exact
	}

	e := &Experiment{
		cfg:      cfg.Clone(),
		req:      req,
		registry: NewRegistry(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg.Clone() }

func (e *Experiment) Request() dynamo.Request { return e.req }

// Run solves the problem with the configured method.
func (e *Experiment) Run(ctx context.Context) (*dynamo.Trace, error) {
	return e.RunMethod(ctx, e.cfg.Method)
}

// RunMethod solves the problem with the named method. A failing step
// returns the partial trace together with the error.
func (e *Experiment) RunMethod(ctx context.Context, name string) (*dynamo.Trace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	method, err := e.registry.Get(name)
	if err != nil {
		return nil, err
	}
	s := sim.New(method, sim.WithLogger(e.logger))
	return s.Solve(e.req)
}

// Outcome is one method's result in a comparison.
type Outcome struct {
	Method  string
	Trace   *dynamo.Trace
	Summary metrics.Summary
	Err     error
}

// Compare runs every named method concurrently. Step failures are kept on
// the corresponding Outcome; only an unknown method, an invalid request or
// a cancelled context fail the whole comparison. Outcomes follow the order
// of methods.
func (e *Experiment) Compare(ctx context.Context, methods []string) ([]Outcome, error) {
	for _, name := range methods {
		if _, err := e.registry.Get(name); err != nil {
			return nil, err
		}
	}
	if _, err := e.req.Validate(); err != nil {
		return nil, err
	}

	out := make([]Outcome, len(methods))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range methods {
		g.Go(func() error {
			trace, err := e.RunMethod(ctx, name)
			if trace == nil {
				return err
			}
			out[i] = Outcome{Method: name, Trace: trace, Summary: metrics.Summarize(trace), Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.logger.Debug("comparison finished", "methods", methods)
	return out, nil
}
