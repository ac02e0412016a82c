// Package dynamo provides the core primitives for fixed-step integration of
// a scalar ordinary differential equation dy/dx = f(x, y).
//
// The package defines the data that flows between the formula compiler, the
// stepping methods and the presentation layer:
//
//   - [Formula]: a compiled, pure real function of positional variables
//   - [Request]: one validated integration problem (x0, y0, h, x_end, f, g)
//   - [StepRecord]: one row of a run, with optional stage slopes and errors
//   - [Trace]: the append-only, ordered sequence of records of one run
//   - [Value]: an optional real number; absent values are never zero
//
// # Errors
//
// Request validation fails with [*InvalidRequestError]. A failing slope or
// stage evaluation truncates the run with [*StepEvaluationError] while the
// completed prefix is kept. A failing exact-solution evaluation only degrades
// the affected record and is collected as [*ExactSolutionEvaluationError].
//
// # Thread Safety
//
// Formulas are immutable and may be shared between concurrent runs. A Trace
// is owned by the run that produced it until it is returned.
package dynamo
