package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration runs.
var (
	// ErrInvalidRequest indicates a request rejected before stepping started.
	ErrInvalidRequest = errors.New("dynamo: invalid request")

	// ErrStepEvaluation indicates a slope or stage evaluation failed mid-run.
	ErrStepEvaluation = errors.New("dynamo: step evaluation failed")

	// ErrExactEvaluation indicates the exact solution could not be evaluated at one record.
	ErrExactEvaluation = errors.New("dynamo: exact solution evaluation failed")

	// ErrNonFinite indicates an evaluation produced NaN or Inf.
	ErrNonFinite = errors.New("dynamo: non-finite value")

	// ErrAlreadySolved indicates Solve was called on a run that left the Ready phase.
	ErrAlreadySolved = errors.New("dynamo: run already solved")
)

// InvalidRequestError reports the request field that failed validation.
type InvalidRequestError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("%v: %s %s (got %g)", ErrInvalidRequest, e.Field, e.Reason, e.Value)
}

func (e *InvalidRequestError) Unwrap() error { return ErrInvalidRequest }

// StageError reports which intermediate slope of a method failed and at
// which inputs.
type StageError struct {
	Stage string
	X, Y  float64
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s = f(%g, %g): %v", e.Stage, e.X, e.Y, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StepEvaluationError wraps an error with the step at which the run stopped.
// Step is the index of the record the failing step started from.
type StepEvaluationError struct {
	Step   int
	X      float64
	Y      float64
	Stage  string
	StageX float64
	StageY float64
	Err    error
}

func (e *StepEvaluationError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("step %d (x=%g, y=%g): %v", e.Step, e.X, e.Y, e.Err)
	}
	return fmt.Sprintf("step %d (x=%g, y=%g): %s = f(%g, %g): %v", e.Step, e.X, e.Y, e.Stage, e.StageX, e.StageY, e.Err)
}

func (e *StepEvaluationError) Unwrap() []error { return []error{ErrStepEvaluation, e.Err} }

// NewStepEvaluationError builds the run-level error from a method failure.
func NewStepEvaluationError(step int, x, y float64, err error) *StepEvaluationError {
	se := &StepEvaluationError{Step: step, X: x, Y: y, Err: err}
	var stage *StageError
	if errors.As(err, &stage) {
		se.Stage = stage.Stage
		se.StageX = stage.X
		se.StageY = stage.Y
		se.Err = stage.Err
	}
	return se
}

// ExactSolutionEvaluationError is recorded per record and never aborts a run.
type ExactSolutionEvaluationError struct {
	Index int
	X     float64
	Err   error
}

func (e *ExactSolutionEvaluationError) Error() string {
	return fmt.Sprintf("record %d: g(%g): %v", e.Index, e.X, e.Err)
}

func (e *ExactSolutionEvaluationError) Unwrap() []error { return []error{ErrExactEvaluation, e.Err} }
