package metrics

import (
	"math"

	"github.com/san-kum/odetrace/internal/dynamo"
)

// Compare returns the absolute error |y - exact| and the relative error in
// percent. The relative error is absent when exact is zero or either value
// is not finite.
func Compare(y, exact float64) (abs, rel dynamo.Value) {
	d := math.Abs(y - exact)
	if !dynamo.IsFinite(d) {
		return dynamo.Absent(), dynamo.Absent()
	}
	abs = dynamo.Some(d)
	if exact == 0 {
		return abs, dynamo.Absent()
	}
	r := d / math.Abs(exact) * 100
	if !dynamo.IsFinite(r) {
		return abs, dynamo.Absent()
	}
	return abs, dynamo.Some(r)
}

// ApplyExact fills the exact-solution fields of every record of t. A record
// whose exact value cannot be evaluated keeps its error fields absent and
// the failure is appended to t.ExactErrors; the remaining records are
// unaffected. A nil exact leaves the trace untouched.
func ApplyExact(t *dynamo.Trace, exact dynamo.Formula) {
	if exact == nil {
		return
	}
	for i := 0; i < t.Len(); i++ {
		rec := t.At(i)
		g, err := exact.Eval(rec.X)
		if err == nil && !dynamo.IsFinite(g) {
			err = dynamo.ErrNonFinite
		}
		if err != nil {
			t.ExactErrors = append(t.ExactErrors, &dynamo.ExactSolutionEvaluationError{Index: i, X: rec.X, Err: err})
			t.Update(i, func(r *dynamo.StepRecord) {
				r.Exact, r.AbsError, r.RelError = dynamo.Absent(), dynamo.Absent(), dynamo.Absent()
			})
			continue
		}

		abs, rel := Compare(rec.Y, g)
		t.Update(i, func(r *dynamo.StepRecord) {
			r.Exact, r.AbsError, r.RelError = dynamo.Some(g), abs, rel
		})
	}
}
