package dynamo

import "math"

func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// StepCount returns ceil(|xEnd - x0| / |h|) of the floating-point ratio as
// computed, so 1.1/0.1 (11.000000000000002) counts 12 steps. ok is false when
// the count does not fit an int32.
func StepCount(x0, xEnd, h float64) (n int, ok bool) {
	ratio := math.Abs(xEnd-x0) / math.Abs(h)
	if !IsFinite(ratio) || ratio > float64(math.MaxInt32) {
		return 0, false
	}
	return int(math.Ceil(ratio)), true
}

// GridX returns x0 + i*h. Grid points are never accumulated.
func GridX(x0, h float64, i int) float64 {
	return x0 + float64(i)*h
}

// EvalSlope evaluates f(x, y) for the named stage and rejects failures and
// non-finite results with a *StageError.
func EvalSlope(f Formula, stage string, x, y float64) (float64, error) {
	k, err := f.Eval(x, y)
	if err == nil && !IsFinite(k) {
		err = ErrNonFinite
	}
	if err != nil {
		return 0, &StageError{Stage: stage, X: x, Y: y, Err: err}
	}
	return k, nil
}
