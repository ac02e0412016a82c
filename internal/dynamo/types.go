package dynamo

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// NotApplicable is how presentation code renders an absent value.
const NotApplicable = "n/a"

// Value is an optional real number. The zero Value is absent.
type Value struct {
	v     float64
	valid bool
}

// Some returns a present value.
func Some(v float64) Value { return Value{v: v, valid: true} }

// Absent returns a value marked as not applicable.
func Absent() Value { return Value{} }

func (v Value) Valid() bool { return v.valid }

// Get returns the value and whether it is present.
func (v Value) Get() (float64, bool) { return v.v, v.valid }

// Or returns the value, or fallback when absent.
func (v Value) Or(fallback float64) float64 {
	if !v.valid {
		return fallback
	}
	return v.v
}

// Format renders the value with the given precision, or NotApplicable.
func (v Value) Format(prec int) string {
	if !v.valid {
		return NotApplicable
	}
	return strconv.FormatFloat(v.v, 'f', prec, 64)
}

func (v Value) String() string {
	if !v.valid {
		return NotApplicable
	}
	return strconv.FormatFloat(v.v, 'g', -1, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

// Formula is a compiled pure function over positional real variables.
type Formula interface {
	Eval(args ...float64) (float64, error)
	Arity() int
	String() string
}

// Method is one fixed-step scheme. Step advances (x, y) by h and writes the
// intermediate slopes it retains into k, which has len(Stages()) entries.
type Method interface {
	Name() string
	Order() int
	Stages() []string
	Step(f Formula, x, y, h float64, k []float64) (float64, error)
}

// Phase is the lifecycle state of one integration run.
type Phase int

const (
	Ready Phase = iota
	Stepping
	Done
	Failed
)

func (p Phase) String() string {
	switch p {
	case Ready:
		return "ready"
	case Stepping:
		return "stepping"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "phase(" + strconv.Itoa(int(p)) + ")"
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ready":
		*p = Ready
	case "stepping":
		*p = Stepping
	case "done":
		*p = Done
	case "failed":
		*p = Failed
	default:
		return fmt.Errorf("dynamo: unknown phase %q", text)
	}
	return nil
}

// DefaultMaxSteps bounds the step count of a request that sets no limit.
const DefaultMaxSteps = 1_000_000

// Request is one integration problem. Slope takes (x, y); Exact, when set,
// takes (x).
type Request struct {
	X0       float64
	Y0       float64
	H        float64
	XEnd     float64
	Slope    Formula
	Exact    Formula
	MaxSteps int
}

// Validate checks the request before any stepping and returns the number of
// steps the run will take.
func (r Request) Validate() (int, error) {
	for _, f := range []struct {
		name string
		v    float64
	}{{"x0", r.X0}, {"y0", r.Y0}, {"h", r.H}, {"x_end", r.XEnd}} {
		if !IsFinite(f.v) {
			return 0, &InvalidRequestError{Field: f.name, Value: f.v, Reason: "must be finite"}
		}
	}
	if r.H == 0 {
		return 0, &InvalidRequestError{Field: "h", Value: r.H, Reason: "must be non-zero"}
	}
	if r.Slope == nil {
		return 0, &InvalidRequestError{Field: "slope", Reason: "missing slope formula"}
	}
	if r.Slope.Arity() != 2 {
		return 0, &InvalidRequestError{Field: "slope", Reason: "slope formula must take (x, y), got arity " + strconv.Itoa(r.Slope.Arity())}
	}
	if r.Exact != nil && r.Exact.Arity() != 1 {
		return 0, &InvalidRequestError{Field: "exact", Reason: "exact formula must take (x), got arity " + strconv.Itoa(r.Exact.Arity())}
	}

	n, ok := StepCount(r.X0, r.XEnd, r.H)
	limit := r.MaxSteps
	if limit <= 0 {
		limit = DefaultMaxSteps
	}
	if !ok || n > limit {
		return 0, &InvalidRequestError{Field: "h", Value: r.H, Reason: "step count exceeds limit of " + strconv.Itoa(limit)}
	}
	return n, nil
}

// StepRecord is one row of a trace. Stages holds the intermediate slopes the
// method computed at (X, Y) to advance to the next record; they are absent on
// the last record of a trace.
type StepRecord struct {
	Index    int     `json:"index"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Stages   []Value `json:"stages,omitempty"`
	Exact    Value   `json:"exact"`
	AbsError Value   `json:"abs_error"`
	RelError Value   `json:"rel_error_pct"`
}

// Stage returns the i-th intermediate slope, absent when out of range.
func (r StepRecord) Stage(i int) Value {
	if i < 0 || i >= len(r.Stages) {
		return Absent()
	}
	return r.Stages[i]
}

// HasError reports whether the exact-solution comparison is present.
func (r StepRecord) HasError() bool { return r.Exact.Valid() && r.AbsError.Valid() }

func (r StepRecord) clone() StepRecord {
	if r.Stages != nil {
		stages := make([]Value, len(r.Stages))
		copy(stages, r.Stages)
		r.Stages = stages
	}
	return r
}

// AbsentStages returns n stage values marked not applicable.
func AbsentStages(n int) []Value {
	if n == 0 {
		return nil
	}
	return make([]Value, n)
}
