package dynamo

import (
	"encoding/json"
	"errors"
)

// Trace is the ordered record of one run. Records are appended in
// computation order and never reordered. A failed run keeps the prefix it
// completed.
type Trace struct {
	Method    string
	Stages    []string
	X0        float64
	Y0        float64
	H         float64
	XEnd      float64
	StepCount int
	Phase     Phase

	// Err is the *StepEvaluationError that stopped a failed run.
	Err error

	// ExactErrors collects per-record exact-solution failures.
	ExactErrors []error

	records []StepRecord
}

// NewTrace starts an empty trace for a validated request.
func NewTrace(method string, stages []string, req Request, steps int) *Trace {
	return &Trace{
		Method:    method,
		Stages:    append([]string(nil), stages...),
		X0:        req.X0,
		Y0:        req.Y0,
		H:         req.H,
		XEnd:      req.XEnd,
		StepCount: steps,
		Phase:     Ready,
		records:   make([]StepRecord, 0, steps+1),
	}
}

// Append adds the next record. Its index must follow the last one.
func (t *Trace) Append(r StepRecord) {
	r.Index = len(t.records)
	t.records = append(t.records, r)
}

func (t *Trace) Len() int { return len(t.records) }

// At returns a copy of the i-th record.
func (t *Trace) At(i int) StepRecord { return t.records[i].clone() }

// Last returns a copy of the final record and false on an empty trace.
func (t *Trace) Last() (StepRecord, bool) {
	if len(t.records) == 0 {
		return StepRecord{}, false
	}
	return t.At(len(t.records) - 1), true
}

// Records returns a copy of all records.
func (t *Trace) Records() []StepRecord {
	out := make([]StepRecord, len(t.records))
	for i, r := range t.records {
		out[i] = r.clone()
	}
	return out
}

// Update rewrites record i in place through fn. It is used by the error
// policy after stepping; x, y and the stage slopes are restored if fn
// changes them.
func (t *Trace) Update(i int, fn func(*StepRecord)) {
	r := &t.records[i]
	x, y, stages := r.X, r.Y, r.Stages
	fn(r)
	r.Index, r.X, r.Y, r.Stages = i, x, y, stages
}

// SetStages stores the intermediate slopes on record i.
func (t *Trace) SetStages(i int, k []float64) {
	stages := make([]Value, len(k))
	for j, v := range k {
		stages[j] = Some(v)
	}
	t.records[i].Stages = stages
}

// Complete reports whether the run produced every theoretical record.
func (t *Trace) Complete() bool {
	return t.Phase == Done && len(t.records) == t.StepCount+1
}

// Xs returns the x column.
func (t *Trace) Xs() []float64 {
	out := make([]float64, len(t.records))
	for i, r := range t.records {
		out[i] = r.X
	}
	return out
}

// Ys returns the approximation column.
func (t *Trace) Ys() []float64 {
	out := make([]float64, len(t.records))
	for i, r := range t.records {
		out[i] = r.Y
	}
	return out
}

// HasExact reports whether any record carries an exact value.
func (t *Trace) HasExact() bool {
	for _, r := range t.records {
		if r.Exact.Valid() {
			return true
		}
	}
	return false
}

type traceJSON struct {
	Method      string       `json:"method"`
	Stages      []string     `json:"stages,omitempty"`
	X0          float64      `json:"x0"`
	Y0          float64      `json:"y0"`
	H           float64      `json:"h"`
	XEnd        float64      `json:"x_end"`
	StepCount   int          `json:"step_count"`
	Phase       Phase        `json:"status"`
	Failure     string       `json:"failure,omitempty"`
	ExactErrors []string     `json:"exact_errors,omitempty"`
	Records     []StepRecord `json:"records"`
}

func (t *Trace) MarshalJSON() ([]byte, error) {
	out := traceJSON{
		Method:    t.Method,
		Stages:    t.Stages,
		X0:        t.X0,
		Y0:        t.Y0,
		H:         t.H,
		XEnd:      t.XEnd,
		StepCount: t.StepCount,
		Phase:     t.Phase,
		Records:   t.records,
	}
	if t.Err != nil {
		out.Failure = t.Err.Error()
	}
	for _, err := range t.ExactErrors {
		out.ExactErrors = append(out.ExactErrors, err.Error())
	}
	return json.Marshal(out)
}

func (t *Trace) UnmarshalJSON(data []byte) error {
	var in traceJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = Trace{
		Method:    in.Method,
		Stages:    in.Stages,
		X0:        in.X0,
		Y0:        in.Y0,
		H:         in.H,
		XEnd:      in.XEnd,
		StepCount: in.StepCount,
		Phase:     in.Phase,
		records:   in.Records,
	}
	if in.Failure != "" {
		t.Err = errors.New(in.Failure)
	}
	for _, msg := range in.ExactErrors {
		t.ExactErrors = append(t.ExactErrors, errors.New(msg))
	}
	if t.records == nil {
		t.records = []StepRecord{}
	}
	return nil
}

// Restore rebuilds a trace from stored records, for readers of saved runs.
func Restore(meta Trace, records []StepRecord) *Trace {
	t := meta
	t.records = make([]StepRecord, 0, len(records))
	for _, r := range records {
		t.Append(r)
	}
	return &t
}
