package metrics

import (
	"math"

	"github.com/san-kum/odetrace/internal/dynamo"
)

// Metric folds the records of a trace into one value.
type Metric interface {
	Name() string
	Observe(r dynamo.StepRecord)
	Value() dynamo.Value
	Reset()
}

// MaxError tracks the largest absolute or relative error seen.
type MaxError struct {
	name     string
	relative bool
	max      float64
	at       float64
	seen     bool
}

func NewMaxAbsError() *MaxError { return &MaxError{name: "max_abs_error"} }

func NewMaxRelError() *MaxError { return &MaxError{name: "max_rel_error_pct", relative: true} }

func (m *MaxError) Name() string { return m.name }

func (m *MaxError) Observe(r dynamo.StepRecord) {
	v := r.AbsError
	if m.relative {
		v = r.RelError
	}
	e, ok := v.Get()
	if !ok {
		return
	}
	if !m.seen || e > m.max {
		m.max, m.at, m.seen = e, r.X, true
	}
}

func (m *MaxError) Value() dynamo.Value {
	if !m.seen {
		return dynamo.Absent()
	}
	return dynamo.Some(m.max)
}

// At returns the x where the maximum occurred.
func (m *MaxError) At() float64 { return m.at }

func (m *MaxError) Reset() {
	m.max, m.at, m.seen = 0, 0, false
}

// RMSError is the root mean square of the available absolute errors.
type RMSError struct {
	sum     float64
	samples int
}

func NewRMSError() *RMSError { return &RMSError{} }

func (m *RMSError) Name() string { return "rms_abs_error" }

func (m *RMSError) Observe(r dynamo.StepRecord) {
	if e, ok := r.AbsError.Get(); ok {
		m.sum += e * e
		m.samples++
	}
}

func (m *RMSError) Value() dynamo.Value {
	if m.samples == 0 {
		return dynamo.Absent()
	}
	return dynamo.Some(math.Sqrt(m.sum / float64(m.samples)))
}

func (m *RMSError) Reset() {
	m.sum = 0
	m.samples = 0
}

// DefaultMetrics returns fresh accumulators used by Summarize.
func DefaultMetrics() []Metric {
	return []Metric{NewMaxAbsError(), NewMaxRelError(), NewRMSError()}
}
