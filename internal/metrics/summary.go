package metrics

import "github.com/san-kum/odetrace/internal/dynamo"

// Summary condenses a trace to its end point and error figures.
type Summary struct {
	Method        string                  `json:"method"`
	Status        dynamo.Phase            `json:"status"`
	X0            float64                 `json:"x0"`
	Y0            float64                 `json:"y0"`
	H             float64                 `json:"h"`
	StepCount     int                     `json:"step_count"`
	StepsTaken    int                     `json:"steps_taken"`
	FinalX        float64                 `json:"final_x"`
	FinalY        float64                 `json:"final_y"`
	FinalExact    dynamo.Value            `json:"final_exact"`
	FinalAbsError dynamo.Value            `json:"final_abs_error"`
	FinalRelError dynamo.Value            `json:"final_rel_error_pct"`
	Metrics       map[string]dynamo.Value `json:"metrics"`
	Failure       string                  `json:"failure,omitempty"`
}

// Summarize folds t with the default metrics.
func Summarize(t *dynamo.Trace) Summary {
	s := Summary{
		Method:    t.Method,
		Status:    t.Phase,
		X0:        t.X0,
		Y0:        t.Y0,
		H:         t.H,
		StepCount: t.StepCount,
		Metrics:   make(map[string]dynamo.Value),
	}
	if t.Err != nil {
		s.Failure = t.Err.Error()
	}

	ms := DefaultMetrics()
	for _, r := range t.Records() {
		for _, m := range ms {
			m.Observe(r)
		}
	}
	for _, m := range ms {
		s.Metrics[m.Name()] = m.Value()
	}

	if last, ok := t.Last(); ok {
		s.StepsTaken = last.Index
		s.FinalX = last.X
		s.FinalY = last.Y
		s.FinalExact = last.Exact
		s.FinalAbsError = last.AbsError
		s.FinalRelError = last.RelError
	}
	return s
}
