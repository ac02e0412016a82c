package server

import (
	"github.com/san-kum/odetrace/internal/dynamo"
	"github.com/san-kum/odetrace/internal/experiment"
	"github.com/san-kum/odetrace/internal/metrics"
)

// SolveRequest is the body of POST /v1/solve. Numbers are pointers so that
// zero can be told apart from a missing field.
type SolveRequest struct {
	Slope    string   `json:"slope" binding:"required"`
	Exact    string   `json:"exact"`
	X0       *float64 `json:"x0" binding:"required"`
	Y0       *float64 `json:"y0" binding:"required"`
	H        *float64 `json:"h" binding:"required"`
	XEnd     *float64 `json:"x_end" binding:"required"`
	Method   string   `json:"method"`
	MaxSteps int      `json:"max_steps" binding:"gte=0"`
}

// SolveResponse carries the trace of a finished run. A run stopped by a
// failing step is still a response, with status failed and the partial
// trace.
type SolveResponse struct {
	RequestID string          `json:"request_id"`
	Summary   metrics.Summary `json:"summary"`
	Trace     *dynamo.Trace   `json:"trace"`
}

type MethodsResponse struct {
	Methods []experiment.MethodInfo `json:"methods"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is returned with every 4xx and 5xx status.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Error codes.
const (
	CodeFormulaError   = "FORMULA_ERROR"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternal       = "INTERNAL_ERROR"
)
