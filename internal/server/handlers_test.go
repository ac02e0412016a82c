package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/odetrace/internal/config"
	"github.com/san-kum/odetrace/internal/dynamo"
	"github.com/san-kum/odetrace/internal/experiment"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter() *gin.Engine {
	return NewRouter(NewHandlers(experiment.NewRegistry(), nil, nil))
}

func post(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "/v1/solve", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type solveBody struct {
	RequestID string `json:"request_id"`
	Summary   struct {
		Status     string   `json:"status"`
		StepsTaken int      `json:"steps_taken"`
		FinalY     float64  `json:"final_y"`
		FinalAbs   *float64 `json:"final_abs_error"`
		Failure    string   `json:"failure"`
	} `json:"summary"`
	Trace struct {
		Method  string `json:"method"`
		Status  string `json:"status"`
		Failure string `json:"failure"`
		Records []struct {
			X        float64    `json:"x"`
			Y        float64    `json:"y"`
			Stages   []*float64 `json:"stages"`
			RelError *float64   `json:"rel_error_pct"`
		} `json:"records"`
	} `json:"trace"`
}

func TestHandleSolve(t *testing.T) {
	router := setupTestRouter()
	w := post(t, router, `{"slope":"y","exact":"exp(x)","x0":0,"y0":1,"h":0.1,"x_end":1,"method":"rk4"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp solveBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.RequestID, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "done", resp.Summary.Status)
	assert.Equal(t, 10, resp.Summary.StepsTaken)
	assert.InDelta(t, 2.718281828, resp.Summary.FinalY, 1e-5)
	require.NotNil(t, resp.Summary.FinalAbs)
	assert.Equal(t, "rk4", resp.Trace.Method)
	require.Len(t, resp.Trace.Records, 11)

	last := resp.Trace.Records[10]
	require.Len(t, last.Stages, 4)
	for _, s := range last.Stages {
		assert.Nil(t, s)
	}
}

func TestHandleSolve_DefaultsAndRequestID(t *testing.T) {
	router := setupTestRouter()
	req, _ := http.NewRequest(http.MethodPost, "/v1/solve", strings.NewReader(`{"slope":"x","x0":0,"y0":0,"h":0.5,"x_end":1}`))
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp solveBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "abc-123", resp.RequestID)
	assert.Equal(t, "rk4", resp.Trace.Method)
	assert.Nil(t, resp.Summary.FinalAbs)
}

func TestHandleSolve_StepFailureReturnsPartialTrace(t *testing.T) {
	router := setupTestRouter()
	w := post(t, router, `{"slope":"1/x","x0":0,"y0":1,"h":0.1,"x_end":1,"method":"euler"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp solveBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Trace.Status)
	assert.Equal(t, "failed", resp.Summary.Status)
	assert.NotEmpty(t, resp.Trace.Failure)
	require.Len(t, resp.Trace.Records, 1)
	assert.Equal(t, 1.0, resp.Trace.Records[0].Y)
}

func TestHandleSolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"disallowed name", `{"slope":"x**2 + someDisallowedName","x0":0,"y0":1,"h":0.1,"x_end":1}`, CodeFormulaError},
		{"bad exact", `{"slope":"y","exact":"__import__('os')","x0":0,"y0":1,"h":0.1,"x_end":1}`, CodeFormulaError},
		{"zero step", `{"slope":"y","x0":0,"y0":1,"h":0,"x_end":1}`, CodeInvalidRequest},
		{"missing x_end", `{"slope":"y","x0":0,"y0":1,"h":0.1}`, CodeInvalidRequest},
		{"missing slope", `{"x0":0,"y0":1,"h":0.1,"x_end":1}`, CodeInvalidRequest},
		{"unknown method", `{"slope":"y","x0":0,"y0":1,"h":0.1,"x_end":1,"method":"verlet"}`, CodeInvalidRequest},
		{"too many steps", `{"slope":"y","x0":0,"y0":1,"h":0.1,"x_end":1,"max_steps":3}`, CodeInvalidRequest},
		{"not json", `slope=y`, CodeInvalidRequest},
	}

	router := setupTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, router, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestHandleSolve_StepLimitIsCeiling(t *testing.T) {
	defaults := config.DefaultConfig()
	defaults.MaxSteps = 10
	router := NewRouter(NewHandlers(experiment.NewRegistry(), defaults, nil))

	const body = `{"slope":"y","x0":0,"y0":1,"h":%s,"x_end":1,"method":"euler"%s}`
	tests := []struct {
		name   string
		h      string
		extra  string
		status int
	}{
		{"within server limit", "0.1", "", http.StatusOK},
		{"over server limit", "0.01", "", http.StatusBadRequest},
		{"client cannot raise limit", "0.01", `,"max_steps":100000000`, http.StatusBadRequest},
		{"client can lower limit", "0.1", `,"max_steps":5`, http.StatusBadRequest},
		{"client limit at count", "0.1", `,"max_steps":10`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, router, fmt.Sprintf(body, tt.h, tt.extra))
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusBadRequest {
				var resp ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, CodeInvalidRequest, resp.Code)
			}
		})
	}
}

func TestStepLimit(t *testing.T) {
	h := NewHandlers(experiment.NewRegistry(), nil, nil)
	assert.Equal(t, dynamo.DefaultMaxSteps, h.stepLimit(0))
	assert.Equal(t, dynamo.DefaultMaxSteps, h.stepLimit(dynamo.DefaultMaxSteps*2))
	assert.Equal(t, 7, h.stepLimit(7))
}

func TestHandleSolve_BodyTooLarge(t *testing.T) {
	router := setupTestRouter()
	big := `{"slope":"` + strings.Repeat("1+", maxBodyBytes) + `1","x0":0,"y0":1,"h":0.1,"x_end":1}`
	w := post(t, router, big)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleMethods(t *testing.T) {
	router := setupTestRouter()
	req, _ := http.NewRequest(http.MethodGet, "/v1/methods", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp MethodsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Methods, 4)
	names := make([]string, len(resp.Methods))
	for i, m := range resp.Methods {
		names[i] = m.Name
	}
	assert.Equal(t, []string{"euler", "heun", "midpoint", "rk4"}, names)
}

func TestHealthAndMetrics(t *testing.T) {
	router := setupTestRouter()

	req, _ := http.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	post(t, router, `{"slope":"y","x0":0,"y0":1,"h":0.5,"x_end":1}`)

	req, _ = http.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("odetrace_solve_requests_total")))
}
