package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/san-kum/odetrace/internal/config"
	"github.com/san-kum/odetrace/internal/dynamo"
	"github.com/san-kum/odetrace/internal/experiment"
	"github.com/san-kum/odetrace/internal/expr"
	"github.com/san-kum/odetrace/internal/metrics"
)

// Handlers serves the solve API.
type Handlers struct {
	registry *experiment.Registry
	logger   *slog.Logger
	defaults *config.Config
}

func NewHandlers(registry *experiment.Registry, defaults *config.Config, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if defaults == nil {
		defaults = config.DefaultConfig()
	}
	return &Handlers{registry: registry, logger: logger, defaults: defaults}
}

// HandleSolve handles POST /v1/solve.
//
// Response:
//
//	200 OK: SolveResponse, status done or failed
//	400 Bad Request: FORMULA_ERROR or INVALID_REQUEST
func (h *Handlers) HandleSolve(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleSolve")

	var req SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("invalid request body", "error", err)
		solveRequests.WithLabelValues("", "rejected").Inc()
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid request body",
			Code:    CodeInvalidRequest,
			Details: err.Error(),
		})
		return
	}

	cfg := h.defaults.Clone()
	cfg.Slope = req.Slope
	cfg.Exact = req.Exact
	cfg.X0, cfg.Y0, cfg.H, cfg.XEnd = *req.X0, *req.Y0, *req.H, *req.XEnd
	if req.Method != "" {
		cfg.Method = req.Method
	}
	cfg.MaxSteps = h.stepLimit(req.MaxSteps)

	start := time.Now()
	exp, err := experiment.New(cfg, experiment.WithRegistry(h.registry), experiment.WithLogger(logger))
	if err != nil {
		h.reject(c, logger, cfg.Method, err)
		return
	}

	trace, err := exp.Run(c.Request.Context())
	solveDuration.WithLabelValues(cfg.Method).Observe(time.Since(start).Seconds())
	if trace == nil {
		h.reject(c, logger, cfg.Method, err)
		return
	}

	solveRequests.WithLabelValues(cfg.Method, trace.Phase.String()).Inc()
	solveRecords.Observe(float64(trace.Len()))
	if err != nil {
		logger.Info("run stopped early", "error", err, "records", trace.Len())
	}

	c.JSON(http.StatusOK, SolveResponse{
		RequestID: requestID,
		Summary:   metrics.Summarize(trace),
		Trace:     trace,
	})
}

// stepLimit lets a client lower the server's step cap but never raise it.
func (h *Handlers) stepLimit(requested int) int {
	limit := h.defaults.MaxSteps
	if limit <= 0 {
		limit = dynamo.DefaultMaxSteps
	}
	if requested > 0 {
		return min(requested, limit)
	}
	return limit
}

func (h *Handlers) reject(c *gin.Context, logger *slog.Logger, method string, err error) {
	status, code := http.StatusBadRequest, CodeInvalidRequest
	var fe *expr.FormulaError
	switch {
	case errors.As(err, &fe):
		code = CodeFormulaError
	case errors.Is(err, dynamo.ErrInvalidRequest):
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusServiceUnavailable, CodeInternal
	}

	logger.Warn("solve rejected", "code", code, "error", err)
	solveRequests.WithLabelValues(method, "rejected").Inc()
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// HandleMethods handles GET /v1/methods.
func (h *Handlers) HandleMethods(c *gin.Context) {
	c.JSON(http.StatusOK, MethodsResponse{Methods: h.registry.Info()})
}

func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
