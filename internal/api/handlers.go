// Package api exposes the report endpoints over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/newsroom-cloud/analytics/internal/domain"
	"github.com/newsroom-cloud/analytics/internal/logger"
	"github.com/newsroom-cloud/analytics/internal/render"
	"github.com/newsroom-cloud/analytics/internal/service"
	"github.com/newsroom-cloud/analytics/internal/telemetry"
)

// Reports generates report payloads.
type Reports interface {
	GetReport(ctx context.Context, req *domain.ReportRequest) (map[string]any, error)
}

// ChartRenderer renders chart options to image bytes.
type ChartRenderer interface {
	Render(ctx context.Context, options map[string]any, mimetype string) ([]byte, string, error)
}

// Pinger checks backend connectivity for health endpoints.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the HTTP request handlers.
type Handler struct {
	reports  Reports
	renderer ChartRenderer
	backend  Pinger
	metrics  *telemetry.Metrics
	log      logger.Logger
}

// NewHandler creates the handler set.
func NewHandler(reports Reports, renderer ChartRenderer, backend Pinger, metrics *telemetry.Metrics, log logger.Logger) *Handler {
	return &Handler{
		reports:  reports,
		renderer: renderer,
		backend:  backend,
		metrics:  metrics,
		log:      log,
	}
}

// ErrorResponse is the error payload of every failed request.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// GenerateReport handles POST /reports/:report_type.
func (h *Handler) GenerateReport(c *gin.Context) {
	var req domain.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid report request body", logger.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "Invalid request body: " + err.Error(),
			Code:      "INVALID_REQUEST",
			Timestamp: time.Now(),
		})
		return
	}
	req.ReportType = c.Param("report_type")

	start := time.Now()
	payload, err := h.reports.GetReport(c.Request.Context(), &req)
	if h.metrics != nil {
		h.metrics.ObserveReport(req.ReportType, string(req.ReturnType), time.Since(start), err)
	}
	if err != nil {
		h.respondError(c, err, "report generation failed",
			logger.String("report_type", req.ReportType))
		return
	}

	c.JSON(http.StatusOK, payload)
}

// ReportTypes handles GET /reports.
func (h *Handler) ReportTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"report_types": service.ReportTypes()})
}

// renderRequest is the body of POST /charts/render.
type renderRequest struct {
	Options  map[string]any `json:"options"`
	MimeType string         `json:"mimetype"`
}

// RenderChart handles POST /charts/render: it forwards the chart options
// to the export server and streams the image back.
func (h *Handler) RenderChart(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "Invalid request body: " + err.Error(),
			Code:      "INVALID_REQUEST",
			Timestamp: time.Now(),
		})
		return
	}
	if req.MimeType == "" {
		req.MimeType = render.MimePNG
	}

	data, mimetype, err := h.renderer.Render(c.Request.Context(), req.Options, req.MimeType)
	if err != nil {
		h.respondError(c, err, "chart rendering failed",
			logger.String("mimetype", req.MimeType))
		return
	}

	c.Data(http.StatusOK, mimetype, data)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK

	if h.backend != nil {
		if err := h.backend.Ping(c.Request.Context()); err != nil {
			h.log.Warn("backend health check failed", logger.Error(err))
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
	})
}

// ReadinessCheck handles GET /ready.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	h.HealthCheck(c)
}

// respondError maps a report error onto its HTTP status and error code.
func (h *Handler) respondError(c *gin.Context, err error, msg string, fields ...logger.Field) {
	h.log.Error(msg, append(fields, logger.Error(err))...)

	code := "INTERNAL_ERROR"
	switch {
	case domain.IsBadRequest(err):
		code = "VALIDATION_ERROR"
	case domain.IsNotFound(err):
		code = "NOT_FOUND"
	}

	c.JSON(domain.StatusOf(err), ErrorResponse{
		Error:     err.Error(),
		Code:      code,
		Timestamp: time.Now(),
	})
}
