package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroom-cloud/analytics/internal/domain"
	"github.com/newsroom-cloud/analytics/internal/logger"
)

type stubReports struct {
	lastRequest *domain.ReportRequest
	payload     map[string]any
	err         error
}

func (s *stubReports) GetReport(_ context.Context, req *domain.ReportRequest) (map[string]any, error) {
	s.lastRequest = req
	return s.payload, s.err
}

type stubRenderer struct {
	data     []byte
	mimetype string
	err      error
}

func (s *stubRenderer) Render(context.Context, map[string]any, string) ([]byte, string, error) {
	return s.data, s.mimetype, s.err
}

type stubPinger struct{ err error }

func (s *stubPinger) Ping(context.Context) error { return s.err }

func newTestRouter(reports *stubReports, renderer *stubRenderer, backend *stubPinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(reports, renderer, backend, nil, logger.NewNop())
	router := gin.New()
	SetupRoutes(router, handler, nil, "")
	return router
}

func TestGenerateReport(t *testing.T) {
	reports := &stubReports{payload: map[string]any{"groups": map[string]any{"AAP": 3}}}
	router := newTestRouter(reports, &stubRenderer{}, &stubPinger{})

	body := `{"params": {"dates": {"filter": "yesterday"}}, "return_type": "aggregations"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/content_publishing", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, reports.lastRequest)
	assert.Equal(t, "content_publishing", reports.lastRequest.ReportType)
	assert.Equal(t, domain.DateFilterYesterday, reports.lastRequest.Params.Dates.Filter)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Contains(t, payload, "groups")
}

func TestGenerateReportValidationError(t *testing.T) {
	reports := &stubReports{err: domain.BadRequest("either source or params must be supplied")}
	router := newTestRouter(reports, &stubRenderer{}, &stubPinger{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/content_publishing", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
}

func TestGenerateReportBackendError(t *testing.T) {
	reports := &stubReports{err: domain.Internal(errors.New("connection refused"), "search failed")}
	router := newTestRouter(reports, &stubRenderer{}, &stubPinger{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/content_publishing", strings.NewReader(`{"params":{}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGenerateReportMalformedBody(t *testing.T) {
	router := newTestRouter(&stubReports{}, &stubRenderer{}, &stubPinger{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/content_publishing", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportTypes(t *testing.T) {
	router := newTestRouter(&stubReports{}, &stubRenderer{}, &stubPinger{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		ReportTypes []string `json:"report_types"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Contains(t, payload.ReportTypes, "source_category")
	assert.Contains(t, payload.ReportTypes, "user_activity")
}

func TestRenderChart(t *testing.T) {
	renderer := &stubRenderer{data: []byte("png-bytes"), mimetype: "image/png"}
	router := newTestRouter(&stubReports{}, renderer, &stubPinger{})

	body := `{"options": {"title": {"text": "Chart"}}, "mimetype": "image/png"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/charts/render", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", w.Body.String())
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(&stubReports{}, &stubRenderer{}, &stubPinger{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthCheckUnhealthy(t *testing.T) {
	router := newTestRouter(&stubReports{}, &stubRenderer{}, &stubPinger{err: errors.New("no nodes available")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
