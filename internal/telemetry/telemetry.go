// Package telemetry exports Prometheus metrics for report generation and
// scheduled delivery.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the analytics Prometheus metrics.
type Metrics struct {
	ReportsGenerated *prometheus.CounterVec
	ReportsFailed    *prometheus.CounterVec
	ReportDuration   *prometheus.HistogramVec

	ScheduledSent   prometheus.Counter
	ScheduledFailed prometheus.Counter

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics registers the analytics metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		ReportsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_reports_generated_total",
			Help: "Total reports generated, by report and return type",
		}, []string{"report_type", "return_type"}),

		ReportsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_reports_failed_total",
			Help: "Total report generations that failed",
		}, []string{"report_type"}),

		ReportDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analytics_report_duration_seconds",
			Help:    "Time to generate one report",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"report_type"}),

		ScheduledSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "analytics_scheduled_reports_sent_total",
			Help: "Total scheduled report emails sent",
		}),

		ScheduledFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "analytics_scheduled_reports_failed_total",
			Help: "Total scheduled report deliveries that failed",
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_http_requests_total",
			Help: "Total HTTP requests, by method, path and status",
		}, []string{"method", "path", "status"}),

		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analytics_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// FullPath keeps label cardinality bounded; unmatched routes
		// collapse into one bucket.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.HTTPRequests.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(
			c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// ObserveReport records one report generation.
func (m *Metrics) ObserveReport(reportType, returnType string, duration time.Duration, err error) {
	if err != nil {
		m.ReportsFailed.WithLabelValues(reportType).Inc()
		return
	}
	m.ReportsGenerated.WithLabelValues(reportType, returnType).Inc()
	m.ReportDuration.WithLabelValues(reportType).Observe(duration.Seconds())
}
