package api

import (
	"github.com/gin-gonic/gin"

	"github.com/newsroom-cloud/analytics/internal/httpserver"
	"github.com/newsroom-cloud/analytics/internal/telemetry"
)

// SetupRoutes registers the report endpoints. Health and metrics stay
// public; the report group requires a bearer token when a secret is set.
func SetupRoutes(router *gin.Engine, handler *Handler, metrics *telemetry.Metrics, jwtSecret string) {
	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadinessCheck)
	if metrics != nil {
		router.Use(metrics.Middleware())
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	v1.Use(httpserver.JWTMiddleware(jwtSecret))
	{
		v1.GET("/reports", handler.ReportTypes)
		v1.POST("/reports/:report_type", handler.GenerateReport)
		v1.POST("/charts/render", handler.RenderChart)
	}
}
