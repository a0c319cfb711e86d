package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"agent-config-service/prometheus"
)

// HealthCheck handles the health check endpoint
func (h *Handler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": "agent-config-service",
	})
}

// Metrics serves the Prometheus metrics endpoint
func (h *Handler) Metrics(c echo.Context) error {
	handler := prometheus.GetPrometheusHandler()
	handler.ServeHTTP(c.Response(), c.Request())
	return nil
}
