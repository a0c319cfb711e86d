package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"agent-config-service/pkg/logger"
	"agent-config-service/prometheus"
)

// ListVoices returns the static voice catalog.
func (h *Handler) ListVoices(c echo.Context) error {
	defer prometheus.TrackDBOperation("query")(time.Now())

	voices, err := h.store.ListVoices()
	if err != nil {
		logger.FromContext(c).Error("Failed to list voices")
		return respondStoreError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"voices": voices})
}

// GetVoice returns one voice catalog entry.
func (h *Handler) GetVoice(c echo.Context) error {
	defer prometheus.TrackDBOperation("query")(time.Now())

	voice, err := h.store.GetVoice(c.Param("id"))
	if err != nil {
		return respondStoreError(c, err)
	}

	return c.JSON(http.StatusOK, voice)
}
