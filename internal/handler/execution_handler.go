package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"agent-config-service/internal/fallback"
	"agent-config-service/internal/store"
	"agent-config-service/pkg/logger"
	"agent-config-service/prometheus"
)

// ResolveAgent is the execution-time read path used by the
// call-handling process. It does not go through the authenticated
// API, but the caller must still name the tenant explicitly; there is
// no default tenant. When the relational store has no matching agent
// the handler consults the migration fallback store, if configured.
func (h *Handler) ResolveAgent(c echo.Context) error {
	log := logger.FromContext(c)

	agentID := c.Param("agent_id")
	tenantIDParam := c.QueryParam("tenant_id")
	if tenantIDParam == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}
	tenantID, err := strconv.ParseUint(tenantIDParam, 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant_id"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	resolved, err := h.store.ResolveForExecution(agentID, uint(tenantID))
	if err == nil {
		prometheus.RecordExecutionResolve("hit")
		response := echo.Map{"agent_config": resolved.Config}
		if resolved.Prompts != nil {
			response["agent_prompts"] = resolved.Prompts
		}
		return c.JSON(http.StatusOK, response)
	}

	if !errors.Is(err, store.ErrNotFound) {
		log.Error("Execution resolution failed",
			zap.String("agent_id", agentID),
			zap.Uint64("tenant_id", tenantID),
			zap.Error(err))
		return respondStoreError(c, err)
	}

	// Migration window: agents created under the prior storage scheme
	// live in the key-value store until backfilled.
	if h.fallback != nil {
		config, fbErr := h.fallback.GetAgentConfig(c.Request().Context(), agentID)
		if fbErr == nil {
			prometheus.RecordExecutionResolve("fallback_hit")
			log.Info("Agent resolved from fallback store", zap.String("agent_id", agentID))
			return c.JSON(http.StatusOK, echo.Map{"agent_config": config})
		}
		if !errors.Is(fbErr, fallback.ErrNotFound) {
			log.Error("Fallback lookup failed", zap.String("agent_id", agentID), zap.Error(fbErr))
		}
	}

	prometheus.RecordExecutionResolve("miss")
	return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
}
