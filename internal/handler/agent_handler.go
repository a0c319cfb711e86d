package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"agent-config-service/internal/model"
	"agent-config-service/internal/store"
	"agent-config-service/pkg/logger"
	"agent-config-service/prometheus"
)

// AgentPayload is the request body for agent creation and update. The
// configuration document is opaque apart from the display fields
// lifted onto the agent record; prompts are optional.
type AgentPayload struct {
	AgentConfig  map[string]interface{} `json:"agent_config"`
	AgentPrompts map[string]interface{} `json:"agent_prompts,omitempty"`
}

func (p *AgentPayload) configField(key, fallback string) string {
	if v, ok := p.AgentConfig[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// CreateAgent creates an agent with its first configuration version
// (and first prompt version when provided) for the caller's tenant.
func (h *Handler) CreateAgent(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAgentOperation("create")

	userID, tenantID, ok := principal(c)
	if !ok {
		log.Error("Failed to get principal from context")
		prometheus.RecordAuthError("missing_principal")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req AgentPayload
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse agent creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if len(req.AgentConfig) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "agent_config is required"})
	}

	req.AgentConfig["assistant_status"] = "seeding"
	configJSON, err := json.Marshal(req.AgentConfig)
	if err != nil {
		log.Error("Failed to encode agent configuration", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agent_config"})
	}

	promptJSON := ""
	if len(req.AgentPrompts) > 0 {
		raw, err := json.Marshal(req.AgentPrompts)
		if err != nil {
			log.Error("Failed to encode agent prompts", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agent_prompts"})
		}
		promptJSON = string(raw)
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	agent, err := h.store.CreateAgent(
		tenantID,
		userID,
		req.configField("agent_name", "Unnamed Agent"),
		req.configField("agent_type", "other"),
		req.configField("agent_welcome_message", ""),
		string(configJSON),
		promptJSON,
	)
	if err != nil {
		log.Error("Failed to create agent", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return respondStoreError(c, err)
	}

	prometheus.RecordDocumentVersion(string(model.KindConfiguration))
	if promptJSON != "" {
		prometheus.RecordDocumentVersion(string(model.KindPrompt))
	}

	log.Info("Agent created",
		zap.String("agent_id", agent.UUID),
		zap.String("name", agent.Name),
		zap.Uint("tenant_id", tenantID))

	return c.JSON(http.StatusCreated, echo.Map{
		"agent_id": agent.UUID,
		"state":    "created",
	})
}

// GetAgent returns the agent's active configuration document with the
// active prompts attached, addressed by external id within the
// caller's tenant.
func (h *Handler) GetAgent(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAgentOperation("get")

	_, tenantID, ok := principal(c)
	if !ok {
		prometheus.RecordAuthError("missing_principal")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	agent, err := h.store.GetAgent(tenantID, c.Param("agent_id"))
	if err != nil {
		return respondStoreError(c, err)
	}

	result := map[string]interface{}{}
	configDoc, err := h.store.GetActiveDocument(agent.ID, model.KindConfiguration)
	if err == nil {
		if jsonErr := json.Unmarshal([]byte(configDoc.Payload), &result); jsonErr != nil {
			log.Error("Failed to decode configuration payload",
				zap.String("agent_id", agent.UUID), zap.Error(jsonErr))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return respondStoreError(c, err)
	}

	promptDoc, err := h.store.GetActiveDocument(agent.ID, model.KindPrompt)
	if err == nil {
		prompts := map[string]interface{}{}
		if jsonErr := json.Unmarshal([]byte(promptDoc.Payload), &prompts); jsonErr == nil {
			result["agent_prompts"] = prompts
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return respondStoreError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// ListAgents lists the tenant's agents, newest first.
func (h *Handler) ListAgents(c echo.Context) error {
	prometheus.RecordAgentOperation("list")

	_, tenantID, ok := principal(c)
	if !ok {
		prometheus.RecordAuthError("missing_principal")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	agents, err := h.store.ListAgents(tenantID)
	if err != nil {
		return respondStoreError(c, err)
	}

	list := make([]map[string]interface{}, 0, len(agents))
	for _, agent := range agents {
		list = append(list, map[string]interface{}{
			"agent_id":   agent.UUID,
			"name":       agent.Name,
			"agent_type": agent.AgentType,
			"status":     agent.Status,
			"created_at": agent.CreatedAt.Format(time.RFC3339),
			"updated_at": agent.UpdatedAt.Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"agents": list})
}

// UpdateAgent supersedes the agent's configuration (and prompts, when
// supplied) with new versions and refreshes the display metadata from
// the configuration fields.
func (h *Handler) UpdateAgent(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAgentOperation("update")

	_, tenantID, ok := principal(c)
	if !ok {
		prometheus.RecordAuthError("missing_principal")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req AgentPayload
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse agent update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if len(req.AgentConfig) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "agent_config is required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	agent, err := h.store.GetAgent(tenantID, c.Param("agent_id"))
	if err != nil {
		return respondStoreError(c, err)
	}

	req.AgentConfig["assistant_status"] = "updated"
	configJSON, err := json.Marshal(req.AgentConfig)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agent_config"})
	}

	if _, err := h.store.PutNewVersion(agent.ID, model.KindConfiguration, string(configJSON)); err != nil {
		log.Error("Failed to write configuration version",
			zap.String("agent_id", agent.UUID), zap.Error(err))
		return respondStoreError(c, err)
	}
	prometheus.RecordDocumentVersion(string(model.KindConfiguration))

	if len(req.AgentPrompts) > 0 {
		promptJSON, err := json.Marshal(req.AgentPrompts)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid agent_prompts"})
		}
		if _, err := h.store.PutNewVersion(agent.ID, model.KindPrompt, string(promptJSON)); err != nil {
			log.Error("Failed to write prompt version",
				zap.String("agent_id", agent.UUID), zap.Error(err))
			return respondStoreError(c, err)
		}
		prometheus.RecordDocumentVersion(string(model.KindPrompt))
	}

	name := req.configField("agent_name", agent.Name)
	agentType := req.configField("agent_type", agent.AgentType)
	welcome := req.configField("agent_welcome_message", agent.WelcomeMessage)
	_, err = h.store.UpdateAgentMetadata(tenantID, agent.UUID, store.AgentMetadataUpdate{
		Name:           &name,
		AgentType:      &agentType,
		WelcomeMessage: &welcome,
	})
	if err != nil {
		log.Error("Failed to update agent metadata",
			zap.String("agent_id", agent.UUID), zap.Error(err))
		return respondStoreError(c, err)
	}

	log.Info("Agent updated", zap.String("agent_id", agent.UUID), zap.Uint("tenant_id", tenantID))

	return c.JSON(http.StatusOK, echo.Map{
		"agent_id": agent.UUID,
		"state":    "updated",
	})
}

// DeleteAgent soft-deletes the agent. A second delete of the same
// agent reports not-found.
func (h *Handler) DeleteAgent(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAgentOperation("delete")

	_, tenantID, ok := principal(c)
	if !ok {
		prometheus.RecordAuthError("missing_principal")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	agentID := c.Param("agent_id")
	if err := h.store.SoftDeleteAgent(tenantID, agentID); err != nil {
		return respondStoreError(c, err)
	}

	log.Info("Agent deleted", zap.String("agent_id", agentID), zap.Uint("tenant_id", tenantID))

	return c.JSON(http.StatusOK, echo.Map{
		"agent_id": agentID,
		"state":    "deleted",
	})
}

// SetAgentStatus transitions the agent's lifecycle status through the
// allowed state machine.
func (h *Handler) SetAgentStatus(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAgentOperation("set_status")

	_, tenantID, ok := principal(c)
	if !ok {
		prometheus.RecordAuthError("missing_principal")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Status model.AgentStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	agent, err := h.store.SetAgentStatus(tenantID, c.Param("agent_id"), req.Status)
	if err != nil {
		return respondStoreError(c, err)
	}

	log.Info("Agent status changed",
		zap.String("agent_id", agent.UUID),
		zap.String("status", string(agent.Status)))

	return c.JSON(http.StatusOK, echo.Map{
		"agent_id": agent.UUID,
		"status":   agent.Status,
	})
}

// GetAgentHistory returns the full version history for one document
// kind of the agent, oldest version first.
func (h *Handler) GetAgentHistory(c echo.Context) error {
	prometheus.RecordAgentOperation("history")

	_, tenantID, ok := principal(c)
	if !ok {
		prometheus.RecordAuthError("missing_principal")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	kind := model.DocumentKind(c.QueryParam("kind"))
	if kind == "" {
		kind = model.KindConfiguration
	}
	if !kind.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be configuration or prompt"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	agent, err := h.store.GetAgent(tenantID, c.Param("agent_id"))
	if err != nil {
		return respondStoreError(c, err)
	}

	docs, err := h.store.GetDocumentHistory(agent.ID, kind)
	if err != nil {
		return respondStoreError(c, err)
	}

	versions := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		payload := map[string]interface{}{}
		if err := json.Unmarshal([]byte(doc.Payload), &payload); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
		versions = append(versions, map[string]interface{}{
			"version":    doc.Version,
			"active":     doc.Active,
			"payload":    payload,
			"created_at": doc.CreatedAt.Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"agent_id": agent.UUID,
		"kind":     kind,
		"versions": versions,
	})
}
