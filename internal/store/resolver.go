package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"agent-config-service/internal/model"
)

// ResolvedAgent is the execution-time view of an agent: the active
// configuration payload with the agent's display fields merged in,
// plus the active prompt payload when one exists.
type ResolvedAgent struct {
	Config  map[string]interface{}
	Prompts map[string]interface{} // nil when the agent has no prompt document
}

// ResolveForExecution assembles the currently active configuration and
// prompt pair for an agent addressed by its external UUID. Only active
// agents of active tenants resolve; a disabled or deleted agent, a
// foreign tenant, a suspended tenant and a missing agent all report
// the same not-found so the caller can fall back to its migration
// lookup. The caller always supplies the tenant explicitly.
func (s *Store) ResolveForExecution(agentUUID string, tenantID uint) (*ResolvedAgent, error) {
	var tenant model.Tenant
	err := s.db.Where("id = ? AND active = ?", tenantID, true).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageError(err)
	}

	var agent model.Agent
	err = s.db.
		Where("tenant_id = ? AND uuid = ? AND status = ?", tenantID, agentUUID, model.AgentStatusActive).
		First(&agent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageError(err)
	}

	configDoc, err := s.GetActiveDocument(agent.ID, model.KindConfiguration)
	if err != nil {
		// An agent without a configuration is unusable for execution.
		return nil, err
	}

	config := map[string]interface{}{}
	if err := json.Unmarshal([]byte(configDoc.Payload), &config); err != nil {
		return nil, fmt.Errorf("decode configuration payload: %w", err)
	}
	config["agent_name"] = agent.Name
	config["agent_welcome_message"] = agent.WelcomeMessage

	resolved := &ResolvedAgent{Config: config}

	promptDoc, err := s.GetActiveDocument(agent.ID, model.KindPrompt)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return resolved, nil
		}
		return nil, err
	}

	prompts := map[string]interface{}{}
	if err := json.Unmarshal([]byte(promptDoc.Payload), &prompts); err != nil {
		return nil, fmt.Errorf("decode prompt payload: %w", err)
	}
	resolved.Prompts = prompts

	return resolved, nil
}
