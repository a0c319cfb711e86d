package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"agent-config-service/internal/model"
)

// CreateAgent creates an agent together with its first configuration
// version (and an optional first prompt version) in one transaction.
// The returned agent carries the freshly allocated external UUID.
func (s *Store) CreateAgent(tenantID, creatorID uint, name, agentType, welcomeMessage, configJSON, promptJSON string) (*model.Agent, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: agent name is required", ErrValidation)
	}
	if configJSON == "" {
		return nil, fmt.Errorf("%w: configuration payload is required", ErrValidation)
	}
	if agentType == "" {
		agentType = "other"
	}

	agent := model.Agent{
		UUID:            uuid.NewString(),
		TenantID:        tenantID,
		CreatedByUserID: creatorID,
		Name:            name,
		AgentType:       agentType,
		Status:          model.AgentStatusActive,
		WelcomeMessage:  welcomeMessage,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&agent).Error; err != nil {
			return storageError(err)
		}
		if _, err := putNewVersionTx(tx, agent.ID, model.KindConfiguration, configJSON); err != nil {
			return err
		}
		if promptJSON != "" {
			if _, err := putNewVersionTx(tx, agent.ID, model.KindPrompt, promptJSON); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// GetAgent fetches an agent by its external UUID within the caller's
// tenant. Deleted agents and agents of other tenants are both plain
// not-found.
func (s *Store) GetAgent(tenantID uint, agentUUID string) (*model.Agent, error) {
	var agent model.Agent
	err := s.db.
		Where("tenant_id = ? AND uuid = ? AND status <> ?", tenantID, agentUUID, model.AgentStatusDeleted).
		First(&agent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageError(err)
	}
	return &agent, nil
}

// GetAgentByID is the direct-by-id audit lookup. It is the only agent
// read that returns deleted rows and it is not tenant-scoped; keep it
// off request paths.
func (s *Store) GetAgentByID(id uint) (*model.Agent, error) {
	var agent model.Agent
	err := s.db.First(&agent, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageError(err)
	}
	return &agent, nil
}

// ListAgents returns the tenant's agents, newest first, excluding
// deleted ones.
func (s *Store) ListAgents(tenantID uint) ([]model.Agent, error) {
	var agents []model.Agent
	err := s.db.
		Where("tenant_id = ? AND status <> ?", tenantID, model.AgentStatusDeleted).
		Order("created_at DESC").
		Find(&agents).Error
	if err != nil {
		return nil, storageError(err)
	}
	return agents, nil
}

// AgentMetadataUpdate carries the optional fields of a partial
// metadata update; nil means leave unchanged.
type AgentMetadataUpdate struct {
	Name           *string
	AgentType      *string
	WelcomeMessage *string
}

// UpdateAgentMetadata applies a partial update to the agent's display
// fields within the caller's tenant.
func (s *Store) UpdateAgentMetadata(tenantID uint, agentUUID string, update AgentMetadataUpdate) (*model.Agent, error) {
	changes := map[string]interface{}{}
	if update.Name != nil {
		if *update.Name == "" {
			return nil, fmt.Errorf("%w: agent name cannot be empty", ErrValidation)
		}
		changes["name"] = *update.Name
	}
	if update.AgentType != nil {
		changes["agent_type"] = *update.AgentType
	}
	if update.WelcomeMessage != nil {
		changes["welcome_message"] = *update.WelcomeMessage
	}

	agent, err := s.GetAgent(tenantID, agentUUID)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return agent, nil
	}

	result := s.db.Model(&model.Agent{}).
		Where("tenant_id = ? AND uuid = ? AND status <> ?", tenantID, agentUUID, model.AgentStatusDeleted).
		Updates(changes)
	if result.Error != nil {
		return nil, storageError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetAgent(tenantID, agentUUID)
}

// SoftDeleteAgent marks the agent deleted and stamps deleted_at. The
// operation is deliberately not idempotent: deleting an already
// deleted (or absent, or foreign-tenant) agent reports not-found.
func (s *Store) SoftDeleteAgent(tenantID uint, agentUUID string) error {
	now := time.Now()
	result := s.db.Model(&model.Agent{}).
		Where("tenant_id = ? AND uuid = ? AND status <> ?", tenantID, agentUUID, model.AgentStatusDeleted).
		Updates(map[string]interface{}{
			"status":     model.AgentStatusDeleted,
			"deleted_at": &now,
		})
	if result.Error != nil {
		return storageError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAgentStatus transitions the agent's lifecycle status. Only the
// transitions active->disabled, active->deleted and disabled->deleted
// are legal; deleted is terminal.
func (s *Store) SetAgentStatus(tenantID uint, agentUUID string, next model.AgentStatus) (*model.Agent, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, next)
	}

	agent, err := s.GetAgent(tenantID, agentUUID)
	if err != nil {
		return nil, err
	}
	if !agent.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: cannot transition agent from %s to %s", ErrValidation, agent.Status, next)
	}

	changes := map[string]interface{}{"status": next}
	if next == model.AgentStatusDeleted {
		now := time.Now()
		changes["deleted_at"] = &now
	}

	result := s.db.Model(&model.Agent{}).
		Where("tenant_id = ? AND uuid = ? AND status = ?", tenantID, agentUUID, agent.Status).
		Updates(changes)
	if result.Error != nil {
		return nil, storageError(result.Error)
	}
	if result.RowsAffected == 0 {
		// Lost a race with a concurrent transition.
		return nil, ErrNotFound
	}

	agent.Status = next
	return agent, nil
}
