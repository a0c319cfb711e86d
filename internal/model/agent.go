package model

import (
	"time"
)

// AgentStatus is the agent lifecycle state.
type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "active"
	AgentStatusDisabled AgentStatus = "disabled"
	AgentStatusDeleted  AgentStatus = "deleted"
)

// Valid reports whether s is a known status value.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusActive, AgentStatusDisabled, AgentStatusDeleted:
		return true
	}
	return false
}

// CanTransitionTo encodes the lifecycle state machine:
// active -> disabled, active -> deleted, disabled -> deleted.
// Deleted is terminal.
func (s AgentStatus) CanTransitionTo(next AgentStatus) bool {
	switch s {
	case AgentStatusActive:
		return next == AgentStatusDisabled || next == AgentStatusDeleted
	case AgentStatusDisabled:
		return next == AgentStatusDeleted
	}
	return false
}

// Agent represents a tenant-owned configurable voice agent. The UUID
// is the externally visible identifier; it is unique process-wide and
// never reused. TenantID never changes after creation. Deleted agents
// keep their rows and documents for audit but drop out of every normal
// query.
type Agent struct {
	ID              uint        `json:"id" gorm:"primaryKey"`
	UUID            string      `json:"uuid" gorm:"type:varchar(36);uniqueIndex;not null"`
	TenantID        uint        `json:"tenant_id" gorm:"index:idx_agents_tenant_uuid;index:idx_agents_tenant_status;not null"`
	CreatedByUserID uint        `json:"created_by_user_id" gorm:"index;not null"`
	Name            string      `json:"name" gorm:"type:varchar(255);not null"`
	AgentType       string      `json:"agent_type" gorm:"type:varchar(50);not null;default:'other'"`
	Status          AgentStatus `json:"status" gorm:"type:varchar(20);index:idx_agents_tenant_status;not null;default:'active'"`
	WelcomeMessage  string      `json:"welcome_message" gorm:"type:text"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	DeletedAt       *time.Time  `json:"deleted_at,omitempty"`
}
