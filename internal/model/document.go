package model

import (
	"time"
)

// DocumentKind distinguishes the two versioned payload types attached
// to an agent.
type DocumentKind string

const (
	KindConfiguration DocumentKind = "configuration"
	KindPrompt        DocumentKind = "prompt"
)

// Valid reports whether k is a known document kind.
func (k DocumentKind) Valid() bool {
	return k == KindConfiguration || k == KindPrompt
}

// AgentDocument is one immutable version of an agent's configuration
// or prompt payload. Rows are append-only: once written, only the
// Active flag ever changes, flipped exactly once from true to false
// when a newer version supersedes it. For a given (agent, kind) the
// versions form a gapless sequence starting at 1 and at most one row
// is active, both enforced by unique indexes created at migration
// time. The payload is stored as opaque JSON.
type AgentDocument struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	AgentID   uint         `json:"agent_id" gorm:"index:idx_agent_documents_active;not null"`
	Kind      DocumentKind `json:"kind" gorm:"type:varchar(20);index:idx_agent_documents_active;not null"`
	Payload   string       `json:"payload" gorm:"type:jsonb;not null"`
	Version   int          `json:"version" gorm:"not null"`
	Active    bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time    `json:"created_at"`
}
