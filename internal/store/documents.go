package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"agent-config-service/internal/model"
)

// putRetryBackoff is the pause before the single retry of a failed
// version transition.
const putRetryBackoff = 50 * time.Millisecond

// PutNewVersion supersedes the current active document for
// (agent, kind) with a new version carrying payloadJSON. The flip of
// the old row and the insert of the new one run in a single
// transaction; on failure nothing is applied. Two concurrent writers
// racing for the same slot trip the unique indexes, in which case the
// losing transaction rolls back and is retried exactly once.
func (s *Store) PutNewVersion(agentID uint, kind model.DocumentKind, payloadJSON string) (*model.AgentDocument, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown document kind %q", ErrValidation, kind)
	}
	if payloadJSON == "" {
		return nil, fmt.Errorf("%w: payload is required", ErrValidation)
	}

	var doc *model.AgentDocument
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			time.Sleep(putRetryBackoff)
		}
		err = s.db.Transaction(func(tx *gorm.DB) error {
			var txErr error
			doc, txErr = putNewVersionTx(tx, agentID, kind, payloadJSON)
			return txErr
		})
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, ErrStorage) {
			return nil, err
		}
	}
	return nil, err
}

// putNewVersionTx performs the deactivate-then-insert sequence inside
// an existing transaction. The caller owns commit and rollback.
func putNewVersionTx(tx *gorm.DB, agentID uint, kind model.DocumentKind, payloadJSON string) (*model.AgentDocument, error) {
	// Flip the current active row, if any. Under read committed a
	// concurrent writer blocks here on the row lock until we commit.
	err := tx.Model(&model.AgentDocument{}).
		Where("agent_id = ? AND kind = ? AND active = ?", agentID, kind, true).
		Update("active", false).Error
	if err != nil {
		return nil, storageError(err)
	}

	var current int
	err = tx.Model(&model.AgentDocument{}).
		Where("agent_id = ? AND kind = ?", agentID, kind).
		Select("COALESCE(MAX(version), 0)").
		Scan(&current).Error
	if err != nil {
		return nil, storageError(err)
	}

	doc := model.AgentDocument{
		AgentID: agentID,
		Kind:    kind,
		Payload: payloadJSON,
		Version: current + 1,
		Active:  true,
	}
	if err := tx.Create(&doc).Error; err != nil {
		// Includes unique-index violations from writers that raced us
		// to the same version slot or to the active flag.
		return nil, storageError(err)
	}
	return &doc, nil
}

// GetActiveDocument returns the single active version for
// (agent, kind), or ErrNotFound when no version exists yet.
func (s *Store) GetActiveDocument(agentID uint, kind model.DocumentKind) (*model.AgentDocument, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown document kind %q", ErrValidation, kind)
	}

	var doc model.AgentDocument
	err := s.db.
		Where("agent_id = ? AND kind = ? AND active = ?", agentID, kind, true).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageError(err)
	}
	return &doc, nil
}

// GetDocumentHistory returns every version for (agent, kind) in
// ascending version order. Rows are never deleted, so this is the
// complete audit trail.
func (s *Store) GetDocumentHistory(agentID uint, kind model.DocumentKind) ([]model.AgentDocument, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown document kind %q", ErrValidation, kind)
	}

	var docs []model.AgentDocument
	err := s.db.
		Where("agent_id = ? AND kind = ?", agentID, kind).
		Order("version ASC").
		Find(&docs).Error
	if err != nil {
		return nil, storageError(err)
	}
	return docs, nil
}
