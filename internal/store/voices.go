package store

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agent-config-service/internal/model"
)

// ListVoices returns the whole voice catalog.
func (s *Store) ListVoices() ([]model.Voice, error) {
	var voices []model.Voice
	if err := s.db.Order("provider, name").Find(&voices).Error; err != nil {
		return nil, storageError(err)
	}
	return voices, nil
}

// GetVoice looks a catalog entry up by its id.
func (s *Store) GetVoice(id string) (*model.Voice, error) {
	var voice model.Voice
	err := s.db.Where("id = ?", id).First(&voice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageError(err)
	}
	return &voice, nil
}

// SeedVoices loads catalog entries, skipping ids that already exist.
// The catalog is read-only at runtime; this is only called by the
// seeding command.
func (s *Store) SeedVoices(voices []model.Voice) (int, error) {
	if len(voices) == 0 {
		return 0, nil
	}
	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&voices)
	if result.Error != nil {
		return 0, storageError(result.Error)
	}
	return int(result.RowsAffected), nil
}
