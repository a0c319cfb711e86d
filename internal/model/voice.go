package model

import (
	"time"
)

// Voice is one entry in the static, read-only voice catalog. Rows are
// loaded by the seed-voices command and never mutated by the service.
type Voice struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	VoiceID   string    `json:"voice_id" gorm:"type:varchar(255);not null"`
	Provider  string    `json:"provider" gorm:"type:varchar(50);index;not null"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Model     string    `json:"model" gorm:"type:varchar(255);not null"`
	Accent    string    `json:"accent" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
}
