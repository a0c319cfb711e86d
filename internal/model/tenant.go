package model

import (
	"time"
)

// Tenant represents an isolated customer account.
// All agents and users are partitioned by tenant; the slug is the
// URL-safe handle assigned once at creation and never changed.
type Tenant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Slug      string    `json:"slug" gorm:"type:varchar(255);uniqueIndex;not null"`
	Active    bool      `json:"active" gorm:"default:true;not null"`
	CreatedAt time.Time `json:"created_at"`
}
