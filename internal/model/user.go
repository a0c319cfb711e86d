package model

import (
	"time"
)

// User roles within a tenant.
const (
	RoleOwner = "owner"
	RoleUser  = "user"
)

// User represents an authenticated principal. A user belongs to
// exactly one tenant; the binding is immutable after creation.
type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Email          string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	HashedPassword string    `json:"-" gorm:"type:varchar(255);not null"`
	TenantID       uint      `json:"tenant_id" gorm:"index;not null"`
	Role           string    `json:"role" gorm:"type:varchar(50);not null;default:'user'"`
	Active         bool      `json:"active" gorm:"default:true;not null"`
	CreatedAt      time.Time `json:"created_at"`
}
