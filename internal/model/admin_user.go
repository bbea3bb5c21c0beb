package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminRole is the platform-level role of an administrator.
type AdminRole string

const (
	RolePlatformAdmin AdminRole = "PLATFORM_ADMIN"
)

// AdminUser represents a platform administrator. Admins are created only by
// the seed command, never through the API.
type AdminUser struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	Role         AdminRole `json:"role" gorm:"type:varchar(50);not null;default:'PLATFORM_ADMIN'"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (a *AdminUser) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
