package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// APIKey is a tenant bearer credential. Only the SHA-256 hash of the key is
// stored; the plaintext is returned exactly once at creation time. Keys are
// deactivated rather than deleted to preserve audit history.
type APIKey struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	KeyHash   string    `json:"-" gorm:"type:varchar(64);uniqueIndex;not null"`
	TenantID  string    `json:"tenant_id" gorm:"type:uuid;index;not null"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tenant Tenant `json:"-" gorm:"foreignKey:TenantID"`
}

func (k *APIKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return nil
}
