package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an end user of a tenant, identified by the tenant's own external ID.
// The (tenant_id, external_id) pair is unique across the store.
type User struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	ExternalID string    `json:"external_id" gorm:"type:varchar(255);uniqueIndex:uk_user_tenant_external;not null"`
	TenantID   string    `json:"tenant_id" gorm:"type:uuid;uniqueIndex:uk_user_tenant_external;not null"`
	IsActive   bool      `json:"is_active" gorm:"default:true"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
