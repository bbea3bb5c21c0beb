package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan is a tenant's subscription tier.
type Plan string

const (
	PlanFree  Plan = "FREE"
	PlanPro   Plan = "PRO"
	PlanUltra Plan = "ULTRA"
)

// Valid reports whether p is one of the known plan tiers.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanUltra:
		return true
	}
	return false
}

// Tenant represents a customer organization. It is the unit of isolation for
// users, API keys and channel configs. Tenants are suspended, never deleted.
type Tenant struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey"`
	Email       string    `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Plan        Plan      `json:"plan" gorm:"type:varchar(20);not null;default:'FREE'"`
	IsSuspended bool      `json:"is_suspended" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
