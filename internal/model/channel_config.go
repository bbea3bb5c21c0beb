package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Channel identifies a notification delivery provider.
type Channel string

const (
	ChannelEmail    Channel = "EMAIL"
	ChannelExpoPush Channel = "EXPO_PUSH"
)

// Valid reports whether c is a supported channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelExpoPush:
		return true
	}
	return false
}

// ChannelConfig holds per-tenant delivery-provider settings. Each tenant may
// have at most one config per channel.
type ChannelConfig struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID       string    `json:"tenant_id" gorm:"type:uuid;uniqueIndex:uk_channel_config_tenant_channel;not null"`
	Channel        Channel   `json:"channel" gorm:"type:varchar(20);uniqueIndex:uk_channel_config_tenant_channel;not null"`
	ConfigJSON     string    `json:"config_json" gorm:"type:jsonb;not null"`
	AllowOverrides bool      `json:"allow_overrides" gorm:"default:false"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (c *ChannelConfig) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
