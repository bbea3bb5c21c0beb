package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationStatus is the delivery state of a queued notification.
type NotificationStatus string

const (
	NotificationQueued   NotificationStatus = "QUEUED"
	NotificationSending  NotificationStatus = "SENDING"
	NotificationSent     NotificationStatus = "SENT"
	NotificationFailed   NotificationStatus = "FAILED"
	NotificationCanceled NotificationStatus = "CANCELED"
)

// Notification is a queued message for a user. Dispatch is handled elsewhere;
// this service only cancels in-flight notifications when a user is
// deactivated or hard-deleted.
type Notification struct {
	ID        string             `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string             `json:"user_id" gorm:"type:uuid;index;not null"`
	Status    NotificationStatus `json:"status" gorm:"type:varchar(20);not null;default:'QUEUED'"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
