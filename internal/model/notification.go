package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationPriorityLow    = "low"
	NotificationPriorityMedium = "medium"
	NotificationPriorityHigh   = "high"
	NotificationPriorityUrgent = "urgent"
)

// Well-known notification type tags produced by the fan-out service.
const (
	NotificationTypeQuizPublished = "quiz_published"
	NotificationTypeQuizSubmitted = "quiz_submitted"
	NotificationTypeQuizGraded    = "quiz_graded"
)

// Notification is a durable per-recipient record of a domain event.
// Rows are only ever mutated to flip the read flag.
type Notification struct {
	ID          string    `gorm:"primarykey;size:36" json:"id"`
	RecipientID uint      `json:"recipient_id" gorm:"not null;index"`
	SenderID    *uint     `json:"sender_id,omitempty"`
	Type        string    `json:"type" gorm:"not null"`
	Title       string    `json:"title" gorm:"not null"`
	Message     string    `json:"message" gorm:"type:text"`
	Priority    string    `json:"priority" gorm:"not null;default:'medium'"`
	Read        bool      `json:"read" gorm:"not null;default:false;index"`
	ActionURL   string    `json:"action_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
