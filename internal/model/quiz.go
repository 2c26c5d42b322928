package model

import (
	"time"

	"gorm.io/gorm"
)

// Quiz lifecycle is one-directional: draft -> published -> closed.
// A closed quiz is never republished.
const (
	QuizStatusDraft     = "draft"
	QuizStatusPublished = "published"
	QuizStatusClosed    = "closed"
)

type Quiz struct {
	ID                     uint           `gorm:"primarykey" json:"id"`
	Title                  string         `json:"title" gorm:"not null"`
	Description            string         `json:"description,omitempty"`
	Status                 string         `json:"status" gorm:"not null;default:'draft';index"`
	TotalMarks             float64        `json:"total_marks" gorm:"not null"`
	PassingMarks           float64        `json:"passing_marks" gorm:"not null"`
	DurationMinutes        *int           `json:"duration_minutes,omitempty"` // nil means untimed
	MaxAttempts            int            `json:"max_attempts" gorm:"not null;default:1"`
	ScheduledStart         *time.Time     `json:"scheduled_start,omitempty"`
	ScheduledEnd           *time.Time     `json:"scheduled_end,omitempty"`
	ShowResultsImmediately bool           `json:"show_results_immediately"`
	ClassID                uint           `json:"class_id" gorm:"not null;index"`
	Subject                string         `json:"subject,omitempty"`
	CreatedBy              uint           `json:"created_by" gorm:"not null;index"`
	Questions              []Question     `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`
}
