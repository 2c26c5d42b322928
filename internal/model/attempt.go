package model

import (
	"time"

	"gorm.io/gorm"
)

// Attempt lifecycle: in_progress -> submitted -> graded (terminal).
const (
	AttemptStatusInProgress = "in_progress"
	AttemptStatusSubmitted  = "submitted"
	AttemptStatusGraded     = "graded"
)

// Attempt is one student's instance of taking a quiz. Attempts are retained
// forever for history and statistics; they are never deleted.
type Attempt struct {
	ID                 uint           `gorm:"primarykey" json:"id"`
	QuizID             uint           `json:"quiz_id" gorm:"not null;index"`
	Quiz               Quiz           `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
	StudentID          uint           `json:"student_id" gorm:"not null;index"`
	Status             string         `json:"status" gorm:"not null;default:'in_progress';index"`
	StartedAt          time.Time      `json:"started_at" gorm:"not null"` // set once at creation
	SubmittedAt        *time.Time     `json:"submitted_at,omitempty"`
	GradedAt           *time.Time     `json:"graded_at,omitempty"`
	TotalMarksObtained *float64       `json:"total_marks_obtained,omitempty"`
	Answers            []Answer       `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}
