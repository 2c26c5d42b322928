package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeTrueFalse      = "true_false"
	QuestionTypeShortAnswer    = "short_answer"
)

// IsChoiceType reports whether a question type carries a fixed option set.
func IsChoiceType(questionType string) bool {
	return questionType == QuestionTypeMultipleChoice || questionType == QuestionTypeTrueFalse
}

type Question struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	QuizID      uint           `json:"quiz_id" gorm:"not null;index"`
	Text        string         `json:"text" gorm:"type:text;not null"`
	Type        string         `json:"type" gorm:"not null"`
	Marks       float64        `json:"marks" gorm:"not null"`
	OrderInQuiz int            `json:"order_in_quiz" gorm:"not null"`
	Options     datatypes.JSON `json:"options,omitempty"` // []string for choice types
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
