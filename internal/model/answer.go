package model

import (
	"time"

	"gorm.io/datatypes"
)

// Answer holds a student's response to one question within an attempt.
// The (attempt_id, question_id) pair is unique: autosave upserts against it,
// so concurrent saves for the same question can never create duplicate rows.
type Answer struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	AttemptID       uint           `json:"attempt_id" gorm:"not null;uniqueIndex:idx_attempt_question"`
	QuestionID      uint           `json:"question_id" gorm:"not null;uniqueIndex:idx_attempt_question"`
	SelectedOptions datatypes.JSON `json:"selected_options,omitempty"` // []string
	AnswerText      string         `json:"answer_text,omitempty" gorm:"type:text"`
	FileURL         *string        `json:"file_url,omitempty"`
	SavedAt         time.Time      `json:"saved_at" gorm:"not null"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
