package dto

import "time"

// SaveAnswerDTO is one autosave write. Saves are idempotent per question:
// re-sending the same question id replaces the prior answer.
type SaveAnswerDTO struct {
	QuestionID      uint     `json:"question_id" binding:"required"`
	SelectedOptions []string `json:"selected_options,omitempty"`
	AnswerText      string   `json:"answer_text,omitempty"`
	FileURL         *string  `json:"file_url,omitempty"`
}

type GradeAttemptDTO struct {
	MarksObtained *float64 `json:"marks_obtained" binding:"required,min=0"`
}

type AnswerResponseDTO struct {
	ID              uint      `json:"id"`
	QuestionID      uint      `json:"question_id"`
	SelectedOptions []string  `json:"selected_options,omitempty"`
	AnswerText      string    `json:"answer_text,omitempty"`
	FileURL         *string   `json:"file_url,omitempty"`
	SavedAt         time.Time `json:"saved_at"`
}

type AttemptResponseDTO struct {
	ID                 uint                `json:"id"`
	QuizID             uint                `json:"quiz_id"`
	QuizTitle          string              `json:"quiz_title,omitempty"`
	StudentID          uint                `json:"student_id"`
	Status             string              `json:"status"`
	StartedAt          time.Time           `json:"started_at"`
	SubmittedAt        *time.Time          `json:"submitted_at,omitempty"`
	GradedAt           *time.Time          `json:"graded_at,omitempty"`
	TotalMarksObtained *float64            `json:"total_marks_obtained,omitempty"`
	GradeLetter        string              `json:"grade_letter,omitempty"`
	RemainingSeconds   *int                `json:"remaining_seconds,omitempty"` // nil for untimed quizzes
	RemainingClock     string              `json:"remaining_clock,omitempty"`   // "MM:SS"
	Answers            []AnswerResponseDTO `json:"answers,omitempty"`
}

type AttemptSummaryDTO struct {
	ID                 uint       `json:"id"`
	QuizID             uint       `json:"quiz_id"`
	StudentID          uint       `json:"student_id"`
	Status             string     `json:"status"`
	StartedAt          time.Time  `json:"started_at"`
	SubmittedAt        *time.Time `json:"submitted_at,omitempty"`
	TotalMarksObtained *float64   `json:"total_marks_obtained,omitempty"`
}

// SubmitResultDTO reports the submission outcome. A second submit call is
// an "already submitted" outcome, never an error: client timers and manual
// submission race by design.
type SubmitResultDTO struct {
	AttemptID        uint   `json:"attempt_id"`
	Status           string `json:"status"`
	AlreadySubmitted bool   `json:"already_submitted"`
}
