package dto

import "time"

// QuestionCreateDTO is used within QuizCreateDTO when an instructor builds
// a quiz. Structural binding only; publish-time validation collects the
// full violation list separately.
type QuestionCreateDTO struct {
	Text        string   `json:"text" binding:"required"`
	Type        string   `json:"type" binding:"required,oneof=multiple_choice true_false short_answer"`
	Marks       float64  `json:"marks" binding:"required"`
	OrderInQuiz int      `json:"order_in_quiz" binding:"required,min=1"`
	Options     []string `json:"options,omitempty"`
}

// QuizCreateDTO creates a quiz in draft state.
type QuizCreateDTO struct {
	Title                  string              `json:"title" binding:"required"`
	Description            string              `json:"description,omitempty"`
	TotalMarks             float64             `json:"total_marks" binding:"required,gt=0"`
	PassingMarks           float64             `json:"passing_marks" binding:"min=0"`
	DurationMinutes        *int                `json:"duration_minutes,omitempty" binding:"omitempty,min=1"`
	MaxAttempts            int                 `json:"max_attempts" binding:"required,min=1"`
	ScheduledStart         *time.Time          `json:"scheduled_start,omitempty"`
	ScheduledEnd           *time.Time          `json:"scheduled_end,omitempty"`
	ShowResultsImmediately bool                `json:"show_results_immediately"`
	ClassID                uint                `json:"class_id" binding:"required"`
	Subject                string              `json:"subject,omitempty"`
	Questions              []QuestionCreateDTO `json:"questions,omitempty" binding:"omitempty,dive"`
}

type QuestionResponseDTO struct {
	ID          uint     `json:"id"`
	QuizID      uint     `json:"quiz_id"`
	Text        string   `json:"text"`
	Type        string   `json:"type"`
	Marks       float64  `json:"marks"`
	OrderInQuiz int      `json:"order_in_quiz"`
	Options     []string `json:"options,omitempty"`
}

type QuizResponseDTO struct {
	ID                     uint                  `json:"id"`
	Title                  string                `json:"title"`
	Description            string                `json:"description,omitempty"`
	Status                 string                `json:"status"`
	TotalMarks             float64               `json:"total_marks"`
	PassingMarks           float64               `json:"passing_marks"`
	DurationMinutes        *int                  `json:"duration_minutes,omitempty"`
	MaxAttempts            int                   `json:"max_attempts"`
	ScheduledStart         *time.Time            `json:"scheduled_start,omitempty"`
	ScheduledEnd           *time.Time            `json:"scheduled_end,omitempty"`
	ShowResultsImmediately bool                  `json:"show_results_immediately"`
	ClassID                uint                  `json:"class_id"`
	Subject                string                `json:"subject,omitempty"`
	CreatedBy              uint                  `json:"created_by"`
	Questions              []QuestionResponseDTO `json:"questions,omitempty"`
	CreatedAt              time.Time             `json:"created_at"`
}

// QuizSummaryDTO lists quizzes for a class without their questions.
type QuizSummaryDTO struct {
	ID              uint       `json:"id"`
	Title           string     `json:"title"`
	Status          string     `json:"status"`
	TotalMarks      float64    `json:"total_marks"`
	PassingMarks    float64    `json:"passing_marks"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	MaxAttempts     int        `json:"max_attempts"`
	ScheduledStart  *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd    *time.Time `json:"scheduled_end,omitempty"`
	Subject         string     `json:"subject,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// QuizStatisticsDTO aggregates graded attempts; every field is zero when
// no graded attempts exist.
type QuizStatisticsDTO struct {
	GradedCount  int     `json:"graded_count"`
	AverageScore float64 `json:"average_score"`
	HighestScore float64 `json:"highest_score"`
	LowestScore  float64 `json:"lowest_score"`
	PassRate     float64 `json:"pass_rate"` // percentage, rounded
}

// AttemptEligibilityDTO is the canAttempt answer: either clearance with the
// remaining attempt budget, or the reason attempting is refused.
type AttemptEligibilityDTO struct {
	CanAttempt   bool   `json:"can_attempt"`
	Reason       string `json:"reason,omitempty"`
	AttemptsLeft int    `json:"attempts_left"`
}
