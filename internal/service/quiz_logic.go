package service

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/nmthanh/tutorhub/internal/model"
)

// IsActive reports whether a quiz can be attempted right now: it must be
// published and now must fall inside the scheduled window. Draft and closed
// quizzes are never active regardless of the window.
func IsActive(quiz *model.Quiz, now time.Time) bool {
	if quiz.Status != model.QuizStatusPublished {
		return false
	}
	if quiz.ScheduledStart != nil && now.Before(*quiz.ScheduledStart) {
		return false
	}
	if quiz.ScheduledEnd != nil && now.After(*quiz.ScheduledEnd) {
		return false
	}
	return true
}

// ValidateForPublish collects every violation blocking publication. It
// never short-circuits: the instructor sees all problems at once.
func ValidateForPublish(quiz *model.Quiz, questions []model.Question) []string {
	var violations []string

	if quiz.Title == "" {
		violations = append(violations, "quiz title must not be empty")
	}
	if len(questions) == 0 {
		violations = append(violations, "quiz must have at least one question")
	}
	if quiz.PassingMarks > quiz.TotalMarks {
		violations = append(violations, fmt.Sprintf(
			"passing marks (%.1f) must not exceed total marks (%.1f)", quiz.PassingMarks, quiz.TotalMarks))
	}
	if quiz.ScheduledStart != nil && quiz.ScheduledEnd != nil && !quiz.ScheduledEnd.After(*quiz.ScheduledStart) {
		violations = append(violations, "scheduled end must be after scheduled start")
	}
	for _, q := range questions {
		if q.Text == "" {
			violations = append(violations, fmt.Sprintf("question %d: text must not be empty", q.OrderInQuiz))
		}
		if q.Marks <= 0 {
			violations = append(violations, fmt.Sprintf("question %d: marks must be positive", q.OrderInQuiz))
		}
		if model.IsChoiceType(q.Type) && len(decodeOptions(q.Options)) < 2 {
			violations = append(violations, fmt.Sprintf("question %d: choice questions need at least two options", q.OrderInQuiz))
		}
	}
	return violations
}

// GradeLetter bands a percentage score, inclusive at each lower bound.
func GradeLetter(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B+"
	case percentage >= 60:
		return "B"
	case percentage >= 50:
		return "C"
	case percentage >= 40:
		return "D"
	default:
		return "F"
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func decodeOptions(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var opts []string
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil
	}
	return opts
}
