package notify

import "github.com/nmthanh/tutorhub/internal/model"

// Category is the closed set of notification groupings clients render.
// Unknown type tags never reach the UI undefined: they fall back to
// CategorySystem.
type Category string

const (
	CategoryAssignment   Category = "assignment"
	CategoryQuiz         Category = "quiz"
	CategoryGrade        Category = "grade"
	CategorySchedule     Category = "schedule"
	CategoryAnnouncement Category = "announcement"
	CategorySystem       Category = "system"
)

var categoryByType = map[string]Category{
	model.NotificationTypeQuizPublished: CategoryQuiz,
	model.NotificationTypeQuizSubmitted: CategoryQuiz,
	model.NotificationTypeQuizGraded:    CategoryGrade,
	"assignment_created":                CategoryAssignment,
	"assignment_due":                    CategoryAssignment,
	"session_scheduled":                 CategorySchedule,
	"session_changed":                   CategorySchedule,
	"announcement":                      CategoryAnnouncement,
}

// CategoryOf maps a free-form notification type tag onto the closed
// category set, defaulting unknown tags to CategorySystem.
func CategoryOf(typeTag string) Category {
	if c, ok := categoryByType[typeTag]; ok {
		return c
	}
	return CategorySystem
}
