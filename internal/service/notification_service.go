package service

import (
	"fmt"

	"github.com/nmthanh/tutorhub/internal/apperror"
	"github.com/nmthanh/tutorhub/internal/dto"
	"github.com/nmthanh/tutorhub/internal/model"
	"github.com/nmthanh/tutorhub/internal/notify"
	"github.com/nmthanh/tutorhub/internal/repository"
	"github.com/nmthanh/tutorhub/internal/stream"
	"github.com/rs/zerolog/log"
)

// NotificationService is the event fan-out: it turns domain transitions
// into durable per-recipient notification rows, then publishes each row on
// the change bus so connected feeds see it without a reload.
type NotificationService interface {
	QuizPublished(quiz *model.Quiz) error
	AttemptSubmitted(attempt *model.Attempt, quiz *model.Quiz) error
	AttemptGraded(attempt *model.Attempt, quiz *model.Quiz) error
	SessionScheduled(session *model.TimetableSession) error

	Recent(recipientID uint, limit int) ([]dto.NotificationResponseDTO, error)
	UnreadCount(recipientID uint) (int64, error)
	MarkRead(id string) error
	MarkAllRead(recipientID uint) error
	Delete(id string) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	enrollmentRepo   repository.EnrollmentRepository
	bus              *stream.Bus
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	enrollmentRepo repository.EnrollmentRepository,
	bus *stream.Bus,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		enrollmentRepo:   enrollmentRepo,
		bus:              bus,
	}
}

// QuizPublished fans one notification out to every student enrolled in the
// quiz's class.
func (s *notificationService) QuizPublished(quiz *model.Quiz) error {
	studentIDs, err := s.enrollmentRepo.StudentIDsForClass(quiz.ClassID)
	if err != nil {
		log.Error().Err(err).Uint("classID", quiz.ClassID).Msg("QuizPublished: failed to resolve enrolled students")
		return apperror.Wrap(apperror.KindLookupUnavailable, err, "could not resolve recipients for quiz %d", quiz.ID)
	}

	sender := quiz.CreatedBy
	notifications := make([]model.Notification, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		notifications = append(notifications, model.Notification{
			RecipientID: studentID,
			SenderID:    &sender,
			Type:        model.NotificationTypeQuizPublished,
			Title:       "New quiz available",
			Message:     fmt.Sprintf("Quiz %q has been published for your class.", quiz.Title),
			Priority:    model.NotificationPriorityHigh,
			ActionURL:   fmt.Sprintf("/quizzes/%d", quiz.ID),
		})
	}
	return s.record(notifications)
}

func (s *notificationService) AttemptSubmitted(attempt *model.Attempt, quiz *model.Quiz) error {
	student := attempt.StudentID
	return s.record([]model.Notification{{
		RecipientID: quiz.CreatedBy,
		SenderID:    &student,
		Type:        model.NotificationTypeQuizSubmitted,
		Title:       "Quiz submission received",
		Message:     fmt.Sprintf("A student submitted an attempt for %q.", quiz.Title),
		Priority:    model.NotificationPriorityMedium,
		ActionURL:   fmt.Sprintf("/quizzes/%d/attempts/%d", quiz.ID, attempt.ID),
	}})
}

func (s *notificationService) AttemptGraded(attempt *model.Attempt, quiz *model.Quiz) error {
	obtained := 0.0
	if attempt.TotalMarksObtained != nil {
		obtained = *attempt.TotalMarksObtained
	}
	sender := quiz.CreatedBy
	return s.record([]model.Notification{{
		RecipientID: attempt.StudentID,
		SenderID:    &sender,
		Type:        model.NotificationTypeQuizGraded,
		Title:       "Quiz graded",
		Message:     fmt.Sprintf("Your attempt at %q was graded: %.1f/%.1f marks.", quiz.Title, obtained, quiz.TotalMarks),
		Priority:    model.NotificationPriorityMedium,
		ActionURL:   fmt.Sprintf("/attempts/%d", attempt.ID),
	}})
}

func (s *notificationService) SessionScheduled(session *model.TimetableSession) error {
	return s.record([]model.Notification{{
		RecipientID: session.TeacherID,
		Type:        "session_scheduled",
		Title:       "New timetable session",
		Message: fmt.Sprintf("You have been scheduled on day %d, %s-%s.",
			session.DayOfWeek, session.StartTime, session.EndTime),
		Priority:  model.NotificationPriorityMedium,
		ActionURL: fmt.Sprintf("/timetable/%d", session.ID),
	}})
}

// record persists the rows, then publishes each on the bus. The durable
// write comes first: a consumer that misses the live event still finds the
// row on its next re-fetch.
func (s *notificationService) record(notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if err := s.notificationRepo.CreateBatch(notifications); err != nil {
		log.Error().Err(err).Int("count", len(notifications)).Msg("Failed to persist notifications")
		return err
	}
	for _, n := range notifications {
		s.bus.Publish(stream.Event{Table: notify.NotificationTable, Op: stream.OpInsert, Payload: n})
	}
	return nil
}

func (s *notificationService) Recent(recipientID uint, limit int) ([]dto.NotificationResponseDTO, error) {
	rows, err := s.notificationRepo.RecentForRecipient(recipientID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NotificationResponseDTO, 0, len(rows))
	for _, n := range rows {
		out = append(out, dto.NotificationResponseDTO{
			ID:        n.ID,
			Type:      n.Type,
			Category:  string(notify.CategoryOf(n.Type)),
			Title:     n.Title,
			Message:   n.Message,
			Priority:  n.Priority,
			Read:      n.Read,
			ActionURL: n.ActionURL,
			CreatedAt: n.CreatedAt,
		})
	}
	return out, nil
}

func (s *notificationService) UnreadCount(recipientID uint) (int64, error) {
	return s.notificationRepo.UnreadCount(recipientID)
}

func (s *notificationService) MarkRead(id string) error {
	return s.notificationRepo.MarkRead(id)
}

func (s *notificationService) MarkAllRead(recipientID uint) error {
	return s.notificationRepo.MarkAllRead(recipientID)
}

func (s *notificationService) Delete(id string) error {
	return s.notificationRepo.Delete(id)
}
