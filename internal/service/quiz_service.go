package service

import (
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/jinzhu/copier"
	"github.com/nmthanh/tutorhub/internal/apperror"
	"github.com/nmthanh/tutorhub/internal/dto"
	"github.com/nmthanh/tutorhub/internal/model"
	"github.com/nmthanh/tutorhub/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizService governs the quiz side of the assessment state machine:
// draft -> published -> closed, one-directional.
type QuizService interface {
	Create(creatorID uint, req dto.QuizCreateDTO) (*dto.QuizResponseDTO, error)
	Get(quizID uint) (*dto.QuizResponseDTO, error)
	ListByClass(classID uint) ([]dto.QuizSummaryDTO, error)
	Publish(quizID uint) (*dto.QuizResponseDTO, error)
	Close(quizID uint) (*dto.QuizResponseDTO, error)
	Statistics(quizID uint) (*dto.QuizStatisticsDTO, error)
}

type quizService struct {
	quizRepo        repository.QuizRepository
	attemptRepo     repository.AttemptRepository
	notificationSvc NotificationService
	now             func() time.Time
}

func NewQuizService(
	quizRepo repository.QuizRepository,
	attemptRepo repository.AttemptRepository,
	notificationSvc NotificationService,
) QuizService {
	return &quizService{
		quizRepo:        quizRepo,
		attemptRepo:     attemptRepo,
		notificationSvc: notificationSvc,
		now:             time.Now,
	}
}

func (s *quizService) Create(creatorID uint, req dto.QuizCreateDTO) (*dto.QuizResponseDTO, error) {
	var violations []string
	if req.PassingMarks > req.TotalMarks {
		violations = append(violations, "passing marks must not exceed total marks")
	}
	if req.ScheduledStart != nil && req.ScheduledEnd != nil && !req.ScheduledEnd.After(*req.ScheduledStart) {
		violations = append(violations, "scheduled end must be after scheduled start")
	}
	if len(violations) > 0 {
		return nil, apperror.Validation(violations)
	}

	quiz := model.Quiz{
		Title:                  req.Title,
		Description:            req.Description,
		Status:                 model.QuizStatusDraft,
		TotalMarks:             req.TotalMarks,
		PassingMarks:           req.PassingMarks,
		DurationMinutes:        req.DurationMinutes,
		MaxAttempts:            req.MaxAttempts,
		ScheduledStart:         req.ScheduledStart,
		ScheduledEnd:           req.ScheduledEnd,
		ShowResultsImmediately: req.ShowResultsImmediately,
		ClassID:                req.ClassID,
		Subject:                req.Subject,
		CreatedBy:              creatorID,
	}
	for _, q := range req.Questions {
		question := model.Question{
			Text:        q.Text,
			Type:        q.Type,
			Marks:       q.Marks,
			OrderInQuiz: q.OrderInQuiz,
		}
		if len(q.Options) > 0 {
			raw, err := encodeOptions(q.Options)
			if err != nil {
				return nil, err
			}
			question.Options = raw
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	if err := s.quizRepo.Create(&quiz); err != nil {
		log.Error().Err(err).Msg("Failed to create quiz")
		return nil, err
	}
	return quizToDTO(&quiz), nil
}

func (s *quizService) Get(quizID uint) (*dto.QuizResponseDTO, error) {
	quiz, err := s.findWithQuestions(quizID)
	if err != nil {
		return nil, err
	}
	return quizToDTO(quiz), nil
}

func (s *quizService) ListByClass(classID uint) ([]dto.QuizSummaryDTO, error) {
	quizzes, err := s.quizRepo.FindByClass(classID)
	if err != nil {
		log.Error().Err(err).Uint("classID", classID).Msg("Failed to list quizzes for class")
		return nil, err
	}
	var dtos []dto.QuizSummaryDTO
	if err := copier.Copy(&dtos, &quizzes); err != nil {
		return nil, err
	}
	return dtos, nil
}

// Publish validates the quiz, collecting every violation before refusing,
// then performs the guarded draft -> published transition and fans the
// event out to enrolled students.
func (s *quizService) Publish(quizID uint) (*dto.QuizResponseDTO, error) {
	quiz, err := s.findWithQuestions(quizID)
	if err != nil {
		return nil, err
	}

	if violations := ValidateForPublish(quiz, quiz.Questions); len(violations) > 0 {
		return nil, apperror.Validation(violations)
	}

	moved, err := s.quizRepo.TransitionStatus(quizID, model.QuizStatusDraft, model.QuizStatusPublished)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, apperror.New(apperror.KindInvalidState,
			"quiz %d cannot be published from status %q", quizID, quiz.Status)
	}
	quiz.Status = model.QuizStatusPublished

	if err := s.notificationSvc.QuizPublished(quiz); err != nil {
		// the transition is already durable; fan-out failure is logged,
		// feeds catch up from the ledger on their next re-fetch
		log.Error().Err(err).Uint("quizID", quizID).Msg("Quiz published but notification fan-out failed")
	}
	return quizToDTO(quiz), nil
}

// Close ends the quiz. Closed is terminal: there is no way back to
// published or draft.
func (s *quizService) Close(quizID uint) (*dto.QuizResponseDTO, error) {
	quiz, err := s.findWithQuestions(quizID)
	if err != nil {
		return nil, err
	}
	moved, err := s.quizRepo.TransitionStatus(quizID, model.QuizStatusPublished, model.QuizStatusClosed)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, apperror.New(apperror.KindInvalidState,
			"quiz %d cannot be closed from status %q", quizID, quiz.Status)
	}
	quiz.Status = model.QuizStatusClosed
	return quizToDTO(quiz), nil
}

// Statistics aggregates over graded attempts only. With no graded attempts
// every field is zero; the pass rate never divides by zero.
func (s *quizService) Statistics(quizID uint) (*dto.QuizStatisticsDTO, error) {
	quiz, err := s.findQuiz(quizID)
	if err != nil {
		return nil, err
	}
	graded, err := s.attemptRepo.FindGradedByQuiz(quizID)
	if err != nil {
		log.Error().Err(err).Uint("quizID", quizID).Msg("Failed to load graded attempts for statistics")
		return nil, err
	}

	stats := ComputeStatistics(graded, quiz.PassingMarks)
	return &stats, nil
}

// ComputeStatistics is the pure aggregation over graded attempts.
func ComputeStatistics(graded []model.Attempt, passingMarks float64) dto.QuizStatisticsDTO {
	var stats dto.QuizStatisticsDTO
	if len(graded) == 0 {
		return stats
	}

	var sum float64
	var passed int
	highest := math.Inf(-1)
	lowest := math.Inf(1)
	for _, a := range graded {
		score := 0.0
		if a.TotalMarksObtained != nil {
			score = *a.TotalMarksObtained
		}
		sum += score
		if score > highest {
			highest = score
		}
		if score < lowest {
			lowest = score
		}
		if score >= passingMarks {
			passed++
		}
	}

	stats.GradedCount = len(graded)
	stats.AverageScore = round2(sum / float64(len(graded)))
	stats.HighestScore = highest
	stats.LowestScore = lowest
	stats.PassRate = math.Round(float64(passed) / float64(len(graded)) * 100)
	return stats
}

func (s *quizService) findQuiz(quizID uint) (*model.Quiz, error) {
	quiz, err := s.quizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "quiz %d not found", quizID)
		}
		return nil, apperror.Wrap(apperror.KindLookupUnavailable, err, "could not load quiz %d", quizID)
	}
	return quiz, nil
}

func (s *quizService) findWithQuestions(quizID uint) (*model.Quiz, error) {
	quiz, err := s.quizRepo.FindByIDWithQuestions(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "quiz %d not found", quizID)
		}
		return nil, apperror.Wrap(apperror.KindLookupUnavailable, err, "could not load quiz %d", quizID)
	}
	return quiz, nil
}

func quizToDTO(quiz *model.Quiz) *dto.QuizResponseDTO {
	var resp dto.QuizResponseDTO
	if err := copier.Copy(&resp, quiz); err != nil {
		log.Error().Err(err).Msg("Failed to copy Quiz model to DTO")
	}
	resp.Questions = make([]dto.QuestionResponseDTO, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		resp.Questions = append(resp.Questions, dto.QuestionResponseDTO{
			ID:          q.ID,
			QuizID:      q.QuizID,
			Text:        q.Text,
			Type:        q.Type,
			Marks:       q.Marks,
			OrderInQuiz: q.OrderInQuiz,
			Options:     decodeOptions(q.Options),
		})
	}
	return &resp
}

func encodeOptions(options []string) (datatypes.JSON, error) {
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
