package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nmthanh/tutorhub/internal/apperror"
	"github.com/nmthanh/tutorhub/internal/dto"
	"github.com/nmthanh/tutorhub/internal/model"
	"github.com/nmthanh/tutorhub/internal/repository"
	"github.com/nmthanh/tutorhub/internal/timer"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AttemptService governs the attempt side of the assessment state machine:
// in_progress -> submitted -> graded, terminal at graded.
type AttemptService interface {
	// CanAttempt gates a new attempt. NotFound and LookupUnavailable are
	// errors; "not active" and "attempts exhausted" are regular answers
	// carried in the eligibility DTO, since callers branch on them.
	CanAttempt(quizID, studentID uint) (*dto.AttemptEligibilityDTO, error)
	Start(quizID, studentID uint) (*dto.AttemptResponseDTO, error)
	// SaveAnswer upserts idempotently by (attempt, question); concurrent
	// autosaves for one question converge on a single row.
	SaveAnswer(attemptID, studentID uint, req dto.SaveAnswerDTO) (*dto.AnswerResponseDTO, error)
	// Submit transitions in_progress -> submitted exactly once. A second
	// call reports AlreadySubmitted, never an error: client timers and
	// manual submission race by design. Callers are responsible for
	// awaiting their in-flight saves before submitting.
	Submit(attemptID uint) (*dto.SubmitResultDTO, error)
	Grade(attemptID uint, marksObtained float64) (*dto.AttemptResponseDTO, error)
	Get(attemptID uint) (*dto.AttemptResponseDTO, error)
	ListForQuiz(quizID uint) ([]dto.AttemptSummaryDTO, error)
	ListForStudent(quizID, studentID uint) ([]dto.AttemptSummaryDTO, error)
	// StopTimers tears down every running attempt countdown. Wired to
	// application shutdown; leaving one running is a leak.
	StopTimers()
}

type attemptService struct {
	quizRepo        repository.QuizRepository
	attemptRepo     repository.AttemptRepository
	answerRepo      repository.AnswerRepository
	notificationSvc NotificationService
	tick            time.Duration
	now             func() time.Time

	// one countdown per in-progress timed attempt, owned by the service's
	// root context and stopped on submission or shutdown
	timersMu sync.Mutex
	timers   map[uint]*timer.Controller
	rootCtx  context.Context
	cancel   context.CancelFunc
}

func NewAttemptService(
	quizRepo repository.QuizRepository,
	attemptRepo repository.AttemptRepository,
	answerRepo repository.AnswerRepository,
	notificationSvc NotificationService,
	tick time.Duration,
) AttemptService {
	ctx, cancel := context.WithCancel(context.Background())
	return &attemptService{
		quizRepo:        quizRepo,
		attemptRepo:     attemptRepo,
		answerRepo:      answerRepo,
		notificationSvc: notificationSvc,
		tick:            tick,
		now:             time.Now,
		timers:          make(map[uint]*timer.Controller),
		rootCtx:         ctx,
		cancel:          cancel,
	}
}

func (s *attemptService) CanAttempt(quizID, studentID uint) (*dto.AttemptEligibilityDTO, error) {
	quiz, err := s.loadQuiz(quizID)
	if err != nil {
		return nil, err
	}
	priorCount, err := s.attemptRepo.CountByQuizAndStudent(quizID, studentID)
	if err != nil {
		// a failed count is not "zero attempts used"; gating must surface it
		return nil, apperror.Wrap(apperror.KindLookupUnavailable, err,
			"could not count attempts for quiz %d", quizID)
	}
	elig, _ := evaluateEligibility(quiz, int(priorCount), s.now())
	return &elig, nil
}

// evaluateEligibility is the pure attempt gate.
func evaluateEligibility(quiz *model.Quiz, priorAttempts int, now time.Time) (dto.AttemptEligibilityDTO, apperror.Kind) {
	if !IsActive(quiz, now) {
		return dto.AttemptEligibilityDTO{
			CanAttempt: false,
			Reason:     "Quiz is not currently active",
		}, apperror.KindNotActive
	}
	if priorAttempts >= quiz.MaxAttempts {
		return dto.AttemptEligibilityDTO{
			CanAttempt: false,
			Reason:     fmt.Sprintf("Maximum attempts (%d) reached", quiz.MaxAttempts),
		}, apperror.KindAttemptsExhausted
	}
	return dto.AttemptEligibilityDTO{
		CanAttempt:   true,
		AttemptsLeft: quiz.MaxAttempts - priorAttempts,
	}, ""
}

func (s *attemptService) Start(quizID, studentID uint) (*dto.AttemptResponseDTO, error) {
	quiz, err := s.loadQuiz(quizID)
	if err != nil {
		return nil, err
	}
	priorCount, err := s.attemptRepo.CountByQuizAndStudent(quizID, studentID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindLookupUnavailable, err,
			"could not count attempts for quiz %d", quizID)
	}
	elig, kind := evaluateEligibility(quiz, int(priorCount), s.now())
	if !elig.CanAttempt {
		return nil, apperror.New(kind, "%s", elig.Reason)
	}

	attempt := model.Attempt{
		QuizID:    quizID,
		StudentID: studentID,
		Status:    model.AttemptStatusInProgress,
		StartedAt: s.now(),
	}
	if err := s.attemptRepo.Create(&attempt); err != nil {
		log.Error().Err(err).Uint("quizID", quizID).Uint("studentID", studentID).Msg("Failed to create attempt")
		return nil, err
	}

	s.startCountdown(&attempt, quiz)
	return s.attemptToDTO(&attempt, quiz), nil
}

// startCountdown runs the server-side countdown for a timed attempt. The
// expiry callback submits at most once; Submit also races it safely via
// the guarded status transition.
func (s *attemptService) startCountdown(attempt *model.Attempt, quiz *model.Quiz) {
	if quiz.DurationMinutes == nil {
		return
	}
	ctrl := timer.NewController(attempt.StartedAt, quiz.DurationMinutes, s.tick)
	attemptID := attempt.ID
	ctrl.OnExpire = func() {
		if _, err := s.Submit(attemptID); err != nil {
			log.Error().Err(err).Uint("attemptID", attemptID).Msg("Auto-submit on expiry failed")
		}
	}
	ctrl.OnLowTime = func(remaining int) {
		log.Info().Uint("attemptID", attemptID).Int("remaining", remaining).Msg("Attempt entering low-time window")
	}

	s.timersMu.Lock()
	s.timers[attemptID] = ctrl
	s.timersMu.Unlock()
	ctrl.Run(s.rootCtx)
}

func (s *attemptService) stopCountdown(attemptID uint) {
	s.timersMu.Lock()
	ctrl := s.timers[attemptID]
	delete(s.timers, attemptID)
	s.timersMu.Unlock()
	if ctrl != nil {
		go ctrl.Stop() // Stop waits for the loop; never block the caller on it
	}
}

func (s *attemptService) StopTimers() {
	s.cancel()
	s.timersMu.Lock()
	s.timers = make(map[uint]*timer.Controller)
	s.timersMu.Unlock()
}

func (s *attemptService) SaveAnswer(attemptID, studentID uint, req dto.SaveAnswerDTO) (*dto.AnswerResponseDTO, error) {
	attempt, err := s.loadAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, apperror.New(apperror.KindNotFound, "attempt %d not found", attemptID)
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, apperror.New(apperror.KindInvalidState,
			"attempt %d is %s; answers can no longer be saved", attemptID, attempt.Status)
	}

	// lazy expiry: a timed attempt past its deadline is submitted instead
	// of accepting the write, even if the countdown callback was lost
	quiz, err := s.loadQuiz(attempt.QuizID)
	if err != nil {
		return nil, err
	}
	if left, timed := timer.Remaining(attempt.StartedAt, quiz.DurationMinutes, s.now()); timed && left == 0 {
		if _, submitErr := s.Submit(attemptID); submitErr != nil {
			log.Error().Err(submitErr).Uint("attemptID", attemptID).Msg("Lazy expiry submit failed")
		}
		return nil, apperror.New(apperror.KindInvalidState, "attempt %d time has expired", attemptID)
	}

	answer := model.Answer{
		AttemptID:  attemptID,
		QuestionID: req.QuestionID,
		AnswerText: req.AnswerText,
		FileURL:    req.FileURL,
		SavedAt:    s.now(),
	}
	if len(req.SelectedOptions) > 0 {
		raw, err := json.Marshal(req.SelectedOptions)
		if err != nil {
			return nil, err
		}
		answer.SelectedOptions = datatypes.JSON(raw)
	}
	if err := s.answerRepo.Upsert(&answer); err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Uint("questionID", req.QuestionID).Msg("Answer upsert failed")
		return nil, err
	}
	return answerToDTO(&answer), nil
}

func (s *attemptService) Submit(attemptID uint) (*dto.SubmitResultDTO, error) {
	attempt, err := s.loadAttempt(attemptID)
	if err != nil {
		return nil, err
	}

	moved, err := s.attemptRepo.MarkSubmitted(attemptID, s.now())
	if err != nil {
		return nil, err
	}
	if !moved {
		if attempt.Status == model.AttemptStatusInProgress {
			// lost the race to a concurrent submit between load and update
			attempt.Status = model.AttemptStatusSubmitted
		}
		return &dto.SubmitResultDTO{
			AttemptID:        attemptID,
			Status:           attempt.Status,
			AlreadySubmitted: true,
		}, nil
	}

	s.stopCountdown(attemptID)

	quiz, err := s.quizRepo.FindByID(attempt.QuizID)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("Submitted but could not load quiz for fan-out")
	} else if err := s.notificationSvc.AttemptSubmitted(attempt, quiz); err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("Submission notification fan-out failed")
	}

	return &dto.SubmitResultDTO{
		AttemptID: attemptID,
		Status:    model.AttemptStatusSubmitted,
	}, nil
}

func (s *attemptService) Grade(attemptID uint, marksObtained float64) (*dto.AttemptResponseDTO, error) {
	attempt, err := s.loadAttempt(attemptID)
	if err != nil {
		return nil, err
	}

	moved, err := s.attemptRepo.MarkGraded(attemptID, marksObtained, s.now())
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, apperror.New(apperror.KindInvalidState,
			"attempt %d is %s; only submitted attempts can be graded", attemptID, attempt.Status)
	}
	attempt.Status = model.AttemptStatusGraded
	attempt.TotalMarksObtained = &marksObtained

	quiz, err := s.quizRepo.FindByID(attempt.QuizID)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("Graded but could not load quiz for fan-out")
		return s.attemptToDTO(attempt, nil), nil
	}
	if err := s.notificationSvc.AttemptGraded(attempt, quiz); err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("Grading notification fan-out failed")
	}
	return s.attemptToDTO(attempt, quiz), nil
}

func (s *attemptService) Get(attemptID uint) (*dto.AttemptResponseDTO, error) {
	attempt, err := s.attemptRepo.FindByIDWithAnswers(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "attempt %d not found", attemptID)
		}
		return nil, apperror.Wrap(apperror.KindLookupUnavailable, err, "could not load attempt %d", attemptID)
	}
	quiz := &attempt.Quiz
	if quiz.ID == 0 {
		quiz = nil
	}
	return s.attemptToDTO(attempt, quiz), nil
}

func (s *attemptService) ListForQuiz(quizID uint) ([]dto.AttemptSummaryDTO, error) {
	attempts, err := s.attemptRepo.FindByQuiz(quizID)
	if err != nil {
		return nil, err
	}
	return attemptSummaries(attempts), nil
}

func (s *attemptService) ListForStudent(quizID, studentID uint) ([]dto.AttemptSummaryDTO, error) {
	attempts, err := s.attemptRepo.FindByQuizAndStudent(quizID, studentID)
	if err != nil {
		return nil, err
	}
	return attemptSummaries(attempts), nil
}

func (s *attemptService) loadQuiz(quizID uint) (*model.Quiz, error) {
	quiz, err := s.quizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "quiz %d not found", quizID)
		}
		return nil, apperror.Wrap(apperror.KindLookupUnavailable, err, "could not load quiz %d", quizID)
	}
	return quiz, nil
}

func (s *attemptService) loadAttempt(attemptID uint) (*model.Attempt, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "attempt %d not found", attemptID)
		}
		return nil, apperror.Wrap(apperror.KindLookupUnavailable, err, "could not load attempt %d", attemptID)
	}
	return attempt, nil
}

func (s *attemptService) attemptToDTO(attempt *model.Attempt, quiz *model.Quiz) *dto.AttemptResponseDTO {
	resp := dto.AttemptResponseDTO{
		ID:                 attempt.ID,
		QuizID:             attempt.QuizID,
		StudentID:          attempt.StudentID,
		Status:             attempt.Status,
		StartedAt:          attempt.StartedAt,
		SubmittedAt:        attempt.SubmittedAt,
		GradedAt:           attempt.GradedAt,
		TotalMarksObtained: attempt.TotalMarksObtained,
	}
	for _, a := range attempt.Answers {
		resp.Answers = append(resp.Answers, *answerToDTO(&a))
	}
	if quiz != nil {
		resp.QuizTitle = quiz.Title
		if attempt.Status == model.AttemptStatusInProgress {
			if left, timed := timer.Remaining(attempt.StartedAt, quiz.DurationMinutes, s.now()); timed {
				resp.RemainingSeconds = &left
				resp.RemainingClock = timer.FormatClock(left)
			}
		}
		if attempt.Status == model.AttemptStatusGraded && attempt.TotalMarksObtained != nil && quiz.TotalMarks > 0 {
			resp.GradeLetter = GradeLetter(*attempt.TotalMarksObtained / quiz.TotalMarks * 100)
		}
	}
	return &resp
}

func answerToDTO(a *model.Answer) *dto.AnswerResponseDTO {
	return &dto.AnswerResponseDTO{
		ID:              a.ID,
		QuestionID:      a.QuestionID,
		SelectedOptions: decodeOptions(a.SelectedOptions),
		AnswerText:      a.AnswerText,
		FileURL:         a.FileURL,
		SavedAt:         a.SavedAt,
	}
}

func attemptSummaries(attempts []model.Attempt) []dto.AttemptSummaryDTO {
	out := make([]dto.AttemptSummaryDTO, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, dto.AttemptSummaryDTO{
			ID:                 a.ID,
			QuizID:             a.QuizID,
			StudentID:          a.StudentID,
			Status:             a.Status,
			StartedAt:          a.StartedAt,
			SubmittedAt:        a.SubmittedAt,
			TotalMarksObtained: a.TotalMarksObtained,
		})
	}
	return out
}
