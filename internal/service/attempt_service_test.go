package service

import (
	"errors"
	"testing"
	"time"

	"github.com/nmthanh/tutorhub/internal/apperror"
	"github.com/nmthanh/tutorhub/internal/dto"
	"github.com/nmthanh/tutorhub/internal/model"
	"gorm.io/gorm"
)

// --- repository fakes ---

type fakeQuizRepo struct {
	quizzes map[uint]*model.Quiz
	findErr error
}

func (r *fakeQuizRepo) Create(q *model.Quiz) error { r.quizzes[q.ID] = q; return nil }
func (r *fakeQuizRepo) Save(q *model.Quiz) error   { r.quizzes[q.ID] = q; return nil }
func (r *fakeQuizRepo) FindByID(id uint) (*model.Quiz, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	q, ok := r.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}
func (r *fakeQuizRepo) FindByIDWithQuestions(id uint) (*model.Quiz, error) { return r.FindByID(id) }
func (r *fakeQuizRepo) FindByClass(classID uint) ([]model.Quiz, error)     { return nil, nil }
func (r *fakeQuizRepo) FindByCreator(creatorID uint) ([]model.Quiz, error) { return nil, nil }
func (r *fakeQuizRepo) TransitionStatus(id uint, from, to string) (bool, error) {
	q, ok := r.quizzes[id]
	if !ok || q.Status != from {
		return false, nil
	}
	q.Status = to
	return true, nil
}

type fakeAttemptRepo struct {
	attempts map[uint]*model.Attempt
	nextID   uint
	countErr error
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{attempts: make(map[uint]*model.Attempt)}
}

func (r *fakeAttemptRepo) Create(a *model.Attempt) error {
	r.nextID++
	a.ID = r.nextID
	clone := *a
	r.attempts[a.ID] = &clone
	return nil
}
func (r *fakeAttemptRepo) FindByID(id uint) (*model.Attempt, error) {
	a, ok := r.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *a
	return &clone, nil
}
func (r *fakeAttemptRepo) FindByIDWithAnswers(id uint) (*model.Attempt, error) {
	return r.FindByID(id)
}
func (r *fakeAttemptRepo) FindByQuizAndStudent(quizID, studentID uint) ([]model.Attempt, error) {
	return nil, nil
}
func (r *fakeAttemptRepo) FindByQuiz(quizID uint) ([]model.Attempt, error)       { return nil, nil }
func (r *fakeAttemptRepo) FindGradedByQuiz(quizID uint) ([]model.Attempt, error) { return nil, nil }
func (r *fakeAttemptRepo) CountByQuizAndStudent(quizID, studentID uint) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	var n int64
	for _, a := range r.attempts {
		if a.QuizID == quizID && a.StudentID == studentID {
			n++
		}
	}
	return n, nil
}
func (r *fakeAttemptRepo) MarkSubmitted(id uint, at time.Time) (bool, error) {
	a, ok := r.attempts[id]
	if !ok || a.Status != model.AttemptStatusInProgress {
		return false, nil
	}
	a.Status = model.AttemptStatusSubmitted
	a.SubmittedAt = &at
	return true, nil
}
func (r *fakeAttemptRepo) MarkGraded(id uint, marks float64, at time.Time) (bool, error) {
	a, ok := r.attempts[id]
	if !ok || a.Status != model.AttemptStatusSubmitted {
		return false, nil
	}
	a.Status = model.AttemptStatusGraded
	a.TotalMarksObtained = &marks
	a.GradedAt = &at
	return true, nil
}

type fakeAnswerRepo struct {
	answers map[[2]uint]*model.Answer
}

func newFakeAnswerRepo() *fakeAnswerRepo {
	return &fakeAnswerRepo{answers: make(map[[2]uint]*model.Answer)}
}

func (r *fakeAnswerRepo) Upsert(a *model.Answer) error {
	clone := *a
	r.answers[[2]uint{a.AttemptID, a.QuestionID}] = &clone
	return nil
}
func (r *fakeAnswerRepo) FindByAttempt(attemptID uint) ([]model.Answer, error) { return nil, nil }

type fakeNotifier struct {
	published int
	submitted int
	graded    int
	scheduled int
}

func (n *fakeNotifier) QuizPublished(*model.Quiz) error { n.published++; return nil }
func (n *fakeNotifier) AttemptSubmitted(*model.Attempt, *model.Quiz) error {
	n.submitted++
	return nil
}
func (n *fakeNotifier) AttemptGraded(*model.Attempt, *model.Quiz) error { n.graded++; return nil }
func (n *fakeNotifier) SessionScheduled(*model.TimetableSession) error  { n.scheduled++; return nil }
func (n *fakeNotifier) Recent(uint, int) ([]dto.NotificationResponseDTO, error) {
	return nil, nil
}
func (n *fakeNotifier) UnreadCount(uint) (int64, error) { return 0, nil }
func (n *fakeNotifier) MarkRead(string) error           { return nil }
func (n *fakeNotifier) MarkAllRead(uint) error          { return nil }
func (n *fakeNotifier) Delete(string) error             { return nil }

// --- harness ---

func newTestAttemptService(quiz *model.Quiz) (*attemptService, *fakeAttemptRepo, *fakeNotifier) {
	quizRepo := &fakeQuizRepo{quizzes: map[uint]*model.Quiz{}}
	if quiz != nil {
		quizRepo.quizzes[quiz.ID] = quiz
	}
	attemptRepo := newFakeAttemptRepo()
	notifier := &fakeNotifier{}
	svc := NewAttemptService(quizRepo, attemptRepo, newFakeAnswerRepo(), notifier, time.Hour).(*attemptService)
	return svc, attemptRepo, notifier
}

func publishedQuiz(id uint, maxAttempts int) *model.Quiz {
	now := time.Now()
	return &model.Quiz{
		ID:             id,
		Title:          "Fractions check",
		Status:         model.QuizStatusPublished,
		TotalMarks:     100,
		PassingMarks:   50,
		MaxAttempts:    maxAttempts,
		ScheduledStart: timePtr(now.Add(-time.Hour)),
		ScheduledEnd:   timePtr(now.Add(time.Hour)),
		ClassID:        1,
		CreatedBy:      9,
	}
}

// --- tests ---

func TestCanAttempt(t *testing.T) {
	const studentID = 42

	t.Run("one prior attempt of two leaves one", func(t *testing.T) {
		svc, attemptRepo, _ := newTestAttemptService(publishedQuiz(1, 2))
		attemptRepo.Create(&model.Attempt{QuizID: 1, StudentID: studentID})

		elig, err := svc.CanAttempt(1, studentID)
		if err != nil {
			t.Fatalf("CanAttempt() error = %v", err)
		}
		if !elig.CanAttempt || elig.AttemptsLeft != 1 {
			t.Errorf("eligibility = %+v, want canAttempt with attemptsLeft 1", elig)
		}
	})

	t.Run("cap reached", func(t *testing.T) {
		svc, attemptRepo, _ := newTestAttemptService(publishedQuiz(1, 2))
		attemptRepo.Create(&model.Attempt{QuizID: 1, StudentID: studentID})
		attemptRepo.Create(&model.Attempt{QuizID: 1, StudentID: studentID})

		elig, err := svc.CanAttempt(1, studentID)
		if err != nil {
			t.Fatalf("CanAttempt() error = %v", err)
		}
		if elig.CanAttempt || elig.AttemptsLeft != 0 {
			t.Errorf("eligibility = %+v, want refused with attemptsLeft 0", elig)
		}
		if elig.Reason != "Maximum attempts (2) reached" {
			t.Errorf("reason = %q, want %q", elig.Reason, "Maximum attempts (2) reached")
		}
	})

	t.Run("inactive quiz", func(t *testing.T) {
		quiz := publishedQuiz(1, 2)
		quiz.ScheduledEnd = timePtr(time.Now().Add(-time.Second))
		svc, _, _ := newTestAttemptService(quiz)

		elig, err := svc.CanAttempt(1, studentID)
		if err != nil {
			t.Fatalf("CanAttempt() error = %v", err)
		}
		if elig.CanAttempt {
			t.Errorf("quiz past its window reported attemptable: %+v", elig)
		}
	})

	t.Run("missing quiz is NotFound", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(nil)
		_, err := svc.CanAttempt(77, studentID)
		if !apperror.IsKind(err, apperror.KindNotFound) {
			t.Errorf("error = %v, want NotFound", err)
		}
	})

	t.Run("count failure is LookupUnavailable, not zero attempts", func(t *testing.T) {
		svc, attemptRepo, _ := newTestAttemptService(publishedQuiz(1, 2))
		attemptRepo.countErr = errors.New("connection reset")

		_, err := svc.CanAttempt(1, studentID)
		if !apperror.IsKind(err, apperror.KindLookupUnavailable) {
			t.Errorf("error = %v, want LookupUnavailable", err)
		}
	})
}

func TestStartAttemptGating(t *testing.T) {
	svc, attemptRepo, _ := newTestAttemptService(publishedQuiz(1, 1))
	attemptRepo.Create(&model.Attempt{QuizID: 1, StudentID: 42})

	_, err := svc.Start(1, 42)
	if !apperror.IsKind(err, apperror.KindAttemptsExhausted) {
		t.Errorf("error = %v, want AttemptsExhausted", err)
	}

	// a different student still gets through
	resp, err := svc.Start(1, 43)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if resp.Status != model.AttemptStatusInProgress {
		t.Errorf("new attempt status = %q, want in_progress", resp.Status)
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	svc, _, notifier := newTestAttemptService(publishedQuiz(1, 2))

	started, err := svc.Start(1, 42)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	first, err := svc.Submit(started.ID)
	if err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if first.AlreadySubmitted || first.Status != model.AttemptStatusSubmitted {
		t.Errorf("first submit = %+v, want fresh submitted result", first)
	}

	second, err := svc.Submit(started.ID)
	if err != nil {
		t.Fatalf("second Submit() must not error, got %v", err)
	}
	if !second.AlreadySubmitted {
		t.Errorf("second submit = %+v, want AlreadySubmitted", second)
	}
	if second.Status != model.AttemptStatusSubmitted {
		t.Errorf("second submit status = %q, want submitted (no double transition)", second.Status)
	}
	if notifier.submitted != 1 {
		t.Errorf("submission fan-out fired %d times, want 1", notifier.submitted)
	}
}

func TestGradeRequiresSubmittedState(t *testing.T) {
	svc, _, notifier := newTestAttemptService(publishedQuiz(1, 2))
	started, _ := svc.Start(1, 42)

	if _, err := svc.Grade(started.ID, 80); !apperror.IsKind(err, apperror.KindInvalidState) {
		t.Fatalf("grading an in_progress attempt: error = %v, want InvalidState", err)
	}

	if _, err := svc.Submit(started.ID); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	graded, err := svc.Grade(started.ID, 80)
	if err != nil {
		t.Fatalf("Grade() error = %v", err)
	}
	if graded.Status != model.AttemptStatusGraded || graded.TotalMarksObtained == nil || *graded.TotalMarksObtained != 80 {
		t.Errorf("graded attempt = %+v, want graded with 80 marks", graded)
	}
	if graded.GradeLetter != "A" {
		t.Errorf("grade letter = %q, want A for 80%%", graded.GradeLetter)
	}
	if notifier.graded != 1 {
		t.Errorf("grading fan-out fired %d times, want 1", notifier.graded)
	}

	// graded is terminal
	if _, err := svc.Grade(started.ID, 90); !apperror.IsKind(err, apperror.KindInvalidState) {
		t.Errorf("re-grading: error = %v, want InvalidState", err)
	}
}

func TestSaveAnswerLifecycle(t *testing.T) {
	svc, _, _ := newTestAttemptService(publishedQuiz(1, 2))
	started, _ := svc.Start(1, 42)

	saved, err := svc.SaveAnswer(started.ID, 42, dto.SaveAnswerDTO{
		QuestionID:      7,
		SelectedOptions: []string{"4"},
	})
	if err != nil {
		t.Fatalf("SaveAnswer() error = %v", err)
	}
	if saved.QuestionID != 7 || saved.SavedAt.IsZero() {
		t.Errorf("saved answer = %+v, want question 7 with saved_at stamped", saved)
	}

	// re-saving the same question is an idempotent replace, not an error
	if _, err := svc.SaveAnswer(started.ID, 42, dto.SaveAnswerDTO{QuestionID: 7, AnswerText: "four"}); err != nil {
		t.Fatalf("re-save error = %v", err)
	}

	// another student cannot write into this attempt
	if _, err := svc.SaveAnswer(started.ID, 99, dto.SaveAnswerDTO{QuestionID: 7}); !apperror.IsKind(err, apperror.KindNotFound) {
		t.Errorf("cross-student save: error = %v, want NotFound", err)
	}

	if _, err := svc.Submit(started.ID); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := svc.SaveAnswer(started.ID, 42, dto.SaveAnswerDTO{QuestionID: 7}); !apperror.IsKind(err, apperror.KindInvalidState) {
		t.Errorf("save after submit: error = %v, want InvalidState", err)
	}
}

func TestSaveAnswerLazyExpiry(t *testing.T) {
	quiz := publishedQuiz(1, 2)
	quiz.DurationMinutes = intMinutes(30)
	svc, attemptRepo, notifier := newTestAttemptService(quiz)

	started, err := svc.Start(1, 42)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	svc.StopTimers() // exercise the lazy path, not the countdown

	// rewind the stored start far past the deadline
	attemptRepo.attempts[started.ID].StartedAt = time.Now().Add(-time.Hour)

	_, err = svc.SaveAnswer(started.ID, 42, dto.SaveAnswerDTO{QuestionID: 1})
	if !apperror.IsKind(err, apperror.KindInvalidState) {
		t.Fatalf("save on expired attempt: error = %v, want InvalidState", err)
	}

	reloaded, _ := attemptRepo.FindByID(started.ID)
	if reloaded.Status != model.AttemptStatusSubmitted {
		t.Errorf("expired attempt status = %q, want auto-submitted", reloaded.Status)
	}
	if notifier.submitted != 1 {
		t.Errorf("auto-submit fan-out fired %d times, want 1", notifier.submitted)
	}
}

func intMinutes(v int) *int { return &v }
