package service

import (
	"errors"
	"testing"

	"github.com/nmthanh/tutorhub/internal/apperror"
	"github.com/nmthanh/tutorhub/internal/dto"
	"github.com/nmthanh/tutorhub/internal/model"
	"github.com/nmthanh/tutorhub/internal/schedule"
	"gorm.io/gorm"
)

type fakeTimetableRepo struct {
	sessions []model.TimetableSession
	findErr  error
	nextID   uint
}

func (r *fakeTimetableRepo) FindByID(id uint) (*model.TimetableSession, error) {
	for _, s := range r.sessions {
		if s.ID == id {
			clone := s
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeTimetableRepo) FindCandidates(classID, teacherID uint, dayOfWeek int) ([]model.TimetableSession, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []model.TimetableSession
	for _, s := range r.sessions {
		if s.DayOfWeek == dayOfWeek && (s.TeacherID == teacherID || s.ClassID == classID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeTimetableRepo) CreateGuarded(session *model.TimetableSession) ([]schedule.Conflict, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	existing, _ := r.FindCandidates(session.ClassID, session.TeacherID, session.DayOfWeek)
	conflicts := schedule.FindConflicts(schedule.Candidate{
		ClassID:   session.ClassID,
		TeacherID: session.TeacherID,
		DayOfWeek: session.DayOfWeek,
		StartTime: session.StartTime,
		EndTime:   session.EndTime,
	}, existing)
	if len(conflicts) > 0 {
		return conflicts, nil
	}
	r.nextID++
	session.ID = r.nextID
	r.sessions = append(r.sessions, *session)
	return nil, nil
}

func (r *fakeTimetableRepo) UpdateGuarded(session *model.TimetableSession) ([]schedule.Conflict, error) {
	existing, _ := r.FindCandidates(session.ClassID, session.TeacherID, session.DayOfWeek)
	conflicts := schedule.FindConflicts(schedule.Candidate{
		ClassID:   session.ClassID,
		TeacherID: session.TeacherID,
		DayOfWeek: session.DayOfWeek,
		StartTime: session.StartTime,
		EndTime:   session.EndTime,
		ExcludeID: session.ID,
	}, existing)
	if len(conflicts) > 0 {
		return conflicts, nil
	}
	for i := range r.sessions {
		if r.sessions[i].ID == session.ID {
			r.sessions[i] = *session
		}
	}
	return nil, nil
}

func dayPtr(d int) *int { return &d }

func slotRequest(classID, teacherID uint, day int, start, end string) dto.SessionRequestDTO {
	return dto.SessionRequestDTO{
		ClassID:   classID,
		TeacherID: teacherID,
		Subject:   "Math",
		DayOfWeek: dayPtr(day),
		StartTime: start,
		EndTime:   end,
	}
}

func TestCheckConflicts(t *testing.T) {
	repo := &fakeTimetableRepo{sessions: []model.TimetableSession{
		{ID: 1, ClassID: 1, TeacherID: 10, DayOfWeek: 2, StartTime: "09:00", EndTime: "10:00"},
	}}
	svc := NewScheduleService(repo, &fakeNotifier{})

	t.Run("overlapping slot reports the conflict", func(t *testing.T) {
		resp, err := svc.CheckConflicts(slotRequest(2, 10, 2, "09:30", "10:30"))
		if err != nil {
			t.Fatalf("CheckConflicts() error = %v", err)
		}
		if !resp.HasConflicts || len(resp.Conflicts) != 1 {
			t.Fatalf("response = %+v, want one teacher conflict", resp)
		}
		if resp.Conflicts[0].Kind != string(schedule.TeacherConflict) {
			t.Errorf("conflict kind = %q, want teacher", resp.Conflicts[0].Kind)
		}
	})

	t.Run("adjacent slot is clear", func(t *testing.T) {
		resp, err := svc.CheckConflicts(slotRequest(2, 10, 2, "10:00", "11:00"))
		if err != nil {
			t.Fatalf("CheckConflicts() error = %v", err)
		}
		if resp.HasConflicts {
			t.Errorf("back-to-back slot flagged as conflicting: %+v", resp)
		}
	})

	t.Run("lookup failure is never clear-to-book", func(t *testing.T) {
		broken := &fakeTimetableRepo{findErr: errors.New("connection refused")}
		svc := NewScheduleService(broken, &fakeNotifier{})
		resp, err := svc.CheckConflicts(slotRequest(2, 10, 2, "09:30", "10:30"))
		if resp != nil {
			t.Errorf("got a response %+v alongside a lookup failure", resp)
		}
		if !apperror.IsKind(err, apperror.KindLookupUnavailable) {
			t.Errorf("error = %v, want LookupUnavailable", err)
		}
	})

	t.Run("malformed clock values fail validation", func(t *testing.T) {
		_, err := svc.CheckConflicts(slotRequest(2, 10, 2, "9:00", "10:00"))
		if !apperror.IsKind(err, apperror.KindValidationFailed) {
			t.Fatalf("error = %v, want ValidationFailed", err)
		}

		_, err = svc.CheckConflicts(slotRequest(2, 10, 2, "11:00", "10:00"))
		if !apperror.IsKind(err, apperror.KindValidationFailed) {
			t.Errorf("inverted slot: error = %v, want ValidationFailed", err)
		}
	})
}

func TestCreateSession(t *testing.T) {
	t.Run("clean slot books and notifies the teacher", func(t *testing.T) {
		repo := &fakeTimetableRepo{}
		notifier := &fakeNotifier{}
		svc := NewScheduleService(repo, notifier)

		session, conflicts, err := svc.CreateSession(slotRequest(1, 10, 2, "09:00", "10:00"))
		if err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		if conflicts.HasConflicts {
			t.Fatalf("clean slot reported conflicts: %+v", conflicts)
		}
		if session == nil || session.ID == 0 {
			t.Fatalf("session = %+v, want a persisted session", session)
		}
		if notifier.scheduled != 1 {
			t.Errorf("schedule notification fired %d times, want 1", notifier.scheduled)
		}
	})

	t.Run("conflicting slot writes nothing", func(t *testing.T) {
		repo := &fakeTimetableRepo{sessions: []model.TimetableSession{
			{ID: 1, ClassID: 1, TeacherID: 10, DayOfWeek: 2, StartTime: "09:00", EndTime: "10:00"},
		}}
		notifier := &fakeNotifier{}
		svc := NewScheduleService(repo, notifier)

		session, conflicts, err := svc.CreateSession(slotRequest(1, 10, 2, "09:30", "10:30"))
		if err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		if session != nil {
			t.Errorf("conflicting create returned a session: %+v", session)
		}
		// same slot collides on both the teacher and the class axis
		if !conflicts.HasConflicts || len(conflicts.Conflicts) != 2 {
			t.Errorf("conflicts = %+v, want both teacher and class conflicts", conflicts)
		}
		if len(repo.sessions) != 1 {
			t.Errorf("repo holds %d sessions, want the original 1", len(repo.sessions))
		}
		if notifier.scheduled != 0 {
			t.Errorf("notification fired for a rejected booking")
		}
	})
}

func TestUpdateSessionExcludesItself(t *testing.T) {
	repo := &fakeTimetableRepo{sessions: []model.TimetableSession{
		{ID: 1, ClassID: 1, TeacherID: 10, DayOfWeek: 2, StartTime: "09:00", EndTime: "10:00"},
	}, nextID: 1}
	svc := NewScheduleService(repo, &fakeNotifier{})

	// shifting a session within its own old slot must not conflict with itself
	session, conflicts, err := svc.UpdateSession(1, slotRequest(1, 10, 2, "09:30", "10:30"))
	if err != nil {
		t.Fatalf("UpdateSession() error = %v", err)
	}
	if conflicts.HasConflicts {
		t.Fatalf("session conflicted with itself: %+v", conflicts)
	}
	if session.StartTime != "09:30" {
		t.Errorf("session start = %q, want 09:30", session.StartTime)
	}

	_, _, err = svc.UpdateSession(99, slotRequest(1, 10, 2, "09:00", "10:00"))
	if !apperror.IsKind(err, apperror.KindNotFound) {
		t.Errorf("missing session: error = %v, want NotFound", err)
	}
}
