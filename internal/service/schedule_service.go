package service

import (
	"errors"

	"github.com/jinzhu/copier"
	"github.com/nmthanh/tutorhub/internal/apperror"
	"github.com/nmthanh/tutorhub/internal/dto"
	"github.com/nmthanh/tutorhub/internal/model"
	"github.com/nmthanh/tutorhub/internal/repository"
	"github.com/nmthanh/tutorhub/internal/schedule"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ScheduleService validates and books timetable sessions. CheckConflicts
// is the advisory dry run; Create/Update re-run the same predicate inside
// the storage transaction, which is the authoritative gate.
type ScheduleService interface {
	CheckConflicts(req dto.SessionRequestDTO) (*dto.ConflictCheckResponseDTO, error)
	CreateSession(req dto.SessionRequestDTO) (*dto.SessionResponseDTO, *dto.ConflictCheckResponseDTO, error)
	UpdateSession(sessionID uint, req dto.SessionRequestDTO) (*dto.SessionResponseDTO, *dto.ConflictCheckResponseDTO, error)
}

type scheduleService struct {
	timetableRepo   repository.TimetableRepository
	notificationSvc NotificationService
}

func NewScheduleService(timetableRepo repository.TimetableRepository, notificationSvc NotificationService) ScheduleService {
	return &scheduleService{timetableRepo: timetableRepo, notificationSvc: notificationSvc}
}

// CheckConflicts returns the complete conflict list for a candidate slot.
// A lookup failure is LookupUnavailable, which is not the same answer as
// "no conflicts": the UI must never treat it as clear to book.
func (s *scheduleService) CheckConflicts(req dto.SessionRequestDTO) (*dto.ConflictCheckResponseDTO, error) {
	if violations := validateSlot(req); len(violations) > 0 {
		return nil, apperror.Validation(violations)
	}
	existing, err := s.timetableRepo.FindCandidates(req.ClassID, req.TeacherID, *req.DayOfWeek)
	if err != nil {
		log.Error().Err(err).Msg("CheckConflicts: candidate session lookup failed")
		return nil, apperror.Wrap(apperror.KindLookupUnavailable, err, "unable to verify timetable conflicts")
	}
	conflicts := schedule.FindConflicts(candidateFrom(req), existing)
	return conflictsToDTO(conflicts), nil
}

func (s *scheduleService) CreateSession(req dto.SessionRequestDTO) (*dto.SessionResponseDTO, *dto.ConflictCheckResponseDTO, error) {
	if violations := validateSlot(req); len(violations) > 0 {
		return nil, nil, apperror.Validation(violations)
	}
	session := sessionFrom(req)
	conflicts, err := s.timetableRepo.CreateGuarded(session)
	if err != nil {
		log.Error().Err(err).Msg("CreateSession: guarded insert failed")
		return nil, nil, apperror.Wrap(apperror.KindLookupUnavailable, err, "unable to verify timetable conflicts")
	}
	if len(conflicts) > 0 {
		return nil, conflictsToDTO(conflicts), nil
	}

	if err := s.notificationSvc.SessionScheduled(session); err != nil {
		log.Error().Err(err).Uint("sessionID", session.ID).Msg("Session created but teacher notification failed")
	}
	return sessionToDTO(session), conflictsToDTO(nil), nil
}

func (s *scheduleService) UpdateSession(sessionID uint, req dto.SessionRequestDTO) (*dto.SessionResponseDTO, *dto.ConflictCheckResponseDTO, error) {
	if violations := validateSlot(req); len(violations) > 0 {
		return nil, nil, apperror.Validation(violations)
	}
	existing, err := s.timetableRepo.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperror.New(apperror.KindNotFound, "timetable session %d not found", sessionID)
		}
		return nil, nil, apperror.Wrap(apperror.KindLookupUnavailable, err, "could not load session %d", sessionID)
	}

	existing.ClassID = req.ClassID
	existing.TeacherID = req.TeacherID
	existing.Subject = req.Subject
	existing.DayOfWeek = *req.DayOfWeek
	existing.StartTime = req.StartTime
	existing.EndTime = req.EndTime

	conflicts, err := s.timetableRepo.UpdateGuarded(existing)
	if err != nil {
		log.Error().Err(err).Uint("sessionID", sessionID).Msg("UpdateSession: guarded update failed")
		return nil, nil, apperror.Wrap(apperror.KindLookupUnavailable, err, "unable to verify timetable conflicts")
	}
	if len(conflicts) > 0 {
		return nil, conflictsToDTO(conflicts), nil
	}
	return sessionToDTO(existing), conflictsToDTO(nil), nil
}

func validateSlot(req dto.SessionRequestDTO) []string {
	var violations []string
	if !validClock(req.StartTime) {
		violations = append(violations, "start_time must be a zero-padded HH:MM clock value")
	}
	if !validClock(req.EndTime) {
		violations = append(violations, "end_time must be a zero-padded HH:MM clock value")
	}
	if validClock(req.StartTime) && validClock(req.EndTime) && req.StartTime >= req.EndTime {
		violations = append(violations, "start_time must be before end_time")
	}
	return violations
}

func validClock(v string) bool {
	if len(v) != 5 || v[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return v[:2] < "24" && v[3:] < "60"
}

func candidateFrom(req dto.SessionRequestDTO) schedule.Candidate {
	return schedule.Candidate{
		ClassID:   req.ClassID,
		TeacherID: req.TeacherID,
		DayOfWeek: *req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		ExcludeID: req.ExcludeID,
	}
}

func sessionFrom(req dto.SessionRequestDTO) *model.TimetableSession {
	return &model.TimetableSession{
		ClassID:   req.ClassID,
		TeacherID: req.TeacherID,
		Subject:   req.Subject,
		DayOfWeek: *req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
}

func sessionToDTO(session *model.TimetableSession) *dto.SessionResponseDTO {
	var resp dto.SessionResponseDTO
	if err := copier.Copy(&resp, session); err != nil {
		log.Error().Err(err).Msg("Failed to copy TimetableSession to DTO")
	}
	return &resp
}

func conflictsToDTO(conflicts []schedule.Conflict) *dto.ConflictCheckResponseDTO {
	resp := dto.ConflictCheckResponseDTO{
		HasConflicts: len(conflicts) > 0,
		Conflicts:    make([]dto.ConflictDTO, 0, len(conflicts)),
	}
	for _, c := range conflicts {
		resp.Conflicts = append(resp.Conflicts, dto.ConflictDTO{
			Kind:    string(c.Kind),
			Session: *sessionToDTO(&c.Session),
		})
	}
	return &resp
}
