package repository

import (
	"github.com/nmthanh/tutorhub/internal/model"
	"github.com/nmthanh/tutorhub/internal/schedule"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockingClause serializes concurrent guarded writes over the same slot:
// both transactions lock the candidate rows, so two schedulers booking
// overlapping sessions cannot both pass the predicate.
func lockingClause() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

type TimetableRepository interface {
	FindByID(id uint) (*model.TimetableSession, error)
	// FindCandidates returns every session that could possibly conflict
	// with the given slot: same day, sharing the teacher or the class.
	FindCandidates(classID, teacherID uint, dayOfWeek int) ([]model.TimetableSession, error)
	// CreateGuarded re-runs the conflict predicate inside the insert
	// transaction. The client-side dry run is advisory; this is the
	// authoritative check that closes the dry-run/commit race window.
	// A non-empty conflict list means nothing was written.
	CreateGuarded(session *model.TimetableSession) ([]schedule.Conflict, error)
	// UpdateGuarded does the same for edits, excluding the session's own id.
	UpdateGuarded(session *model.TimetableSession) ([]schedule.Conflict, error)
}

type timetableRepository struct {
	db *gorm.DB
}

func NewTimetableRepository(db *gorm.DB) TimetableRepository {
	return &timetableRepository{db: db}
}

func (r *timetableRepository) FindByID(id uint) (*model.TimetableSession, error) {
	var session model.TimetableSession
	if err := r.db.First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *timetableRepository) FindCandidates(classID, teacherID uint, dayOfWeek int) ([]model.TimetableSession, error) {
	var sessions []model.TimetableSession
	err := r.db.
		Where("day_of_week = ? AND (teacher_id = ? OR class_id = ?)", dayOfWeek, teacherID, classID).
		Order("start_time ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *timetableRepository) CreateGuarded(session *model.TimetableSession) ([]schedule.Conflict, error) {
	return r.writeGuarded(session, 0, func(tx *gorm.DB) error {
		return tx.Create(session).Error
	})
}

func (r *timetableRepository) UpdateGuarded(session *model.TimetableSession) ([]schedule.Conflict, error) {
	return r.writeGuarded(session, session.ID, func(tx *gorm.DB) error {
		return tx.Save(session).Error
	})
}

func (r *timetableRepository) writeGuarded(session *model.TimetableSession, excludeID uint, write func(tx *gorm.DB) error) ([]schedule.Conflict, error) {
	var conflicts []schedule.Conflict
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing []model.TimetableSession
		err := tx.
			Clauses(lockingClause()).
			Where("day_of_week = ? AND (teacher_id = ? OR class_id = ?)",
				session.DayOfWeek, session.TeacherID, session.ClassID).
			Find(&existing).Error
		if err != nil {
			return err
		}
		conflicts = schedule.FindConflicts(schedule.Candidate{
			ClassID:   session.ClassID,
			TeacherID: session.TeacherID,
			DayOfWeek: session.DayOfWeek,
			StartTime: session.StartTime,
			EndTime:   session.EndTime,
			ExcludeID: excludeID,
		}, existing)
		if len(conflicts) > 0 {
			return nil // reject without writing, not an error
		}
		return write(tx)
	})
	if err != nil {
		return nil, err
	}
	return conflicts, nil
}
