package repository

import (
	"time"

	"github.com/nmthanh/tutorhub/internal/model"
	"gorm.io/gorm"
)

type AttemptRepository interface {
	Create(attempt *model.Attempt) error
	FindByID(id uint) (*model.Attempt, error)
	FindByIDWithAnswers(id uint) (*model.Attempt, error)
	FindByQuizAndStudent(quizID, studentID uint) ([]model.Attempt, error)
	FindByQuiz(quizID uint) ([]model.Attempt, error)
	FindGradedByQuiz(quizID uint) ([]model.Attempt, error)
	CountByQuizAndStudent(quizID, studentID uint) (int64, error)
	// MarkSubmitted transitions in_progress -> submitted with a guarded
	// UPDATE; false means the attempt was not in_progress (already
	// submitted by a racing timer or manual call).
	MarkSubmitted(id uint, at time.Time) (bool, error)
	// MarkGraded transitions submitted -> graded the same way.
	MarkGraded(id uint, marksObtained float64, at time.Time) (bool, error)
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(attempt *model.Attempt) error {
	return r.db.Create(attempt).Error
}

func (r *attemptRepository) FindByID(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	if err := r.db.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByIDWithAnswers(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.db.
		Preload("Quiz").
		Preload("Answers").
		First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByQuizAndStudent(quizID, studentID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Order("started_at DESC").Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) FindByQuiz(quizID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.Where("quiz_id = ?", quizID).Order("started_at DESC").Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) FindGradedByQuiz(quizID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.Where("quiz_id = ? AND status = ?", quizID, model.AttemptStatusGraded).
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) CountByQuizAndStudent(quizID, studentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Attempt{}).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Count(&count).Error
	return count, err
}

func (r *attemptRepository) MarkSubmitted(id uint, at time.Time) (bool, error) {
	res := r.db.Model(&model.Attempt{}).
		Where("id = ? AND status = ?", id, model.AttemptStatusInProgress).
		Updates(map[string]interface{}{
			"status":       model.AttemptStatusSubmitted,
			"submitted_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *attemptRepository) MarkGraded(id uint, marksObtained float64, at time.Time) (bool, error) {
	res := r.db.Model(&model.Attempt{}).
		Where("id = ? AND status = ?", id, model.AttemptStatusSubmitted).
		Updates(map[string]interface{}{
			"status":               model.AttemptStatusGraded,
			"total_marks_obtained": marksObtained,
			"graded_at":            at,
		})
	return res.RowsAffected > 0, res.Error
}
