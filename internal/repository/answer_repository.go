package repository

import (
	"github.com/nmthanh/tutorhub/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository interface {
	// Upsert writes an answer keyed by (attempt_id, question_id). The
	// ON CONFLICT clause makes concurrent autosaves for the same question
	// converge on a single row instead of erroring or duplicating.
	Upsert(answer *model.Answer) error
	FindByAttempt(attemptID uint) ([]model.Answer, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Upsert(answer *model.Answer) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"selected_options", "answer_text", "file_url", "saved_at", "updated_at",
		}),
	}).Create(answer).Error
}

func (r *answerRepository) FindByAttempt(attemptID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.db.Where("attempt_id = ?", attemptID).Order("question_id ASC").Find(&answers).Error
	return answers, err
}
