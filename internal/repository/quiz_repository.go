package repository

import (
	"github.com/nmthanh/tutorhub/internal/model"
	"gorm.io/gorm"
)

type QuizRepository interface {
	Create(quiz *model.Quiz) error
	Save(quiz *model.Quiz) error
	FindByID(id uint) (*model.Quiz, error)
	FindByIDWithQuestions(id uint) (*model.Quiz, error)
	FindByClass(classID uint) ([]model.Quiz, error)
	FindByCreator(creatorID uint) ([]model.Quiz, error)
	// TransitionStatus flips status only when the current status matches
	// from, reporting whether a row actually changed. Lifecycle moves are
	// one-directional; the conditional update makes concurrent publishers
	// race-safe.
	TransitionStatus(id uint, from, to string) (bool, error)
}

type quizRepository struct {
	db *gorm.DB
}

func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) Create(quiz *model.Quiz) error {
	// GORM creates associated questions when quiz.Questions is populated
	return r.db.Create(quiz).Error
}

func (r *quizRepository) Save(quiz *model.Quiz) error {
	return r.db.Save(quiz).Error
}

func (r *quizRepository) FindByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := r.db.First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepository) FindByIDWithQuestions(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.order_in_quiz ASC")
	}).First(&quiz, id).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepository) FindByClass(classID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.db.Where("class_id = ?", classID).Order("created_at DESC").Find(&quizzes).Error
	return quizzes, err
}

func (r *quizRepository) FindByCreator(creatorID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.db.Where("created_by = ?", creatorID).Order("created_at DESC").Find(&quizzes).Error
	return quizzes, err
}

func (r *quizRepository) TransitionStatus(id uint, from, to string) (bool, error) {
	res := r.db.Model(&model.Quiz{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}
