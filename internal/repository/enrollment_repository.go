package repository

import (
	"github.com/nmthanh/tutorhub/internal/model"
	"gorm.io/gorm"
)

type EnrollmentRepository interface {
	Enroll(classID, studentID uint) error
	StudentIDsForClass(classID uint) ([]uint, error)
	IsEnrolled(classID, studentID uint) (bool, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Enroll(classID, studentID uint) error {
	return r.db.Create(&model.Enrollment{ClassID: classID, StudentID: studentID}).Error
}

func (r *enrollmentRepository) StudentIDsForClass(classID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.Enrollment{}).
		Where("class_id = ?", classID).
		Pluck("student_id", &ids).Error
	return ids, err
}

func (r *enrollmentRepository) IsEnrolled(classID, studentID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.Enrollment{}).
		Where("class_id = ? AND student_id = ?", classID, studentID).
		Count(&count).Error
	return count > 0, err
}
