package model

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment links a student to a class. The fan-out service uses it to
// resolve the recipient set for class-wide events.
type Enrollment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	ClassID   uint           `json:"class_id" gorm:"not null;uniqueIndex:idx_class_student"`
	StudentID uint           `json:"student_id" gorm:"not null;uniqueIndex:idx_class_student"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
