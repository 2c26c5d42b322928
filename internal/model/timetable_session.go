package model

import (
	"time"

	"gorm.io/gorm"
)

// TimetableSession is one recurring weekly slot for a class and teacher.
// StartTime/EndTime are zero-padded "HH:MM" strings, so lexicographic
// comparison matches chronological comparison. Intervals are half-open:
// a session ending exactly when another starts does not overlap it.
type TimetableSession struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	ClassID   uint           `json:"class_id" gorm:"not null;index"`
	TeacherID uint           `json:"teacher_id" gorm:"not null;index"`
	Subject   string         `json:"subject,omitempty"`
	DayOfWeek int            `json:"day_of_week" gorm:"not null;index"` // 0=Sunday .. 6=Saturday
	StartTime string         `json:"start_time" gorm:"not null;size:5"`
	EndTime   string         `json:"end_time" gorm:"not null;size:5"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
