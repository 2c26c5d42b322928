package dto

// SessionRequestDTO creates or edits a timetable session, and doubles as
// the dry-run conflict check payload. Times are zero-padded "HH:MM".
type SessionRequestDTO struct {
	ClassID   uint   `json:"class_id" binding:"required"`
	TeacherID uint   `json:"teacher_id" binding:"required"`
	Subject   string `json:"subject,omitempty"`
	DayOfWeek *int   `json:"day_of_week" binding:"required,min=0,max=6"`
	StartTime string `json:"start_time" binding:"required,len=5"`
	EndTime   string `json:"end_time" binding:"required,len=5"`
	// ExcludeID is set when editing so a session is not checked against itself.
	ExcludeID uint `json:"exclude_id,omitempty"`
}

type SessionResponseDTO struct {
	ID        uint   `json:"id"`
	ClassID   uint   `json:"class_id"`
	TeacherID uint   `json:"teacher_id"`
	Subject   string `json:"subject,omitempty"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type ConflictDTO struct {
	Kind    string             `json:"kind"` // teacher_conflict | class_conflict
	Session SessionResponseDTO `json:"session"`
}

// ConflictCheckResponseDTO always carries the complete conflict list so a
// scheduling UI can explain every problem at once.
type ConflictCheckResponseDTO struct {
	HasConflicts bool          `json:"has_conflicts"`
	Conflicts    []ConflictDTO `json:"conflicts"`
}
