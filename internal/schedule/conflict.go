package schedule

import "github.com/nmthanh/tutorhub/internal/model"

// ConflictKind tags why an existing session collides with a candidate.
type ConflictKind string

const (
	// TeacherConflict: same teacher, same day, overlapping interval.
	TeacherConflict ConflictKind = "teacher_conflict"
	// ClassConflict: same class, same day, overlapping interval.
	ClassConflict ConflictKind = "class_conflict"
)

// Conflict pairs a colliding existing session with the reason it collides.
// A session can appear twice, once per kind, when it shares both the teacher
// and the class with the candidate.
type Conflict struct {
	Kind    ConflictKind           `json:"kind"`
	Session model.TimetableSession `json:"session"`
}

// Candidate describes the session being validated. ExcludeID is the id of
// the session being edited, zero for a session that does not exist yet.
type Candidate struct {
	ClassID   uint
	TeacherID uint
	DayOfWeek int
	StartTime string // "HH:MM"
	EndTime   string // "HH:MM"
	ExcludeID uint
}

// Overlaps reports whether two half-open [start, end) intervals intersect.
// Zero-padded "HH:MM" strings compare lexicographically in time order, so a
// session ending exactly when another starts is not an overlap.
func Overlaps(start1, end1, start2, end2 string) bool {
	return start1 < end2 && start2 < end1
}

// FindConflicts evaluates the candidate against every existing session and
// returns the complete conflict list. It never short-circuits: callers need
// all problems at once to explain a rejected edit. The function is pure so
// the same predicate can run as a dry-run preview or inside the storage
// layer's commit-time transaction.
func FindConflicts(candidate Candidate, existing []model.TimetableSession) []Conflict {
	conflicts := []Conflict{}
	for _, s := range existing {
		if candidate.ExcludeID != 0 && s.ID == candidate.ExcludeID {
			continue
		}
		if s.DayOfWeek != candidate.DayOfWeek {
			continue
		}
		if !Overlaps(candidate.StartTime, candidate.EndTime, s.StartTime, s.EndTime) {
			continue
		}
		if s.TeacherID == candidate.TeacherID {
			conflicts = append(conflicts, Conflict{Kind: TeacherConflict, Session: s})
		}
		if s.ClassID == candidate.ClassID {
			conflicts = append(conflicts, Conflict{Kind: ClassConflict, Session: s})
		}
	}
	return conflicts
}
