package schedule

import (
	"testing"

	"github.com/nmthanh/tutorhub/internal/model"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		start1, end1, start2, end2 string
		want                       bool
	}{
		{name: "full overlap", start1: "09:00", end1: "10:00", start2: "09:00", end2: "10:00", want: true},
		{name: "partial overlap tail", start1: "09:00", end1: "10:00", start2: "09:30", end2: "10:30", want: true},
		{name: "partial overlap head", start1: "09:30", end1: "10:30", start2: "09:00", end2: "10:00", want: true},
		{name: "containment", start1: "09:00", end1: "12:00", start2: "10:00", end2: "11:00", want: true},
		{name: "back to back is not overlap", start1: "09:00", end1: "10:00", start2: "10:00", end2: "11:00", want: false},
		{name: "back to back reversed", start1: "10:00", end1: "11:00", start2: "09:00", end2: "10:00", want: false},
		{name: "disjoint", start1: "08:00", end1: "09:00", start2: "13:00", end2: "14:00", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.start1, tt.end1, tt.start2, tt.end2); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			// the predicate is symmetric
			if got := Overlaps(tt.start2, tt.end2, tt.start1, tt.end1); got != tt.want {
				t.Errorf("Overlaps() swapped = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindConflicts(t *testing.T) {
	existing := []model.TimetableSession{
		{ID: 1, ClassID: 10, TeacherID: 100, DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"},
		{ID: 2, ClassID: 20, TeacherID: 100, DayOfWeek: 1, StartTime: "10:00", EndTime: "11:00"},
		{ID: 3, ClassID: 10, TeacherID: 200, DayOfWeek: 1, StartTime: "09:30", EndTime: "10:30"},
		{ID: 4, ClassID: 10, TeacherID: 100, DayOfWeek: 2, StartTime: "09:00", EndTime: "10:00"},
	}

	t.Run("reports every conflict, not just the first", func(t *testing.T) {
		got := FindConflicts(Candidate{
			ClassID: 10, TeacherID: 100, DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00",
		}, existing)
		// session 1 collides on both teacher and class, session 3 on class only
		if len(got) != 3 {
			t.Fatalf("FindConflicts() returned %d conflicts, want 3: %+v", len(got), got)
		}
		kinds := map[uint][]ConflictKind{}
		for _, c := range got {
			kinds[c.Session.ID] = append(kinds[c.Session.ID], c.Kind)
		}
		if len(kinds[1]) != 2 {
			t.Errorf("session 1 should conflict on both teacher and class, got %v", kinds[1])
		}
		if len(kinds[3]) != 1 || kinds[3][0] != ClassConflict {
			t.Errorf("session 3 should be a class conflict, got %v", kinds[3])
		}
	})

	t.Run("session ending when another starts is clear", func(t *testing.T) {
		got := FindConflicts(Candidate{
			ClassID: 30, TeacherID: 100, DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00",
		}, existing)
		if len(got) != 0 {
			t.Errorf("adjacent session reported as conflict: %+v", got)
		}
	})

	t.Run("different day never conflicts", func(t *testing.T) {
		got := FindConflicts(Candidate{
			ClassID: 10, TeacherID: 100, DayOfWeek: 3, StartTime: "09:00", EndTime: "10:00",
		}, existing)
		if len(got) != 0 {
			t.Errorf("different-day session reported as conflict: %+v", got)
		}
	})

	t.Run("editing a session never conflicts with itself", func(t *testing.T) {
		got := FindConflicts(Candidate{
			ClassID: 10, TeacherID: 100, DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00",
			ExcludeID: 1,
		}, existing)
		for _, c := range got {
			if c.Session.ID == 1 {
				t.Fatalf("excluded session reported as conflicting with itself: %+v", c)
			}
		}
		// session 3 still collides on class
		if len(got) != 1 || got[0].Kind != ClassConflict || got[0].Session.ID != 3 {
			t.Errorf("want single class conflict with session 3, got %+v", got)
		}
	})
}
