package editor

import "errors"

// ErrDuplicateCourse is returned by Selection.Add for an id already selected.
var ErrDuplicateCourse = errors.New("course already selected")

// CourseEntry is one selected course as shown in the form.
type CourseEntry struct {
	ID    string
	Label string
}

// Selection is the ordered, duplicate-free list of courses chosen for a student.
// The zero value is an empty selection.
type Selection struct {
	entries []CourseEntry
}

// SelectionFromMarked seeds a selection from the student's marked course ids.
// Each id doubles as its own label; catalogue labels are not looked up.
func SelectionFromMarked(ids []string) Selection {
	var s Selection
	for _, id := range ids {
		_ = s.Add(id, id)
	}
	return s
}

// Add appends a course. An id that is already present leaves the selection unchanged.
func (s *Selection) Add(id, label string) error {
	if s.Contains(id) {
		return ErrDuplicateCourse
	}
	s.entries = append(s.entries, CourseEntry{ID: id, Label: label})
	return nil
}

// Remove drops the course with the given id and reports whether it was present.
func (s *Selection) Remove(id string) bool {
	kept := s.entries[:0:0]
	for _, e := range s.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	removed := len(kept) != len(s.entries)
	s.entries = kept
	return removed
}

func (s Selection) Contains(id string) bool {
	for _, e := range s.entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

func (s Selection) Len() int { return len(s.entries) }

// Entries returns a copy of the selection in insertion order.
func (s Selection) Entries() []CourseEntry {
	out := make([]CourseEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// IDs returns the selected course ids in insertion order.
func (s Selection) IDs() []string {
	ids := make([]string, len(s.entries))
	for i, e := range s.entries {
		ids[i] = e.ID
	}
	return ids
}
