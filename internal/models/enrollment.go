package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// EnrollableKind tags which aggregate an enrollment points at.
type EnrollableKind string

const (
	EnrollableCourse EnrollableKind = "Course"
	EnrollablePath   EnrollableKind = "LearningPath"
)

// Enrollable is a reference to either a Course or a LearningPath.
type Enrollable struct {
	Kind EnrollableKind `db:"enrollable_type" json:"enrollable_type"`
	ID   string         `db:"enrollable_id" json:"enrollable_id"`
}

// CourseTarget references a course.
func CourseTarget(id string) Enrollable { return Enrollable{Kind: EnrollableCourse, ID: id} }

// PathTarget references a learning path.
func PathTarget(id string) Enrollable { return Enrollable{Kind: EnrollablePath, ID: id} }

// ParseEnrollable validates a kind/id pair received from a client.
func ParseEnrollable(kind, id string) (Enrollable, error) {
	if id == "" {
		return Enrollable{}, fmt.Errorf("enrollable id required")
	}
	switch EnrollableKind(kind) {
	case EnrollableCourse:
		return CourseTarget(id), nil
	case EnrollablePath:
		return PathTarget(id), nil
	default:
		return Enrollable{}, fmt.Errorf("unknown enrollable type %q", kind)
	}
}

// CourseID returns the referenced course id when the target is a course.
func (e Enrollable) CourseID() (string, bool) {
	return e.ID, e.Kind == EnrollableCourse
}

// PathID returns the referenced path id when the target is a learning path.
func (e Enrollable) PathID() (string, bool) {
	return e.ID, e.Kind == EnrollablePath
}

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentInProgress EnrollmentStatus = "in_progress"
	EnrollmentCompleted  EnrollmentStatus = "completed"
)

// Label returns the human readable status.
func (s EnrollmentStatus) Label() string {
	if s == EnrollmentCompleted {
		return "Completed"
	}
	return "In Progress"
}

// LessonSet is a deduplicated list of completed lesson ids persisted as JSONB.
type LessonSet []string

// Add inserts id if absent and reports whether the set changed.
func (s *LessonSet) Add(id string) bool {
	if s.Contains(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

// Contains reports membership.
func (s LessonSet) Contains(id string) bool {
	for _, existing := range s {
		if existing == id {
			return true
		}
	}
	return false
}

// CountIn counts distinct members that are present in ids.
func (s LessonSet) CountIn(ids map[string]struct{}) int {
	seen := make(map[string]struct{}, len(s))
	for _, id := range s {
		if _, ok := ids[id]; !ok {
			continue
		}
		seen[id] = struct{}{}
	}
	return len(seen)
}

// Value implements driver.Valuer.
func (s LessonSet) Value() (driver.Value, error) {
	if s == nil {
		s = LessonSet{}
	}
	return jsonValue(s, "completed lessons")
}

// Scan implements sql.Scanner.
func (s *LessonSet) Scan(value interface{}) error {
	*s = LessonSet{}
	return jsonScan(value, s, "completed lessons")
}

// QuizAttempt is one immutable scored submission.
type QuizAttempt struct {
	AttemptID   string            `json:"attempt_id"`
	LessonID    string            `json:"lesson_id"`
	Score       float64           `json:"score"`
	SubmittedAt time.Time         `json:"submitted_at"`
	Answers     map[string]string `json:"answers"`
}

// QuizAttempts is the append-only attempt history persisted as JSONB.
type QuizAttempts []QuizAttempt

// Find returns the attempt with the given id.
func (a QuizAttempts) Find(attemptID string) (QuizAttempt, bool) {
	for _, attempt := range a {
		if attempt.AttemptID == attemptID {
			return attempt, true
		}
	}
	return QuizAttempt{}, false
}

// Value implements driver.Valuer.
func (a QuizAttempts) Value() (driver.Value, error) {
	if a == nil {
		a = QuizAttempts{}
	}
	return jsonValue(a, "quiz attempts")
}

// Scan implements sql.Scanner.
func (a *QuizAttempts) Scan(value interface{}) error {
	*a = QuizAttempts{}
	return jsonScan(value, a, "quiz attempts")
}

// Enrollment ties a student to a course or learning path. (student_id, enrollable_id)
// is unique.
type Enrollment struct {
	ID        string `db:"id" json:"id"`
	StudentID string `db:"student_id" json:"student_id"`
	Enrollable
	EnrollmentDate       time.Time        `db:"enrollment_date" json:"enrollment_date"`
	Status               EnrollmentStatus `db:"status" json:"status"`
	Progress             float64          `db:"progress" json:"progress"`
	CompletedLessons     LessonSet        `db:"completed_lessons" json:"completed_lessons"`
	LastAccessedLessonID *string          `db:"last_accessed_lesson_id" json:"last_accessed_lesson_id,omitempty"`
	QuizAttempts         QuizAttempts     `db:"quiz_attempts" json:"quiz_attempts"`
	Version              int              `db:"version" json:"version"`
}

// Target returns the enrolled aggregate reference.
func (e *Enrollment) Target() Enrollable {
	return e.Enrollable
}
