package models

import (
	"database/sql/driver"
	"sort"
	"time"
)

// CourseStatus represents the publication state of a course.
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
	CourseStatusArchived  CourseStatus = "archived"
)

// ContentType identifies how a lesson's content payload is interpreted.
type ContentType string

const (
	ContentVideo      ContentType = "video"
	ContentPDF        ContentType = "pdf"
	ContentQuiz       ContentType = "quiz"
	ContentTextEditor ContentType = "text_editor"
)

// Answer is one choice of a quiz question.
type Answer struct {
	ID        string `json:"id"`
	Text      string `json:"answer_text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is one quiz question with its ordered answer choices.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"question_text"`
	Answers []Answer `json:"answers"`
}

// CorrectAnswer returns the first answer flagged correct.
func (q Question) CorrectAnswer() (Answer, bool) {
	for _, a := range q.Answers {
		if a.IsCorrect {
			return a, true
		}
	}
	return Answer{}, false
}

// ContentData is the type-dependent lesson payload. Only the fields relevant to the
// lesson's content type are populated.
type ContentData struct {
	Description string     `json:"description,omitempty"`
	VideoURL    string     `json:"video_url,omitempty"`
	FileURL     string     `json:"file_url,omitempty"`
	Body        string     `json:"body,omitempty"`
	Questions   []Question `json:"questions,omitempty"`
}

// Lesson is embedded in a course and has no lifecycle of its own.
type Lesson struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Order         int         `json:"order"`
	ContentType   ContentType `json:"content_type"`
	ContentData   ContentData `json:"content_data"`
	IsPreviewable bool        `json:"is_previewable"`
}

// WithoutAnswerKey returns a copy of the lesson with every is_correct flag cleared.
func (l Lesson) WithoutAnswerKey() Lesson {
	if len(l.ContentData.Questions) == 0 {
		return l
	}
	questions := make([]Question, len(l.ContentData.Questions))
	for i, q := range l.ContentData.Questions {
		answers := make([]Answer, len(q.Answers))
		for j, a := range q.Answers {
			answers[j] = Answer{ID: a.ID, Text: a.Text}
		}
		questions[i] = Question{ID: q.ID, Text: q.Text, Answers: answers}
	}
	l.ContentData.Questions = questions
	return l
}

// Lessons is the ordered lesson list persisted as JSONB.
type Lessons []Lesson

// Value implements driver.Valuer.
func (l Lessons) Value() (driver.Value, error) {
	if l == nil {
		l = Lessons{}
	}
	return jsonValue(l, "lessons")
}

// Scan implements sql.Scanner.
func (l *Lessons) Scan(value interface{}) error {
	*l = Lessons{}
	return jsonScan(value, l, "lessons")
}

// Course is the aggregate root owning its lessons.
type Course struct {
	ID            string       `db:"id" json:"id"`
	Title         string       `db:"title" json:"title"`
	Slug          string       `db:"slug" json:"slug"`
	Description   string       `db:"description" json:"description"`
	Category      string       `db:"category" json:"category"`
	InstructorID  *string      `db:"instructor_id" json:"instructor_id,omitempty"`
	Status        CourseStatus `db:"status" json:"status"`
	CoverImageURL string       `db:"cover_image_url" json:"cover_image_url,omitempty"`
	Lessons       Lessons      `db:"lessons" json:"lessons"`
	Version       int          `db:"version" json:"version"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
}

// IsInstructor reports whether userID teaches the course.
func (c *Course) IsInstructor(userID string) bool {
	return c.InstructorID != nil && *c.InstructorID == userID
}

// Lesson returns the lesson with the given id.
func (c *Course) Lesson(id string) (*Lesson, bool) {
	for i := range c.Lessons {
		if c.Lessons[i].ID == id {
			return &c.Lessons[i], true
		}
	}
	return nil, false
}

// LessonIDs returns the set of lesson identities.
func (c *Course) LessonIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(c.Lessons))
	for _, l := range c.Lessons {
		ids[l.ID] = struct{}{}
	}
	return ids
}

// SortedLessons returns a copy of the lessons ordered by Order.
func (c *Course) SortedLessons() []Lesson {
	sorted := make([]Lesson, len(c.Lessons))
	copy(sorted, c.Lessons)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	return sorted
}

// ReorderLessons assigns each listed lesson its index as order. Unlisted lessons keep
// their order. The slice is left sorted by order.
func (c *Course) ReorderLessons(lessonIDs []string) {
	positions := make(map[string]int, len(lessonIDs))
	for i, id := range lessonIDs {
		positions[id] = i
	}
	for i := range c.Lessons {
		if pos, ok := positions[c.Lessons[i].ID]; ok {
			c.Lessons[i].Order = pos
		}
	}
	c.Lessons = c.SortedLessons()
}

// AppendLesson adds a lesson after the current highest order and returns it.
func (c *Course) AppendLesson(l Lesson) Lesson {
	maxOrder := 0
	for _, existing := range c.Lessons {
		if existing.Order > maxOrder {
			maxOrder = existing.Order
		}
	}
	l.Order = maxOrder + 1
	c.Lessons = append(c.Lessons, l)
	return l
}

// SetQuiz replaces the quiz questions of a lesson.
func (c *Course) SetQuiz(lessonID string, questions []Question) bool {
	lesson, ok := c.Lesson(lessonID)
	if !ok {
		return false
	}
	lesson.ContentData = ContentData{Description: lesson.ContentData.Description, Questions: questions}
	return true
}
