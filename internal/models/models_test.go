package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleValid(t *testing.T) {
	for _, r := range Roles() {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("guest").Valid())
}

func TestCourseReorderLessonsKeepsUnlisted(t *testing.T) {
	c := &Course{Lessons: Lessons{
		{ID: "a", Order: 1}, {ID: "b", Order: 2}, {ID: "c", Order: 5},
	}}
	c.ReorderLessons([]string{"b", "a", "ghost"})

	require.Len(t, c.Lessons, 3)
	assert.Equal(t, "b", c.Lessons[0].ID)
	assert.Equal(t, 0, c.Lessons[0].Order)
	assert.Equal(t, "a", c.Lessons[1].ID)
	assert.Equal(t, 1, c.Lessons[1].Order)
	assert.Equal(t, "c", c.Lessons[2].ID)
	assert.Equal(t, 5, c.Lessons[2].Order)
}

func TestCourseAppendLesson(t *testing.T) {
	c := &Course{}
	first := c.AppendLesson(Lesson{ID: "a"})
	assert.Equal(t, 1, first.Order)
	c.Lessons[0].Order = 7
	second := c.AppendLesson(Lesson{ID: "b"})
	assert.Equal(t, 8, second.Order)
}

func TestCourseSetQuizKeepsDescription(t *testing.T) {
	c := &Course{Lessons: Lessons{{ID: "q", ContentData: ContentData{Description: "intro", VideoURL: "x"}}}}
	assert.True(t, c.SetQuiz("q", []Question{{ID: "q1"}}))
	assert.Equal(t, "intro", c.Lessons[0].ContentData.Description)
	assert.Empty(t, c.Lessons[0].ContentData.VideoURL)
	assert.False(t, c.SetQuiz("missing", nil))
}

func TestLearningPathReplaceModules(t *testing.T) {
	p := &LearningPath{Modules: Modules{{CourseID: "A", Order: 0}, {CourseID: "B", Order: 1}}}
	p.ReplaceModules([]string{"C"})
	assert.Equal(t, Modules{{CourseID: "C", Order: 0}}, p.Modules)
}

func TestLessonSet(t *testing.T) {
	var s LessonSet
	assert.True(t, s.Add("a"))
	assert.False(t, s.Add("a"))
	s = append(s, "a", "orphan")
	assert.Equal(t, 1, s.CountIn(map[string]struct{}{"a": {}, "b": {}}))
}

func TestParseEnrollable(t *testing.T) {
	e, err := ParseEnrollable("Course", "c-1")
	require.NoError(t, err)
	id, ok := e.CourseID()
	assert.True(t, ok)
	assert.Equal(t, "c-1", id)
	_, ok = e.PathID()
	assert.False(t, ok)

	_, err = ParseEnrollable("Program", "x")
	assert.Error(t, err)
	_, err = ParseEnrollable("Course", "")
	assert.Error(t, err)
}

func TestJSONBScan(t *testing.T) {
	var lessons Lessons
	require.NoError(t, lessons.Scan([]byte(`[{"id":"a","order":1,"content_type":"quiz","content_data":{"questions":[{"id":"q1","answers":[{"id":"x","is_correct":true}]}]}}]`)))
	require.Len(t, lessons, 1)
	ans, ok := lessons[0].ContentData.Questions[0].CorrectAnswer()
	assert.True(t, ok)
	assert.Equal(t, "x", ans.ID)

	var attempts QuizAttempts
	require.NoError(t, attempts.Scan(nil))
	assert.Empty(t, attempts)
	assert.Error(t, attempts.Scan(42))

	v, err := LessonSet(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}
