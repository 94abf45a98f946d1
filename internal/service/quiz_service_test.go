package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

func TestGradeQuiz(t *testing.T) {
	questions := []models.Question{
		newQuestion("q1", "a2", "a1", "a2"),
		newQuestion("q2", "b1", "b1", "b2"),
	}

	tests := []struct {
		name      string
		questions []models.Question
		answers   map[string]string
		correct   int
		score     float64
	}{
		{"one of two", questions, map[string]string{"question_1": "a2", "question_2": "b2"}, 1, 50},
		{"all correct", questions, map[string]string{"question_1": "a2", "question_2": "b1"}, 2, 100},
		{"nothing submitted", questions, map[string]string{}, 0, 0},
		{"empty quiz", nil, map[string]string{"question_1": "x"}, 0, 100},
		{"no flagged answer never counts", []models.Question{newQuestion("q1", "", "a1")}, map[string]string{"question_1": "a1"}, 0, 0},
		{"two of three rounds", append(questions, newQuestion("q3", "c1", "c1")), map[string]string{"question_1": "a2", "question_2": "b1"}, 2, 66.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			correct, total, score := GradeQuiz(tt.questions, tt.answers)
			assert.Equal(t, tt.correct, correct)
			assert.Equal(t, len(tt.questions), total)
			assert.Equal(t, tt.score, score)
		})
	}
}

func quizFixture() (*fakeCourseStore, *fakeEnrollmentStore) {
	course := courseWith("c1",
		newLesson("l1", 1),
		newQuizLesson("quiz", 2, newQuestion("q1", "a2", "a1", "a2"), newQuestion("q2", "b1", "b1", "b2")),
	)
	return newFakeCourseStore(course), newFakeEnrollmentStore(courseEnrollment("e1", "s1", "c1"))
}

func TestQuizServiceSubmitRecordsAttempt(t *testing.T) {
	courses, enrollments := quizFixture()
	svc := NewQuizService(courses, enrollments, nil, NewMetricsService(), nil, "/api/v1/")
	answers := map[string]string{"question_1": "a2", "question_2": "b2"}

	res, err := svc.Submit(context.Background(), "s1", dto.SubmitQuizRequest{CourseID: "c1", LessonID: "quiz", Answers: answers})
	require.NoError(t, err)
	assert.Equal(t, 50.0, res.Score)
	assert.Equal(t, "e1", res.EnrollmentID)
	assert.Equal(t, "/api/v1/enrollments/e1/attempts/"+res.AttemptID, res.ResultURL)

	attempts := enrollments.enrollments["e1"].QuizAttempts
	require.Len(t, attempts, 1)
	assert.Equal(t, res.AttemptID, attempts[0].AttemptID)
	assert.Equal(t, "quiz", attempts[0].LessonID)
	assert.Equal(t, answers, attempts[0].Answers)
	assert.False(t, attempts[0].SubmittedAt.IsZero())
}

func TestQuizServiceAttemptsAreAppendOnly(t *testing.T) {
	courses, enrollments := quizFixture()
	svc := NewQuizService(courses, enrollments, nil, nil, nil, "/api/v1")
	ctx := context.Background()

	first, err := svc.Submit(ctx, "s1", dto.SubmitQuizRequest{CourseID: "c1", LessonID: "quiz", Answers: map[string]string{"question_1": "a1"}})
	require.NoError(t, err)
	before := enrollments.enrollments["e1"].QuizAttempts[0]

	second, err := svc.Submit(ctx, "s1", dto.SubmitQuizRequest{CourseID: "c1", LessonID: "quiz", Answers: map[string]string{"question_1": "a2", "question_2": "b1"}})
	require.NoError(t, err)
	assert.NotEqual(t, first.AttemptID, second.AttemptID)

	attempts := enrollments.enrollments["e1"].QuizAttempts
	require.Len(t, attempts, 2)
	assert.Equal(t, before, attempts[0])
	assert.Equal(t, 0.0, attempts[0].Score)
	assert.Equal(t, 100.0, attempts[1].Score)
}

func TestQuizServiceSubmitErrors(t *testing.T) {
	tests := []struct {
		name      string
		studentID string
		req       dto.SubmitQuizRequest
		code      string
	}{
		{"missing lesson id", "s1", dto.SubmitQuizRequest{CourseID: "c1"}, appErrors.ErrValidation.Code},
		{"not enrolled", "s2", dto.SubmitQuizRequest{CourseID: "c1", LessonID: "quiz"}, appErrors.ErrNotFound.Code},
		{"lesson missing", "s1", dto.SubmitQuizRequest{CourseID: "c1", LessonID: "nope"}, appErrors.ErrValidation.Code},
		{"lesson not a quiz", "s1", dto.SubmitQuizRequest{CourseID: "c1", LessonID: "l1"}, appErrors.ErrNotQuiz.Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			courses, enrollments := quizFixture()
			svc := NewQuizService(courses, enrollments, nil, nil, nil, "/api/v1")
			_, err := svc.Submit(context.Background(), tt.studentID, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, appErrors.FromError(err).Code)
			assert.Empty(t, enrollments.enrollments["e1"].QuizAttempts)
		})
	}
}

func TestQuizServiceResult(t *testing.T) {
	courses, enrollments := quizFixture()
	svc := NewQuizService(courses, enrollments, nil, nil, nil, "/api/v1")
	ctx := context.Background()
	res, err := svc.Submit(ctx, "s1", dto.SubmitQuizRequest{CourseID: "c1", LessonID: "quiz", Answers: map[string]string{"question_1": "a2"}})
	require.NoError(t, err)

	result, err := svc.Result(ctx, "s1", "e1", res.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, "c1", result.CourseID)
	assert.Equal(t, "Lesson quiz", result.LessonTitle)
	assert.Equal(t, 2, result.TotalQuestions)
	assert.Equal(t, 50.0, result.Attempt.Score)

	_, err = svc.Result(ctx, "s2", "e1", res.AttemptID)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Result(ctx, "s1", "e1", "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
