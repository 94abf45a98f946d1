package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type stubProvider struct {
	answer   string
	err      error
	question string
	lesson   dto.LessonContext
}

func (p *stubProvider) Answer(ctx context.Context, question string, lesson dto.LessonContext) (string, error) {
	p.question = question
	p.lesson = lesson
	return p.answer, p.err
}

func (p *stubProvider) Name() string { return "stub" }

func assistantCourses() *fakeCourseStore {
	described := newLesson("l1", 1)
	described.ContentData = models.ContentData{Description: "Goroutines are cheap threads."}
	course := courseWith("c1", described, newLesson("l2", 2))
	course.Title = "Concurrency"
	return newFakeCourseStore(course)
}

func TestAssistantServiceAsk(t *testing.T) {
	provider := &stubProvider{answer: "Use a WaitGroup."}
	metrics := NewMetricsService()
	svc := NewAssistantService(assistantCourses(), provider, nil, metrics, nil)

	res, err := svc.Ask(context.Background(), dto.AskRequest{Question: " How do I wait? ", CourseID: "c1", LessonID: "l1"})
	require.NoError(t, err)
	assert.Equal(t, "Use a WaitGroup.", res.Answer)
	assert.Equal(t, "How do I wait?", provider.question)
	assert.Equal(t, dto.LessonContext{CourseTitle: "Concurrency", LessonTitle: "Lesson l1", LessonContent: "Goroutines are cheap threads."}, provider.lesson)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.assistantCalls.WithLabelValues("stub", "ok")))
}

func TestAssistantServiceFallbackContent(t *testing.T) {
	provider := &stubProvider{answer: "ok"}
	svc := NewAssistantService(assistantCourses(), provider, nil, nil, nil)

	_, err := svc.Ask(context.Background(), dto.AskRequest{Question: "?", CourseID: "c1", LessonID: "l2"})
	require.NoError(t, err)
	assert.Equal(t, "No textual content available for this lesson.", provider.lesson.LessonContent)
}

func TestAssistantServiceErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewAssistantService(assistantCourses(), nil, nil, nil, nil).Ask(ctx, dto.AskRequest{Question: "?", CourseID: "c1", LessonID: "l1"})
	assert.Equal(t, appErrors.ErrUnavailable.Code, errorCode(err))

	svc := NewAssistantService(assistantCourses(), &stubProvider{}, nil, nil, nil)
	_, err = svc.Ask(ctx, dto.AskRequest{CourseID: "c1", LessonID: "l1"})
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
	_, err = svc.Ask(ctx, dto.AskRequest{Question: "?", CourseID: "c9", LessonID: "l1"})
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
	_, err = svc.Ask(ctx, dto.AskRequest{Question: "?", CourseID: "c1", LessonID: "l9"})
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))

	metrics := NewMetricsService()
	failing := NewAssistantService(assistantCourses(), &stubProvider{err: errors.New("rate limited")}, nil, metrics, nil)
	_, err = failing.Ask(ctx, dto.AskRequest{Question: "?", CourseID: "c1", LessonID: "l1"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.Equal(t, "the assistant could not answer right now", appErr.Message)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.assistantCalls.WithLabelValues("stub", "error")))
}
