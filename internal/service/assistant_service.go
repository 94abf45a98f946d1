package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/assistant"
	"github.com/noah-isme/lms-api/internal/dto"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

const noLessonContent = "No textual content available for this lesson."

// AssistantService answers student questions grounded on the lesson being studied.
type AssistantService struct {
	courses   courseReader
	provider  assistant.Provider
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewAssistantService constructs an AssistantService. A nil provider leaves the
// assistant unavailable.
func NewAssistantService(courses courseReader, provider assistant.Provider, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *AssistantService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantService{courses: courses, provider: provider, validator: validate, metrics: metrics, logger: logger}
}

// Ask answers req.Question using the lesson's title and description as context.
func (s *AssistantService) Ask(ctx context.Context, req dto.AskRequest) (*dto.AskResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid assistant request")
	}
	if s.provider == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "assistant is not configured")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}
	lesson, ok := course.Lesson(req.LessonID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	content := strings.TrimSpace(lesson.ContentData.Description)
	if content == "" {
		content = noLessonContent
	}

	answer, err := s.provider.Answer(ctx, strings.TrimSpace(req.Question), dto.LessonContext{
		CourseTitle:   course.Title,
		LessonTitle:   lesson.Title,
		LessonContent: content,
	})
	if err != nil {
		s.metrics.RecordAssistantRequest(s.provider.Name(), "error")
		s.logger.Error("assistant provider failed",
			zap.String("provider", s.provider.Name()),
			zap.String("lesson_id", lesson.ID),
			zap.Error(err))
		return nil, appErrors.Internal(err, "the assistant could not answer right now")
	}
	s.metrics.RecordAssistantRequest(s.provider.Name(), "ok")
	return &dto.AskResponse{Answer: answer}, nil
}
