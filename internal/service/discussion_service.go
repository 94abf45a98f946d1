package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type discussionStore interface {
	CreateThread(ctx context.Context, t *models.DiscussionThread) error
	FindThread(ctx context.Context, id string) (*models.DiscussionThread, error)
	ListThreadsByLesson(ctx context.Context, lessonID string) ([]models.DiscussionThread, error)
	CreatePost(ctx context.Context, p *models.DiscussionPost) error
	ListPosts(ctx context.Context, threadID string) ([]models.DiscussionPost, error)
}

type threadNotifier interface {
	ThreadCreated(ctx context.Context, event dto.ThreadCreatedEvent)
}

// DiscussionService manages lesson Q&A threads.
type DiscussionService struct {
	store     discussionStore
	courses   courseReader
	notifier  threadNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDiscussionService constructs a DiscussionService. A nil notifier disables
// thread notifications.
func NewDiscussionService(store discussionStore, courses courseReader, notifier threadNotifier, validate *validator.Validate, logger *zap.Logger) *DiscussionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscussionService{store: store, courses: courses, notifier: notifier, validator: validate, logger: logger}
}

// CreateThread opens a question on a lesson and emits a single ThreadCreated event.
func (s *DiscussionService) CreateThread(ctx context.Context, actor models.Actor, lessonID string, req dto.CreateThreadRequest) (*models.DiscussionThread, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid thread payload")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}
	if _, ok := course.Lesson(lessonID); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}

	thread := &models.DiscussionThread{
		CourseID:  course.ID,
		LessonID:  lessonID,
		StudentID: actor.ID,
		Title:     strings.TrimSpace(req.Title),
		Question:  strings.TrimSpace(req.Question),
	}
	if err := s.store.CreateThread(ctx, thread); err != nil {
		return nil, appErrors.Internal(err, "failed to create thread")
	}

	if s.notifier != nil {
		s.notifier.ThreadCreated(ctx, dto.ThreadCreatedEvent{
			ThreadID:      thread.ID,
			StudentID:     actor.ID,
			StudentName:   actor.Name,
			CourseID:      thread.CourseID,
			LessonID:      thread.LessonID,
			QuestionTitle: thread.Title,
			QuestionText:  thread.Question,
			Timestamp:     thread.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return thread, nil
}

// AddPost replies to a thread.
func (s *DiscussionService) AddPost(ctx context.Context, actor models.Actor, threadID string, req dto.CreatePostRequest) (*models.DiscussionPost, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid post payload")
	}
	if _, err := s.store.FindThread(ctx, threadID); err != nil {
		return nil, lookupError(err, "thread not found", "failed to load thread")
	}
	post := &models.DiscussionPost{ThreadID: threadID, UserID: actor.ID, Body: strings.TrimSpace(req.Body)}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, appErrors.Internal(err, "failed to create post")
	}
	return post, nil
}

// ListThreads returns a lesson's threads newest first.
func (s *DiscussionService) ListThreads(ctx context.Context, lessonID string) ([]models.DiscussionThread, error) {
	threads, err := s.store.ListThreadsByLesson(ctx, lessonID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list threads")
	}
	if threads == nil {
		threads = []models.DiscussionThread{}
	}
	return threads, nil
}

// GetThread returns a thread with its replies.
func (s *DiscussionService) GetThread(ctx context.Context, id string) (*dto.ThreadDetail, error) {
	thread, err := s.store.FindThread(ctx, id)
	if err != nil {
		return nil, lookupError(err, "thread not found", "failed to load thread")
	}
	posts, err := s.store.ListPosts(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list posts")
	}
	if posts == nil {
		posts = []models.DiscussionPost{}
	}
	return &dto.ThreadDetail{DiscussionThread: *thread, Posts: posts}, nil
}
