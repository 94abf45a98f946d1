package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type lessonCourseReader interface {
	FindBySlug(ctx context.Context, slug string) (*models.Course, error)
}

type lessonEnrollmentStore interface {
	FindByStudentAndTarget(ctx context.Context, studentID, enrollableID string) (*models.Enrollment, error)
	TouchLastAccessed(ctx context.Context, enrollmentID, lessonID string) error
}

// LessonService serves the lesson player.
type LessonService struct {
	courses     lessonCourseReader
	enrollments lessonEnrollmentStore
	logger      *zap.Logger
}

// NewLessonService constructs a LessonService.
func NewLessonService(courses lessonCourseReader, enrollments lessonEnrollmentStore, logger *zap.Logger) *LessonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{courses: courses, enrollments: enrollments, logger: logger}
}

// View returns the lesson at order in the course identified by slug, falling back to
// the first lesson when no lesson has that order. Opening a lesson marks it as the
// caller's last accessed lesson when the caller is enrolled.
func (s *LessonService) View(ctx context.Context, actor models.Actor, slug string, order int) (*dto.LessonView, error) {
	course, err := s.courses.FindBySlug(ctx, slug)
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}
	lessons := course.SortedLessons()
	if len(lessons) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course has no lessons")
	}

	idx := 0
	for i, l := range lessons {
		if l.Order == order {
			idx = i
			break
		}
	}

	view := &dto.LessonView{
		Course:        dto.SummarizeCourse(*course),
		Lessons:       lessons,
		CurrentLesson: lessons[idx],
	}
	if idx > 0 {
		prev := lessons[idx-1].Order
		view.PrevLessonOrder = &prev
	}
	if idx < len(lessons)-1 {
		next := lessons[idx+1].Order
		view.NextLessonOrder = &next
	}

	if actor.Role == models.RoleStudent {
		for i := range view.Lessons {
			view.Lessons[i] = view.Lessons[i].WithoutAnswerKey()
		}
		view.CurrentLesson = view.Lessons[idx]

		enrollment, err := s.enrollments.FindByStudentAndTarget(ctx, actor.ID, course.ID)
		switch {
		case err == nil:
			view.Progress = enrollment.Progress
			if err := s.enrollments.TouchLastAccessed(ctx, enrollment.ID, view.CurrentLesson.ID); err != nil {
				s.logger.Warn("failed to record last accessed lesson", zap.String("enrollment_id", enrollment.ID), zap.Error(err))
			}
		case errors.Is(err, sql.ErrNoRows):
			// not enrolled: preview without progress
		default:
			return nil, appErrors.Internal(err, "failed to load enrollment")
		}
	}

	return view, nil
}
