package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type progressStore interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindByStudentAndTarget(ctx context.Context, studentID, enrollableID string) (*models.Enrollment, error)
	SaveProgress(ctx context.Context, e *models.Enrollment) error
}

// ProgressService keeps enrollment progress consistent with completed lessons.
type ProgressService struct {
	courses     courseReader
	enrollments progressStore
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewProgressService constructs a ProgressService.
func NewProgressService(courses courseReader, enrollments progressStore, metrics *MetricsService, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{courses: courses, enrollments: enrollments, metrics: metrics, logger: logger}
}

// ApplyProgress recomputes e's progress against course. A nil course means the course
// no longer exists: progress drops to 0 and status is left alone. Only distinct
// completed ids that still name a lesson of the course are counted.
func ApplyProgress(course *models.Course, e *models.Enrollment) {
	if course == nil {
		e.Progress = 0
		return
	}
	total := len(course.Lessons)
	if total == 0 {
		if e.Status == models.EnrollmentCompleted {
			e.Progress = 100
		} else {
			e.Progress = 0
		}
		return
	}
	completed := e.CompletedLessons.CountIn(course.LessonIDs())
	progress := round2(float64(completed) / float64(total) * 100)
	if progress >= 100 {
		progress = 100
		e.Status = models.EnrollmentCompleted
	}
	e.Progress = progress
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Recompute refreshes and persists the progress of a course enrollment. Learning path
// enrollments have no lesson list and are returned unchanged.
func (s *ProgressService) Recompute(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error) {
	courseID, ok := e.CourseID()
	if !ok {
		return e, nil
	}
	for attempt := 0; ; attempt++ {
		course, err := s.loadCourse(ctx, courseID)
		if err != nil {
			return nil, err
		}
		ApplyProgress(course, e)
		err = s.enrollments.SaveProgress(ctx, e)
		if err == nil {
			return e, nil
		}
		if !isStale(err) || attempt+1 >= maxStaleRetries {
			return nil, s.saveError(err)
		}
		if e, err = s.reload(ctx, e.ID); err != nil {
			return nil, err
		}
	}
}

// MarkLessonComplete records lessonID as completed for the student's course enrollment,
// makes it the last accessed lesson and returns the recomputed progress.
func (s *ProgressService) MarkLessonComplete(ctx context.Context, studentID string, req dto.MarkLessonCompleteRequest) (*dto.ProgressResponse, error) {
	if strings.TrimSpace(req.CourseID) == "" || strings.TrimSpace(req.LessonID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course_id and lesson_id are required")
	}

	enrollment, err := s.enrollments.FindByStudentAndTarget(ctx, studentID, req.CourseID)
	if err != nil {
		return nil, lookupError(err, "enrollment not found", "failed to load enrollment")
	}
	if _, ok := enrollment.CourseID(); !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment is not a course enrollment")
	}

	for attempt := 0; ; attempt++ {
		course, err := s.loadCourse(ctx, req.CourseID)
		if err != nil {
			return nil, err
		}
		if course == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		if _, ok := course.Lesson(req.LessonID); !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}

		added := enrollment.CompletedLessons.Add(req.LessonID)
		lessonID := req.LessonID
		enrollment.LastAccessedLessonID = &lessonID
		ApplyProgress(course, enrollment)

		err = s.enrollments.SaveProgress(ctx, enrollment)
		if err == nil {
			if added {
				s.metrics.IncLessonCompleted()
			}
			return &dto.ProgressResponse{Status: "success", Progress: enrollment.Progress}, nil
		}
		if !isStale(err) || attempt+1 >= maxStaleRetries {
			return nil, s.saveError(err)
		}
		s.logger.Debug("enrollment changed concurrently, retrying", zap.String("enrollment_id", enrollment.ID), zap.Int("attempt", attempt+1))
		if enrollment, err = s.reload(ctx, enrollment.ID); err != nil {
			return nil, err
		}
	}
}

func (s *ProgressService) loadCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	return course, nil
}

func (s *ProgressService) reload(ctx context.Context, id string) (*models.Enrollment, error) {
	e, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "enrollment not found", "failed to reload enrollment")
	}
	return e, nil
}

func (s *ProgressService) saveError(err error) error {
	if isStale(err) {
		return err
	}
	return appErrors.Internal(err, "failed to save enrollment progress")
}
