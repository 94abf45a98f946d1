package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/pkg/database"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type enrollmentRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	Create(ctx context.Context, e *models.Enrollment) error
}

type pathReader interface {
	FindByID(ctx context.Context, id string) (*models.LearningPath, error)
}

// EnrollmentService enrolls students into courses and learning paths.
type EnrollmentService struct {
	repo      enrollmentRepository
	courses   courseReader
	paths     pathReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, courses courseReader, paths pathReader, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, courses: courses, paths: paths, validator: validate, logger: logger}
}

// Enroll creates the student's enrollment in a course or learning path. Enrolling twice
// in the same target is a conflict.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID string, req dto.EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}
	target, err := models.ParseEnrollable(req.EnrollableType, req.EnrollableID)
	if err != nil {
		return nil, validationError(err, "invalid enrollable")
	}

	if courseID, ok := target.CourseID(); ok {
		if _, err := s.courses.FindByID(ctx, courseID); err != nil {
			return nil, lookupError(err, "course not found", "failed to load course")
		}
	} else if pathID, ok := target.PathID(); ok {
		if _, err := s.paths.FindByID(ctx, pathID); err != nil {
			return nil, lookupError(err, "learning path not found", "failed to load learning path")
		}
	}

	enrollment := &models.Enrollment{
		StudentID:        studentID,
		Enrollable:       target,
		Status:           models.EnrollmentInProgress,
		CompletedLessons: models.LessonSet{},
		QuizAttempts:     models.QuizAttempts{},
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled")
		}
		return nil, appErrors.Internal(err, "failed to create enrollment")
	}
	s.logger.Info("student enrolled",
		zap.String("student_id", studentID),
		zap.String("enrollable_type", string(target.Kind)),
		zap.String("enrollable_id", target.ID))
	return enrollment, nil
}

// ListMine returns the student's enrollments.
func (s *EnrollmentService) ListMine(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	enrollments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list enrollments")
	}
	if enrollments == nil {
		enrollments = []models.Enrollment{}
	}
	return enrollments, nil
}
