package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type quizEnrollmentStore interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindByStudentAndTarget(ctx context.Context, studentID, enrollableID string) (*models.Enrollment, error)
	AppendAttempt(ctx context.Context, enrollmentID string, attempt models.QuizAttempt) error
}

// QuizService grades quiz submissions and records attempts.
type QuizService struct {
	courses     courseReader
	enrollments quizEnrollmentStore
	validator   *validator.Validate
	metrics     *MetricsService
	logger      *zap.Logger
	apiPrefix   string
	now         func() time.Time
}

// NewQuizService constructs a QuizService. apiPrefix is used to build result links.
func NewQuizService(courses courseReader, enrollments quizEnrollmentStore, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, apiPrefix string) *QuizService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizService{
		courses:     courses,
		enrollments: enrollments,
		validator:   validate,
		metrics:     metrics,
		logger:      logger,
		apiPrefix:   strings.TrimSuffix(apiPrefix, "/"),
		now:         time.Now,
	}
}

// QuestionKey is the submission key of the question at zero-based index i.
func QuestionKey(i int) string {
	return fmt.Sprintf("question_%d", i+1)
}

// GradeQuiz scores answers against questions in stored order. A question counts as
// correct only when the submitted answer id equals its flagged-correct answer; a
// question without a correct answer never counts. An empty quiz scores 100.
func GradeQuiz(questions []models.Question, answers map[string]string) (correct, total int, score float64) {
	total = len(questions)
	if total == 0 {
		return 0, 0, 100
	}
	for i, q := range questions {
		right, ok := q.CorrectAnswer()
		if !ok {
			continue
		}
		if submitted, ok := answers[QuestionKey(i)]; ok && submitted == right.ID {
			correct++
		}
	}
	return correct, total, round2(float64(correct) / float64(total) * 100)
}

// Submit grades a submission for the student's enrollment in req.CourseID and appends
// the attempt to the enrollment history.
func (s *QuizService) Submit(ctx context.Context, studentID string, req dto.SubmitQuizRequest) (*dto.SubmitQuizResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid quiz submission")
	}

	enrollment, err := s.enrollments.FindByStudentAndTarget(ctx, studentID, req.CourseID)
	if err != nil {
		return nil, lookupError(err, "enrollment not found", "failed to load enrollment")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}
	lesson, ok := course.Lesson(req.LessonID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lesson not found in course")
	}
	if lesson.ContentType != models.ContentQuiz {
		return nil, appErrors.Clone(appErrors.ErrNotQuiz, "")
	}

	answers := req.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	_, _, score := GradeQuiz(lesson.ContentData.Questions, answers)

	attempt := models.QuizAttempt{
		AttemptID:   uuid.NewString(),
		LessonID:    lesson.ID,
		Score:       score,
		SubmittedAt: s.now().UTC(),
		Answers:     answers,
	}
	if err := s.enrollments.AppendAttempt(ctx, enrollment.ID, attempt); err != nil {
		return nil, lookupError(err, "enrollment not found", "failed to record quiz attempt")
	}
	s.metrics.ObserveQuizAttempt(score)
	s.logger.Info("quiz attempt recorded",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("lesson_id", lesson.ID),
		zap.Float64("score", score))

	return &dto.SubmitQuizResponse{
		AttemptID:    attempt.AttemptID,
		EnrollmentID: enrollment.ID,
		Score:        score,
		ResultURL:    fmt.Sprintf("%s/enrollments/%s/attempts/%s", s.apiPrefix, enrollment.ID, attempt.AttemptID),
	}, nil
}

// Result returns one recorded attempt. Only the enrolled student may read it.
func (s *QuizService) Result(ctx context.Context, studentID, enrollmentID, attemptID string) (*dto.QuizResult, error) {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		return nil, lookupError(err, "enrollment not found", "failed to load enrollment")
	}
	if enrollment.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "attempt belongs to another student")
	}
	attempt, ok := enrollment.QuizAttempts.Find(attemptID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "attempt not found")
	}

	result := &dto.QuizResult{EnrollmentID: enrollment.ID, CourseID: enrollment.Enrollable.ID, Attempt: attempt}
	courseID, isCourse := enrollment.CourseID()
	if !isCourse {
		return result, nil
	}
	course, err := s.courses.FindByID(ctx, courseID)
	switch {
	case err == nil:
		if lesson, ok := course.Lesson(attempt.LessonID); ok {
			result.LessonTitle = lesson.Title
			result.TotalQuestions = len(lesson.ContentData.Questions)
		}
	case errors.Is(err, sql.ErrNoRows):
		// course deleted since the attempt; the attempt itself is still readable
	default:
		return nil, appErrors.Internal(err, "failed to load course")
	}
	return result, nil
}
