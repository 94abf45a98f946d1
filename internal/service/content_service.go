package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/pkg/database"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type contentCourseStore interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, filter dto.CourseFilter) ([]models.Course, int, error)
	Create(ctx context.Context, course *models.Course) error
	SaveLessons(ctx context.Context, course *models.Course) error
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
	ListExcluding(ctx context.Context, ids []string) ([]models.Course, error)
}

type contentPathStore interface {
	FindByID(ctx context.Context, id string) (*models.LearningPath, error)
	Create(ctx context.Context, path *models.LearningPath) error
	ReplaceModules(ctx context.Context, path *models.LearningPath) error
}

// ContentService edits course and learning path structure.
type ContentService struct {
	courses   contentCourseStore
	paths     contentPathStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContentService constructs a ContentService.
func NewContentService(courses contentCourseStore, paths contentPathStore, validate *validator.Validate, logger *zap.Logger) *ContentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService{courses: courses, paths: paths, validator: validate, logger: logger}
}

func canEditCourse(actor models.Actor, course *models.Course) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleInstructor:
		return course.IsInstructor(actor.ID)
	default:
		return false
	}
}

func canEditPath(actor models.Actor, path *models.LearningPath) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleSupervisor:
		return path.IsSupervisor(actor.ID)
	default:
		return false
	}
}

// CreateCourse creates a course. Instructors always own the courses they create.
func (s *ContentService) CreateCourse(ctx context.Context, actor models.Actor, req dto.CreateCourseRequest) (*models.Course, error) {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleInstructor {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins and instructors can create courses")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}

	course := &models.Course{
		Title:         strings.TrimSpace(req.Title),
		Slug:          strings.TrimSpace(req.Slug),
		Description:   req.Description,
		Category:      req.Category,
		Status:        req.Status,
		CoverImageURL: req.CoverImageURL,
		Lessons:       models.Lessons{},
	}
	if course.Status == "" {
		course.Status = models.CourseStatusDraft
	}
	switch {
	case actor.Role == models.RoleInstructor:
		id := actor.ID
		course.InstructorID = &id
	case req.InstructorID != "":
		id := req.InstructorID
		course.InstructorID = &id
	}

	if err := s.courses.Create(ctx, course); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course slug already exists")
		}
		return nil, appErrors.Internal(err, "failed to create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("actor_id", actor.ID))
	return course, nil
}

// GetCourse returns a course. Students never see quiz answer keys.
func (s *ContentService) GetCourse(ctx context.Context, actor models.Actor, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}
	if actor.Role == models.RoleStudent {
		for i := range course.Lessons {
			course.Lessons[i] = course.Lessons[i].WithoutAnswerKey()
		}
	}
	course.Lessons = course.SortedLessons()
	return course, nil
}

// ListCourses returns a page of course summaries.
func (s *ContentService) ListCourses(ctx context.Context, filter dto.CourseFilter) ([]dto.CourseSummary, *models.Pagination, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list courses")
	}
	summaries := make([]dto.CourseSummary, len(courses))
	for i, c := range courses {
		summaries[i] = dto.SummarizeCourse(c)
	}
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return summaries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// AddLesson appends a lesson after the current last one.
func (s *ContentService) AddLesson(ctx context.Context, actor models.Actor, courseID string, req dto.AddLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid lesson payload")
	}
	lesson := models.Lesson{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(req.Title),
		ContentType:   req.ContentType,
		ContentData:   models.ContentData{Description: req.Description, VideoURL: req.VideoURL},
		IsPreviewable: req.IsPreviewable,
	}
	var added models.Lesson
	_, err := s.editCourse(ctx, actor, courseID, func(course *models.Course) error {
		added = course.AppendLesson(lesson)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// SaveQuiz replaces the questions of a quiz lesson. Each question's CorrectAnswer
// index flags exactly one answer as correct; a nil index leaves none correct.
func (s *ContentService) SaveQuiz(ctx context.Context, actor models.Actor, courseID, lessonID string, req dto.SaveQuizRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid quiz payload")
	}
	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}
	course, err := s.editCourse(ctx, actor, courseID, func(course *models.Course) error {
		lesson, ok := course.Lesson(lessonID)
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		if lesson.ContentType != models.ContentQuiz {
			return appErrors.Clone(appErrors.ErrNotQuiz, "")
		}
		course.SetQuiz(lessonID, questions)
		return nil
	})
	if err != nil {
		return nil, err
	}
	lesson, _ := course.Lesson(lessonID)
	return lesson, nil
}

func buildQuestions(inputs []dto.QuizQuestionInput) ([]models.Question, error) {
	questions := make([]models.Question, len(inputs))
	for i, in := range inputs {
		if in.CorrectAnswer != nil && *in.CorrectAnswer >= len(in.Answers) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "correct_answer is out of range for question "+QuestionKey(i))
		}
		answers := make([]models.Answer, len(in.Answers))
		for j, text := range in.Answers {
			answers[j] = models.Answer{
				ID:        uuid.NewString(),
				Text:      text,
				IsCorrect: in.CorrectAnswer != nil && *in.CorrectAnswer == j,
			}
		}
		questions[i] = models.Question{ID: uuid.NewString(), Text: in.Text, Answers: answers}
	}
	return questions, nil
}

// ReorderLessons sets each listed lesson's order to its index in lessonIDs. Lessons not
// listed keep their order. Applying the same list twice yields the same result.
func (s *ContentService) ReorderLessons(ctx context.Context, actor models.Actor, courseID string, lessonIDs []string) ([]models.Lesson, error) {
	if len(lessonIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lesson_order must be a non-empty list")
	}
	course, err := s.editCourse(ctx, actor, courseID, func(course *models.Course) error {
		course.ReorderLessons(lessonIDs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return course.SortedLessons(), nil
}

// editCourse loads, authorizes, mutates and saves a course, reloading and reapplying
// mutate when another writer got there first.
func (s *ContentService) editCourse(ctx context.Context, actor models.Actor, courseID string, mutate func(*models.Course) error) (*models.Course, error) {
	for attempt := 0; ; attempt++ {
		course, err := s.courses.FindByID(ctx, courseID)
		if err != nil {
			return nil, lookupError(err, "course not found", "failed to load course")
		}
		if !canEditCourse(actor, course) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to edit this course")
		}
		if err := mutate(course); err != nil {
			return nil, err
		}
		err = s.courses.SaveLessons(ctx, course)
		if err == nil {
			return course, nil
		}
		if !isStale(err) {
			return nil, appErrors.Internal(err, "failed to save course")
		}
		if attempt+1 >= maxStaleRetries {
			return nil, err
		}
		s.logger.Debug("course changed concurrently, retrying", zap.String("course_id", courseID), zap.Int("attempt", attempt+1))
	}
}

// CreatePath creates a learning path. Supervisors always own the paths they create.
func (s *ContentService) CreatePath(ctx context.Context, actor models.Actor, req dto.CreatePathRequest) (*models.LearningPath, error) {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleSupervisor {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins and supervisors can create learning paths")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid learning path payload")
	}
	path := &models.LearningPath{Title: strings.TrimSpace(req.Title), Description: req.Description, Modules: models.Modules{}}
	switch {
	case actor.Role == models.RoleSupervisor:
		id := actor.ID
		path.SupervisorID = &id
	case req.SupervisorID != "":
		id := req.SupervisorID
		path.SupervisorID = &id
	}
	if err := s.paths.Create(ctx, path); err != nil {
		return nil, appErrors.Internal(err, "failed to create learning path")
	}
	return path, nil
}

// GetPath returns a learning path.
func (s *ContentService) GetPath(ctx context.Context, id string) (*models.LearningPath, error) {
	path, err := s.paths.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "learning path not found", "failed to load learning path")
	}
	return path, nil
}

// AvailableCourses lists courses not yet part of the path.
func (s *ContentService) AvailableCourses(ctx context.Context, pathID string) ([]dto.CourseSummary, error) {
	path, err := s.GetPath(ctx, pathID)
	if err != nil {
		return nil, err
	}
	courses, err := s.courses.ListExcluding(ctx, path.CourseIDs())
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list available courses")
	}
	summaries := make([]dto.CourseSummary, len(courses))
	for i, c := range courses {
		summaries[i] = dto.SummarizeCourse(c)
	}
	return summaries, nil
}

// RestructurePath replaces the path's modules with one per existing course id, ordered
// by position. Unknown course ids are dropped; an empty list clears the path.
func (s *ContentService) RestructurePath(ctx context.Context, actor models.Actor, pathID string, courseIDs []string) (*models.LearningPath, error) {
	if courseIDs == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course_ids must be a list")
	}
	path, err := s.GetPath(ctx, pathID)
	if err != nil {
		return nil, err
	}
	if !canEditPath(actor, path) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to edit this learning path")
	}

	existing, err := s.courses.ExistingIDs(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to resolve courses")
	}
	if dropped := len(courseIDs) - len(existing); dropped > 0 {
		s.logger.Info("dropping unknown courses from learning path", zap.String("path_id", pathID), zap.Int("dropped", dropped))
	}
	path.ReplaceModules(existing)
	if err := s.paths.ReplaceModules(ctx, path); err != nil {
		return nil, lookupError(err, "learning path not found", "failed to save learning path")
	}
	return path, nil
}
