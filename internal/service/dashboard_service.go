package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/pkg/cache"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type dashboardUserStore interface {
	CountByRole(ctx context.Context) (map[models.Role]int, error)
}

type dashboardCourseStore interface {
	Count(ctx context.Context) (int, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Course, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error)
}

type dashboardEnrollmentStore interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	CountByTargets(ctx context.Context, enrollableIDs []string) (map[string]int, error)
	CountDistinctStudents(ctx context.Context, enrollableIDs []string) (int, error)
	AverageProgressByStudent(ctx context.Context, studentIDs []string) (map[string]float64, error)
	AverageProgress(ctx context.Context, studentIDs []string) (float64, error)
}

type unansweredThreadCounter interface {
	CountUnanswered(ctx context.Context, courseIDs []string, userID string) (int, error)
}

type dashboardContractStore interface {
	FindActiveByClient(ctx context.Context, clientID string) (*models.Contract, error)
	ListStudents(ctx context.Context, contractID string) ([]models.User, error)
}

type supervisedPathLister interface {
	ListBySupervisor(ctx context.Context, userID string) ([]models.LearningPath, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the role-specific landing payload.
type DashboardService struct {
	users       dashboardUserStore
	courses     dashboardCourseStore
	enrollments dashboardEnrollmentStore
	threads     unansweredThreadCounter
	contracts   dashboardContractStore
	paths       supervisedPathLister
	cache       *CacheService
	logger      *zap.Logger
	cfg         DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Users       dashboardUserStore
	Courses     dashboardCourseStore
	Enrollments dashboardEnrollmentStore
	Threads     unansweredThreadCounter
	Contracts   dashboardContractStore
	Paths       supervisedPathLister
	Cache       *CacheService
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:       params.Users,
		courses:     params.Courses,
		enrollments: params.Enrollments,
		threads:     params.Threads,
		contracts:   params.Contracts,
		paths:       params.Paths,
		cache:       params.Cache,
		logger:      logger,
		cfg:         params.Config,
	}
}

// ForUser builds the dashboard for the caller's role. Unknown roles are rejected.
func (s *DashboardService) ForUser(ctx context.Context, actor models.Actor) (*dto.Dashboard, error) {
	result := &dto.Dashboard{Role: actor.Role}
	var err error
	switch actor.Role {
	case models.RoleAdmin:
		result.Admin, err = s.admin(ctx)
	case models.RoleStudent:
		result.Student, err = s.student(ctx, actor.ID)
	case models.RoleInstructor:
		result.Instructor, err = s.instructor(ctx, actor.ID)
	case models.RoleThirdParty:
		result.ThirdParty, err = s.thirdParty(ctx, actor.ID)
	case models.RoleSupervisor:
		result.Supervisor, err = s.supervisor(ctx, actor.ID)
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("no dashboard for role %q", actor.Role))
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ContinueOrder picks the lesson order a student resumes at: the last accessed
// lesson's order when it still exists, else the lowest order. Defaults to 1.
func ContinueOrder(course models.Course, lastAccessedLessonID *string) int {
	if lastAccessedLessonID != nil {
		if lesson, ok := course.Lesson(*lastAccessedLessonID); ok {
			return lesson.Order
		}
		return 1
	}
	lessons := course.SortedLessons()
	if len(lessons) == 0 {
		return 1
	}
	return lessons[0].Order
}

func (s *DashboardService) admin(ctx context.Context) (*dto.AdminDashboard, error) {
	data, err := Remember(ctx, s.cache, cache.Key("dashboard", "admin"), s.cfg.CacheTTL, func(ctx context.Context) (dto.AdminDashboard, error) {
		byRole, err := s.users.CountByRole(ctx)
		if err != nil {
			return dto.AdminDashboard{}, appErrors.Internal(err, "failed to count users")
		}
		courses, err := s.courses.Count(ctx)
		if err != nil {
			return dto.AdminDashboard{}, appErrors.Internal(err, "failed to count courses")
		}
		total := 0
		for _, n := range byRole {
			total += n
		}
		return dto.AdminDashboard{
			TotalUsers:       total,
			TotalStudents:    byRole[models.RoleStudent],
			TotalInstructors: byRole[models.RoleInstructor],
			TotalCourses:     courses,
			UsersByRole:      byRole,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (s *DashboardService) student(ctx context.Context, studentID string) (*dto.StudentDashboard, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load enrollments")
	}
	courseIDs := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		if id, ok := e.CourseID(); ok {
			courseIDs = append(courseIDs, id)
		}
	}
	courses, err := s.courses.FindByIDs(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load courses")
	}

	cards := make([]dto.StudentCourseCard, 0, len(courseIDs))
	for _, e := range enrollments {
		id, ok := e.CourseID()
		if !ok {
			continue
		}
		course, ok := courses[id]
		if !ok {
			s.logger.Debug("skipping enrollment of deleted course", zap.String("enrollment_id", e.ID), zap.String("course_id", id))
			continue
		}
		order := ContinueOrder(course, e.LastAccessedLessonID)
		cards = append(cards, dto.StudentCourseCard{
			Course:        dto.SummarizeCourse(course),
			EnrollmentID:  e.ID,
			Progress:      e.Progress,
			ContinueOrder: order,
			ContinueURL:   fmt.Sprintf("/courses/%s/lessons/%d", course.Slug, order),
		})
	}
	return &dto.StudentDashboard{Courses: cards}, nil
}

func (s *DashboardService) instructor(ctx context.Context, instructorID string) (*dto.InstructorDashboard, error) {
	courses, err := s.courses.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load courses")
	}
	ids := make([]string, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	counts, err := s.enrollments.CountByTargets(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count enrollments")
	}
	students, err := s.enrollments.CountDistinctStudents(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count students")
	}
	unanswered := 0
	if len(ids) > 0 {
		if unanswered, err = s.threads.CountUnanswered(ctx, ids, instructorID); err != nil {
			return nil, appErrors.Internal(err, "failed to count unanswered threads")
		}
	}

	owned := make([]dto.InstructorCourse, len(courses))
	for i, c := range courses {
		owned[i] = dto.InstructorCourse{Course: dto.SummarizeCourse(c), EnrolledCount: counts[c.ID]}
	}
	return &dto.InstructorDashboard{
		Courses:           owned,
		TotalCourses:      len(courses),
		TotalStudents:     students,
		UnansweredThreads: unanswered,
	}, nil
}

func (s *DashboardService) thirdParty(ctx context.Context, clientID string) (*dto.ThirdPartyDashboard, error) {
	contract, err := s.contracts.FindActiveByClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.ThirdPartyDashboard{Employees: []dto.EmployeeProgress{}}, nil
		}
		return nil, appErrors.Internal(err, "failed to load contract")
	}
	students, err := s.contracts.ListStudents(ctx, contract.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load contract students")
	}
	ids := make([]string, len(students))
	for i, st := range students {
		ids[i] = st.ID
	}
	perStudent, err := s.enrollments.AverageProgressByStudent(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to aggregate progress")
	}
	overall, err := s.enrollments.AverageProgress(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to aggregate progress")
	}

	employees := make([]dto.EmployeeProgress, len(students))
	for i, st := range students {
		employees[i] = dto.EmployeeProgress{
			StudentID: st.ID,
			Name:      st.DisplayName(),
			Email:     st.Email,
			Progress:  round2(perStudent[st.ID]),
		}
	}
	return &dto.ThirdPartyDashboard{
		Contract:        contract,
		TotalEmployees:  len(students),
		AverageProgress: round2(overall),
		Employees:       employees,
	}, nil
}

func (s *DashboardService) supervisor(ctx context.Context, supervisorID string) (*dto.SupervisorDashboard, error) {
	paths, err := s.paths.ListBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load learning paths")
	}
	if paths == nil {
		paths = []models.LearningPath{}
	}
	return &dto.SupervisorDashboard{LearningPaths: paths}, nil
}
