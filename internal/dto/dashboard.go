package dto

import "github.com/noah-isme/lms-api/internal/models"

// CourseSummary is the lesson-free projection of a course used in listings.
type CourseSummary struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	Slug     string              `json:"slug"`
	Category string              `json:"category,omitempty"`
	Status   models.CourseStatus `json:"status"`
}

// SummarizeCourse projects a course into its summary.
func SummarizeCourse(c models.Course) CourseSummary {
	return CourseSummary{ID: c.ID, Title: c.Title, Slug: c.Slug, Category: c.Category, Status: c.Status}
}

// Dashboard is the role-specific landing payload. Exactly one section is populated.
type Dashboard struct {
	Role       models.Role          `json:"role"`
	Admin      *AdminDashboard      `json:"admin,omitempty"`
	Student    *StudentDashboard    `json:"student,omitempty"`
	Instructor *InstructorDashboard `json:"instructor,omitempty"`
	ThirdParty *ThirdPartyDashboard `json:"third_party,omitempty"`
	Supervisor *SupervisorDashboard `json:"supervisor,omitempty"`
}

// AdminDashboard carries global counts.
type AdminDashboard struct {
	TotalUsers       int                 `json:"total_users"`
	TotalStudents    int                 `json:"total_students"`
	TotalInstructors int                 `json:"total_instructors"`
	TotalCourses     int                 `json:"total_courses"`
	UsersByRole      map[models.Role]int `json:"users_by_role"`
}

// StudentCourseCard is one enrolled course with its resume target.
type StudentCourseCard struct {
	Course        CourseSummary `json:"course"`
	EnrollmentID  string        `json:"enrollment_id"`
	Progress      float64       `json:"progress"`
	ContinueOrder int           `json:"continue_order"`
	ContinueURL   string        `json:"continue_url"`
}

// StudentDashboard lists the caller's course enrollments.
type StudentDashboard struct {
	Courses []StudentCourseCard `json:"courses"`
}

// InstructorCourse is an owned course with its enrollment count.
type InstructorCourse struct {
	Course        CourseSummary `json:"course"`
	EnrolledCount int           `json:"enrolled_count"`
}

// InstructorDashboard summarises teaching load.
type InstructorDashboard struct {
	Courses           []InstructorCourse `json:"courses"`
	TotalCourses      int                `json:"total_courses"`
	TotalStudents     int                `json:"total_students"`
	UnansweredThreads int                `json:"new_questions_count"`
}

// EmployeeProgress is one contracted student's mean progress.
type EmployeeProgress struct {
	StudentID string  `json:"student_id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Progress  float64 `json:"progress"`
}

// ThirdPartyDashboard is nil-contract when the client has no active contract.
type ThirdPartyDashboard struct {
	Contract        *models.Contract   `json:"contract"`
	TotalEmployees  int                `json:"total_employees"`
	AverageProgress float64            `json:"average_progress"`
	Employees       []EmployeeProgress `json:"employees"`
}

// SupervisorDashboard lists the supervised learning paths.
type SupervisorDashboard struct {
	LearningPaths []models.LearningPath `json:"learning_paths"`
}
