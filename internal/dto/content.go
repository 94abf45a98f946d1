package dto

import "github.com/noah-isme/lms-api/internal/models"

// CreateCourseRequest creates a draft or published course.
type CreateCourseRequest struct {
	Title         string              `json:"title" validate:"required,max=255"`
	Slug          string              `json:"slug" validate:"required,max=255"`
	Description   string              `json:"description"`
	Category      string              `json:"category" validate:"max=100"`
	Status        models.CourseStatus `json:"status" validate:"omitempty,oneof=draft published archived"`
	CoverImageURL string              `json:"cover_image_url" validate:"omitempty,url"`
	InstructorID  string              `json:"instructor_id"`
}

// AddLessonRequest appends a lesson to a course.
type AddLessonRequest struct {
	Title         string             `json:"title" validate:"required,max=200"`
	ContentType   models.ContentType `json:"content_type" validate:"required,oneof=video pdf quiz text_editor"`
	VideoURL      string             `json:"video_url" validate:"omitempty,url"`
	Description   string             `json:"description"`
	IsPreviewable bool               `json:"is_previewable"`
}

// ReorderLessonsRequest is the complete client-side lesson ordering.
type ReorderLessonsRequest struct {
	LessonOrder []string `json:"lesson_order"`
}

// RestructurePathRequest is the new ordered course list of a path.
type RestructurePathRequest struct {
	CourseIDs []string `json:"course_ids"`
}

// CreatePathRequest creates a learning path.
type CreatePathRequest struct {
	Title        string `json:"title" validate:"required,max=255"`
	Description  string `json:"description"`
	SupervisorID string `json:"supervisor_id"`
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	Status       models.CourseStatus
	InstructorID string
	Page         int
	PageSize     int
}

// LessonView is the lesson player payload.
type LessonView struct {
	Course          CourseSummary   `json:"course"`
	Lessons         []models.Lesson `json:"lessons"`
	CurrentLesson   models.Lesson   `json:"current_lesson"`
	PrevLessonOrder *int            `json:"prev_lesson_order"`
	NextLessonOrder *int            `json:"next_lesson_order"`
	Progress        float64         `json:"progress"`
}

// EnrollRequest enrolls the caller into a course or path.
type EnrollRequest struct {
	EnrollableType string `json:"enrollable_type" validate:"required,oneof=Course LearningPath"`
	EnrollableID   string `json:"enrollable_id" validate:"required"`
}
