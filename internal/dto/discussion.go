package dto

import "github.com/noah-isme/lms-api/internal/models"

// CreateThreadRequest opens a question on a lesson.
type CreateThreadRequest struct {
	CourseID string `json:"course_id" form:"course_id" validate:"required"`
	Title    string `json:"title" form:"title" validate:"required,max=255"`
	Question string `json:"question" form:"question" validate:"required"`
}

// CreatePostRequest replies to a thread.
type CreatePostRequest struct {
	Body string `json:"body" form:"body" validate:"required"`
}

// ThreadDetail is a thread with its replies oldest first.
type ThreadDetail struct {
	models.DiscussionThread
	Posts []models.DiscussionPost `json:"posts"`
}

// ThreadCreatedEvent is the outbound notification payload.
type ThreadCreatedEvent struct {
	ThreadID      string `json:"thread_id"`
	StudentID     string `json:"student_id"`
	StudentName   string `json:"student_name"`
	CourseID      string `json:"course_id"`
	LessonID      string `json:"lesson_id"`
	QuestionTitle string `json:"question_title"`
	QuestionText  string `json:"question_text"`
	Timestamp     string `json:"timestamp"`
}
