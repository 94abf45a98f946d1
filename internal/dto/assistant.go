package dto

// AskRequest is a question about a specific lesson.
type AskRequest struct {
	Question string `json:"question" form:"question" validate:"required,max=2000"`
	CourseID string `json:"course_id" form:"course_id" validate:"required"`
	LessonID string `json:"lesson_id" form:"lesson_id" validate:"required"`
}

// LessonContext grounds the assistant on the lesson being studied.
type LessonContext struct {
	CourseTitle   string `json:"course_title"`
	LessonTitle   string `json:"lesson_title"`
	LessonContent string `json:"lesson_content"`
}

// AskResponse is the assistant's plain-text answer.
type AskResponse struct {
	Answer string `json:"answer"`
}
