package dto

import "github.com/noah-isme/lms-api/internal/models"

// SubmitQuizRequest carries answers keyed question_N (1-based) to answer ids.
type SubmitQuizRequest struct {
	CourseID string            `json:"course_id" form:"course_id" validate:"required"`
	LessonID string            `json:"lesson_id" form:"lesson_id" validate:"required"`
	Answers  map[string]string `json:"answers"`
}

// SubmitQuizResponse references the recorded attempt.
type SubmitQuizResponse struct {
	AttemptID    string  `json:"attempt_id"`
	EnrollmentID string  `json:"enrollment_id"`
	Score        float64 `json:"score"`
	ResultURL    string  `json:"result_url"`
}

// QuizResult is the view of one recorded attempt.
type QuizResult struct {
	EnrollmentID   string             `json:"enrollment_id"`
	CourseID       string             `json:"course_id"`
	LessonTitle    string             `json:"lesson_title,omitempty"`
	TotalQuestions int                `json:"total_questions"`
	Attempt        models.QuizAttempt `json:"attempt"`
}

// QuizQuestionInput is one authored question; CorrectAnswer indexes Answers.
type QuizQuestionInput struct {
	Text          string   `json:"question_text" validate:"required"`
	Answers       []string `json:"answers" validate:"required,min=1,dive,required"`
	CorrectAnswer *int     `json:"correct_answer" validate:"omitempty,gte=0"`
}

// SaveQuizRequest replaces the quiz of a lesson.
type SaveQuizRequest struct {
	Questions []QuizQuestionInput `json:"questions" validate:"dive"`
}

// MarkLessonCompleteRequest records a finished lesson.
type MarkLessonCompleteRequest struct {
	CourseID string `json:"course_id" form:"course_id" validate:"required"`
	LessonID string `json:"lesson_id" form:"lesson_id" validate:"required"`
}

// ProgressResponse reports progress after an update.
type ProgressResponse struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
}
