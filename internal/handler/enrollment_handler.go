package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, studentID string, req dto.EnrollRequest) (*models.Enrollment, error)
	ListMine(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

type progressService interface {
	MarkLessonComplete(ctx context.Context, studentID string, req dto.MarkLessonCompleteRequest) (*dto.ProgressResponse, error)
}

type quizService interface {
	Submit(ctx context.Context, studentID string, req dto.SubmitQuizRequest) (*dto.SubmitQuizResponse, error)
	Result(ctx context.Context, studentID, enrollmentID, attemptID string) (*dto.QuizResult, error)
}

// EnrollmentHandler exposes the student's learning actions.
type EnrollmentHandler struct {
	enrollments enrollmentService
	progress    progressService
	quizzes     quizService
}

// NewEnrollmentHandler constructs an EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService, progress progressService, quizzes quizService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, progress: progress, quizzes: quizzes}
}

// Enroll godoc
// @Summary Enroll in a course or learning path
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body dto.EnrollRequest true "Target"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.EnrollRequest
	if !bindPayload(c, &req, "invalid enrollment payload") {
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// ListMine godoc
// @Summary List my enrollments
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollments/mine [get]
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	enrollments, err := h.enrollments.ListMine(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// MarkLessonComplete godoc
// @Summary Mark a lesson complete
// @Tags Enrollments
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param payload body dto.MarkLessonCompleteRequest true "Lesson"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/mark-lesson-complete [post]
func (h *EnrollmentHandler) MarkLessonComplete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.MarkLessonCompleteRequest
	if !bindPayload(c, &req, "invalid lesson completion payload") {
		return
	}
	res, err := h.progress.MarkLessonComplete(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// SubmitQuiz godoc
// @Summary Submit quiz answers
// @Description JSON bodies carry an answers map; form bodies carry question_N fields
// @Tags Enrollments
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param payload body dto.SubmitQuizRequest true "Answers"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /enrollments/submit-quiz [post]
func (h *EnrollmentHandler) SubmitQuiz(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.SubmitQuizRequest
	if !bindPayload(c, &req, "invalid quiz submission") {
		return
	}
	if c.ContentType() != gin.MIMEJSON {
		req.Answers = formAnswers(c)
	}
	res, err := h.quizzes.Submit(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// formAnswers collects question_N and answers[question_N] form fields into the answers map.
func formAnswers(c *gin.Context) map[string]string {
	answers := map[string]string{}
	if c.Request.PostForm == nil {
		return answers
	}
	for key, values := range c.Request.PostForm {
		if strings.HasPrefix(key, "answers[") && strings.HasSuffix(key, "]") {
			key = key[len("answers[") : len(key)-1]
		}
		if strings.HasPrefix(key, "question_") && len(values) > 0 {
			answers[key] = values[0]
		}
	}
	return answers
}

// AttemptResult godoc
// @Summary Quiz attempt result
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param attemptId path string true "Attempt ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /enrollments/{id}/attempts/{attemptId} [get]
func (h *EnrollmentHandler) AttemptResult(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	attemptID := strings.TrimSpace(c.Param("attemptId"))
	if attemptID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "attempt id required"))
		return
	}
	result, err := h.quizzes.Result(c.Request.Context(), actor.ID, c.Param("id"), attemptID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
