package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/response"
)

type contentService interface {
	CreateCourse(ctx context.Context, actor models.Actor, req dto.CreateCourseRequest) (*models.Course, error)
	GetCourse(ctx context.Context, actor models.Actor, id string) (*models.Course, error)
	ListCourses(ctx context.Context, filter dto.CourseFilter) ([]dto.CourseSummary, *models.Pagination, error)
	AddLesson(ctx context.Context, actor models.Actor, courseID string, req dto.AddLessonRequest) (*models.Lesson, error)
	SaveQuiz(ctx context.Context, actor models.Actor, courseID, lessonID string, req dto.SaveQuizRequest) (*models.Lesson, error)
	ReorderLessons(ctx context.Context, actor models.Actor, courseID string, lessonIDs []string) ([]models.Lesson, error)
	CreatePath(ctx context.Context, actor models.Actor, req dto.CreatePathRequest) (*models.LearningPath, error)
	GetPath(ctx context.Context, id string) (*models.LearningPath, error)
	AvailableCourses(ctx context.Context, pathID string) ([]dto.CourseSummary, error)
	RestructurePath(ctx context.Context, actor models.Actor, pathID string, courseIDs []string) (*models.LearningPath, error)
}

type lessonViewer interface {
	View(ctx context.Context, actor models.Actor, slug string, order int) (*dto.LessonView, error)
}

// CourseHandler exposes course authoring and the lesson player.
type CourseHandler struct {
	content contentService
	lessons lessonViewer
}

// NewCourseHandler constructs a CourseHandler.
func NewCourseHandler(content contentService, lessons lessonViewer) *CourseHandler {
	return &CourseHandler{content: content, lessons: lessons}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param status query string false "draft, published or archived"
// @Param instructor_id query string false "Instructor ID"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := dto.CourseFilter{
		Status:       models.CourseStatus(strings.TrimSpace(c.Query("status"))),
		InstructorID: strings.TrimSpace(c.Query("instructor_id")),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "page_size", 20),
	}
	courses, pagination, err := h.content.ListCourses(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseRequest true "Course"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateCourseRequest
	if !bindPayload(c, &req, "invalid course payload") {
		return
	}
	course, err := h.content.CreateCourse(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Get godoc
// @Summary Get course with lessons
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	course, err := h.content.GetCourse(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// AddLesson godoc
// @Summary Append a lesson
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.AddLessonRequest true "Lesson"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/lessons [post]
func (h *CourseHandler) AddLesson(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.AddLessonRequest
	if !bindPayload(c, &req, "invalid lesson payload") {
		return
	}
	lesson, err := h.content.AddLesson(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// SaveQuiz godoc
// @Summary Replace a lesson quiz
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Param payload body dto.SaveQuizRequest true "Questions"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/lessons/{lessonId}/quiz [put]
func (h *CourseHandler) SaveQuiz(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.SaveQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid quiz payload"))
		return
	}
	lesson, err := h.content.SaveQuiz(c.Request.Context(), actor, c.Param("id"), c.Param("lessonId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// ReorderLessons godoc
// @Summary Reorder lessons
// @Description Sets each listed lesson's order to its index in lesson_order
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.ReorderLessonsRequest true "Lesson ids in display order"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/{id}/update-lesson-order [post]
func (h *CourseHandler) ReorderLessons(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ReorderLessonsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson order payload"))
		return
	}
	lessons, err := h.content.ReorderLessons(c.Request.Context(), actor, c.Param("id"), req.LessonOrder)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "success", "lessons": lessons}, nil)
}

// ViewLesson godoc
// @Summary Lesson player
// @Description Returns the lesson at order, or the first lesson when the order is unknown
// @Tags Courses
// @Produce json
// @Param slug path string true "Course slug"
// @Param order path int true "Lesson order"
// @Success 200 {object} response.Envelope
// @Router /courses/slug/{slug}/lessons/{order} [get]
func (h *CourseHandler) ViewLesson(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	order, err := strconv.Atoi(c.Param("order"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "lesson order must be an integer"))
		return
	}
	view, err := h.lessons.View(c.Request.Context(), actor, c.Param("slug"), order)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
