package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/pkg/response"
)

type discussionService interface {
	CreateThread(ctx context.Context, actor models.Actor, lessonID string, req dto.CreateThreadRequest) (*models.DiscussionThread, error)
	AddPost(ctx context.Context, actor models.Actor, threadID string, req dto.CreatePostRequest) (*models.DiscussionPost, error)
	ListThreads(ctx context.Context, lessonID string) ([]models.DiscussionThread, error)
	GetThread(ctx context.Context, id string) (*dto.ThreadDetail, error)
}

// DiscussionHandler exposes lesson Q&A threads.
type DiscussionHandler struct {
	service discussionService
}

// NewDiscussionHandler constructs a DiscussionHandler.
func NewDiscussionHandler(service discussionService) *DiscussionHandler {
	return &DiscussionHandler{service: service}
}

// ListThreads godoc
// @Summary List lesson threads
// @Tags Discussions
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{lessonId}/threads [get]
func (h *DiscussionHandler) ListThreads(c *gin.Context) {
	threads, err := h.service.ListThreads(c.Request.Context(), c.Param("lessonId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, threads, nil)
}

// CreateThread godoc
// @Summary Ask a question on a lesson
// @Tags Discussions
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param payload body dto.CreateThreadRequest true "Question"
// @Success 201 {object} response.Envelope
// @Router /lessons/{lessonId}/threads [post]
func (h *DiscussionHandler) CreateThread(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateThreadRequest
	if !bindPayload(c, &req, "invalid thread payload") {
		return
	}
	thread, err := h.service.CreateThread(c.Request.Context(), actor, c.Param("lessonId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, thread)
}

// GetThread godoc
// @Summary Thread with replies
// @Tags Discussions
// @Produce json
// @Param id path string true "Thread ID"
// @Success 200 {object} response.Envelope
// @Router /threads/{id} [get]
func (h *DiscussionHandler) GetThread(c *gin.Context) {
	thread, err := h.service.GetThread(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, thread, nil)
}

// AddPost godoc
// @Summary Reply to a thread
// @Tags Discussions
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param id path string true "Thread ID"
// @Param payload body dto.CreatePostRequest true "Reply"
// @Success 201 {object} response.Envelope
// @Router /threads/{id}/posts [post]
func (h *DiscussionHandler) AddPost(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreatePostRequest
	if !bindPayload(c, &req, "invalid post payload") {
		return
	}
	post, err := h.service.AddPost(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}
