package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/dto"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/response"
)

// PathHandler exposes learning path structure editing.
type PathHandler struct {
	content contentService
}

// NewPathHandler constructs a PathHandler.
func NewPathHandler(content contentService) *PathHandler {
	return &PathHandler{content: content}
}

// Create godoc
// @Summary Create learning path
// @Tags Learning Paths
// @Accept json
// @Produce json
// @Param payload body dto.CreatePathRequest true "Path"
// @Success 201 {object} response.Envelope
// @Router /paths [post]
func (h *PathHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreatePathRequest
	if !bindPayload(c, &req, "invalid learning path payload") {
		return
	}
	path, err := h.content.CreatePath(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, path)
}

// Get godoc
// @Summary Get learning path
// @Tags Learning Paths
// @Produce json
// @Param id path string true "Path ID"
// @Success 200 {object} response.Envelope
// @Router /paths/{id} [get]
func (h *PathHandler) Get(c *gin.Context) {
	path, err := h.content.GetPath(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, path, nil)
}

// AvailableCourses godoc
// @Summary Courses not yet in the path
// @Tags Learning Paths
// @Produce json
// @Param id path string true "Path ID"
// @Success 200 {object} response.Envelope
// @Router /paths/{id}/available-courses [get]
func (h *PathHandler) AvailableCourses(c *gin.Context) {
	courses, err := h.content.AvailableCourses(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Restructure godoc
// @Summary Replace path modules
// @Description Installs one module per existing course id, ordered by position
// @Tags Learning Paths
// @Accept json
// @Produce json
// @Param id path string true "Path ID"
// @Param payload body dto.RestructurePathRequest true "Course ids"
// @Success 200 {object} response.Envelope
// @Router /paths/{id}/update-structure [post]
func (h *PathHandler) Restructure(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.RestructurePathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid structure payload"))
		return
	}
	path, err := h.content.RestructurePath(c.Request.Context(), actor, c.Param("id"), req.CourseIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "success", "path": path}, nil)
}
