package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/middleware"
	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/pkg/response"
)

type dashboardService interface {
	ForUser(ctx context.Context, actor models.Actor) (*dto.Dashboard, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Get godoc
// @Summary Role-specific dashboard
// @Description Returns the landing payload for the caller's role
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	dashboard, err := h.service.ForUser(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil, middleware.ResponseMeta(c, nil))
}
