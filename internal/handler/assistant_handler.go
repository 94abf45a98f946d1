package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/pkg/response"
)

type assistantService interface {
	Ask(ctx context.Context, req dto.AskRequest) (*dto.AskResponse, error)
}

// AssistantHandler exposes the lesson assistant.
type AssistantHandler struct {
	service assistantService
}

// NewAssistantHandler constructs an AssistantHandler.
func NewAssistantHandler(service assistantService) *AssistantHandler {
	return &AssistantHandler{service: service}
}

// Ask godoc
// @Summary Ask the lesson assistant
// @Tags Assistant
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param payload body dto.AskRequest true "Question"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /assistant/ask [post]
func (h *AssistantHandler) Ask(c *gin.Context) {
	if _, ok := actorFromContext(c); !ok {
		return
	}
	var req dto.AskRequest
	if !bindPayload(c, &req, "invalid assistant request") {
		return
	}
	answer, err := h.service.Ask(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, answer, nil)
}
