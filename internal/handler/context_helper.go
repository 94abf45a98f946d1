package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/middleware"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/response"
)

// actorFromContext writes a 401 and returns false when no authenticated caller exists.
func actorFromContext(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Actor{}, false
	}
	return actor, true
}

// bindPayload binds JSON or form bodies depending on Content-Type.
func bindPayload(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBind(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
