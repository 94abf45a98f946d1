package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/response"
)

// RequireRoles rejects callers whose role is not listed. It must run after JWT.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[actor.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(actor.Role)+" may not access this resource"))
			c.Abort()
			return
		}
		c.Next()
	}
}
