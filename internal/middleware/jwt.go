package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/logger"
	"github.com/noah-isme/lms-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token.
func JWT(auth tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalJWT attaches claims when present but does not block.
func OptionalJWT(auth tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := auth.ValidateToken(token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// CurrentActor returns the authenticated caller, if any.
func CurrentActor(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return models.Actor{}, false
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok || claims == nil {
		return models.Actor{}, false
	}
	return models.ActorFromClaims(claims), true
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setClaims(c *gin.Context, claims *models.JWTClaims) {
	c.Set(ContextUserKey, claims)
	c.Set(logger.ActorKey, claims.UserID)
}
