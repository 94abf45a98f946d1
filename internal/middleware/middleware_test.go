package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/logger"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", handlers...)
	return r
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWT(t *testing.T) {
	validator := stubValidator{claims: &models.JWTClaims{UserID: "u1", Username: "ada", Role: models.RoleStudent}}
	var actor models.Actor
	var actorID string
	r := newRouter(JWT(validator), func(c *gin.Context) {
		actor, _ = CurrentActor(c)
		actorID = c.GetString(logger.ActorKey)
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer bad").Code)

	require.Equal(t, http.StatusOK, serve(r, "Bearer good").Code)
	assert.Equal(t, models.Actor{ID: "u1", Name: "ada", Role: models.RoleStudent}, actor)
	assert.Equal(t, "u1", actorID)
}

func TestOptionalJWT(t *testing.T) {
	validator := stubValidator{claims: &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}}
	var found bool
	r := newRouter(OptionalJWT(validator), func(c *gin.Context) {
		_, found = CurrentActor(c)
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(r, "Bearer bad").Code)
	assert.False(t, found)
	assert.Equal(t, http.StatusOK, serve(r, "Bearer good").Code)
	assert.True(t, found)
}

func TestRequireRoles(t *testing.T) {
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	student := stubValidator{claims: &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}}
	admin := stubValidator{claims: &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}}

	r := newRouter(JWT(student), RequireRoles(models.RoleAdmin, models.RoleInstructor), ok)
	assert.Equal(t, http.StatusForbidden, serve(r, "Bearer good").Code)

	r = newRouter(JWT(admin), RequireRoles(models.RoleAdmin, models.RoleInstructor), ok)
	assert.Equal(t, http.StatusOK, serve(r, "Bearer good").Code)

	r = newRouter(RequireRoles(models.RoleAdmin), ok)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
}

func TestResponseMeta(t *testing.T) {
	var meta map[string]interface{}
	r := newRouter(WithResponseMeta(), func(c *gin.Context) {
		meta = ResponseMeta(c, map[string]interface{}{"role": "admin"})
		c.Status(http.StatusOK)
	})
	serve(r, "")

	assert.Contains(t, meta, "processing_time_ms")
	assert.Equal(t, "admin", meta["role"])

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ResponseMeta(c, nil))
}

type recordedRequest struct {
	method, path string
	status       int
}

type observerFunc func(method, path string, status int, duration time.Duration)

func (f observerFunc) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	f(method, path, status, duration)
}

func TestMetrics(t *testing.T) {
	var seen []recordedRequest
	observer := observerFunc(func(method, path string, status int, _ time.Duration) {
		seen = append(seen, recordedRequest{method, path, status})
	})
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/courses/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	for _, target := range []string{"/courses/c1", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	assert.Equal(t, []recordedRequest{
		{http.MethodGet, "/courses/:id", http.StatusTeapot},
		{http.MethodGet, "unmatched", http.StatusNotFound},
	}, seen)
}
