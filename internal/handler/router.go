package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/middleware"
	"github.com/noah-isme/lms-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth        *AuthHandler
	Dashboard   *DashboardHandler
	Courses     *CourseHandler
	Paths       *PathHandler
	Enrollments *EnrollmentHandler
	Discussions *DiscussionHandler
	Assistant   *AssistantHandler
	Reports     *ReportHandler
}

// RegisterRoutes mounts the API on api. authMW must authenticate the caller.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, authMW gin.HandlerFunc) {
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/reports/download/:token", h.Reports.Download)

	secured := api.Group("")
	secured.Use(authMW)

	secured.GET("/auth/me", h.Auth.Me)
	secured.GET("/dashboard", h.Dashboard.Get)

	authors := middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor)
	courses := secured.Group("/courses")
	courses.GET("", h.Courses.List)
	courses.POST("", authors, h.Courses.Create)
	courses.GET("/:id", h.Courses.Get)
	courses.POST("/:id/lessons", authors, h.Courses.AddLesson)
	courses.PUT("/:id/lessons/:lessonId/quiz", authors, h.Courses.SaveQuiz)
	courses.POST("/:id/update-lesson-order", authors, h.Courses.ReorderLessons)
	courses.GET("/slug/:slug/lessons/:order", h.Courses.ViewLesson)

	paths := secured.Group("/paths")
	paths.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor))
	paths.POST("", h.Paths.Create)
	paths.GET("/:id", h.Paths.Get)
	paths.GET("/:id/available-courses", h.Paths.AvailableCourses)
	paths.POST("/:id/update-structure", h.Paths.Restructure)

	enrollments := secured.Group("/enrollments")
	enrollments.Use(middleware.RequireRoles(models.RoleStudent))
	enrollments.POST("", h.Enrollments.Enroll)
	enrollments.GET("/mine", h.Enrollments.ListMine)
	enrollments.POST("/mark-lesson-complete", h.Enrollments.MarkLessonComplete)
	enrollments.POST("/submit-quiz", h.Enrollments.SubmitQuiz)
	enrollments.GET("/:id/attempts/:attemptId", h.Enrollments.AttemptResult)

	secured.GET("/lessons/:lessonId/threads", h.Discussions.ListThreads)
	secured.POST("/lessons/:lessonId/threads", h.Discussions.CreateThread)
	secured.GET("/threads/:id", h.Discussions.GetThread)
	secured.POST("/threads/:id/posts", h.Discussions.AddPost)

	secured.POST("/assistant/ask", h.Assistant.Ask)

	reports := secured.Group("/reports")
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor)
	reports.POST("/courses/:id", staff, h.Reports.CourseReport)
	reports.POST("/students/:studentId/courses/:courseId", staff, h.Reports.StudentReport)
	reports.POST("/contracts/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleThirdParty), h.Reports.ContractReport)
}
