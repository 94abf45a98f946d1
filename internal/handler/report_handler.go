package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/service"
	"github.com/noah-isme/lms-api/pkg/response"
)

type reportService interface {
	GenerateCourseReport(ctx context.Context, actor models.Actor, courseID string, req dto.ReportRequest) (*dto.ReportArtifact, error)
	GenerateContractReport(ctx context.Context, actor models.Actor, contractID string, req dto.ReportRequest) (*dto.ReportArtifact, error)
	GenerateStudentReport(ctx context.Context, actor models.Actor, studentID, courseID string) (*dto.ReportArtifact, error)
	Open(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes report generation and signed downloads.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// CourseReport godoc
// @Summary Course enrollment report
// @Tags Reports
// @Produce json
// @Param id path string true "Course ID"
// @Param format query string false "xlsx (default), pdf or csv"
// @Success 201 {object} response.Envelope
// @Router /reports/courses/{id} [post]
func (h *ReportHandler) CourseReport(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	req := dto.ReportRequest{Format: c.Query("format")}
	artifact, err := h.service.GenerateCourseReport(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, artifact)
}

// ContractReport godoc
// @Summary Contract progress report
// @Tags Reports
// @Produce json
// @Param id path string true "Contract ID"
// @Param format query string false "xlsx (default), pdf or csv"
// @Success 201 {object} response.Envelope
// @Router /reports/contracts/{id} [post]
func (h *ReportHandler) ContractReport(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	req := dto.ReportRequest{Format: c.Query("format")}
	artifact, err := h.service.GenerateContractReport(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, artifact)
}

// StudentReport godoc
// @Summary Student performance PDF
// @Tags Reports
// @Produce json
// @Param studentId path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Success 201 {object} response.Envelope
// @Router /reports/students/{studentId}/courses/{courseId} [post]
func (h *ReportHandler) StudentReport(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	artifact, err := h.service.GenerateStudentReport(c.Request.Context(), actor, c.Param("studentId"), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, artifact)
}

// Download godoc
// @Summary Download a generated report
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	download, err := h.service.Open(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()
	response.Attachment(c, download.Filename, download.ContentType, download.Size, download.File)
}
