package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/export"
	"github.com/noah-isme/lms-api/pkg/storage"
)

const (
	reportKindCourse   = "course"
	reportKindContract = "contract"
	reportKindStudent  = "student"

	reportDateLayout = "2006-01-02"
)

type reportEnrollmentReader interface {
	ListByTarget(ctx context.Context, target models.Enrollable) ([]models.Enrollment, error)
	FindByStudentAndTarget(ctx context.Context, studentID, enrollableID string) (*models.Enrollment, error)
	AverageProgressByStudent(ctx context.Context, studentIDs []string) (map[string]float64, error)
}

type reportContractReader interface {
	FindByID(ctx context.Context, id string) (*models.Contract, error)
	ListStudents(ctx context.Context, contractID string) ([]models.User, error)
}

type artifactStore interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, int64, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Sign(reportID, name string) (string, time.Time, error)
	Verify(token string) (storage.Ticket, error)
}

// ReportServiceConfig governs download links and artifact retention.
type ReportServiceConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportDownload is an opened artifact ready to stream.
type ReportDownload struct {
	File        *os.File
	Size        int64
	Filename    string
	ContentType string
}

// ReportService assembles report rows, renders them and issues signed download links.
type ReportService struct {
	courses     courseReader
	users       userReader
	enrollments reportEnrollmentReader
	contracts   reportContractReader
	storage     artifactStore
	signer      downloadSigner
	studentPDF  *export.StudentPerformancePDF
	metrics     *MetricsService
	logger      *zap.Logger
	cfg         ReportServiceConfig
}

// ReportServiceParams groups constructor dependencies.
type ReportServiceParams struct {
	Courses     courseReader
	Users       userReader
	Enrollments reportEnrollmentReader
	Contracts   reportContractReader
	Storage     artifactStore
	Signer      downloadSigner
	Metrics     *MetricsService
	Logger      *zap.Logger
	Config      ReportServiceConfig
}

// NewReportService constructs the report service.
func NewReportService(params ReportServiceParams) *ReportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := params.Config
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = time.Hour
	}
	cfg.APIPrefix = strings.TrimSuffix(cfg.APIPrefix, "/")
	return &ReportService{
		courses:     params.Courses,
		users:       params.Users,
		enrollments: params.Enrollments,
		contracts:   params.Contracts,
		storage:     params.Storage,
		signer:      params.Signer,
		studentPDF:  export.NewStudentPerformancePDF(),
		metrics:     params.Metrics,
		logger:      logger,
		cfg:         cfg,
	}
}

// StatusLabel derives the report status from progress alone. It may disagree with the
// enrollment's stored status.
func StatusLabel(progress float64) string {
	if progress >= 100 {
		return "Completed"
	}
	return "In Progress"
}

// CourseRows builds one row per enrollment whose student still exists.
func CourseRows(enrollments []models.Enrollment, users map[string]models.User) []dto.ReportRow {
	rows := make([]dto.ReportRow, 0, len(enrollments))
	for _, e := range enrollments {
		user, ok := users[e.StudentID]
		if !ok {
			continue
		}
		rows = append(rows, dto.ReportRow{
			StudentName:    user.DisplayName(),
			Email:          user.Email,
			EnrollmentDate: e.EnrollmentDate.Format(reportDateLayout),
			Progress:       fmt.Sprintf("%.2f", e.Progress),
			Status:         StatusLabel(e.Progress),
		})
	}
	return rows
}

// ContractRows builds one row per contracted student using their mean progress across
// all enrollments. The enrollment date is approximated by the account's join date.
func ContractRows(students []models.User, averages map[string]float64) []dto.ReportRow {
	rows := make([]dto.ReportRow, len(students))
	for i, st := range students {
		progress := averages[st.ID]
		rows[i] = dto.ReportRow{
			StudentName:    st.DisplayName(),
			Email:          st.Email,
			EnrollmentDate: st.DateJoined.Format(reportDateLayout),
			Progress:       fmt.Sprintf("%.2f", progress),
			Status:         StatusLabel(progress),
		}
	}
	return rows
}

// Dataset turns report rows into a renderable table.
func Dataset(title string, rows []dto.ReportRow) export.Dataset {
	records := make([]map[string]string, len(rows))
	for i, row := range rows {
		records[i] = row.Record()
	}
	return export.Dataset{Title: title, Headers: dto.ReportHeaders, Rows: records}
}

func canReadStudentReports(actor models.Actor) bool {
	return actor.Role == models.RoleAdmin || actor.Role == models.RoleSupervisor
}

// GenerateCourseReport renders the enrolled population of a course.
func (s *ReportService) GenerateCourseReport(ctx context.Context, actor models.Actor, courseID string, req dto.ReportRequest) (*dto.ReportArtifact, error) {
	if !canReadStudentReports(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to generate course reports")
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, validationError(err, "invalid report format")
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}
	enrollments, err := s.enrollments.ListByTarget(ctx, models.CourseTarget(course.ID))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load enrollments")
	}
	studentIDs := make([]string, len(enrollments))
	for i, e := range enrollments {
		studentIDs[i] = e.StudentID
	}
	users, err := s.users.FindByIDs(ctx, studentIDs)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load students")
	}

	data := Dataset(course.Title, CourseRows(enrollments, users))
	return s.renderTable(reportKindCourse, format, course.Slug+"_report", data)
}

// GenerateContractReport renders the contracted students' mean progress. Only admins and
// the contract's client may request it.
func (s *ReportService) GenerateContractReport(ctx context.Context, actor models.Actor, contractID string, req dto.ReportRequest) (*dto.ReportArtifact, error) {
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, validationError(err, "invalid report format")
	}
	contract, err := s.contracts.FindByID(ctx, contractID)
	if err != nil {
		return nil, lookupError(err, "contract not found", "failed to load contract")
	}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleThirdParty:
		if contract.ClientID != actor.ID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "contract belongs to another client")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to generate contract reports")
	}

	students, err := s.contracts.ListStudents(ctx, contract.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load contract students")
	}
	ids := make([]string, len(students))
	for i, st := range students {
		ids[i] = st.ID
	}
	averages, err := s.enrollments.AverageProgressByStudent(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to aggregate progress")
	}

	title := "Contract_" + strings.ReplaceAll(contract.Title, " ", "_")
	return s.renderTable(reportKindContract, format, title, Dataset(title, ContractRows(students, averages)))
}

// GenerateStudentReport renders a single student's standing in one course as PDF. The
// status printed is the enrollment's stored status.
func (s *ReportService) GenerateStudentReport(ctx context.Context, actor models.Actor, studentID, courseID string) (*dto.ReportArtifact, error) {
	if !canReadStudentReports(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to generate student reports")
	}
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}
	enrollment, err := s.enrollments.FindByStudentAndTarget(ctx, student.ID, course.ID)
	if err != nil {
		return nil, lookupError(err, "enrollment not found", "failed to load enrollment")
	}

	perf := dto.StudentPerformance{
		StudentName:    student.DisplayName(),
		CourseTitle:    course.Title,
		EnrollmentDate: enrollment.EnrollmentDate.Format(reportDateLayout),
		Progress:       enrollment.Progress,
		Status:         enrollment.Status.Label(),
	}
	data, err := s.studentPDF.Render("Student Performance Report", []export.Field{
		{Label: "Student", Value: perf.StudentName},
		{Label: "Course", Value: perf.CourseTitle},
		{Label: "Enrollment Date", Value: perf.EnrollmentDate},
		{Label: "Progress", Value: fmt.Sprintf("%.2f%%", perf.Progress)},
		{Label: "Status", Value: perf.Status},
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render student report")
	}
	base := fmt.Sprintf("%s_%s_report", student.Username, course.Slug)
	return s.persist(reportKindStudent, export.FormatPDF, base, data)
}

func (s *ReportService) renderTable(kind string, format export.Format, base string, data export.Dataset) (*dto.ReportArtifact, error) {
	renderer, err := export.RendererFor(format)
	if err != nil {
		return nil, validationError(err, "invalid report format")
	}
	payload, err := renderer.Render(data)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render report")
	}
	return s.persist(kind, format, base, payload)
}

func (s *ReportService) persist(kind string, format export.Format, base string, data []byte) (*dto.ReportArtifact, error) {
	reportID := uuid.NewString()
	filename := safeFilename(base) + "." + string(format)
	name, err := s.storage.Save(reportID+"/"+filename, data)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to store report")
	}
	token, expiresAt, err := s.signer.Sign(reportID, name)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign report link")
	}
	s.metrics.RecordReport(kind, string(format))
	s.logger.Info("report generated", zap.String("report_id", reportID), zap.String("kind", kind), zap.String("format", string(format)))
	return &dto.ReportArtifact{
		ReportID:    reportID,
		Filename:    filename,
		Format:      string(format),
		DownloadURL: fmt.Sprintf("%s/reports/download/%s", s.cfg.APIPrefix, token),
		ExpiresAt:   expiresAt,
	}, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_\-]+`)

func safeFilename(base string) string {
	cleaned := strings.Trim(unsafeFilenameChars.ReplaceAllString(base, "_"), "_")
	if cleaned == "" {
		return "report"
	}
	return cleaned
}

// Open resolves a signed download token to the stored artifact.
func (s *ReportService) Open(ctx context.Context, token string) (*ReportDownload, error) {
	ticket, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	file, size, err := s.storage.Open(ticket.Name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report no longer available")
		}
		return nil, appErrors.Internal(err, "failed to open report")
	}
	filename := filepath.Base(ticket.Name)
	format := export.Format(strings.TrimPrefix(filepath.Ext(filename), "."))
	return &ReportDownload{File: file, Size: size, Filename: filename, ContentType: format.ContentType()}, nil
}

// PurgeExpired deletes artifacts older than the retention window.
func (s *ReportService) PurgeExpired() {
	removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("report cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("expired reports removed", zap.Int("count", len(removed)))
	}
}

// StartCleanup purges expired artifacts every CleanupInterval until ctx is done.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.PurgeExpired()
			}
		}
	}()
}
