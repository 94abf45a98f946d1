package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/storage"
)

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Completed", StatusLabel(100))
	assert.Equal(t, "In Progress", StatusLabel(99.99))
	assert.Equal(t, "In Progress", StatusLabel(0))
}

func TestCourseRows(t *testing.T) {
	done := courseEnrollment("e1", "s1", "c1")
	done.Progress = 100
	stale := courseEnrollment("e2", "s2", "c1")
	stale.Progress = 50
	stale.Status = models.EnrollmentCompleted
	orphan := courseEnrollment("e3", "gone", "c1")

	users := map[string]models.User{
		"s1": {ID: "s1", FullName: "Ada Lovelace", Email: "ada@example.com"},
		"s2": {ID: "s2", Username: "grace", Email: "grace@example.com"},
	}
	rows := CourseRows([]models.Enrollment{done, stale, orphan}, users)

	require.Len(t, rows, 2)
	assert.Equal(t, dto.ReportRow{
		StudentName:    "Ada Lovelace",
		Email:          "ada@example.com",
		EnrollmentDate: "2024-01-15",
		Progress:       "100.00",
		Status:         "Completed",
	}, rows[0])
	assert.Equal(t, "grace", rows[1].StudentName)
	assert.Equal(t, "In Progress", rows[1].Status)
}

func TestContractRows(t *testing.T) {
	students := []models.User{
		{ID: "s1", FullName: "Ada Lovelace", Email: "ada@example.com", DateJoined: time.Date(2023, 3, 9, 0, 0, 0, 0, time.UTC)},
		{ID: "s2", FullName: "No Enrollments", DateJoined: time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
	rows := ContractRows(students, map[string]float64{"s1": 66.666})

	require.Len(t, rows, 2)
	assert.Equal(t, "2023-03-09", rows[0].EnrollmentDate)
	assert.Equal(t, "66.67", rows[0].Progress)
	assert.Equal(t, "0.00", rows[1].Progress)
	assert.Equal(t, "In Progress", rows[1].Status)
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "Contract_Acme_Corp", safeFilename("Contract_Acme Corp"))
	assert.Equal(t, "etc_passwd", safeFilename("../etc/passwd"))
	assert.Equal(t, "report", safeFilename("///"))
}

type reportFixture struct {
	svc         *ReportService
	signer      *storage.SignedURLSigner
	enrollments *fakeEnrollmentStore
	metrics     *MetricsService
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	course := courseWith("c1", newLesson("l1", 1))
	course.Title = "Go Basics"
	done := courseEnrollment("e1", "s1", "c1", "l1")
	done.Progress = 100
	done.Status = models.EnrollmentCompleted
	enrollments := newFakeEnrollmentStore(done, courseEnrollment("e2", "s2", "c1"))

	users := newFakeUserStore(
		models.User{ID: "s1", Username: "ada", FullName: "Ada Lovelace", Email: "ada@example.com", Role: models.RoleStudent},
		models.User{ID: "s2", Username: "grace", Email: "grace@example.com", Role: models.RoleStudent},
	)
	contracts := &fakeContractStore{
		contracts: map[string]models.Contract{"k1": {ID: "k1", Title: "Acme Corp", ClientID: "t1", IsActive: true}},
		students:  map[string][]models.User{"k1": {users.users["s1"], users.users["s2"]}},
	}
	metrics := NewMetricsService()

	svc := NewReportService(ReportServiceParams{
		Courses:     newFakeCourseStore(course),
		Users:       users,
		Enrollments: enrollments,
		Contracts:   contracts,
		Storage:     store,
		Signer:      signer,
		Metrics:     metrics,
		Config:      ReportServiceConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour},
	})
	return &reportFixture{svc: svc, signer: signer, enrollments: enrollments, metrics: metrics}
}

func tokenFrom(t *testing.T, artifact *dto.ReportArtifact) string {
	t.Helper()
	const prefix = "/api/v1/reports/download/"
	require.True(t, strings.HasPrefix(artifact.DownloadURL, prefix), artifact.DownloadURL)
	return strings.TrimPrefix(artifact.DownloadURL, prefix)
}

func readDownload(t *testing.T, download *ReportDownload) string {
	t.Helper()
	defer download.File.Close()
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), download.Size)
	return string(body)
}

func TestReportServiceCourseReportRoundTrip(t *testing.T) {
	fixture := newReportFixture(t)
	ctx := context.Background()

	artifact, err := fixture.svc.GenerateCourseReport(ctx, adminActor, "c1", dto.ReportRequest{Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, "course-c1_report.csv", artifact.Filename)
	assert.Equal(t, "csv", artifact.Format)
	assert.True(t, artifact.ExpiresAt.After(time.Now()))

	download, err := fixture.svc.Open(ctx, tokenFrom(t, artifact))
	require.NoError(t, err)
	assert.Equal(t, "course-c1_report.csv", download.Filename)
	assert.Equal(t, "text/csv", download.ContentType)

	body := readDownload(t, download)
	assert.Contains(t, body, "Student Name,Email,Enrollment Date,Progress (%),Status")
	assert.Contains(t, body, "Ada Lovelace,ada@example.com,2024-01-15,100.00,Completed")
	assert.Contains(t, body, "grace,grace@example.com,2024-01-15,0.00,In Progress")
}

func TestReportServiceDefaultsToXLSX(t *testing.T) {
	fixture := newReportFixture(t)

	artifact, err := fixture.svc.GenerateCourseReport(context.Background(), models.Actor{ID: "v1", Role: models.RoleSupervisor}, "c1", dto.ReportRequest{})
	require.NoError(t, err)
	assert.Equal(t, "xlsx", artifact.Format)
	assert.True(t, strings.HasSuffix(artifact.Filename, ".xlsx"))
}

func TestReportServiceCourseReportErrors(t *testing.T) {
	fixture := newReportFixture(t)
	ctx := context.Background()

	_, err := fixture.svc.GenerateCourseReport(ctx, studentActor, "c1", dto.ReportRequest{})
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))

	_, err = fixture.svc.GenerateCourseReport(ctx, adminActor, "c1", dto.ReportRequest{Format: "docx"})
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = fixture.svc.GenerateCourseReport(ctx, adminActor, "missing", dto.ReportRequest{})
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
}

func TestReportServiceContractReport(t *testing.T) {
	fixture := newReportFixture(t)
	ctx := context.Background()

	artifact, err := fixture.svc.GenerateContractReport(ctx, models.Actor{ID: "t1", Role: models.RoleThirdParty}, "k1", dto.ReportRequest{Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, "Contract_Acme_Corp.csv", artifact.Filename)

	download, err := fixture.svc.Open(ctx, tokenFrom(t, artifact))
	require.NoError(t, err)
	body := readDownload(t, download)
	assert.Contains(t, body, "Ada Lovelace,ada@example.com,0001-01-01,100.00,Completed")

	_, err = fixture.svc.GenerateContractReport(ctx, models.Actor{ID: "t2", Role: models.RoleThirdParty}, "k1", dto.ReportRequest{})
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))

	_, err = fixture.svc.GenerateContractReport(ctx, instructorActor, "k1", dto.ReportRequest{})
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))
}

func TestReportServiceStudentReportUsesStoredStatus(t *testing.T) {
	fixture := newReportFixture(t)
	ctx := context.Background()
	stored := fixture.enrollments.enrollments["e1"]
	stored.Progress = 50
	fixture.enrollments.enrollments["e1"] = stored

	artifact, err := fixture.svc.GenerateStudentReport(ctx, adminActor, "s1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "ada_course-c1_report.pdf", artifact.Filename)

	download, err := fixture.svc.Open(ctx, tokenFrom(t, artifact))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", download.ContentType)
	assert.True(t, strings.HasPrefix(readDownload(t, download), "%PDF"))

	_, err = fixture.svc.GenerateStudentReport(ctx, adminActor, "s9", "c1")
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
	_, err = fixture.svc.GenerateStudentReport(ctx, instructorActor, "s1", "c1")
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))
}

func TestReportServiceOpenRejectsBadTokens(t *testing.T) {
	fixture := newReportFixture(t)
	ctx := context.Background()

	_, err := fixture.svc.Open(ctx, "not-a-token")
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))

	expired := storage.NewSignedURLSigner("test-secret", time.Nanosecond)
	token, _, err := expired.Sign("r1", "r1/file.csv")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = fixture.svc.Open(ctx, token)
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))

	missing, _, err := fixture.signer.Sign("r2", "r2/missing.csv")
	require.NoError(t, err)
	_, err = fixture.svc.Open(ctx, missing)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
}
