package dto

import "time"

// Report column headers shared by course and contract exports.
const (
	ColumnStudentName    = "Student Name"
	ColumnEmail          = "Email"
	ColumnEnrollmentDate = "Enrollment Date"
	ColumnProgress       = "Progress (%)"
	ColumnStatus         = "Status"
)

// ReportHeaders lists the tabular report columns in output order.
var ReportHeaders = []string{ColumnStudentName, ColumnEmail, ColumnEnrollmentDate, ColumnProgress, ColumnStatus}

// ReportRow is one flat row handed to report renderers.
type ReportRow struct {
	StudentName    string `json:"student_name"`
	Email          string `json:"student_email"`
	EnrollmentDate string `json:"enrollment_date"`
	Progress       string `json:"progress"`
	Status         string `json:"status"`
}

// Record maps the row onto the report headers.
func (r ReportRow) Record() map[string]string {
	return map[string]string{
		ColumnStudentName:    r.StudentName,
		ColumnEmail:          r.Email,
		ColumnEnrollmentDate: r.EnrollmentDate,
		ColumnProgress:       r.Progress,
		ColumnStatus:         r.Status,
	}
}

// StudentPerformance is the single-record report for one student/course pairing.
type StudentPerformance struct {
	StudentName    string  `json:"student_name"`
	CourseTitle    string  `json:"course_title"`
	EnrollmentDate string  `json:"enrollment_date"`
	Progress       float64 `json:"progress"`
	Status         string  `json:"status"`
}

// ReportRequest selects the artifact format.
type ReportRequest struct {
	Format string `json:"format" form:"format" validate:"omitempty,oneof=xlsx pdf csv"`
}

// ReportArtifact points at a generated report download.
type ReportArtifact struct {
	ReportID    string    `json:"report_id"`
	Filename    string    `json:"filename"`
	Format      string    `json:"format"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
