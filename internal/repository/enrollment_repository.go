package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lms-api/internal/models"
)

const enrollmentColumns = `id, student_id, enrollable_type, enrollable_id, enrollment_date, status, progress, completed_lessons, last_accessed_lesson_id, quiz_attempts, version`

// EnrollmentRepository persists enrollments and their embedded progress state.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID returns an enrollment by id.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`
	return r.getOne(ctx, "find enrollment", query, id)
}

// FindByStudentAndTarget returns the unique enrollment of a student in an enrollable.
func (r *EnrollmentRepository) FindByStudentAndTarget(ctx context.Context, studentID, enrollableID string) (*models.Enrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE student_id = $1 AND enrollable_id = $2`
	return r.getOne(ctx, "find student enrollment", query, studentID, enrollableID)
}

func (r *EnrollmentRepository) getOne(ctx context.Context, op, query string, args ...interface{}) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &enrollment, nil
}

// ListByStudent returns all enrollments of a student, oldest first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE student_id = $1 ORDER BY enrollment_date`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByTarget returns enrollments into a specific enrollable.
func (r *EnrollmentRepository) ListByTarget(ctx context.Context, target models.Enrollable) ([]models.Enrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE enrollable_id = $1 AND enrollable_type = $2 ORDER BY enrollment_date`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, target.ID, target.Kind); err != nil {
		return nil, fmt.Errorf("list target enrollments: %w", err)
	}
	return enrollments, nil
}

// AverageProgressByStudent returns each student's mean progress over all enrollments.
// Students without enrollments are absent.
func (r *EnrollmentRepository) AverageProgressByStudent(ctx context.Context, studentIDs []string) (map[string]float64, error) {
	result := make(map[string]float64, len(studentIDs))
	if len(studentIDs) == 0 {
		return result, nil
	}
	const query = `SELECT student_id, AVG(progress) AS average FROM enrollments WHERE student_id = ANY($1) GROUP BY student_id`
	var rows []struct {
		StudentID string  `db:"student_id"`
		Average   float64 `db:"average"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("average progress by student: %w", err)
	}
	for _, row := range rows {
		result[row.StudentID] = row.Average
	}
	return result, nil
}

// AverageProgress returns the mean progress over every enrollment of the given students.
func (r *EnrollmentRepository) AverageProgress(ctx context.Context, studentIDs []string) (float64, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	const query = `SELECT COALESCE(AVG(progress), 0) FROM enrollments WHERE student_id = ANY($1)`
	var avg float64
	if err := r.db.GetContext(ctx, &avg, query, pq.Array(studentIDs)); err != nil {
		return 0, fmt.Errorf("average progress: %w", err)
	}
	return avg, nil
}

// CountByTargets returns the enrollment count per enrollable id.
func (r *EnrollmentRepository) CountByTargets(ctx context.Context, enrollableIDs []string) (map[string]int, error) {
	result := make(map[string]int, len(enrollableIDs))
	if len(enrollableIDs) == 0 {
		return result, nil
	}
	const query = `SELECT enrollable_id, COUNT(student_id) AS total FROM enrollments WHERE enrollable_id = ANY($1) GROUP BY enrollable_id`
	var rows []struct {
		EnrollableID string `db:"enrollable_id"`
		Total        int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(enrollableIDs)); err != nil {
		return nil, fmt.Errorf("count enrollments by target: %w", err)
	}
	for _, row := range rows {
		result[row.EnrollableID] = row.Total
	}
	return result, nil
}

// CountDistinctStudents counts students enrolled in any of the enrollables.
func (r *EnrollmentRepository) CountDistinctStudents(ctx context.Context, enrollableIDs []string) (int, error) {
	if len(enrollableIDs) == 0 {
		return 0, nil
	}
	const query = `SELECT COUNT(DISTINCT student_id) FROM enrollments WHERE enrollable_id = ANY($1)`
	var total int
	if err := r.db.GetContext(ctx, &total, query, pq.Array(enrollableIDs)); err != nil {
		return 0, fmt.Errorf("count distinct students: %w", err)
	}
	return total, nil
}

// Create inserts a fresh in-progress enrollment. A duplicate (student, enrollable)
// surfaces as the driver's unique violation.
func (r *EnrollmentRepository) Create(ctx context.Context, e *models.Enrollment) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.EnrollmentDate.IsZero() {
		e.EnrollmentDate = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = models.EnrollmentInProgress
	}
	e.Version = 1
	const query = `INSERT INTO enrollments (` + enrollmentColumns + `) VALUES (:id, :student_id, :enrollable_type, :enrollable_id, :enrollment_date, :status, :progress, :completed_lessons, :last_accessed_lesson_id, :quiz_attempts, :version)`
	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// SaveProgress writes status, progress, completed lessons and last accessed lesson,
// guarded by the version read with the enrollment. On success e.Version is advanced.
func (r *EnrollmentRepository) SaveProgress(ctx context.Context, e *models.Enrollment) error {
	const query = `UPDATE enrollments SET status = $2, progress = $3, completed_lessons = $4, last_accessed_lesson_id = $5, version = version + 1 WHERE id = $1 AND version = $6`
	res, err := r.db.ExecContext(ctx, query, e.ID, e.Status, e.Progress, e.CompletedLessons, e.LastAccessedLessonID, e.Version)
	if err != nil {
		return fmt.Errorf("save enrollment progress: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	e.Version++
	return nil
}

// TouchLastAccessed records the lesson a student last opened.
func (r *EnrollmentRepository) TouchLastAccessed(ctx context.Context, enrollmentID, lessonID string) error {
	const query = `UPDATE enrollments SET last_accessed_lesson_id = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, enrollmentID, lessonID); err != nil {
		return fmt.Errorf("touch last accessed lesson: %w", err)
	}
	return nil
}

// AppendAttempt appends one attempt to the history in a single statement so concurrent
// submissions never overwrite each other.
func (r *EnrollmentRepository) AppendAttempt(ctx context.Context, enrollmentID string, attempt models.QuizAttempt) error {
	payload, err := json.Marshal([]models.QuizAttempt{attempt})
	if err != nil {
		return fmt.Errorf("marshal quiz attempt: %w", err)
	}
	const query = `UPDATE enrollments SET quiz_attempts = COALESCE(quiz_attempts, '[]'::jsonb) || $2::jsonb WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, enrollmentID, string(payload))
	if err != nil {
		return fmt.Errorf("append quiz attempt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
