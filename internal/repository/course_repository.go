package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

const courseColumns = `id, title, slug, description, category, instructor_id, status, cover_image_url, lessons, version, created_at`

// CourseRepository persists courses together with their embedded lessons.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course by id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// FindBySlug returns a course by its unique slug.
func (r *CourseRepository) FindBySlug(ctx context.Context, slug string) (*models.Course, error) {
	const query = `SELECT ` + courseColumns + ` FROM courses WHERE slug = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course by slug: %w", err)
	}
	return &course, nil
}

// FindByIDs returns courses keyed by id; deleted courses are simply absent.
func (r *CourseRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Course, error) {
	result := make(map[string]models.Course, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	const query = `SELECT ` + courseColumns + ` FROM courses WHERE id = ANY($1)`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find courses by ids: %w", err)
	}
	for _, c := range courses {
		result[c.ID] = c
	}
	return result, nil
}

// ExistingIDs filters ids down to those that reference a stored course, keeping input order.
func (r *CourseRepository) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id FROM courses WHERE id = ANY($1)`
	var found []string
	if err := r.db.SelectContext(ctx, &found, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("check course ids: %w", err)
	}
	present := make(map[string]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	existing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := present[id]; ok {
			existing = append(existing, id)
		}
	}
	return existing, nil
}

// ListByInstructor returns the courses taught by instructorID.
func (r *CourseRepository) ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error) {
	const query = `SELECT ` + courseColumns + ` FROM courses WHERE instructor_id = $1 ORDER BY created_at DESC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, instructorID); err != nil {
		return nil, fmt.Errorf("list instructor courses: %w", err)
	}
	return courses, nil
}

// ListExcluding returns every course whose id is not in ids.
func (r *CourseRepository) ListExcluding(ctx context.Context, ids []string) ([]models.Course, error) {
	if ids == nil {
		ids = []string{}
	}
	const query = `SELECT ` + courseColumns + ` FROM courses WHERE NOT (id = ANY($1)) ORDER BY title`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list available courses: %w", err)
	}
	return courses, nil
}

// List returns a filtered page of courses with the total count.
func (r *CourseRepository) List(ctx context.Context, filter dto.CourseFilter) ([]models.Course, int, error) {
	baseQuery := `FROM courses WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", courseColumns, baseQuery, pageSize, (page-1)*pageSize)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// Count returns the number of courses.
func (r *CourseRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM courses`); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return total, nil
}

// Create inserts a course at version 1.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	if course.Status == "" {
		course.Status = models.CourseStatusDraft
	}
	course.Version = 1
	const query = `INSERT INTO courses (` + courseColumns + `) VALUES (:id, :title, :slug, :description, :category, :instructor_id, :status, :cover_image_url, :lessons, :version, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// SaveLessons writes the lesson list if the stored version still matches course.Version.
// On success course.Version is advanced.
func (r *CourseRepository) SaveLessons(ctx context.Context, course *models.Course) error {
	const query = `UPDATE courses SET lessons = $2, version = version + 1 WHERE id = $1 AND version = $3`
	res, err := r.db.ExecContext(ctx, query, course.ID, course.Lessons, course.Version)
	if err != nil {
		return fmt.Errorf("save course lessons: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	course.Version++
	return nil
}

func expectOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrStaleWrite, "")
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
