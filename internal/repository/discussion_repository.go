package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lms-api/internal/models"
)

// DiscussionRepository persists lesson threads and their replies.
type DiscussionRepository struct {
	db *sqlx.DB
}

// NewDiscussionRepository constructs a DiscussionRepository.
func NewDiscussionRepository(db *sqlx.DB) *DiscussionRepository {
	return &DiscussionRepository{db: db}
}

// CreateThread inserts a thread.
func (r *DiscussionRepository) CreateThread(ctx context.Context, t *models.DiscussionThread) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO discussion_threads (id, course_id, lesson_id, student_id, title, question, created_at) VALUES (:id, :course_id, :lesson_id, :student_id, :title, :question, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, t); err != nil {
		return fmt.Errorf("create thread: %w", err)
	}
	return nil
}

// FindThread returns a thread by id.
func (r *DiscussionRepository) FindThread(ctx context.Context, id string) (*models.DiscussionThread, error) {
	const query = `SELECT id, course_id, lesson_id, student_id, title, question, created_at FROM discussion_threads WHERE id = $1`
	var thread models.DiscussionThread
	if err := r.db.GetContext(ctx, &thread, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find thread: %w", err)
	}
	return &thread, nil
}

// ListThreadsByLesson returns a lesson's threads newest first.
func (r *DiscussionRepository) ListThreadsByLesson(ctx context.Context, lessonID string) ([]models.DiscussionThread, error) {
	const query = `SELECT id, course_id, lesson_id, student_id, title, question, created_at FROM discussion_threads WHERE lesson_id = $1 ORDER BY created_at DESC`
	var threads []models.DiscussionThread
	if err := r.db.SelectContext(ctx, &threads, query, lessonID); err != nil {
		return nil, fmt.Errorf("list lesson threads: %w", err)
	}
	return threads, nil
}

// CreatePost inserts a reply.
func (r *DiscussionRepository) CreatePost(ctx context.Context, p *models.DiscussionPost) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO discussion_posts (id, thread_id, user_id, body, created_at) VALUES (:id, :thread_id, :user_id, :body, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// ListPosts returns a thread's replies oldest first.
func (r *DiscussionRepository) ListPosts(ctx context.Context, threadID string) ([]models.DiscussionPost, error) {
	const query = `SELECT id, thread_id, user_id, body, created_at FROM discussion_posts WHERE thread_id = $1 ORDER BY created_at`
	var posts []models.DiscussionPost
	if err := r.db.SelectContext(ctx, &posts, query, threadID); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// CountUnanswered counts threads in the courses that have no reply authored by userID.
func (r *DiscussionRepository) CountUnanswered(ctx context.Context, courseIDs []string, userID string) (int, error) {
	if len(courseIDs) == 0 {
		return 0, nil
	}
	const query = `SELECT COUNT(*) FROM discussion_threads t WHERE t.course_id = ANY($1) AND NOT EXISTS (SELECT 1 FROM discussion_posts p WHERE p.thread_id = t.id AND p.user_id = $2)`
	var total int
	if err := r.db.GetContext(ctx, &total, query, pq.Array(courseIDs), userID); err != nil {
		return 0, fmt.Errorf("count unanswered threads: %w", err)
	}
	return total, nil
}
