package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-api/internal/models"
)

const pathColumns = `id, title, description, supervisor_id, modules, created_at`

// LearningPathRepository persists learning paths with their embedded modules.
type LearningPathRepository struct {
	db *sqlx.DB
}

// NewLearningPathRepository constructs a LearningPathRepository.
func NewLearningPathRepository(db *sqlx.DB) *LearningPathRepository {
	return &LearningPathRepository{db: db}
}

// FindByID returns a learning path.
func (r *LearningPathRepository) FindByID(ctx context.Context, id string) (*models.LearningPath, error) {
	const query = `SELECT ` + pathColumns + ` FROM learning_paths WHERE id = $1`
	var path models.LearningPath
	if err := r.db.GetContext(ctx, &path, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find learning path: %w", err)
	}
	return &path, nil
}

// ListBySupervisor returns paths supervised by userID.
func (r *LearningPathRepository) ListBySupervisor(ctx context.Context, userID string) ([]models.LearningPath, error) {
	const query = `SELECT ` + pathColumns + ` FROM learning_paths WHERE supervisor_id = $1 ORDER BY created_at DESC`
	var paths []models.LearningPath
	if err := r.db.SelectContext(ctx, &paths, query, userID); err != nil {
		return nil, fmt.Errorf("list supervised paths: %w", err)
	}
	return paths, nil
}

// Create inserts a learning path.
func (r *LearningPathRepository) Create(ctx context.Context, path *models.LearningPath) error {
	if path.ID == "" {
		path.ID = uuid.NewString()
	}
	if path.CreatedAt.IsZero() {
		path.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO learning_paths (` + pathColumns + `) VALUES (:id, :title, :description, :supervisor_id, :modules, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, path); err != nil {
		return fmt.Errorf("create learning path: %w", err)
	}
	return nil
}

// ReplaceModules overwrites the stored module list in a single statement.
func (r *LearningPathRepository) ReplaceModules(ctx context.Context, path *models.LearningPath) error {
	const query = `UPDATE learning_paths SET modules = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, path.ID, path.Modules)
	if err != nil {
		return fmt.Errorf("replace path modules: %w", err)
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
