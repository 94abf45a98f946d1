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

const userColumns = `id, username, email, full_name, password_hash, role, active, date_joined`

// UserRepository provides database access for accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername returns a user by login name.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// FindByIDs returns users keyed by id. Unknown ids are absent from the map.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	result := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find users by ids: %w", err)
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// CountByRole returns the number of users per role.
func (r *UserRepository) CountByRole(ctx context.Context) (map[models.Role]int, error) {
	const query = `SELECT role, COUNT(*) AS total FROM users GROUP BY role`
	var rows []struct {
		Role  models.Role `db:"role"`
		Total int         `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	counts := make(map[models.Role]int, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Total
	}
	return counts, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	}
	const query = `INSERT INTO users (` + userColumns + `) VALUES (:id, :username, :email, :full_name, :password_hash, :role, :active, :date_joined)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}
