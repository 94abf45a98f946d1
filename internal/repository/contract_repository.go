package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-api/internal/models"
)

const contractColumns = `id, title, client_id, is_active, start_date, end_date`

// ContractRepository reads B2B contracts and their enrolled students.
type ContractRepository struct {
	db *sqlx.DB
}

// NewContractRepository constructs a ContractRepository.
func NewContractRepository(db *sqlx.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// FindByID returns a contract.
func (r *ContractRepository) FindByID(ctx context.Context, id string) (*models.Contract, error) {
	const query = `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1`
	var contract models.Contract
	if err := r.db.GetContext(ctx, &contract, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find contract: %w", err)
	}
	return &contract, nil
}

// FindActiveByClient returns the client's active contract, most recent first.
func (r *ContractRepository) FindActiveByClient(ctx context.Context, clientID string) (*models.Contract, error) {
	const query = `SELECT ` + contractColumns + ` FROM contracts WHERE client_id = $1 AND is_active = TRUE ORDER BY start_date DESC LIMIT 1`
	var contract models.Contract
	if err := r.db.GetContext(ctx, &contract, query, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find active contract: %w", err)
	}
	return &contract, nil
}

// ListStudents returns the users enrolled under a contract.
func (r *ContractRepository) ListStudents(ctx context.Context, contractID string) ([]models.User, error) {
	const query = `SELECT u.id, u.username, u.email, u.full_name, u.password_hash, u.role, u.active, u.date_joined FROM contract_students cs JOIN users u ON u.id = cs.student_id WHERE cs.contract_id = $1 ORDER BY u.full_name, u.username`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, contractID); err != nil {
		return nil, fmt.Errorf("list contract students: %w", err)
	}
	return users, nil
}
