package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractFindActiveByClient(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContractRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title", "client_id", "is_active", "start_date", "end_date"}).
		AddRow("k-1", "Acme", "tp-1", true, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE client_id = $1 AND is_active = TRUE ORDER BY start_date DESC LIMIT 1")).
		WithArgs("tp-1").
		WillReturnRows(rows)

	contract, err := repo.FindActiveByClient(context.Background(), "tp-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", contract.Title)
	assert.Nil(t, contract.EndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractFindActiveByClientNone(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContractRepository(db)

	mock.ExpectQuery("FROM contracts WHERE client_id").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveByClient(context.Background(), "tp-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestContractListStudents(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContractRepository(db)

	rows := sqlmock.NewRows(userRowColumns).
		AddRow("s-1", "ana", "ana@example.com", "", "h", "student", true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM contract_students cs JOIN users u ON u.id = cs.student_id WHERE cs.contract_id = $1")).
		WithArgs("k-1").
		WillReturnRows(rows)

	students, err := repo.ListStudents(context.Background(), "k-1")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "ana", students[0].DisplayName())
	assert.NoError(t, mock.ExpectationsWereMet())
}
