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

	"github.com/noah-isme/lms-api/internal/models"
)

func TestLearningPathFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLearningPathRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title", "description", "supervisor_id", "modules", "created_at"}).
		AddRow("p-1", "Backend", "", "s-1", []byte(`[{"course_id":"A","order":0},{"course_id":"B","order":1}]`), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM learning_paths WHERE id = $1")).WithArgs("p-1").WillReturnRows(rows)

	path, err := repo.FindByID(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, path.CourseIDs())
	assert.True(t, path.IsSupervisor("s-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLearningPathReplaceModulesMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLearningPathRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE learning_paths SET modules = $2 WHERE id = $1")).
		WithArgs("p-x", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ReplaceModules(context.Background(), &models.LearningPath{ID: "p-x"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
