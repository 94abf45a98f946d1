package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-api/internal/models"
)

func TestDiscussionListThreadsNewestFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDiscussionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "course_id", "lesson_id", "student_id", "title", "question", "created_at"}).
		AddRow("t-2", "c-1", "l-1", "s-1", "Why?", "...", now).
		AddRow("t-1", "c-1", "l-1", "s-2", "How?", "...", now.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE lesson_id = $1 ORDER BY created_at DESC")).WithArgs("l-1").WillReturnRows(rows)

	threads, err := repo.ListThreadsByLesson(context.Background(), "l-1")
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, "t-2", threads[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDiscussionCountUnanswered(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDiscussionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("NOT EXISTS (SELECT 1 FROM discussion_posts p WHERE p.thread_id = t.id AND p.user_id = $2)")).
		WithArgs(sqlmock.AnyArg(), "i-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountUnanswered(context.Background(), []string{"c-1"}, "i-1")
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	total, err = repo.CountUnanswered(context.Background(), nil, "i-1")
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDiscussionCreateThread(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDiscussionRepository(db)

	mock.ExpectExec("INSERT INTO discussion_threads").WillReturnResult(sqlmock.NewResult(1, 1))

	thread := &models.DiscussionThread{CourseID: "c-1", LessonID: "l-1", StudentID: "s-1", Title: "Q"}
	require.NoError(t, repo.CreateThread(context.Background(), thread))
	assert.NotEmpty(t, thread.ID)
	assert.False(t, thread.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
