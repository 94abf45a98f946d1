package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
)

type recomputeFunc func(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error)

func (f recomputeFunc) Recompute(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error) {
	return f(ctx, e)
}

func TestRecomputeAllPrintsEachEnrollment(t *testing.T) {
	targets := []models.Enrollment{
		{ID: "e1", StudentID: "s1", Progress: 10},
		{ID: "e2", StudentID: "s2", Progress: 0},
	}
	progress := recomputeFunc(func(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error) {
		e.Progress = 50
		e.Status = models.EnrollmentInProgress
		return e, nil
	})

	var out bytes.Buffer
	require.NoError(t, recomputeAll(context.Background(), progress, targets, &out, zap.NewNop()))
	assert.Contains(t, out.String(), "e1\ts1\t10.00 -> 50.00")
	assert.Contains(t, out.String(), "e2\ts2\t0.00 -> 50.00")
}

func TestRecomputeAllReportsFailures(t *testing.T) {
	targets := []models.Enrollment{{ID: "e1"}, {ID: "e2"}}
	progress := recomputeFunc(func(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error) {
		if e.ID == "e2" {
			return nil, errors.New("boom")
		}
		return e, nil
	})

	var out bytes.Buffer
	err := recomputeAll(context.Background(), progress, targets, &out, zap.NewNop())
	require.Error(t, err)
	assert.Equal(t, "1 of 2 enrollments failed to recompute", err.Error())
	assert.Contains(t, out.String(), "e1")
	assert.NotContains(t, out.String(), "e2")
}
