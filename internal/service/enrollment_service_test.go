package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

func TestEnrollmentServiceEnroll(t *testing.T) {
	enrollments := newFakeEnrollmentStore()
	svc := NewEnrollmentService(enrollments, newFakeCourseStore(courseWith("c1")), newFakePathStore(models.LearningPath{ID: "p1"}), nil, nil)
	ctx := context.Background()

	course, err := svc.Enroll(ctx, "s1", dto.EnrollRequest{EnrollableType: "Course", EnrollableID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, models.CourseTarget("c1"), course.Enrollable)
	assert.Equal(t, models.EnrollmentInProgress, course.Status)
	assert.Zero(t, course.Progress)
	assert.NotEmpty(t, course.ID)

	path, err := svc.Enroll(ctx, "s1", dto.EnrollRequest{EnrollableType: "LearningPath", EnrollableID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, models.PathTarget("p1"), path.Enrollable)

	_, err = svc.Enroll(ctx, "s1", dto.EnrollRequest{EnrollableType: "Course", EnrollableID: "c1"})
	assert.Equal(t, appErrors.ErrConflict.Code, errorCode(err))

	mine, err := svc.ListMine(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := svc.ListMine(ctx, "s2")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestEnrollmentServiceEnrollErrors(t *testing.T) {
	svc := NewEnrollmentService(newFakeEnrollmentStore(), newFakeCourseStore(), newFakePathStore(), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.EnrollRequest
		code string
	}{
		{"unknown type", dto.EnrollRequest{EnrollableType: "Webinar", EnrollableID: "w1"}, appErrors.ErrValidation.Code},
		{"missing id", dto.EnrollRequest{EnrollableType: "Course"}, appErrors.ErrValidation.Code},
		{"missing course", dto.EnrollRequest{EnrollableType: "Course", EnrollableID: "c9"}, appErrors.ErrNotFound.Code},
		{"missing path", dto.EnrollRequest{EnrollableType: "LearningPath", EnrollableID: "p9"}, appErrors.ErrNotFound.Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Enroll(ctx, "s1", tt.req)
			assert.Equal(t, tt.code, errorCode(err))
		})
	}
}
