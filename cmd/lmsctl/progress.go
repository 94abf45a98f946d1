package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/repository"
	"github.com/noah-isme/lms-api/internal/service"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect and repair enrollment progress",
}

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute stored progress from completed lessons",
	Long: "Recompute progress for every enrollment in a course (--course) or every " +
		"enrollment of a student (--student). Learning path enrollments are skipped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID, _ := cmd.Flags().GetString("course")
		studentID, _ := cmd.Flags().GetString("student")
		if (courseID == "") == (studentID == "") {
			return errors.New("exactly one of --course or --student is required")
		}

		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		enrollments := repository.NewEnrollmentRepository(rt.db)
		progress := service.NewProgressService(repository.NewCourseRepository(rt.db), enrollments, nil, rt.logger)

		var targets []models.Enrollment
		if courseID != "" {
			targets, err = enrollments.ListByTarget(cmd.Context(), models.CourseTarget(courseID))
		} else {
			targets, err = enrollments.ListByStudent(cmd.Context(), studentID)
		}
		if err != nil {
			return err
		}
		return recomputeAll(cmd.Context(), progress, targets, cmd.OutOrStdout(), rt.logger)
	},
}

type recomputer interface {
	Recompute(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error)
}

func recomputeAll(ctx context.Context, progress recomputer, targets []models.Enrollment, out io.Writer, logger *zap.Logger) error {
	var failed int
	for i := range targets {
		before := targets[i].Progress
		updated, err := progress.Recompute(ctx, &targets[i])
		if err != nil {
			failed++
			logger.Error("recompute failed", zap.String("enrollment_id", targets[i].ID), zap.Error(err))
			continue
		}
		fmt.Fprintf(out, "%s\t%s\t%.2f -> %.2f\t%s\n", updated.ID, updated.StudentID, before, updated.Progress, updated.Status)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d enrollments failed to recompute", failed, len(targets))
	}
	return nil
}

func init() {
	recomputeCmd.Flags().String("course", "", "Course ID")
	recomputeCmd.Flags().String("student", "", "Student user ID")
	progressCmd.AddCommand(recomputeCmd)
}
