package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/repository"
	"github.com/noah-isme/lms-api/internal/service"
	"github.com/noah-isme/lms-api/pkg/storage"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate reports without going through the HTTP API",
}

var courseReportCmd = &cobra.Command{
	Use:   "course <course-id>",
	Short: "Course enrollment report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return withReports(cmd, func(ctx context.Context, reports *service.ReportService) (*dto.ReportArtifact, error) {
			return reports.GenerateCourseReport(ctx, operator, args[0], dto.ReportRequest{Format: format})
		})
	},
}

var contractReportCmd = &cobra.Command{
	Use:   "contract <contract-id>",
	Short: "Contract progress report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return withReports(cmd, func(ctx context.Context, reports *service.ReportService) (*dto.ReportArtifact, error) {
			return reports.GenerateContractReport(ctx, operator, args[0], dto.ReportRequest{Format: format})
		})
	},
}

var studentReportCmd = &cobra.Command{
	Use:   "student <student-id> <course-id>",
	Short: "Student performance PDF",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withReports(cmd, func(ctx context.Context, reports *service.ReportService) (*dto.ReportArtifact, error) {
			return reports.GenerateStudentReport(ctx, operator, args[0], args[1])
		})
	},
}

func withReports(cmd *cobra.Command, generate func(context.Context, *service.ReportService) (*dto.ReportArtifact, error)) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	store, err := storage.NewLocalStorage(rt.cfg.Reports.StorageDir)
	if err != nil {
		return err
	}
	reports := service.NewReportService(service.ReportServiceParams{
		Courses:     repository.NewCourseRepository(rt.db),
		Users:       repository.NewUserRepository(rt.db),
		Enrollments: repository.NewEnrollmentRepository(rt.db),
		Contracts:   repository.NewContractRepository(rt.db),
		Storage:     store,
		Signer:      storage.NewSignedURLSigner(rt.cfg.Reports.SignedURLSecret, rt.cfg.Reports.SignedURLTTL),
		Logger:      rt.logger,
		Config: service.ReportServiceConfig{
			APIPrefix: rt.cfg.APIPrefix,
			ResultTTL: rt.cfg.Reports.SignedURLTTL,
		},
	})

	artifact, err := generate(cmd.Context(), reports)
	if err != nil {
		return err
	}
	printArtifact(cmd.OutOrStdout(), rt.cfg.Reports.StorageDir, artifact)
	return nil
}

func printArtifact(out io.Writer, dir string, artifact *dto.ReportArtifact) {
	fmt.Fprintf(out, "file:    %s\n", filepath.Join(dir, artifact.ReportID, artifact.Filename))
	fmt.Fprintf(out, "url:     %s\n", artifact.DownloadURL)
	fmt.Fprintf(out, "expires: %s\n", artifact.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
}

func init() {
	for _, c := range []*cobra.Command{courseReportCmd, contractReportCmd} {
		c.Flags().String("format", "xlsx", "xlsx, pdf or csv")
		reportCmd.AddCommand(c)
	}
	reportCmd.AddCommand(studentReportCmd)
}
