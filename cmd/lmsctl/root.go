package main

import (
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/pkg/config"
	"github.com/noah-isme/lms-api/pkg/database"
	"github.com/noah-isme/lms-api/pkg/logger"
)

// operator is the identity offline commands act as.
var operator = models.Actor{ID: "lmsctl", Name: "lmsctl", Role: models.RoleAdmin}

var rootCmd = &cobra.Command{
	Use:           "lmsctl",
	Short:         "Operator tooling for the LMS API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(reportCmd)
}

// runtime holds the shared dependencies of a command invocation.
type runtime struct {
	cfg    *config.Config
	db     *sqlx.DB
	logger *zap.Logger
}

func openRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, err
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, db: db, logger: logr}, nil
}

func (r *runtime) Close() {
	_ = r.db.Close()
	_ = r.logger.Sync()
}
