package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/lms-api/internal/repository"
	"github.com/noah-isme/lms-api/internal/service"
	"github.com/noah-isme/lms-api/pkg/cache"
	"github.com/noah-isme/lms-api/pkg/config"
	"github.com/noah-isme/lms-api/pkg/logger"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the Redis dashboard cache",
}

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Drop cached dashboard payloads",
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern, _ := cmd.Flags().GetString("pattern")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if !cfg.Redis.Enabled {
			return errors.New("redis is disabled (ENABLE_REDIS=false)")
		}
		logr, err := logger.New(cfg)
		if err != nil {
			return err
		}
		defer logr.Sync() //nolint:errcheck

		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		repo := repository.NewCacheRepository(client, logr)
		defer repo.Close()

		svc := service.NewCacheService(repo, nil, cfg.Dashboard.CacheTTL, logr, true)
		if err := svc.Invalidate(cmd.Context(), pattern); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "flushed %s\n", pattern)
		return nil
	},
}

func init() {
	flushCmd.Flags().String("pattern", cache.Key("dashboard", "*"), "Key pattern to delete")
	cacheCmd.AddCommand(flushCmd)
	rootCmd.AddCommand(cacheCmd)
}
