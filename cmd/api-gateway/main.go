package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lms-api/api/swagger"
	"github.com/noah-isme/lms-api/internal/assistant"
	"github.com/noah-isme/lms-api/internal/handler"
	"github.com/noah-isme/lms-api/internal/middleware"
	"github.com/noah-isme/lms-api/internal/repository"
	"github.com/noah-isme/lms-api/internal/service"
	"github.com/noah-isme/lms-api/pkg/cache"
	"github.com/noah-isme/lms-api/pkg/config"
	"github.com/noah-isme/lms-api/pkg/database"
	"github.com/noah-isme/lms-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lms-api/pkg/middleware/requestid"
	"github.com/noah-isme/lms-api/pkg/storage"
)

// @title LMS API
// @version 1.0.0
// @description Learning management backend: courses, enrollments, progress, quizzes, dashboards and reports
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	validate := validator.New()
	metrics := service.NewMetricsService()

	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	paths := repository.NewLearningPathRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	contracts := repository.NewContractRepository(db)
	discussions := repository.NewDiscussionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, redisClient != nil)
	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	progressSvc := service.NewProgressService(courses, enrollments, metrics, logr)
	lessonSvc := service.NewLessonService(courses, enrollments, logr)
	quizSvc := service.NewQuizService(courses, enrollments, validate, metrics, logr, cfg.APIPrefix)
	contentSvc := service.NewContentService(courses, paths, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollments, courses, paths, validate, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Users:       users,
		Courses:     courses,
		Enrollments: enrollments,
		Threads:     discussions,
		Contracts:   contracts,
		Paths:       paths,
		Cache:       cacheSvc,
		Logger:      logr,
		Config:      service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	notifier := service.NewWebhookNotifier(service.WebhookConfig{
		URL:     cfg.Notifications.ThreadWebhookURL,
		Timeout: cfg.Notifications.Timeout,
		Workers: cfg.Notifications.Workers,
	}, metrics, logr)
	notifier.Start(ctx)
	defer notifier.Stop()
	discussionSvc := service.NewDiscussionService(discussions, courses, notifier, validate, logr)

	provider, err := assistant.New(assistant.Config{
		Provider:  cfg.Assistant.Provider,
		APIKey:    cfg.Assistant.APIKey,
		Model:     cfg.Assistant.Model,
		BaseURL:   cfg.Assistant.BaseURL,
		MaxTokens: cfg.Assistant.MaxTokens,
		Timeout:   cfg.Assistant.Timeout,
	})
	if err != nil {
		logr.Warn("assistant disabled", zap.Error(err))
		provider = nil
	}
	if provider == nil {
		logr.Info("assistant provider not configured")
	}
	assistantSvc := service.NewAssistantService(courses, provider, validate, metrics, logr)

	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare report storage", zap.Error(err))
	}
	reportSvc := service.NewReportService(service.ReportServiceParams{
		Courses:     courses,
		Users:       users,
		Enrollments: enrollments,
		Contracts:   contracts,
		Storage:     reportStore,
		Signer:      storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL),
		Metrics:     metrics,
		Logger:      logr,
		Config: service.ReportServiceConfig{
			APIPrefix:       cfg.APIPrefix,
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		},
	})
	reportSvc.StartCleanup(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, cfg.CORS.ExtraHeaders))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	ops := handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
		"database": db,
		"redis":    handler.PingFunc(cacheRepo.Ping),
	})
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		Courses:     handler.NewCourseHandler(contentSvc, lessonSvc),
		Paths:       handler.NewPathHandler(contentSvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc, progressSvc, quizSvc),
		Discussions: handler.NewDiscussionHandler(discussionSvc),
		Assistant:   handler.NewAssistantHandler(assistantSvc),
		Reports:     handler.NewReportHandler(reportSvc),
	}, middleware.JWT(authSvc))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
