// @title           Property Survey Backend API
// @version         1.0.0
// @description     Backend API for municipal property tax surveys: survey capture and editing, review and approval, and survey photographs stored in a commit-based repository.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"property-survey-backend/internal/assets"
	"property-survey-backend/internal/cache"
	"property-survey-backend/internal/config"
	"property-survey-backend/internal/database"
	"property-survey-backend/internal/gitlab"
	"property-survey-backend/internal/handlers"
	"property-survey-backend/internal/logger"
	"property-survey-backend/internal/middleware"
	"property-survey-backend/internal/services"
	"property-survey-backend/internal/supabase"
)

type store interface {
	services.SurveyStore
	services.ImageStore
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format, "property-survey-backend")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Relational store. Without DATABASE_URL the service runs on the
	// in-memory store, which loses everything on restart.
	var (
		db     store
		pinger handlers.Pinger
	)
	if cfg.Database.URL == "" {
		zlog.Warn("DATABASE_URL not set, using in-memory store")
		db = database.NewMemoryStore()
	} else {
		sqlDB, err := database.Open(ctx, cfg.Database)
		if err != nil {
			zlog.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer sqlDB.Close()

		if err := database.NewMigrator(sqlDB, zlog).Run(ctx); err != nil {
			zlog.Fatal("Migration failed", zap.Error(err))
		}
		zlog.Info("Migrations completed successfully")

		client := database.NewClient(sqlDB, zlog)
		db = client
		pinger = client
	}

	// Asset repository
	var (
		repo     services.AssetRepository
		repoRoot string
	)
	switch cfg.Storage.Backend {
	case config.StorageBackendSupabase:
		repo = supabase.NewStorageClient(cfg.Supabase, zlog)
		repoRoot = cfg.Supabase.RepoRoot
	default:
		repo = gitlab.NewClient(cfg.GitLab, zlog)
		repoRoot = cfg.GitLab.RepoRoot
	}
	zlog.Info("Asset repository configured", zap.String("backend", cfg.Storage.Backend))

	// Statistics cache is optional
	var stats services.StatsCache
	if cfg.Redis.Addr != "" {
		redisClient := cache.NewRedisClient(cfg.Redis)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			zlog.Warn("Redis unavailable, statistics will not be cached", zap.Error(err))
		} else {
			stats = cache.NewStatsCache(redisClient, cfg.Redis.StatsTTL, zlog)
		}
	}

	// Services
	surveyService := services.NewSurveyService(db, stats, zlog)
	approvalService := services.NewApprovalService(db, stats, zlog)
	assetService := services.NewAssetService(db, db, repo, assets.NewValidator(cfg.Assets), repoRoot, zlog)

	// Handlers
	routes := handlers.Routes{
		Surveys: handlers.NewSurveysHandler(surveyService, zlog),
		Admin:   handlers.NewAdminHandler(approvalService, zlog),
		Images:  handlers.NewImagesHandler(assetService, cfg.Assets.MaxFileSizeBytes, zlog),
		DB:      pinger,
	}

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(zlog))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	// Leave room for multipart framing around the largest allowed file
	router.MaxMultipartMemory = cfg.Assets.MaxFileSizeBytes + 1<<20

	routes.Register(router, middleware.AuthMiddleware(cfg.Auth))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		zlog.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zlog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Server shutdown failed", zap.Error(err))
	}
}
