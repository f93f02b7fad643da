// @title           CRM API
// @version         1.0
// @description     نظام إدارة علاقات العملاء - خط المبيعات والعملاء والمشاريع
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /api/crm

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "crm-api/docs" // Swagger docs import

	"crm-api/internal/cache"
	"crm-api/internal/client"
	"crm-api/internal/config"
	"crm-api/internal/database"
	"crm-api/internal/job"
	"crm-api/internal/metrics"
	"crm-api/internal/repository"
	"crm-api/internal/router"
	"crm-api/internal/search"
	"crm-api/internal/service"
	"crm-api/internal/tracing"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Starting CRM API",
		zap.String("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("base_path", cfg.Server.BasePath),
	)

	shutdownTracing, err := tracing.Setup(cfg.Tracing)
	if err != nil {
		logger.Warn("Failed to initialize tracing, continuing without it", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	ctx := context.Background()

	db, err := database.Connect(ctx, database.ConfigFrom(cfg.Database), logger, 10, 3*time.Second)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	if cfg.Database.AutoMigrate {
		if err := database.SafeAutoMigrateWithRetry(db, logger, 3); err != nil {
			logger.Fatal("Failed to run database migrations", zap.Error(err))
		}
	}
	if _, err := database.SeedDefaultPipeline(ctx, db, logger); err != nil {
		logger.Warn("Failed to seed default pipeline", zap.Error(err))
	}

	m := metrics.NewWithLogger(logger)
	if err := database.RegisterMetricsCallbacks(db, m); err != nil {
		logger.Warn("Failed to register database metrics callbacks", zap.Error(err))
	}

	redisClient, err := database.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	responseCache := cache.New(redisClient, cfg.Redis.CacheTTL, logger)

	var index search.Index = search.Noop{}
	if cfg.Search.URL != "" {
		index = search.NewMeili(cfg.Search.URL, cfg.Search.APIKey, logger)
		logger.Info("Search index configured", zap.String("url", cfg.Search.URL))
	}

	var storage client.FileStorage = client.DisabledStorage{}
	if cfg.S3.Bucket != "" && cfg.S3.Region != "" {
		s3Client, err := client.NewS3Client(ctx, &cfg.S3, m)
		if err != nil {
			logger.Warn("Failed to initialize S3 client, attachment features disabled", zap.Error(err))
		} else {
			storage = s3Client
			logger.Info("S3 client initialized",
				zap.String("bucket", cfg.S3.Bucket),
				zap.String("region", cfg.S3.Region),
			)
		}
	} else {
		logger.Warn("S3 configuration incomplete, attachment features disabled")
	}

	notifications := client.NewNoOpNotificationClient()
	if cfg.Notification.BaseURL != "" {
		notifications = client.NewNotificationClient(cfg.Notification.BaseURL, cfg.Notification.APIKey, cfg.Notification.Timeout, logger, m)
	}

	// Shared with the cleanup job
	attachmentService := service.NewAttachmentService(
		repository.NewAttachmentRepository(db),
		storage,
		service.EntityOwners{
			Opportunities: repository.NewOpportunityRepository(db),
			Clients:       repository.NewClientRepository(db),
			Leads:         repository.NewLeadRepository(db),
			Projects:      repository.NewProjectRepository(db),
		},
		logger,
	)

	r := router.Setup(router.Config{
		DB:             db,
		Redis:          redisClient,
		Logger:         logger,
		JWTSecret:      cfg.JWT.Secret,
		BasePath:       cfg.Server.BasePath,
		Metrics:        m,
		Storage:        storage,
		Notifications:  notifications,
		Search:         index,
		Cache:          responseCache,
		Attachments:    attachmentService,
		BoardPageSize:  cfg.Board.PageSize,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	scheduler := job.NewScheduler(logger)
	if err := scheduler.Add(cfg.Jobs.CleanupSchedule, job.NewCleanupJob(attachmentService, logger)); err != nil {
		logger.Fatal("Failed to schedule attachment cleanup", zap.Error(err))
	}
	collector := metrics.NewBusinessMetricsCollector(db, m, logger)
	if err := scheduler.Add(cfg.Jobs.MetricsSchedule, job.NewMetricsJob(collector, db, m, logger)); err != nil {
		logger.Fatal("Failed to schedule metrics refresh", zap.Error(err))
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("CRM API started successfully",
			zap.String("address", srv.Addr),
			zap.String("swagger", fmt.Sprintf("http://localhost:%s%s/swagger/index.html", cfg.Server.Port, cfg.Server.BasePath)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("Background jobs did not finish in time", zap.Error(err))
	}
	index.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if err := database.Close(db); err != nil {
		logger.Warn("Failed to close database", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Failed to flush traces", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
