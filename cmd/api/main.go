// @title           Task Board API
// @version         1.0
// @description     태스크 보드 및 자동화 규칙 API
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.wealist.co.kr/support
// @contact.email  support@wealist.co.kr

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /api/boards

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "task-board-api/docs" // Swagger docs import

	"task-board-api/internal/client"
	"task-board-api/internal/config"
	"task-board-api/internal/database"
	"task-board-api/internal/job"
	"task-board-api/internal/metrics"
	"task-board-api/internal/realtime"
	"task-board-api/internal/repository"
	"task-board-api/internal/router"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
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

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Starting Task Board API",
		zap.String("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("base_path", cfg.Server.BasePath),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Int("max_chain_depth", cfg.Automation.MaxChainDepth),
	)

	rootCtx, stopRoot := context.WithCancel(context.Background())
	defer stopRoot()

	// Initialize database (기동 시 몇 번 재시도)
	db, err := database.NewWithRetry(rootCtx, database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.GetDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, 5, 5*time.Second, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	if err := database.SafeAutoMigrate(db, logger); err != nil {
		logger.Warn("Failed to run database migrations", zap.Error(err))
	}

	// Initialize metrics
	m := metrics.NewWithLogger(logger)
	database.RegisterMetricsCallbacks(db, m)
	stopDBStats := database.StartDBStatsCollector(db, m, 15*time.Second)
	businessCollector := metrics.NewBusinessMetricsCollector(db, m, logger)
	businessCollector.Start()
	logger.Info("Metrics initialized")

	// Redis is optional; without it the hub and the due-date ledger stay local
	rdb, err := database.NewRedis(rootCtx, cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis unavailable, running without cross-replica fan-out", zap.Error(err))
		rdb = nil
	}

	// a nil *redis.Client must not reach the PubSub interface
	var pubsub realtime.PubSub
	if rdb != nil {
		pubsub = rdb
	}
	hub := realtime.NewHub(pubsub, m, logger)
	go hub.Run(rootCtx)

	// Initialize S3 client
	var s3Client client.S3ClientInterface
	if cfg.S3.Bucket != "" && cfg.S3.Region != "" {
		s3c, err := client.NewS3Client(&cfg.S3)
		if err != nil {
			logger.Warn("Failed to initialize S3 client, attachment uploads use the in-memory client", zap.Error(err))
		} else {
			s3Client = s3c
			logger.Info("S3 client initialized",
				zap.String("bucket", cfg.S3.Bucket),
				zap.String("region", cfg.S3.Region),
			)
		}
	} else {
		logger.Warn("S3 configuration incomplete, attachment uploads use the in-memory client")
	}

	// User client validates tokens against auth-service (블랙리스트 포함) and checks assignees
	userClient := client.NewUserClient(
		cfg.UserAPI.BaseURL,
		cfg.AuthAPI.BaseURL,
		cfg.Notification.APIKey,
		cfg.UserAPI.Timeout,
		logger,
		m,
	)

	var notifier client.NotificationClient
	if cfg.Notification.BaseURL != "" {
		notifier = client.NewNotificationClient(cfg.Notification.BaseURL, cfg.Notification.APIKey, cfg.Notification.Timeout, logger, m)
	} else {
		logger.Warn("Notification API not configured, send_notification actions are dropped")
		notifier = client.NewNoOpNotificationClient()
	}

	routerCfg := router.Config{
		DB:             db,
		Redis:          rdb,
		Logger:         logger,
		JWTSecret:      cfg.JWT.Secret,
		UserClient:     userClient,
		UseAuthService: cfg.AuthAPI.BaseURL != "",
		BasePath:       cfg.Server.BasePath,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        m,
		S3Client:       s3Client,
		Notifier:       notifier,
		Hub:            hub,
		MaxChainDepth:  cfg.Automation.MaxChainDepth,
	}
	services := router.NewServices(routerCfg)
	routerCfg.Services = services
	r := router.Setup(routerCfg)

	// Background jobs
	firings := repository.NewDueDateFiringRepository(db)
	scanner := services.DueDateScanner(job.NewFiringLedger(firings, rdb, logger), m, logger)
	cleanupS3 := s3Client
	if cleanupS3 == nil {
		cleanupS3 = client.NewMockS3Client()
	}

	scheduler := job.NewScheduler(logger)
	if err := scheduler.Add("due-date-scan", cfg.Automation.DueDateScanSpec, job.NewDueDateJob(scanner, 0, logger)); err != nil {
		logger.Fatal("Failed to schedule due date scan", zap.Error(err))
	}
	if err := scheduler.Add("attachment-cleanup", cfg.Automation.CleanupSpec,
		job.NewCleanupJob(repository.NewAttachmentRepository(db), firings, cleanupS3, logger)); err != nil {
		logger.Fatal("Failed to schedule cleanup", zap.Error(err))
	}
	scheduler.Start()

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Task Board API started successfully",
			zap.String("address", srv.Addr),
			zap.String("swagger", fmt.Sprintf("http://localhost:%s%s/swagger/index.html", cfg.Server.Port, cfg.Server.BasePath)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	scheduler.Stop(ctx)
	stopRoot()
	businessCollector.Stop()
	close(stopDBStats)

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if err := database.Close(db); err != nil {
		logger.Warn("Failed to close database", zap.Error(err))
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
