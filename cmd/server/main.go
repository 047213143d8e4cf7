package main

import (
	"alcyxob/club-app/internal/api"
	"alcyxob/club-app/internal/cache"
	"alcyxob/club-app/internal/config"
	"alcyxob/club-app/internal/directory"
	"alcyxob/club-app/internal/logger"
	"alcyxob/club-app/internal/metrics"
	"alcyxob/club-app/internal/repository"
	"alcyxob/club-app/internal/repository/mongo"
	"alcyxob/club-app/internal/service"
	"alcyxob/club-app/internal/storage"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// @title Club Training Plans API
// @version 1.0
// @description Training plans, schedule binding and attendance for a multi-sport club.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	// --- Logger ---
	appLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("FATAL: Could not build logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	appLogger.Info("starting club app server", zap.String("address", cfg.Server.Address))

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		appLogger.Fatal("could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		appLogger.Info("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			appLogger.Error("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	appLogger.Info("database connection established", zap.String("database", cfg.Database.Name))

	// --- Ensure Indexes ---
	// The unique indexes back idempotent creation and the one-record-per-player
	// rule, so the server does not start without them.
	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), time.Minute)
	err = mongo.EnsureIndexes(indexCtx, appDB)
	cancelIndexes()
	if err != nil {
		appLogger.Fatal("could not ensure indexes", zap.Error(err))
	}

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics, err := metrics.New(registry)
	if err != nil {
		appLogger.Fatal("could not register metrics", zap.Error(err))
	}
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	// --- Initialize Repositories ---
	retryPolicy := directory.RetryPolicy{
		Attempts: cfg.Directory.RetryAttempts,
		Delay:    cfg.Directory.RetryDelay,
		MaxDelay: cfg.Directory.RetryMaxDelay,
		Clock:    clock.WallClock,
	}
	planRepo := mongo.NewMongoTrainingPlanRepository(appDB, appLogger)
	attendanceRepo := mongo.NewMongoAttendanceRepository(appDB)
	userDirectory := mongo.NewMongoUserDirectory(appDB)
	teamDirectory := directory.NewRetryingTeamDirectory(mongo.NewMongoTeamDirectory(appDB), retryPolicy, appLogger)
	bookingDirectory := newBookingDirectory(cfg, appDB, retryPolicy, appLogger)

	// --- Initialize Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.Enabled() {
		fileStorage, err = storage.NewS3Storage(context.Background(), cfg.S3, appLogger)
		if err != nil {
			appLogger.Fatal("failed to initialize S3 storage", zap.Error(err))
		}
	} else {
		appLogger.Info("s3 bucket not configured, plan attachments disabled")
	}

	// --- Initialize Services ---
	binder := service.NewScheduleBinder(bookingDirectory, appLogger, appMetrics)
	planService := service.NewTrainingPlanService(planRepo, teamDirectory, binder, fileStorage, appLogger, appMetrics)
	attendanceService := service.NewAttendanceService(planRepo, attendanceRepo, teamDirectory, userDirectory, appLogger, appMetrics)

	// --- Initialize Gin Engine ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestID(), api.RequestLogger(appLogger))

	// --- Setup Routes ---
	health := func(ctx context.Context) error { return mongo.Ping(ctx, dbClient) }
	api.SetupRoutes(router, cfg.JWT.Secret, planService, attendanceService, health, cfg.Metrics.Path, metricsHandler, appLogger)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful Shutdown ---
	go func() {
		appLogger.Info("server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("ListenAndServe failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("server exiting")
}

// newBookingDirectory retries booking lookups and, when Redis is configured
// and reachable, caches them. The server runs without the cache otherwise.
func newBookingDirectory(cfg config.Config, db *mongodriver.Database, policy directory.RetryPolicy, logger *zap.Logger) repository.BookingDirectory {
	bookings := directory.NewRetryingBookingDirectory(mongo.NewMongoBookingDirectory(db), policy, logger)
	if cfg.Redis.Addr == "" {
		return bookings
	}
	rdb, err := cache.NewRedisClient(cfg.Redis, logger)
	if err != nil {
		logger.Warn("booking cache disabled", zap.Error(err))
		return bookings
	}
	return cache.NewCachedBookingDirectory(bookings, rdb, cfg.Redis.BookingTTL, logger)
}
