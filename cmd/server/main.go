package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"fleet/internal/app"
	"fleet/internal/config"
	"fleet/internal/domain"
	"fleet/internal/handler"
	internalRedis "fleet/internal/redis"
	"fleet/internal/repository"
	"fleet/internal/repository/postgres"
	"fleet/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, scheduler := wireServer(db, redisClient, nrApp, cfg)

	// Arm the scheduler from persisted settings, falling back to the
	// config defaults on a fresh database.
	if err := bootScheduler(ctx, scheduler, cfg.Scheduler); err != nil {
		log.Printf("scheduler not armed: %v", err)
	} else if next, ok := scheduler.NextRun(); ok {
		log.Printf("Auto-closeout scheduled for %s", next.Format(time.RFC3339))
	}

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server together
// with the scheduler manager, which outlives individual requests.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *service.SchedulerManager) {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	tripRepo := postgres.NewTripRepository(db)
	scanRepo := postgres.NewScanRepository(db)
	salesRepo := postgres.NewSalesRepository(db)
	attendanceRepo := postgres.NewAttendanceRepository(db)
	schedulerRepo := postgres.NewSchedulerRepository(db)

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Printf("invalid SCHEDULER_TIMEZONE %q, using local time", cfg.Scheduler.Timezone)
		loc = time.Local
	}

	// Initialize services.
	tripService := service.NewTripService(tripRepo, scanRepo, salesRepo, lockStore, loc)
	qualificationService := service.NewQualificationService(tripRepo)
	revenueService := service.NewRevenueService(salesRepo, tripRepo, qualificationService, cacheStore)
	closeoutService := service.NewCloseoutService(attendanceRepo, schedulerRepo)
	schedulerManager := service.NewSchedulerManager(closeoutService, schedulerRepo)

	// Initialize handlers.
	tripHandler := handler.NewTripHandler(tripService)
	reportHandler := handler.NewReportHandler(revenueService)
	schedulerHandler := handler.NewSchedulerHandler(schedulerManager)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		TripHandler:      tripHandler,
		ReportHandler:    reportHandler,
		SchedulerHandler: schedulerHandler,
		RedisClient:      redisClient,
		NewRelicApp:      nrApp,
	})

	// Create HTTP server.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return server, schedulerManager
}

// bootScheduler applies the persisted scheduler settings, seeding them
// from config defaults when none have been saved yet.
func bootScheduler(ctx context.Context, manager *service.SchedulerManager, cfg config.SchedulerConfig) error {
	settings, err := manager.Settings(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		settings = &domain.SchedulerSettings{
			Enabled:  cfg.Enabled,
			Cutoff:   cfg.Cutoff,
			Timezone: cfg.Timezone,
		}
	} else if err != nil {
		return err
	}

	return manager.ApplySettings(ctx, *settings)
}
