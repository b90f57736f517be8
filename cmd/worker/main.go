// Package main is the entry point of the analytics worker. It owns the
// background jobs against shared storage: claiming due report ticks,
// draining the export queue, and pruning raw events past retention.
// Scheduler mutual exclusion rests on the unique (report_id,
// scheduled_for) constraint, so several workers can share one database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prepwise/prepwise-analytics/config"
	"github.com/prepwise/prepwise-analytics/internal/application/query"
	"github.com/prepwise/prepwise-analytics/internal/domain/analysis"
	"github.com/prepwise/prepwise-analytics/internal/domain/comparison"
	"github.com/prepwise/prepwise-analytics/internal/domain/event"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/delivery"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/messaging"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/persistence/memory"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/persistence/postgres"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/persistence/redis"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/scheduler"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/scheduler/jobs"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/service"
	"github.com/prepwise/prepwise-analytics/pkg/metrics"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.UseMemoryStorage() {
		// In-memory repositories are process-local; a worker against them
		// would see nothing the API wrote. Development mode runs the jobs
		// inside the server process instead.
		return fmt.Errorf("worker requires DATABASE_URL; in development the server runs the jobs in-process")
	}
	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("worker started with SCHEDULER_ENABLED=false")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING AND METRICS
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting PrepWise Analytics worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	var monitor *metrics.Manager
	if cfg.Observability.MetricsEnabled {
		monitor = metrics.NewManager()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	settings := postgres.DefaultPoolSettings()
	settings.MaxConns = int32(cfg.Database.MaxOpenConns)
	settings.MinConns = int32(cfg.Database.MaxIdleConns)
	settings.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	settings.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	conn, err := postgres.NewConnection(ctx, cfg.Database.URL, settings)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		conn.Close()
	}()

	log.Info("running database migrations...")
	if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	subjectRepo := postgres.NewSubjectRepository(conn)
	eventRepo := postgres.NewEventRepository(conn)
	metricRepo := postgres.NewMetricRepository(conn)
	defRepo := postgres.NewReportDefinitionRepository(conn)
	execRepo := postgres.NewReportExecutionRepository(conn)
	predRepo := postgres.NewPredictionRepository(conn)
	exportRepo := postgres.NewExportRepository(conn)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. COMPARISON CACHE
	// ─────────────────────────────────────────────────────────────────────────
	var comparisonCache comparison.Cache
	if cfg.Redis.Disabled {
		log.Info("comparison cache disabled")
	} else if cache, err := connectRedis(cfg); err != nil {
		log.Warn("redis unavailable, using in-memory comparison cache", "error", err)
		comparisonCache = memory.NewComparisonCache()
	} else {
		defer cache.Close()
		comparisonCache = redis.NewComparisonCache(cache, cfg.Analysis.ComparisonFreshness)
		log.Info("redis comparison cache connected")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS AND DELIVERY
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultEventBusConfig()
	busCfg.Logger = log
	bus := messaging.NewEventBus(busCfg)
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	dispatcher := delivery.NewDispatcher(delivery.LogChannel{Logger: log}, log)
	if err := bus.Subscribe(shared.EventReportExecutionCompleted, dispatcher); err != nil {
		return fmt.Errorf("failed to subscribe dispatcher: %w", err)
	}
	if err := bus.Subscribe(shared.EventExportCompleted, dispatcher); err != nil {
		return fmt.Errorf("failed to subscribe dispatcher: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	store, err := service.NewArtifactStore(cfg.Reports.ArtifactDir)
	if err != nil {
		return fmt.Errorf("failed to create artifact store: %w", err)
	}

	analysisOpts := analysisOptions(cfg)

	comparer := query.NewCompareSubjectHandler(subjectRepo, metricRepo, comparisonCache, monitor,
		query.CompareSubjectHandlerConfig{
			MinCohortSize:   cfg.Analysis.MinCohortSize,
			FreshnessWindow: cfg.Analysis.ComparisonFreshness,
		})

	engine := service.NewReportEngine(service.ReportEngineConfig{
		Definitions: defRepo,
		Executions:  execRepo,
		Metrics:     metricRepo,
		Predictions: predRepo,
		Comparer:    comparer,
		Store:       store,
		Publisher:   bus,
		Analysis:    analysisOpts,
		Horizon:     cfg.Prediction.DefaultHorizon,
		Logger:      log,
		Monitor:     monitor,
	})

	exportSvc := service.NewExportService(service.ExportServiceConfig{
		Exports:   exportRepo,
		Events:    eventRepo,
		Metrics:   metricRepo,
		Store:     store,
		Publisher: bus,
		Logger:    log,
		Monitor:   monitor,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 7. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{
		Logger:            log,
		Metrics:           monitor,
		JobTimeout:        cfg.Scheduler.JobTimeout,
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
	})

	reportJob := jobs.NewRunDueReportsJob(defRepo, engine, 2*cfg.Scheduler.ReportTickInterval, log)
	if err := sched.Register(reportJob, scheduler.NewIntervalSchedule(cfg.Scheduler.ReportTickInterval)); err != nil {
		return fmt.Errorf("failed to register report job: %w", err)
	}

	exportJob := jobs.NewRunExportsJob(exportRepo, exportSvc, cfg.Scheduler.ExportBatchSize, log)
	if err := sched.Register(exportJob, scheduler.NewIntervalSchedule(cfg.Scheduler.ExportInterval)); err != nil {
		return fmt.Errorf("failed to register export job: %w", err)
	}

	policy := event.RetentionPolicy{MaxAge: cfg.Retention.EventMaxAge}
	pruneJob := jobs.NewPruneEventsJob(eventRepo, policy, log)
	if err := sched.Register(pruneJob, scheduler.NewIntervalSchedule(cfg.Scheduler.PruneInterval)); err != nil {
		return fmt.Errorf("failed to register prune job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	log.Info("PrepWise Analytics worker is running",
		"report_interval", cfg.Scheduler.ReportTickInterval.String(),
		"export_interval", cfg.Scheduler.ExportInterval.String(),
		"prune_interval", cfg.Scheduler.PruneInterval.String(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler gracefully", "error", err)
		return err
	}

	log.Info("shutdown completed")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger builds the structured logger per the observability config.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Observability.LogLevel)}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// connectRedis builds the Redis cache client from either a URL or host
// settings.
func connectRedis(cfg *config.Config) (*redis.Cache, error) {
	if cfg.Redis.URL != "" {
		return redis.NewCacheFromURL(cfg.Redis.URL)
	}

	rc := redis.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout
	return redis.NewCache(rc)
}

// analysisOptions maps service configuration onto the domain's
// statistical options.
func analysisOptions(cfg *config.Config) analysis.Options {
	opts := analysis.DefaultOptions()
	opts.TrendEpsilonFraction = cfg.Analysis.TrendEpsilonFraction
	opts.MinTrendPoints = cfg.Analysis.MinTrendPoints
	opts.CorrelationAlpha = cfg.Analysis.CorrelationAlpha
	opts.MinCorrelationSamples = cfg.Analysis.MinCorrelationSamples
	opts.PairingTolerance = cfg.Analysis.PairingTolerance
	opts.AnomalyWindow = cfg.Analysis.AnomalyWindow
	opts.AnomalyThreshold = cfg.Analysis.AnomalyThreshold
	return opts
}
