// Package main is the entry point of the analytics API server. It wires
// the storage layer, the application handlers, and the HTTP interface;
// in development mode (no DATABASE_URL) it also runs the background jobs
// in-process so a single binary is fully functional.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prepwise/prepwise-analytics/config"
	"github.com/prepwise/prepwise-analytics/internal/application/command"
	"github.com/prepwise/prepwise-analytics/internal/application/query"
	"github.com/prepwise/prepwise-analytics/internal/domain/analysis"
	"github.com/prepwise/prepwise-analytics/internal/domain/comparison"
	"github.com/prepwise/prepwise-analytics/internal/domain/dashboard"
	"github.com/prepwise/prepwise-analytics/internal/domain/event"
	"github.com/prepwise/prepwise-analytics/internal/domain/export"
	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/prediction"
	"github.com/prepwise/prepwise-analytics/internal/domain/report"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/internal/domain/subject"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/delivery"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/messaging"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/persistence/memory"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/persistence/postgres"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/persistence/redis"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/scheduler"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/scheduler/jobs"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/service"
	httpserver "github.com/prepwise/prepwise-analytics/internal/interface/http"
	"github.com/prepwise/prepwise-analytics/pkg/logger"
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

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting PrepWise Analytics API",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"memory_storage", cfg.UseMemoryStorage(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. METRICS
	// ─────────────────────────────────────────────────────────────────────────
	var monitor *metrics.Manager
	if cfg.Observability.MetricsEnabled {
		monitor = metrics.NewManager()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	var (
		subjectRepo   subject.Repository
		eventRepo     event.Repository
		metricRepo    metric.Repository
		defRepo       report.DefinitionRepository
		execRepo      report.ExecutionRepository
		predRepo      prediction.Repository
		exportRepo    export.Repository
		dashboardRepo dashboard.Repository

		health httpserver.HealthChecker
	)

	if cfg.UseMemoryStorage() {
		log.Warn("DATABASE_URL not set, using in-memory storage")
		subjectRepo = memory.NewSubjectRepository()
		eventRepo = memory.NewEventRepository()
		metricRepo = memory.NewMetricRepository()
		defRepo = memory.NewReportDefinitionRepository()
		execRepo = memory.NewReportExecutionRepository()
		predRepo = memory.NewPredictionRepository()
		exportRepo = memory.NewExportRepository()
		dashboardRepo = memory.NewDashboardRepository()
	} else {
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

		subjectRepo = postgres.NewSubjectRepository(conn)
		eventRepo = postgres.NewEventRepository(conn)
		metricRepo = postgres.NewMetricRepository(conn)
		defRepo = postgres.NewReportDefinitionRepository(conn)
		execRepo = postgres.NewReportExecutionRepository(conn)
		predRepo = postgres.NewPredictionRepository(conn)
		exportRepo = postgres.NewExportRepository(conn)
		dashboardRepo = postgres.NewDashboardRepository(conn)
		health = conn.Ping
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. COMPARISON CACHE
	// ─────────────────────────────────────────────────────────────────────────
	var comparisonCache comparison.Cache
	if cfg.Redis.Disabled {
		log.Info("comparison cache disabled, comparisons recompute each time")
	} else if cache, err := connectRedis(cfg); err != nil {
		// Redis is an optimization. A miss just recomputes, so a broken
		// connection at boot falls back to the in-memory cache.
		log.Warn("redis unavailable, using in-memory comparison cache", "error", err)
		comparisonCache = memory.NewComparisonCache()
	} else {
		defer cache.Close()
		comparisonCache = redis.NewComparisonCache(cache, cfg.Analysis.ComparisonFreshness)
		log.Info("redis comparison cache connected")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS AND DELIVERY
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
	// 7. SERVICES
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
	// 8. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	deps := httpserver.Dependencies{
		RegisterSubject:    command.NewRegisterSubjectHandler(subjectRepo),
		RecordEvent:        command.NewRecordEventHandler(eventRepo, subjectRepo, monitor),
		RecordMetric:       command.NewRecordMetricHandler(metricRepo, subjectRepo, monitor),
		CreateReport:       command.NewCreateReportHandler(defRepo, scheduler.ValidateCronExpr),
		DeleteReport:       command.NewDeleteReportHandler(defRepo),
		TriggerReport:      command.NewTriggerReportHandler(engine),
		CancelExecution:    command.NewCancelExecutionHandler(execRepo),
		RequestExport:      command.NewRequestExportHandler(exportRepo),
		ValidatePrediction: command.NewValidatePredictionHandler(predRepo),
		SaveDashboard:      command.NewSaveDashboardHandler(dashboardRepo),

		GetSeries:      query.NewGetSeriesHandler(metricRepo),
		GetTrend:       query.NewGetTrendHandler(metricRepo, analysisOpts),
		GetCorrelation: query.NewGetCorrelationHandler(metricRepo, analysisOpts),
		GetAnomalies:   query.NewGetAnomaliesHandler(metricRepo, analysisOpts),
		Forecast: query.NewForecastHandler(metricRepo, predRepo, analysisOpts,
			query.ForecastHandlerConfig{
				DefaultHorizon: cfg.Prediction.DefaultHorizon,
				MaxHorizon:     cfg.Prediction.MaxHorizon,
				LookbackDays:   cfg.Reports.DefaultLookbackDays,
			}),
		CompareSubject:     comparer,
		PredictionAccuracy: query.NewPredictionAccuracyHandler(predRepo),
		GetExecution:       query.NewGetExecutionHandler(execRepo),
		ListExecutions:     query.NewListExecutionsHandler(defRepo, execRepo),
		ListReports:        query.NewListReportsHandler(defRepo),
		GetExport:          query.NewGetExportHandler(exportRepo),
		GetDashboard:       query.NewGetDashboardHandler(dashboardRepo),

		Artifacts: store,
		Monitor:   monitor,
		Health:    health,
		Logger:    logger.New(logger.Options{Output: os.Stdout, Level: logger.ParseLevel(cfg.Observability.LogLevel)}),
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. IN-PROCESS SCHEDULER (development mode only)
	// ─────────────────────────────────────────────────────────────────────────
	// With in-memory storage a separate worker would see an empty dataset,
	// so the API process owns the background jobs itself. Against Postgres
	// the worker binary runs them instead.
	if cfg.Scheduler.Enabled && cfg.UseMemoryStorage() {
		sched := scheduler.New(scheduler.Config{
			Logger:            log,
			Metrics:           monitor,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
		})
		if err := registerJobs(sched, cfg, log, defRepo, engine, exportRepo, exportSvc, eventRepo); err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() { _ = sched.Stop() }()
		log.Info("in-process scheduler started")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.Server.Host
	httpCfg.Port = cfg.Server.Port
	httpCfg.ReadTimeout = cfg.Server.ReadTimeout
	httpCfg.WriteTimeout = cfg.Server.WriteTimeout
	httpCfg.IdleTimeout = cfg.Server.IdleTimeout

	server := httpserver.NewServer(httpCfg, deps)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("PrepWise Analytics API is running", "address", server.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
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

// registerJobs wires the three background jobs onto a scheduler.
func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	log *slog.Logger,
	defRepo report.DefinitionRepository,
	engine *service.ReportEngine,
	exportRepo export.Repository,
	exportSvc *service.ExportService,
	eventRepo event.Repository,
) error {
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
	return nil
}
