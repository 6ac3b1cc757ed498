// Package main is the entrypoint for the recruitflow API server.
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
	"time"

	"github.com/kiranshivaraju/recruitflow/internal/ai"
	"github.com/kiranshivaraju/recruitflow/internal/api"
	"github.com/kiranshivaraju/recruitflow/internal/api/handler"
	mw "github.com/kiranshivaraju/recruitflow/internal/api/middleware"
	"github.com/kiranshivaraju/recruitflow/internal/cache"
	"github.com/kiranshivaraju/recruitflow/internal/calendar"
	"github.com/kiranshivaraju/recruitflow/internal/catalog"
	"github.com/kiranshivaraju/recruitflow/internal/config"
	"github.com/kiranshivaraju/recruitflow/internal/docstore"
	"github.com/kiranshivaraju/recruitflow/internal/extract"
	"github.com/kiranshivaraju/recruitflow/internal/notify"
	"github.com/kiranshivaraju/recruitflow/internal/pipeline"
	"github.com/kiranshivaraju/recruitflow/internal/store"
	"github.com/kiranshivaraju/recruitflow/internal/telephony"
)

const shutdownTimeout = 30 * time.Second

// schedulingDays is how many business days ahead interview slots are offered.
const schedulingDays = 5

var logLevel = new(slog.LevelVar)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logLevel.UnmarshalText([]byte(cfg.Server.LogLevel)); err != nil {
		slog.Warn("unknown log level, using info", "level", cfg.Server.LogLevel)
	}
	slog.Info("config loaded",
		"ai_provider", cfg.AI.Provider,
		"store_driver", cfg.Database.Driver,
		"env", cfg.Server.Env,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	aiProvider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "provider", aiProvider.Name())

	jobs := catalog.New()
	if cfg.Catalog.Path != "" {
		if jobs, err = catalog.Load(cfg.Catalog.Path); err != nil {
			return fmt.Errorf("load job catalog: %w", err)
		}
	}
	slog.Info("job catalog loaded", "jobs", jobs.Len())

	loc, err := time.LoadLocation(cfg.Pipeline.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	docs := docstore.NewFileStore(cfg.Storage.DocumentRoot)
	stages := pipeline.NewStages(pipeline.Deps{
		Store:     st,
		Extractor: extract.NewDocconvExtractor(docs),
		Catalog:   jobs,
		Evaluator: ai.NewEvaluator(aiProvider, cfg.AI.InferenceTimeout),
		Scripts:   ai.NewScriptWriter(aiProvider, cfg.AI.InferenceTimeout),
		Dialer:    telephony.NewHTTPDialer(cfg.Telephony),
		Slots:     calendar.NewWorkingHoursFinder(loc, schedulingDays),
		Notifier:  notify.NewSMTPNotifier(cfg.Mail),
	}, cfg.Pipeline)

	orch := pipeline.NewOrchestrator(stages, cfg.Pipeline, pipeline.WithStatusCache(redisCache, cfg.Redis.StatusTTL))
	status := pipeline.NewStatusService(st, redisCache, cfg.Redis.StatusTTL)

	sweeper, err := pipeline.NewSweeper(orch, cfg.Pipeline.RerankSchedule, loc)
	if err != nil {
		return fmt.Errorf("create sweeper: %w", err)
	}
	sweeper.Start()
	slog.Info("rerank sweeper started", "schedule", cfg.Pipeline.RerankSchedule)

	auth := mw.NewAuth(st)
	rateLimit := mw.NewRateLimit(redisCache, cfg.Server.RequestsPerMinute)

	router := api.NewRouter(api.Dependencies{
		Auth:      auth,
		RateLimit: rateLimit,

		HealthHandler: handler.NewHealthHandler(map[string]handler.Pinger{
			"database": st,
			"cache":    redisCache,
		}),
		SubmitHandler:    handler.NewSubmitHandler(orch),
		StatusHandler:    handler.NewStatusHandler(status),
		AdvanceHandler:   handler.NewAdvanceHandler(orch),
		RunStageHandler:  handler.NewRunStageHandler(orch),
		RejectHandler:    handler.NewRejectHandler(orch),
		RankHandler:      handler.NewRankHandler(orch),
		ListCandidates:   handler.NewListCandidatesHandler(st),
		ListJobs:         handler.NewListJobsHandler(jobs),
		GetJob:           handler.NewGetJobHandler(jobs),
		DocumentEvent:    handler.NewDocumentEventHandler(orch),
		PhoneResults:     handler.NewPhoneResultsHandler(orch),
		CreateKeyHandler: handler.NewCreateKeyHandler(st),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := sweeper.Stop(shutdownCtx); err != nil {
		slog.Warn("sweeper did not stop in time", "error", err)
	}
	// In-flight stage runs finish or give up before the store closes.
	if err := orch.Shutdown(shutdownCtx); err != nil {
		slog.Warn("pipeline runs did not drain in time", "error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// openStore returns the configured candidate store and a function that
// releases it.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (store.Store, func(), error) {
	if cfg.Driver == "memory" {
		slog.Warn("using in-memory store; records are lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}

	pool, err := store.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	slog.Info("database connected")

	if err := store.RunMigrations(cfg.URL, cfg.MigrationsDir); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	return store.NewPostgresStore(pool), pool.Close, nil
}
