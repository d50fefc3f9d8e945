package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	adjhttp "github.com/adjutant-ai/adjutant/internal/adapter/http"
	"github.com/adjutant-ai/adjutant/internal/adapter/litellm"
	adjnats "github.com/adjutant-ai/adjutant/internal/adapter/nats"
	adjotel "github.com/adjutant-ai/adjutant/internal/adapter/otel"
	"github.com/adjutant-ai/adjutant/internal/adapter/postgres"
	"github.com/adjutant-ai/adjutant/internal/adapter/ristretto"
	"github.com/adjutant-ai/adjutant/internal/adapter/ws"
	"github.com/adjutant-ai/adjutant/internal/config"
	"github.com/adjutant-ai/adjutant/internal/logger"
	"github.com/adjutant-ai/adjutant/internal/resilience"
	"github.com/adjutant-ai/adjutant/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"tick_interval", cfg.Scheduler.TickInterval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	queue, err := adjnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Drain() }()

	llmClient := litellm.NewClient(cfg.LiteLLM.URL, cfg.LiteLLM.MasterKey)
	llmClient.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	contextCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer contextCache.Close()

	metrics, err := adjotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Services ---

	hub := ws.NewHub()
	store := postgres.NewStore(pool)

	queueSvc := service.NewQueueService(store, queue, hub, metrics)
	threadSvc := service.NewThreadService(store)
	knowledgeSvc := service.NewKnowledgeService(store, llmClient, contextCache, cfg.LiteLLM.SessionModel, cfg.Cache.ContextTTL)
	memorySvc := service.NewMemoryService(store, llmClient, cfg.LiteLLM.AckModel)
	briefingSvc := service.NewBriefingService(store, llmClient, queue, hub, metrics, cfg.LiteLLM.SessionModel)
	toolSvc := service.NewToolService(store, queueSvc, knowledgeSvc, briefingSvc)
	agentSvc := service.NewAgentService(store, queueSvc, threadSvc, knowledgeSvc, memorySvc, briefingSvc, toolSvc, llmClient, hub, metrics, cfg)
	rosterSvc := service.NewRosterService(store, queueSvc)

	scheduler := service.NewScheduler(store, queue, agentSvc, queueSvc, cfg.Scheduler)
	go func() {
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("scheduler exited", "error", err)
		}
	}()

	// --- HTTP ---

	handlers := &adjhttp.Handlers{
		Roster:    rosterSvc,
		Agents:    agentSvc,
		Queue:     queueSvc,
		Knowledge: knowledgeSvc,
		Memories:  memorySvc,
		Briefings: briefingSvc,
		LiteLLM:   llmClient,
	}

	r := chi.NewRouter()
	r.Use(adjhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(adjhttp.Logger)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(adjotel.HTTPMiddleware(cfg.Logging.Service))

	r.Get("/health", healthHandler(queue, llmClient, pingFn(pool)))
	r.Get("/ws", hub.HandleWS)

	adjhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

type pinger interface {
	Ping(ctx context.Context) error
}

func pingFn(p pinger) func(context.Context) bool {
	return func(ctx context.Context) bool { return p.Ping(ctx) == nil }
}

// healthHandler reports the liveness of each dependency.
func healthHandler(queue *adjnats.Queue, llmClient *litellm.Client, pgOK func(context.Context) bool) http.HandlerFunc {
	type healthStatus struct {
		Status   string `json:"status"`
		Postgres bool   `json:"postgres"`
		NATS     bool   `json:"nats"`
		LiteLLM  bool   `json:"litellm"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		llmOK, _ := llmClient.Health(ctx)
		status := healthStatus{
			Status:   "ok",
			Postgres: pgOK(ctx),
			NATS:     queue.IsConnected(),
			LiteLLM:  llmOK,
		}

		code := http.StatusOK
		if !status.Postgres || !status.NATS {
			status.Status = "degraded"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
