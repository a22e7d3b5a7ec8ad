package captureservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vcalderon2009/note-taker/internal/api"
	"github.com/vcalderon2009/note-taker/internal/api/recovery"
	"github.com/vcalderon2009/note-taker/internal/config"
	"github.com/vcalderon2009/note-taker/internal/factory"
	"github.com/vcalderon2009/note-taker/internal/health"
	"github.com/vcalderon2009/note-taker/internal/idempotency"
	"github.com/vcalderon2009/note-taker/internal/llm"
	"github.com/vcalderon2009/note-taker/internal/logger"
	"github.com/vcalderon2009/note-taker/internal/model"
	"github.com/vcalderon2009/note-taker/internal/orchestrator"
	"github.com/vcalderon2009/note-taker/internal/pipeline"
	"github.com/vcalderon2009/note-taker/internal/prompts"
	"github.com/vcalderon2009/note-taker/internal/ratelimit"
	"github.com/vcalderon2009/note-taker/internal/services"
	"github.com/vcalderon2009/note-taker/internal/store"
	"github.com/vcalderon2009/note-taker/internal/telemetry"
)

const (
	serviceName      = "capture-service"
	shutdownGrace    = 10 * time.Second
	minStartupWindow = time.Minute
)

// Run starts the capture service HTTP server and blocks until shutdown or error.
func Run() error {
	cfg, err := config.New()
	if err != nil {
		bootLog := logger.New(serviceName)
		bootLog.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	log := logger.NewWithOptions(serviceName, cfg.LogLevel, cfg.LogFormat)

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("llm_provider", cfg.LLMProvider).
		Str("model", cfg.ChatModel()).
		Msg("Capture service starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	svcHealth, llmChecker := startHealthCheckers(ctx, cfg, log, deps)
	handler := buildHandler(cfg, log, deps, svcHealth, llmChecker)

	// The store gates startup; the LLM may still be loading its model.
	window := startupHealthWindow(cfg.HealthIntervalSeconds)
	if err := waitUntilHealthy(ctx, svcHealth, window); err != nil {
		log.Error().Stack().Err(err).Dur("window", window).Msg("startup health check failed")
		return err
	}

	return serve(ctx, newHTTPServer(ctx, cfg, handler), log)
}

type dependencies struct {
	store    store.Store
	provider llm.Provider
	prompts  *prompts.Store
	metrics  *telemetry.Collector
	emitter  *telemetry.Emitter
	user     *model.User
	closers  []func()
}

func (d *dependencies) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// initDependencies constructs required components and enforces fail-fast on missing deps.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*dependencies, error) {
	d := &dependencies{}

	st, db, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return nil, err
	}
	d.store = st
	d.closers = append(d.closers, func() { _ = db.Close() })

	d.provider, err = factory.NewProvider(cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("LLM provider unavailable")
		d.close()
		return nil, err
	}

	d.prompts = prompts.NewStore(cfg.PromptsDir, log)
	if cfg.PromptsDir != "" && cfg.PromptsWatch {
		w, err := prompts.NewWatcher(d.prompts, log)
		if err != nil {
			// Hot reload is optional; the admin endpoint still works.
			log.Warn().Err(err).Str("dir", cfg.PromptsDir).Msg("prompt watcher disabled")
		} else {
			w.Start()
			d.closers = append(d.closers, w.Stop)
		}
	}

	if cfg.MetricsEnabled {
		d.metrics = telemetry.NewCollector("note_taker")
	}
	d.emitter = telemetry.NewEmitter(log, d.metrics)

	bootCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.BootstrapTimeoutSeconds)*time.Second)
	defer cancel()
	d.user, err = services.EnsureDefaults(bootCtx, st, cfg.DefaultUserEmail, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Default user bootstrap failed")
		d.close()
		return nil, err
	}
	return d, nil
}

// buildHandler wires routes to handlers and wraps the router in the
// governance pipeline: recovery, rate limit, idempotency, telemetry.
func buildHandler(cfg *config.Config, log zerolog.Logger, d *dependencies, svcHealth *health.ServiceHealthChecker, llmChecker health.HealthChecker) http.Handler {
	orch := orchestrator.NewService(d.store, d.provider, d.prompts, d.emitter, cfg.ChatModel(), log)
	classifier := services.NewClassificationService(d.provider, d.prompts, d.emitter, factory.ClassifyModel(cfg), log)

	h := api.Handlers{
		Health:        api.NewHealthHandler(cfg.HTTPPort, svcHealth, llmChecker),
		Conversations: api.NewConversationHandler(services.NewConversationService(d.store), orch, d.user.ID, d.emitter, log),
		Notes:         api.NewNoteHandler(services.NewNoteService(d.store), d.user.ID),
		Tasks:         api.NewTaskHandler(services.NewTaskService(d.store), d.user.ID),
		Categories:    api.NewCategoryHandler(services.NewCategoryService(d.store), d.user.ID),
		Classify:      api.NewClassifyHandler(classifier, d.prompts),
	}
	if d.metrics != nil {
		h.Metrics = d.metrics.Handler()
	}
	router := api.NewRouter(h)

	var (
		limitRec ratelimit.Recorder
		gateRec  idempotency.Recorder
	)
	if d.metrics != nil {
		limitRec, gateRec = d.metrics, d.metrics
	}

	var limitStage func(http.Handler) http.Handler
	if cfg.RateLimitEnabled {
		limitStage = ratelimit.Middleware(ratelimit.NewLimiter(rateLimitConfig(cfg)), limitRec)
	}

	p := pipeline.New(
		pipeline.Stage{Name: "recovery", Wrap: recovery.New(log)},
		pipeline.Stage{Name: "ratelimit", Wrap: limitStage},
		pipeline.Stage{Name: "idempotency", Wrap: idempotency.NewGate(gateRec).Middleware},
		pipeline.Stage{Name: "telemetry", Wrap: d.emitter.Middleware(api.RouteTemplate(router))},
	)
	log.Info().Strs("stages", p.Names()).Msg("request pipeline assembled")
	return p.Then(router)
}

func rateLimitConfig(cfg *config.Config) ratelimit.Config {
	window := cfg.RateLimitWindow()
	return ratelimit.Config{
		Default: ratelimit.Rule{Limit: cfg.RateLimitDefault, Window: window},
		Classes: map[string]ratelimit.Rule{
			ratelimit.ClassMessages: {Limit: cfg.RateLimitMessages, Window: window},
			ratelimit.ClassNotes:    {Limit: cfg.RateLimitNotes, Window: window},
			ratelimit.ClassTasks:    {Limit: cfg.RateLimitTasks, Window: window},
		},
		SweepInterval: time.Duration(cfg.RateLimitCleanupSeconds) * time.Second,
	}
}

// startHealthCheckers starts component checkers. Only the store gates service
// health; the LLM checker is reported alongside it.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, d *dependencies) (*health.ServiceHealthChecker, health.HealthChecker) {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewStoreHealthChecker(d.store, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	llmChecker := llm.NewProviderHealthChecker(d.provider, log, probeTimeout)
	go llmChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker)
	go svcHealth.Start(ctx, interval)
	return svcHealth, llmChecker
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		// Brain dumps on a local model routinely exceed 15s.
		WriteTimeout: cfg.LLMTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
}

// serve runs the server until ctx is cancelled, then drains in-flight
// requests for up to shutdownGrace.
func serve(ctx context.Context, server *http.Server, log zerolog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Stack().Err(err).Msg("Server stopped with error")
		return err
	}
	log.Info().Msg("Server exited")
	return nil
}

// startupHealthWindow is twice the probe interval, but never under a minute
// so a cold database has time to come up.
func startupHealthWindow(intervalSeconds int) time.Duration {
	return max(time.Duration(intervalSeconds)*2*time.Second, minStartupWindow)
}

func waitUntilHealthy(ctx context.Context, svcHealth *health.ServiceHealthChecker, window time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for !svcHealth.IsHealthy() {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("startup aborted: store not healthy within %s", window)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
