package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"PlantScout/internal/config"
	"PlantScout/internal/domain"
	"PlantScout/internal/httpapi"
	"PlantScout/internal/hydrator"
	"PlantScout/internal/infrastructure/citation"
	"PlantScout/internal/infrastructure/flickr"
	"PlantScout/internal/infrastructure/llm"
	"PlantScout/internal/infrastructure/storage"
	"PlantScout/internal/logging"
	"PlantScout/internal/metrics"
	"PlantScout/internal/ports"
	"PlantScout/internal/selector"
	"PlantScout/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg         config.Config
	logger      *slog.Logger
	registry    *prometheus.Registry
	repository  *storage.Repository
	recommender *usecase.Recommender
	gardens     *usecase.Gardens
	nurseries   *usecase.Nurseries
}

// New builds every adapter from cfg. A database that cannot be opened is
// logged and replaced by a repository that caches nothing.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format, nil)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(registry)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	repo, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		baseLogger.Warn("starting without plant cache", "driver", cfg.Database.Driver, "error", err)
		repo = storage.NewRepository(nil, cfg.Database.Driver)
	}

	llmClient := llm.NewClient(cfg.OpenAI)
	advisor := llm.NewAdvisor(llmClient)

	var images ports.ImageFinder
	if cfg.Flickr.APIKey != "" {
		images = flickr.NewClient(cfg.Flickr)
	} else {
		baseLogger.Warn("flickr api key missing, plants will have no images")
	}

	var symbols map[string]string
	if cfg.Citations.USDASymbolsPath != "" {
		if symbols, err = citation.LoadSymbols(cfg.Citations.USDASymbolsPath); err != nil {
			baseLogger.Warn("usda symbols unavailable", "error", err)
		}
	}
	citations := citation.NewFinder(nil, cfg.Citations, symbols)

	limiter := hydrator.NewLimiter(int64(cfg.Hydration.Limit), m.InFlight())

	coordinator := hydrator.NewCoordinator(hydrator.Deps{
		Images:    images,
		Ratings:   advisor,
		Details:   advisor,
		Citations: citations,
		Limiter:   limiter,
		Metrics:   m,
		Logger:    baseLogger.With("component", "hydrator"),
	})

	selectorDeps := selector.Deps{
		Repository:       repo,
		Streamer:         llmClient,
		Limiter:          limiter,
		CachedQueryLimit: cfg.Hydration.CachedQueryLimit,
		Metrics:          m,
		Logger:           baseLogger.With("component", "selector"),
	}
	if cfg.Hydration.FilterConditions {
		selectorDeps.Conditions = advisor
	}

	var sessionLimit int64
	if cfg.Hydration.LimiterScope == config.LimiterScopeSession {
		sessionLimit = int64(cfg.Hydration.Limit)
	}

	recommender := usecase.NewRecommender(usecase.RecommenderDeps{
		Selector:           selector.New(selectorDeps),
		Coordinator:        coordinator,
		Repository:         repo,
		Zips:               repo,
		Search:             repo,
		Metrics:            m,
		Logger:             baseLogger.With("component", "recommender"),
		KeepAlive:          cfg.Server.KeepAlive,
		CancelOnDisconnect: cfg.Hydration.CancelOnDisconnect,
		SessionLimit:       sessionLimit,
	})

	return &Application{
		cfg:         cfg,
		logger:      baseLogger,
		registry:    registry,
		repository:  repo,
		recommender: recommender,
		gardens:     usecase.NewGardens(repo, baseLogger.With("component", "gardens")),
		nurseries:   usecase.NewNurseries(repo),
	}, nil
}

// WithAddr returns a copy of a listening on addr.
func (a *Application) WithAddr(addr string) *Application {
	clone := *a
	clone.cfg.Server.Addr = addr
	return &clone
}

// Handler returns the HTTP surface.
func (a *Application) Handler() http.Handler {
	return httpapi.NewHandler(httpapi.Deps{
		Recommendations: a.recommender,
		Gardens:         a.gardens,
		Nurseries:       a.nurseries,
		Gatherer:        a.registry,
		Logger:          a.logger.With("component", "http"),
	})
}

// Serve listens on the configured address until ctx is done, then drains
// connections for up to ShutdownWait.
func (a *Application) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: a.cfg.Server.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", a.cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	wait := a.cfg.Server.ShutdownWait
	if wait <= 0 {
		wait = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), wait)
	defer cancel()

	a.logger.Info("shutting down", "wait", wait)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Recommend runs one session writing events to w.
func (a *Application) Recommend(ctx context.Context, q domain.Query, w io.Writer) error {
	return a.recommender.Recommend(ctx, q, w)
}

// Close releases the database.
func (a *Application) Close() error {
	if a.repository == nil {
		return nil
	}
	return a.repository.Close()
}
