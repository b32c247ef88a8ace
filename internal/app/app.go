package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"keepacli/internal/config"
	"keepacli/internal/dataprocessing"
	"keepacli/internal/infrastructure"
	"keepacli/internal/middleware"
	"keepacli/internal/services"
	transporthttp "keepacli/internal/transport/http"
)

// App wires configuration, logging, the merge service, and the HTTP server.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
}

// New builds the application from configuration.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	catalog := dataprocessing.LoadCatalogOrEmpty(cfg.Pipeline.CatalogFile, logger)
	logger.Info("sale period catalog loaded",
		slog.String("path", cfg.Pipeline.CatalogFile),
		slog.Int("periods", len(catalog)))

	service := services.NewMergeService(cfg, catalog, logger)

	app := &App{cfg: cfg, logger: logger}
	app.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.router(service),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return app, nil
}

func (a *App) router(service *services.MergeService) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(a.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RateLimit(a.cfg.Server.RateLimitRPS, a.cfg.Server.RateLimitBurst))

	mergeHandler := transporthttp.NewMergeHandler(service, a.cfg, a.logger)
	healthHandler := transporthttp.NewHealthHandler()

	r.Mount("/api/v1", mergeHandler.Routes())
	r.Get("/healthz", healthHandler.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("http server listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		a.logger.Info("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()

	// Flush file logging last so shutdown messages are kept.
	if closeErr := infrastructure.CloseLogFile(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// ShutdownTimeout exposes the configured shutdown grace period.
func (a *App) ShutdownTimeout() time.Duration {
	return a.cfg.Server.ShutdownTimeout
}
