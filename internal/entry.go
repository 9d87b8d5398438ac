// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/quire/internal/api"
	"github.com/starford/quire/internal/auth"
	"github.com/starford/quire/internal/mcpserver"
	"github.com/starford/quire/internal/notes"
	"github.com/starford/quire/internal/ratelimit"
	"github.com/starford/quire/internal/sse"
	"github.com/starford/quire/internal/store"
	pkgconfig "github.com/starford/quire/pkg/config"
)

// errShutdown cancels the group so the config watcher exits with the server.
var errShutdown = errors.New("shutdown")

// services is the wired core shared by the HTTP and MCP entry points.
type services struct {
	store  *store.SQLite
	notes  *notes.Repository
	search *notes.Searcher
	auth   *auth.Service
	tokens *auth.Tokens
}

func openServices(cfg *Config, notify notes.Notifier) (*services, error) {
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	tokens := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	return &services{
		store:  db,
		notes:  notes.NewRepository(db, notify),
		search: notes.NewSearcher(db, notes.DefaultSearchLimit),
		auth:   auth.NewService(db, auth.NewPasswordHasher(cfg.Auth.BcryptCost), tokens),
		tokens: tokens,
	}, nil
}

func (a *application) newLogger(fallback io.Writer, level *slog.LevelVar) *slog.Logger {
	out := a.logOutput
	if out == nil {
		out = fallback
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}

// newHandler builds the root router: health checks plus the rate-limited
// API under /api.
func newHandler(svc *services, broker *sse.Broker, limiter *ratelimit.Limiter) http.Handler {
	apiRouter := api.NewRouter(api.Deps{
		Notes:  svc.notes,
		Search: svc.search,
		Auth:   svc.auth,
		Authn:  svc.tokens,
		Events: broker,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("X-Content-Type-Options", "nosniff"))
	r.Use(middleware.SetHeader("X-Frame-Options", "DENY"))
	r.Use(middleware.SetHeader("Referrer-Policy", "no-referrer"))

	// Health check endpoints (unauthenticated, not rate limited).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := svc.store.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	var apiHandler http.Handler = apiRouter
	if limiter != nil {
		apiHandler = ratelimit.Middleware(limiter, ratelimit.ClientIP)(apiRouter)
	}
	r.Mount("/api", apiHandler)

	return r
}

// reloadLogLevel re-reads the config file and applies its log level.
func reloadLogLevel(path string, level *slog.LevelVar, logger *slog.Logger) {
	next := NewDefaultConfig()
	if err := pkgconfig.Load(path, next); err != nil {
		logger.Warn("config reload failed", slog.String("error", err.Error()))
		return
	}
	if next.App.LogLevel != level.Level() {
		level.Set(next.App.LogLevel)
		logger.Info("log level changed", slog.String("log_level", next.App.LogLevel.String()))
	}
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	level := new(slog.LevelVar)
	level.Set(cfg.App.LogLevel)
	logger := app.newLogger(os.Stdout, level)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()),
		slog.Bool("rate_limit", cfg.RateLimit.Enabled))

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	svc, err := openServices(cfg, broker)
	if err != nil {
		return err
	}
	defer svc.store.Close()

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(cfg.RateLimit.Limiter())
		defer limiter.Stop()
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newHandler(svc, broker, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the config file and apply log level changes.
	if app.configPath != "" {
		g.Go(func() error {
			err := pkgconfig.Watch(gCtx, app.configPath, 0, func() {
				reloadLogLevel(app.configPath, level, logger)
			})
			if err != nil {
				logger.Warn("config watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// SSE streams never finish on their own.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio, acting as username.
func RunMCP(ctx context.Context, username string, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// stdout carries the protocol, so logs go to stderr.
	level := new(slog.LevelVar)
	level.Set(cfg.App.LogLevel)
	logger := app.newLogger(os.Stderr, level)
	slog.SetDefault(logger)

	svc, err := openServices(cfg, nil)
	if err != nil {
		return err
	}
	defer svc.store.Close()

	user, err := svc.auth.Lookup(ctx, username)
	if err != nil {
		return fmt.Errorf("mcp user %q: %w", username, err)
	}

	logger.Info("MCP server starting", slog.String("user", user.Username), slog.String("sqlite_path", cfg.SQLite.Path))

	srv := mcpserver.New(svc.notes, svc.search, user.ID)
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
