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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	slogmulti "github.com/samber/slog-multi"
	"golang.org/x/sync/errgroup"

	"github.com/starford/nexusmap/internal/api"
	"github.com/starford/nexusmap/internal/docservice"
	"github.com/starford/nexusmap/internal/engine"
	"github.com/starford/nexusmap/internal/index"
	"github.com/starford/nexusmap/internal/mcpserver"
	"github.com/starford/nexusmap/internal/sse"
	"github.com/starford/nexusmap/internal/storage"
	"github.com/starford/nexusmap/internal/validate"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger builds the JSON logger. With a log file configured, records fan
// out to both the primary output and the file.
func newLogger(cfg *Config, out io.Writer) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: cfg.App.LogLevel}
	primary := slog.NewJSONHandler(out, opts)
	if cfg.App.LogFile == "" {
		return slog.New(primary), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.App.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slogmulti.Fanout(primary, slog.NewJSONHandler(f, opts)))
	return logger, func() { _ = f.Close() }, nil
}

// stack is the storage, index and service wiring shared by every command.
type stack struct {
	store *storage.FS
	db    *index.DB
	svc   *docservice.Service
	close func()
}

func openStack(cfg *Config, logger *slog.Logger, pub docservice.Publisher) (*stack, error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	rules := cfg.Engine.Rules()
	if err := index.Sync(db, store, rules, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	eng := engine.New(
		engine.WithLogger(logger),
		engine.WithMaxDocumentSize(cfg.Engine.MaxDocumentSize),
	)
	opts := []docservice.Option{docservice.WithRules(rules), docservice.WithLogger(logger)}
	if pub != nil {
		opts = append(opts, docservice.WithPublisher(pub))
	}
	return &stack{
		store: store,
		db:    db,
		svc:   docservice.NewService(store, db, eng, opts...),
		close: func() { _ = db.Close() },
	}, nil
}

// Run starts the HTTP server, the vault watcher and the SSE broker.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger, closeLog, err := newLogger(cfg, app.logOutput)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()),
		slog.Bool("require_actor_tags", cfg.Engine.RequireActorTags),
		slog.Bool("require_ui_surface_tags", cfg.Engine.RequireUISurfaceTags))

	broker := sse.NewBroker(cfg.Engine.ChecklistThrottle)
	defer broker.Close()

	st, err := openStack(cfg, logger, broker)
	if err != nil {
		return err
	}
	defer st.close()

	apiRouter := api.NewRouter(st.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if err := st.db.Ping(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"index unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// External edits are re-validated and pushed to SSE clients.
	g.Go(func() error {
		return index.Watch(gCtx, st.db, st.store, st.store.Root(), cfg.Engine.Rules(), logger, broker.PublishDocumentEvent)
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// ServeMCP exposes the vault over the MCP stdio transport.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(app.config, app.logOutput)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	st, err := openStack(app.config, logger, nil)
	if err != nil {
		return err
	}
	defer st.close()

	logger.Info("MCP server starting", slog.String("vault_path", app.config.Vault.Path))
	return mcpserver.New(st.svc).ServeStdio()
}

// ValidateFile validates one document from disk without touching the vault
// or the index.
func ValidateFile(path string, cfg *Config) (*validate.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	eng := engine.New(engine.WithMaxDocumentSize(cfg.Engine.MaxDocumentSize))
	if err := eng.CheckSize(string(data)); err != nil {
		return nil, err
	}
	return validate.Document(string(data), cfg.Engine.Rules()), nil
}
