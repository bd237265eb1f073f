// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/chordsheet/internal/api"
	"github.com/starford/chordsheet/internal/cloudsync"
	"github.com/starford/chordsheet/internal/index"
	"github.com/starford/chordsheet/internal/mcpserver"
	"github.com/starford/chordsheet/internal/songservice"
	"github.com/starford/chordsheet/internal/sse"
	"github.com/starford/chordsheet/internal/storage"
)

// library bundles the long-lived components every command needs.
type library struct {
	logger *slog.Logger
	store  *storage.FS
	db     *index.DB
	svc    *songservice.Service
	syncer *cloudsync.Syncer
}

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

// openLibrary initialises logging, storage, the index and the song service,
// and brings the index up to date with the library directory.
func (a *application) openLibrary(onChange songservice.ChangeFunc) (*library, error) {
	cfg := a.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("library_path", cfg.Library.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("pcloud_enabled", cfg.PCloud.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure library directory exists.
	if err := os.MkdirAll(cfg.Library.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Library.Path, cfg.Library.Extension)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svcOpts := []songservice.Option{
		songservice.WithDefaultNotation(cfg.Render.Notation()),
		songservice.WithDefaultStyle(cfg.Render.Style),
	}
	if onChange != nil {
		svcOpts = append(svcOpts, songservice.WithChangeHook(onChange))
	}
	svc := songservice.NewService(store, db, svcOpts...)

	lib := &library{logger: logger, store: store, db: db, svc: svc}
	if cfg.PCloud.Enabled {
		provider := cloudsync.NewPCloud(cloudsync.PCloudConfig{
			Username: cfg.PCloud.Username,
			Password: cfg.PCloud.Password,
			Folder:   cfg.PCloud.Folder,
			APIHost:  cfg.PCloud.APIHost,
		})
		lib.syncer = cloudsync.NewSyncer(provider, svc, db, store.Extension(), cfg.PCloud.Concurrency, logger)
	}
	return lib, nil
}

func (l *library) Close() {
	if err := l.db.Close(); err != nil {
		l.logger.Error("close index", slog.String("error", err.Error()))
	}
}

// Run starts the HTTP server, the library watcher and the SSE broker.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	lib, err := app.openLibrary(broker.PublishSongEvent)
	if err != nil {
		return err
	}
	defer lib.Close()
	logger := lib.logger

	apiRouter := api.NewRouter(lib.svc, lib.syncer, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
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
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start library watcher; edits made outside the API reach SSE clients too.
	g.Go(func() error {
		if err := index.Watch(gCtx, lib.db, lib.store, lib.store.Root(), logger, broker.PublishSongEvent); err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

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

// errShutdown cancels the run group so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	lib, err := app.openLibrary(nil)
	if err != nil {
		return err
	}
	defer lib.Close()

	lib.logger.Info("MCP server starting on stdio")
	return mcpserver.New(lib.svc).ServeStdio()
}

// RunSync pulls changed songs from the configured cloud folder once.
func RunSync(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	lib, err := app.openLibrary(nil)
	if err != nil {
		return err
	}
	defer lib.Close()

	if lib.syncer == nil {
		return fmt.Errorf("cloud sync is disabled: set pcloud.enabled in the config")
	}
	res, err := lib.syncer.Pull(ctx, func(current, total int) {
		lib.logger.Info("sync progress", slog.Int("current", current), slog.Int("total", total))
	})
	lib.logger.Info("sync finished",
		slog.Int("downloaded", res.Downloaded),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed))
	return err
}
