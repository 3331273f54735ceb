// Package server initializes and runs the journal API server: it opens the
// database, runs migrations, wires the services and handles graceful
// shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/epicrunze/journal/internal/logging"
	"github.com/epicrunze/journal/internal/server/config"
	"github.com/epicrunze/journal/internal/server/httpapi"
	"github.com/epicrunze/journal/internal/server/llm"
	"github.com/epicrunze/journal/internal/server/repositories/repomanager"
	"github.com/epicrunze/journal/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	api    *httpapi.API
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	var provider llm.Provider
	if cfg.OllamaURL != "" {
		provider = llm.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel)
	} else {
		provider = &llm.MockProvider{Response: "LLM backend is not configured."}
	}

	api := &httpapi.API{
		DB:          db,
		Users:       services.NewUserService(db, rm, cfg),
		Entries:     services.NewEntryService(db, rm),
		Goals:       services.NewGoalService(db, rm),
		Chat:        services.NewChatService(db, rm, provider, logger),
		Attachments: services.NewAttachmentService(db, rm, cfg),
		Sync:        services.NewSyncService(db, rm, logger),
		Logger:      logger,
	}

	return &App{config: cfg, logger: logger, db: db, api: api}, nil
}

// Run serves the API until the context is cancelled or a termination signal
// arrives, then shuts down draining in-flight requests.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.initSignalHandler(cancel)

	server := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: httpapi.NewRouter(app.api),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting server", "addr", app.config.EndpointAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return app.db.Close()
}

func (app *App) initSignalHandler(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancel()
	}()
}
