// Package server initializes and runs the sync API server: database,
// migrations, services, HTTP endpoint and graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/syncapi/internal/logging"
	"github.com/dmitrijs2005/syncapi/internal/server/auth"
	"github.com/dmitrijs2005/syncapi/internal/server/config"
	"github.com/dmitrijs2005/syncapi/internal/server/httpapi"
	"github.com/dmitrijs2005/syncapi/internal/server/models"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/repomanager"
	syncsvc "github.com/dmitrijs2005/syncapi/internal/server/sync"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	fiber   *fiber.App
	handler *httpapi.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	manager := repomanager.NewPostgresRepositoryManager()
	if err := manager.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	if err := manager.Applications(db).Ensure(ctx, &models.Application{
		ApplicationID:   cfg.DefaultApplicationID,
		Name:            cfg.DefaultApplicationName,
		ApplicationSeed: cfg.DefaultApplicationSeed,
	}); err != nil {
		return nil, fmt.Errorf("application bootstrap error: %w", err)
	}

	resolver := auth.NewResolver(manager)
	account := auth.NewAccountService(manager)
	pairing := auth.NewPairingService(manager, cfg.PairingCodeLength, cfg.PairingCodeTTL)
	syncer := syncsvc.NewService(manager)

	handler := httpapi.NewHandler(db, resolver, account, pairing, syncer, logger)

	f := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.RegisterRoutes(f)

	return &App{config: cfg, logger: logger, db: db, fiber: f, handler: handler}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting server", "addr", app.config.ListenAddr)
		errCh <- app.fiber.Listen(app.config.ListenAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		app.logger.Info(ctx, "shutting down")
		if err := app.fiber.ShutdownWithContext(context.Background()); err != nil {
			app.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
		return app.db.Close()
	}
}
