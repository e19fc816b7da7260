package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tonearmhq/tonearm/internal/bridge/domain"
	httpapi "github.com/tonearmhq/tonearm/internal/bridge/http"
	"github.com/tonearmhq/tonearm/internal/bridge/service"
	"github.com/tonearmhq/tonearm/internal/bridge/smapi"
	"github.com/tonearmhq/tonearm/internal/bridge/store"
	"github.com/tonearmhq/tonearm/internal/bridge/store/drivers/sqlite"
	"github.com/tonearmhq/tonearm/pkg/cryptox"
	"github.com/tonearmhq/tonearm/pkg/idx"
	"github.com/tonearmhq/tonearm/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the bridge with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	db *sqlite.Store

	tokenService     *service.TokenService
	authorizeService *service.AuthorizeService
	catalogService   *service.CatalogService
	dispatcher       *smapi.Dispatcher

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "tonearm",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.seedUser(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("bridge starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down bridge...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("bridge stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// seedUser creates the configured login user if it does not exist yet.
// A bridge with no users cannot complete the link flow, so small installs
// bootstrap themselves from the environment.
func (app *Application) seedUser() error {
	if app.cfg.SeedUsername == "" || app.cfg.SeedPassword == "" {
		return nil
	}

	ctx := context.Background()
	_, err := app.db.GetUserByUsername(ctx, app.cfg.SeedUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("seed user lookup failed: %w", err)
	}

	hash, err := cryptox.HashPassword(app.cfg.SeedPassword)
	if err != nil {
		return fmt.Errorf("seed user password hash failed: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     app.cfg.SeedUsername,
		PasswordHash: hash,
	}
	if err := app.db.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("seed user creation failed: %w", err)
	}

	app.logger.Info("seed user created", "username", user.Username)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	base := strings.TrimRight(app.cfg.PublicURL, "/")

	app.tokenService = service.NewTokenService(app.cfg.TokenSecret)
	app.authorizeService = &service.AuthorizeService{
		Users:    app.db,
		Tokens:   app.tokenService,
		ClientID: app.cfg.ClientID,
	}
	app.catalogService = &service.CatalogService{
		Store:         app.db,
		Tokens:        app.tokenService,
		StreamBaseURL: base,
	}
	app.dispatcher = &smapi.Dispatcher{
		Catalog:      app.catalogService,
		AuthorizeURL: base + "/oauth/authorize",
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.db.Ping, app.logger)

	router.TokenService = app.tokenService
	router.AuthorizeService = app.authorizeService
	router.Dispatcher = app.dispatcher
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
