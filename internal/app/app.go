package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/fernhill/userd/internal/http"
	"github.com/fernhill/userd/internal/service"
	"github.com/fernhill/userd/internal/store"
	"github.com/fernhill/userd/internal/store/drivers/memory"
	"github.com/fernhill/userd/internal/store/drivers/sqlite"
	"github.com/fernhill/userd/pkg/cryptox"
	"github.com/fernhill/userd/pkg/jwtx"
	"github.com/fernhill/userd/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	codec  *cryptox.SecretBox
	tokens *jwtx.TokenService

	authService *service.AuthService
	userService *service.UserService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "userd",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initSecrets(); err != nil {
		return nil, err
	}
	if err := app.initStore(); err != nil {
		return nil, err
	}
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("userd starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down userd...")

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

	app.logger.Info("userd stopped")
	return nil
}

// initSecrets resolves the three secrets the service needs. Production fails
// hard when any is missing; dev generates ephemeral ones so a bare
// `go run ./cmd/userd` works, at the cost of sessions not surviving restarts.
func (app *Application) initSecrets() error {
	missing := app.cfg.MasterSecret == "" || app.cfg.JWTSecret == "" || app.cfg.RefreshSecret == ""
	if missing && app.cfg.Env == "prod" {
		return fmt.Errorf("USERD_MASTER_SECRET, USERD_JWT_SECRET and USERD_JWT_REFRESH_SECRET are required in prod")
	}

	if app.cfg.MasterSecret == "" {
		app.cfg.MasterSecret = cryptox.MustGenerateToken(cryptox.TokenSize256)
		app.logger.Warn("USERD_MASTER_SECRET not set, generated ephemeral secret; stored 2FA seeds will not survive a restart")
	}
	if app.cfg.JWTSecret == "" {
		app.cfg.JWTSecret = cryptox.MustGenerateToken(cryptox.TokenSize256)
		app.logger.Warn("USERD_JWT_SECRET not set, generated ephemeral secret; access tokens will not survive a restart")
	}
	if app.cfg.RefreshSecret == "" {
		app.cfg.RefreshSecret = cryptox.MustGenerateToken(cryptox.TokenSize256)
		app.logger.Warn("USERD_JWT_REFRESH_SECRET not set, generated ephemeral secret; refresh tokens will not survive a restart")
	}

	codec, err := cryptox.NewSecretBox(app.cfg.MasterSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize secret codec: %w", err)
	}
	app.codec = codec
	return nil
}

// initStore opens sqlite, or the fixed-account memory store when persistence
// is disabled.
func (app *Application) initStore() error {
	if !app.cfg.DatabaseEnabled {
		db, err := memory.NewStore()
		if err != nil {
			return fmt.Errorf("failed to initialize demo store: %w", err)
		}
		app.db = db
		app.logger.Warn("database disabled, running in demo mode with a single fixed account")
		return nil
	}

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

func (app *Application) initServices() {
	app.tokens = &jwtx.TokenService{
		AccessSecret:  []byte(app.cfg.JWTSecret),
		RefreshSecret: []byte(app.cfg.RefreshSecret),
		AccessTTL:     app.cfg.AccessTTL,
		RefreshTTL:    app.cfg.RefreshTTL,
		Issuer:        app.cfg.Issuer,
	}

	app.authService = &service.AuthService{
		Store:  app.db,
		Tokens: app.tokens,
		Codec:  app.codec,
		Issuer: app.cfg.Issuer,
	}
	app.userService = &service.UserService{Store: app.db}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.tokens, BuildVersion, app.db, app.logger)
	router.AuthService = app.authService
	router.UserService = app.userService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
