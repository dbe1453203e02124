package app

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

	"github.com/aussiebroadwan/rollcall/internal/rollcall/credstore/bbolt"
	httpapi "github.com/aussiebroadwan/rollcall/internal/rollcall/http"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/mail"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/session"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store/drivers/sqlite"
	"github.com/aussiebroadwan/rollcall/pkg/cryptox"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the rollcall daemon with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db          *sqlite.Store
	credentials *bbolt.Store
	sessions    *session.Manager
	mailer      mail.Mailer

	// Services
	authService         *service.AuthService
	startupService      *service.StartupService
	profileService      *service.ProfileService
	codeResetService    *service.CodeResetService
	tokenResetService   *service.TokenResetService
	directoryService    *service.DirectoryService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "rollcalld",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initCredentials(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		app.closeStores()
		return nil, err
	}

	if err := app.seedDirectory(); err != nil {
		app.closeStores()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("rollcall daemon starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			app.closeStores()
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
	app.logger.Info("shutting down rollcall daemon...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("rollcall daemon stopped")
	return nil
}

func (app *Application) closeStores() error {
	var errs []error
	if app.credentials != nil {
		if err := app.credentials.Close(); err != nil {
			app.logger.Error("error closing credential store", "error", err)
			errs = append(errs, err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// initDatabase opens the directory database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "path", app.cfg.DatabaseFile)
	return nil
}

// initCredentials opens the credential store and the session manager. The
// session clock is the database clock so expiry ignores the device clock.
func (app *Application) initCredentials() error {
	creds, sessions, err := InitSessions(app.cfg, session.Config{
		MaxAge: app.cfg.SessionMaxAge,
		Clock:  app.db,
	}, app.logger)
	if err != nil {
		return err
	}
	app.credentials = creds
	app.sessions = sessions
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	mailer, err := InitMailer(app.cfg, app.logger)
	if err != nil {
		return err
	}
	app.mailer = mailer

	bootstrap, err := service.NewBootstrapAuthenticator(
		app.cfg.BootstrapEnabled,
		app.cfg.BootstrapUsername,
		app.cfg.BootstrapPassword,
	)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if bootstrap != nil {
		app.logger.Warn("bootstrap admin sign-in enabled", "username", app.cfg.BootstrapUsername)
	}

	app.authService = &service.AuthService{
		Store:     app.db,
		Sessions:  app.sessions,
		Bootstrap: bootstrap,
		Clock:     app.db,
		Timeout:   app.cfg.RequestTimeout,
	}
	app.startupService = &service.StartupService{
		Sessions: app.sessions,
		Timeout:  app.cfg.RequestTimeout,
	}
	app.profileService = &service.ProfileService{
		Store:    app.db,
		Sessions: app.sessions,
		Timeout:  app.cfg.RequestTimeout,
	}
	app.codeResetService = &service.CodeResetService{
		Store:   app.db,
		Clock:   app.db,
		Mailer:  app.mailer,
		TTL:     app.cfg.ResetTTL,
		Timeout: app.cfg.RequestTimeout,
	}
	app.tokenResetService = &service.TokenResetService{
		Store:   app.db,
		Clock:   app.db,
		Mailer:  app.mailer,
		TTL:     app.cfg.ResetTTL,
		Timeout: app.cfg.RequestTimeout,
	}
	app.directoryService = &service.DirectoryService{
		Store:   app.db,
		Timeout: app.cfg.RequestTimeout,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.sessions,
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// seedDirectory applies ROLLCALL_SEED_FILE when set. Existing records are
// left untouched so the file can stay configured across restarts.
func (app *Application) seedDirectory() error {
	if app.cfg.SeedFile == "" {
		return nil
	}

	users, err := LoadSeedFile(app.cfg.SeedFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := app.directoryService.Seed(slogx.WithContext(ctx, app.logger), users)
	if err != nil {
		return fmt.Errorf("failed to seed directory: %w", err)
	}
	app.logger.Info("directory seeded",
		"file", app.cfg.SeedFile,
		"created", res.Created,
		"skipped", res.Skipped,
	)
	// Outside dev nobody is watching stderr, accounts without a seeded
	// password are recovered through the reset flow instead.
	if app.cfg.Env == "dev" {
		for _, g := range res.Generated {
			fmt.Fprintf(os.Stderr, "generated password for %s %s: %s\n", g.Role, g.Login(), g.Password)
		}
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.credentials,
		app.logger,
	)

	router.AuthService = app.authService
	router.StartupService = app.startupService
	router.ProfileService = app.profileService
	router.CodeResetService = app.codeResetService
	router.TokenResetService = app.tokenResetService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
