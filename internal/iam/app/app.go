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

	httpapi "github.com/laptruong-hub/iam-service/internal/iam/http"
	"github.com/laptruong-hub/iam-service/internal/iam/mail"
	"github.com/laptruong-hub/iam-service/internal/iam/obs"
	"github.com/laptruong-hub/iam-service/internal/iam/service"
	"github.com/laptruong-hub/iam-service/internal/iam/store"
	"github.com/laptruong-hub/iam-service/internal/iam/store/drivers/sqlite"
	"github.com/laptruong-hub/iam-service/pkg/cryptox"
	"github.com/laptruong-hub/iam-service/pkg/jwtx"
	"github.com/laptruong-hub/iam-service/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the identity service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	keyManager *jwtx.KeyManager
	notifier   *service.Notifier

	// Services
	authService         *service.AuthService
	sessionService      *service.SessionService
	passwordService     *service.PasswordService
	adminUserService    *service.AdminUserService
	roleService         *service.RoleService
	permissionService   *service.PermissionService
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
			Service: "iam-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	obs.Init()

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keyManager, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Issuer:  app.cfg.Issuer,
		NumKeys: app.cfg.NumKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager

	app.initServices()

	if err := app.seed(); err != nil {
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.notifier.Start()
	app.housekeepingService.Start()

	app.logger.Info("iam service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down iam service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop background workers. The notifier drains queued emails first.
	app.housekeepingService.Stop()
	app.notifier.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("iam service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
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

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.notifier = &service.Notifier{
		Mailer: app.newMailer(),
		Logger: app.logger,
	}

	app.sessionService = &service.SessionService{
		Store:      app.db,
		RefreshTTL: app.cfg.RefreshTokenTTL,
	}

	app.authService = &service.AuthService{
		KeyManager: app.keyManager,
		Store:      app.db,
		Sessions:   app.sessionService,
		Notifier:   app.notifier,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTokenTTL,
	}

	app.passwordService = &service.PasswordService{
		Store:    app.db,
		Notifier: app.notifier,
		ResetTTL: app.cfg.ResetCodeTTL,
	}

	app.adminUserService = &service.AdminUserService{
		Store:    app.db,
		Sessions: app.sessionService,
		Notifier: app.notifier,
	}

	app.roleService = &service.RoleService{Store: app.db}
	app.permissionService = &service.PermissionService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// newMailer builds the outbound mailer. Without an SMTP host configured,
// emails are written to the log, which keeps dev setups working.
func (app *Application) newMailer() mail.Mailer {
	if app.cfg.SMTPHost == "" {
		app.logger.Warn("SMTP_HOST not set, emails will be logged instead of sent")
		return mail.NewLogMailer()
	}
	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.SMTPFrom,
	})
}

// seed populates the role/permission catalog and the built-in admin account
// on an empty database. A configured admin password is preferred; otherwise
// a one-time random password is generated and logged once.
func (app *Application) seed() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	empty, err := app.db.Roles().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect role catalog: %w", err)
	}
	if !empty {
		return nil
	}

	password := app.cfg.AdminPassword
	generated := false
	if password == "" {
		password, err = cryptox.GenerateToken(16)
		if err != nil {
			return fmt.Errorf("failed to generate admin password: %w", err)
		}
		generated = true
	}

	if err := service.Seed(ctx, app.db, password); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	if generated {
		app.logger.Warn("seeded admin account with generated password",
			"email", service.SeedAdminEmail, "password", password)
	} else {
		app.logger.Info("seeded admin account", "email", service.SeedAdminEmail)
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.keyManager.Verifier,
		app.cfg.Issuer,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.AuthService = app.authService
	router.PasswordService = app.passwordService
	router.AdminUserService = app.adminUserService
	router.RoleService = app.roleService
	router.PermissionService = app.permissionService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
