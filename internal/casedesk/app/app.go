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

	httpapi "github.com/aussiebroadwan/casedesk/internal/casedesk/http"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/service"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/store"
	"github.com/aussiebroadwan/casedesk/internal/casedesk/store/drivers/sqlite"
	"github.com/aussiebroadwan/casedesk/pkg/cryptox"
	"github.com/aussiebroadwan/casedesk/pkg/jwtx"
	"github.com/aussiebroadwan/casedesk/pkg/metricsx"
	"github.com/aussiebroadwan/casedesk/pkg/slogx"
	"golang.org/x/sync/errgroup"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application owns the casedesk process: its store, services and HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db        store.Store
	issuer    *jwtx.Issuer
	validator *jwtx.Validator
	hasher    *cryptox.PasswordHasher
	metrics   *metricsx.Metrics

	tokenService     *service.TokenService
	userService      *service.UserService
	rolesService     *service.RolesService
	caseService      *service.CaseService
	auditService     *service.AuditService
	dashboardService *service.DashboardService

	server *http.Server
	router *httpapi.Router
}

// New wires every dependency. Any failure here is fatal to startup: the
// database must migrate, the role set must be seeded and the token keys
// must be usable before the server accepts a request.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "casedesk",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metricsx.New("casedesk", BuildVersion),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initSecurity(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()

	ctx := slogx.WithContext(context.Background(), app.logger)
	if err := app.seed(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()
	return app, nil
}

// Handler is the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run serves until SIGINT/SIGTERM or a server failure, then shuts down.
func (app *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.logger.Info("casedesk starting", "port", app.cfg.Port, "version", BuildVersion)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutdown requested", "cause", context.Cause(gctx))
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Shutdown drains in-flight requests within the grace period and closes the
// database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down casedesk...")

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

	app.logger.Info("casedesk stopped")
	return nil
}

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied", "file", app.cfg.DatabaseFile)
	return nil
}

func (app *Application) initSecurity() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher, err = cryptox.NewPasswordHasher(pepper, cryptox.DefaultArgon2Params)
	if err != nil {
		return err
	}

	secret := []byte(app.cfg.JWTSecret)
	app.issuer, err = jwtx.NewIssuer(jwtx.IssuerOptions{
		Secret:   secret,
		Issuer:   app.cfg.JWTIssuer,
		Audience: app.cfg.JWTAudience,
		TTL:      app.cfg.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	app.validator, err = jwtx.NewValidator(jwtx.ValidatorOptions{
		Secret:              secret,
		Issuer:              app.cfg.JWTIssuer,
		Audience:            app.cfg.JWTAudience,
		RelaxIssuerAudience: app.cfg.RelaxIssuerAudience,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if app.cfg.RelaxIssuerAudience {
		app.logger.Warn("issuer/audience validation is relaxed")
	}
	return nil
}

func (app *Application) initServices() {
	recorder := &service.AuditRecorder{Metrics: app.metrics}

	app.rolesService = &service.RolesService{Store: app.db}
	app.userService = &service.UserService{
		Store:   app.db,
		Hasher:  app.hasher,
		Audit:   recorder,
		Metrics: app.metrics,
	}
	app.tokenService = &service.TokenService{
		Users:  app.userService,
		Issuer: app.issuer,
	}
	app.caseService = &service.CaseService{Store: app.db, Audit: recorder, Metrics: app.metrics}
	app.auditService = &service.AuditService{Store: app.db, Audit: recorder, Metrics: app.metrics}
	app.dashboardService = &service.DashboardService{Store: app.db, Metrics: app.metrics}
}

// seed makes sure the role set exists, plus the bootstrap admin if configured.
func (app *Application) seed(ctx context.Context) error {
	if err := app.rolesService.EnsureRoles(ctx); err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}

	if app.cfg.BootstrapAdminUsername == "" {
		return nil
	}
	_, err := app.userService.BootstrapAdmin(ctx, service.RegisterInput{
		Username: app.cfg.BootstrapAdminUsername,
		Password: app.cfg.BootstrapAdminPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.validator,
		BuildVersion,
		app.db,
		app.metrics,
		app.logger,
		!app.IsProduction(),
	)

	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.CaseService = app.caseService
	router.AuditService = app.auditService
	router.DashboardService = app.dashboardService
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func (app *Application) IsProduction() bool { return app.cfg.IsProduction() }
