package app

import (
	"context"
	"fmt"

	"github.com/upb/coffee-shop/auth"
	"github.com/upb/coffee-shop/config"
	"github.com/upb/coffee-shop/handlers"
	"github.com/upb/coffee-shop/middleware"
	"github.com/upb/coffee-shop/repositories"
	"github.com/upb/coffee-shop/repositories/postgres"
	"github.com/upb/coffee-shop/services/drink"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Drinks    repositories.DrinkRepository
	TxManager repositories.TransactionManager

	// Services
	DrinkService *drink.DrinkService

	// Auth
	KeySet    *auth.KeySet
	Validator *auth.Validator
	Guard     *middleware.Guard

	// Handlers
	DrinkHandler  *handlers.DrinkHandler
	HealthHandler *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesWithDB(ctx, cfg, logger, factory.GetDB())
	if err != nil {
		_ = factory.Close()
		return nil, err
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))
	return deps, nil
}

// NewDependenciesWithDB wires the application around an open database handle
func NewDependenciesWithDB(ctx context.Context, cfg *config.Config, logger *zap.Logger, db *postgres.DB) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Bootstrap the schema
	if err := deps.initDatabase(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize repositories and services
	deps.initRepositories()
	if err := deps.initServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize auth
	deps.initAuth(cfg)

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase prepares the drinks schema according to the bootstrap flags
func (d *Dependencies) initDatabase(ctx context.Context, db *postgres.DB) error {
	factory := postgres.NewRepositoryFactoryWithDB(db, d.Logger)

	if err := factory.Bootstrap(ctx, d.Config.Database.AutoMigrate, d.Config.Database.ResetOnStart); err != nil {
		return fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	d.RepoFactory = factory
	d.DB = db
	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Drinks = repos.Drinks
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initServices(ctx context.Context) error {
	d.DrinkService = drink.NewDrinkService(d.Drinks, d.TxManager, d.Logger)

	if !d.Config.Database.AutoMigrate {
		return nil
	}

	if _, err := d.DrinkService.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("failed to seed drinks: %w", err)
	}
	return nil
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	jwksURL := cfg.Auth.JWKSEndpoint()
	if jwksURL == "" {
		d.Logger.Warn("auth not configured, protected endpoints will reject every token")
		d.Guard = middleware.NewGuard(rejectAllValidator{}, d.Logger)
		return
	}

	d.KeySet = auth.NewKeySet(auth.KeySetConfig{
		URL:                jwksURL,
		CacheTTL:           cfg.Auth.JWKSCacheTTL,
		MinRefreshInterval: cfg.Auth.MinRefreshInterval,
		HTTPTimeout:        cfg.Auth.HTTPTimeout,
	})
	d.Validator = auth.NewValidator(auth.Config{
		Issuer:   cfg.Auth.IssuerURL(),
		Audience: cfg.Auth.Audience,
		Leeway:   cfg.Auth.Leeway,
	}, d.KeySet)
	d.Guard = middleware.NewGuard(d.Validator, d.Logger)

	d.Logger.Info("token validation initialized",
		zap.String("issuer", cfg.Auth.IssuerURL()),
		zap.String("audience", cfg.Auth.Audience),
		zap.String("jwks_url", jwksURL))
}

func (d *Dependencies) initHandlers() {
	d.DrinkHandler = handlers.NewDrinkHandler(d.DrinkService, d.Logger)

	var keys handlers.KeyStatsProvider
	if d.KeySet != nil {
		keys = d.KeySet
	}
	d.HealthHandler = handlers.NewHealthHandler(d.DB, keys, d.Logger)
}

// rejectAllValidator rejects all tokens (used when no issuer is configured).
// Header problems are still reported precisely.
type rejectAllValidator struct{}

func (rejectAllValidator) ValidateHeader(_ context.Context, header string) (*auth.Claims, error) {
	if _, err := auth.ExtractBearerToken(header); err != nil {
		return nil, err
	}
	return nil, auth.ErrKeyNotFound
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
