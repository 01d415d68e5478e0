package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/blog-api/config"
	"github.com/upb/blog-api/internal/auth"
	"github.com/upb/blog-api/internal/observability"
	"github.com/upb/blog-api/internal/tasks"
	"github.com/upb/blog-api/middleware"
	"github.com/upb/blog-api/repositories"
	"github.com/upb/blog-api/repositories/memory"
	"github.com/upb/blog-api/repositories/postgres"
	"github.com/upb/blog-api/services"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	DB     *postgres.DB // nil with the memory store

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repos     *repositories.Repositories
	TxManager repositories.TransactionManager

	// Auth
	Resolver       *auth.Resolver
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter

	// Services
	AuthService  *services.AuthService
	UserService  *services.UserService
	PostService  *services.PostService
	AdminService *services.AdminService

	// Background work and metrics
	Dispatcher *tasks.Dispatcher
	Metrics    *observability.Metrics // nil when metrics are disabled
}

// NewDependencies creates and wires up all application dependencies and
// starts the background dispatcher.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Observability.MetricsEnabled {
		deps.Metrics = observability.NewMetrics()
	}

	if err := deps.initStore(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initAuth(cfg); err != nil {
		deps.closeStore()
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	if err := deps.initTasks(ctx, cfg); err != nil {
		deps.closeStore()
		return nil, fmt.Errorf("failed to start background tasks: %w", err)
	}

	deps.initServices()

	logger.Info("all dependencies initialized successfully",
		zap.String("store", cfg.Store),
		zap.Bool("metrics", deps.Metrics != nil))
	return deps, nil
}

// initStore opens the configured storage backend
func (d *Dependencies) initStore(ctx context.Context, cfg *config.Config) error {
	if cfg.Store == config.StoreMemory {
		store := memory.NewStore()
		d.Repos = store.Repositories()
		d.TxManager = store.TransactionManager()
		d.Logger.Warn("using in-memory store, data is lost on exit")
		return nil
	}

	factory, err := postgres.NewRepositoryFactory(ctx, cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()
	d.Repos = factory.NewRepositories()
	d.TxManager = factory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
	return nil
}

func (d *Dependencies) initAuth(cfg *config.Config) error {
	codec, err := auth.NewTokenCodec([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	d.Resolver = auth.NewResolver(codec, hasher, d.Repos.Users)

	var failures middleware.FailureRecorder
	if d.Metrics != nil {
		failures = d.Metrics
	}
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Resolver, d.Logger, failures)
	d.RateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst, d.Logger)

	d.Logger.Info("auth initialized",
		zap.Duration("token_ttl", codec.TTL()),
		zap.Int("bcrypt_cost", hasher.Cost()))
	return nil
}

func (d *Dependencies) initTasks(ctx context.Context, cfg *config.Config) error {
	opts := []tasks.Option{}
	if d.Metrics != nil {
		opts = append(opts, tasks.WithDropHook(d.Metrics.TaskDropped))
	}

	d.Dispatcher = tasks.NewDispatcher(d.Logger, tasks.Config{
		Workers:   cfg.Tasks.Workers,
		QueueSize: cfg.Tasks.QueueSize,
	}, opts...)
	tasks.RegisterDefaults(d.Dispatcher,
		tasks.LogIndexer{Logger: d.Logger},
		tasks.LogNotifier{Logger: d.Logger})

	return d.Dispatcher.Start(ctx)
}

func (d *Dependencies) initServices() {
	d.AuthService = services.NewAuthService(d.Repos.Users, d.TxManager, d.Resolver, d.Logger)
	d.UserService = services.NewUserService(d.Repos.Users, d.TxManager, d.Logger)
	d.PostService = services.NewPostService(d.Repos, d.TxManager, d.Dispatcher, d.Logger)
	d.AdminService = services.NewAdminService(d.Repos, d.TxManager, d.Logger)
}

func (d *Dependencies) closeStore() {
	if d.RepoFactory != nil {
		_ = d.RepoFactory.Close()
	}
}

// Close drains background tasks, then closes the database
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Dispatcher != nil {
		if err := d.Dispatcher.Shutdown(ctx); err != nil && !errors.Is(err, tasks.ErrNotStarted) {
			errs = append(errs, fmt.Errorf("failed to drain background tasks: %w", err))
		}
	}

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

	return errors.Join(errs...)
}
