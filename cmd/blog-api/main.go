package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/upb/blog-api/app"
	"github.com/upb/blog-api/config"
	"github.com/upb/blog-api/internal/observability"
	"github.com/upb/blog-api/repositories/postgres"
	"github.com/upb/blog-api/routes"
	"go.uber.org/zap"
)

type options struct {
	envFiles    []string
	store       string
	migrateOnly bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("blog-api", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "dotenv files to load; the environment wins over file values")
	flagSet.StringVar(&opts.store, "store", "", "storage backend, postgres or memory (overrides STORE_BACKEND)")
	flagSet.BoolVar(&opts.migrateOnly, "migrate-only", false, "apply database migrations and exit")

	if err := flagSet.Parse(args); err != nil {
		return opts, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return opts, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return opts, nil
}

// loadConfig loads env configuration with flag overrides applied. --store is
// exported as STORE_BACKEND so validation sees the chosen backend.
func loadConfig(ctx context.Context, opts options) (*config.Config, error) {
	if opts.store != "" {
		if err := os.Setenv("STORE_BACKEND", opts.store); err != nil {
			return nil, err
		}
	}
	cfg, err := config.New(ctx, opts.envFiles...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.migrateOnly && cfg.Store != config.StorePostgres {
		return nil, fmt.Errorf("--migrate-only requires the %s store", config.StorePostgres)
	}
	return cfg, nil
}

func run(args []string) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, opts)
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(observability.LoggerConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if opts.migrateOnly {
		return migrate(ctx, cfg, logger)
	}

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           routes.SetupRoutes(deps),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting blog-api",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.Environment),
			zap.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
			_ = deps.Close(context.Background())
			return fmt.Errorf("listen: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if err := deps.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	logger.Info("stopped")
	return errors.Join(errs...)
}

func migrate(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := postgres.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}
