package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/logward/logward/internal/config"
	"github.com/logward/logward/internal/handlers"
	"github.com/logward/logward/internal/logging"
	"github.com/logward/logward/internal/middleware"
	"github.com/logward/logward/internal/repository"
	"github.com/logward/logward/internal/scheduler"
	"github.com/logward/logward/internal/server"
	"github.com/logward/logward/internal/service"
	"github.com/logward/logward/pkg/tokens"
)

var migrationsPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the log management server",
	Long: `Start the HTTP server: runs database migrations, opens the
connection pool and launches the ingest API, the query API and both
background sweeps. Shuts down gracefully on SIGINT/SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&migrationsPath, "migrations", "migrations", "path to SQL migrations")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	logging.SetDefault(logger)

	connString := cfg.Database.Postgres.ConnString()

	m, err := migrate.New("file://"+migrationsPath, connString)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := repository.NewPostgresRepository(ctx, connString, int32(cfg.Database.Postgres.MaxConns))
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer repo.Close()
	logger.Info("connected to postgres",
		"host", cfg.Database.Postgres.Host, "database", cfg.Database.Postgres.Database)

	tokenManager := tokens.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authMiddleware := middleware.NewAuthMiddleware(tokenManager)

	securitySvc := service.NewSecurityService(repo, logger,
		cfg.Security.Window, cfg.Security.Threshold, cfg.Security.DedupWindow)
	retentionSvc := service.NewRetentionService(repo, logger,
		time.Duration(cfg.Retention.LogDays)*24*time.Hour,
		time.Duration(cfg.Retention.AlertDays)*24*time.Hour)

	router := server.NewRouter(server.Handlers{
		Ingest:    handlers.NewIngestHandler(service.NewIngestService(repo, logger), logger),
		Auth:      handlers.NewAuthHandler(service.NewAuthService(repo, tokenManager, logger), logger),
		Logs:      handlers.NewLogsHandler(service.NewLogService(repo), logger),
		Alerts:    handlers.NewAlertsHandler(service.NewAlertService(repo), logger),
		Retention: handlers.NewRetentionHandler(retentionSvc, logger),
	}, authMiddleware, middleware.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	})

	sched := scheduler.New(logger,
		&scheduler.Task{
			Name:     "security",
			Interval: cfg.Security.CheckInterval,
			Run:      securitySvc.CheckFailedLogins,
		},
		&scheduler.Task{
			Name:     "retention",
			Interval: cfg.Retention.Interval,
			Run:      retentionSvc.RunCycle,
		},
	)
	sched.Start(ctx)

	srv := server.New(cfg.Server, router, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
