package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"serchadmin/internal/api"
	"serchadmin/internal/audit"
	"serchadmin/internal/config"
	"serchadmin/internal/monitoring"
	"serchadmin/internal/notifications"
	"serchadmin/internal/openfga"
	"serchadmin/internal/repository"
	"serchadmin/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg := config.NewConfig()

	telemetry, err := monitoring.NewOpenTelemetry(cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shutdown telemetry: %v", err)
		}
	}()

	logger := telemetry.Logger()

	pool, err := pgxpool.New(ctx, cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Connected to database", "host", cfg.Database.Host, "database", cfg.Database.Name)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("Failed to close redis client", "error", err)
		}
	}()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	logger.Info("Connected to redis", "addr", cfg.Redis.Addr)

	repo := repository.NewPostgresRepository(pool)

	authz, err := openfga.NewAuthorizationService(cfg.OpenFGA, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize authorization service: %w", err)
	}

	notifier := notifications.NewManager(logger, repo)
	permissionService := service.NewPermissionService(
		logger,
		repo,
		authz,
		audit.NewAuditor(logger, repo),
		notifier,
		service.NewRateLimiter(redisClient),
		telemetry,
	)

	app := fiber.New(fiber.Config{
		AppName:      "serch-admin",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	handler := api.NewPermissionHandler(permissionService, notifier, telemetry)
	api.RegisterRoutes(app, handler, repo)

	errCh := make(chan error, 1)
	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logger.Info("Starting server", "addr", addr, "environment", cfg.Server.Environment)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
