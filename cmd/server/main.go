package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	grpcapi "rentoo/internal/api/grpc"
	httpapi "rentoo/internal/api/http"
	"rentoo/internal/config"
	"rentoo/internal/jobs"
	"rentoo/internal/logger"
	"rentoo/internal/metrics"
	"rentoo/internal/notify"
	"rentoo/internal/repository"
	"rentoo/internal/repository/memory"
	"rentoo/internal/repository/postgres"
	"rentoo/internal/scheduler"
	"rentoo/internal/security"
	"rentoo/internal/service"
	"rentoo/internal/storage"
)

var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Rentoo API server...", "version", version, "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "storage", cfg.Storage.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped. Goodbye!")
}

func run(ctx context.Context, cfg *config.Config) error {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServer(reg)

	// Security, storage and email
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())
	images, err := storage.NewLocalImageStore(storage.Config{
		Dir:          cfg.Storage.UploadDir,
		URLPrefix:    "/uploads",
		MaxBytes:     cfg.MaxUploadBytes(),
		AllowedTypes: cfg.Storage.AllowedTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize image storage: %w", err)
	}
	logger.Info("Using local image storage", "upload_dir", images.Dir())
	notifier := notify.New(cfg.Email.SendGridAPIKey, cfg.Email.From, cfg.Email.FromName)

	// Initialize Services
	services := service.New(store, tokenManager, images, notifier, serverMetrics)
	if created, err := services.Categories.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	} else if created > 0 {
		logger.Info("Default categories created", "count", created)
	}

	// Login rate limiting
	var limiter httpapi.Limiter
	if cfg.RateLimit.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis is unreachable, login requests pass until it recovers", "addr", cfg.RateLimit.RedisAddr, "error", err)
		}
		limiter = httpapi.NewRedisLimiter(rdb, cfg.RateLimit)
		logger.Info("Login rate limiting enabled", "capacity", cfg.RateLimit.Capacity, "refill_interval", cfg.RateLimit.RefillInterval)
	}

	router := httpapi.NewRouter(httpapi.Options{
		Services:     services,
		Metrics:      serverMetrics,
		Gatherer:     reg,
		LoginLimiter: limiter,
		UploadDir:    images.Dir(),
		UploadPrefix: images.URLPrefix(),
		Ping:         store.Ping,
		Version:      version,
	})
	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down HTTP server...")
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.Health.Port > 0 {
		healthServer := grpcapi.NewHealthServer(store.Ping, cfg.Health.PingInterval)
		lis, err := net.Listen("tcp", cfg.GetHealthAddress())
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.GetHealthAddress(), err)
		}
		g.Go(func() error { return healthServer.Serve(lis) })
		g.Go(func() error {
			healthServer.Run(gctx)
			healthServer.Stop()
			return nil
		})
	}

	if cfg.Scheduler.Embedded {
		cronScheduler, err := scheduler.NewScheduler(jobs.NewJobRunner(services.Rentals, cfg, serverMetrics))
		if err != nil {
			return err
		}
		cronScheduler.Start()
		g.Go(func() error {
			<-gctx.Done()
			cronScheduler.Stop()
			return nil
		})
	}

	return g.Wait()
}

// openStore returns the configured record store and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, func(), error) {
	if cfg.Storage.Backend != "postgres" {
		logger.Warn("Using in-memory store, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database connection established")

	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return postgres.NewStore(db), func() { db.Close() }, nil
}
