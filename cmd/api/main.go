package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/clinic-bookings/db"
	"github.com/diagnosis/clinic-bookings/internal/http/handlers"
	"github.com/diagnosis/clinic-bookings/internal/ratelimit"
	"github.com/diagnosis/clinic-bookings/internal/repository"
	"github.com/diagnosis/clinic-bookings/internal/repository/memory"
	mongostore "github.com/diagnosis/clinic-bookings/internal/repository/mongo"
	"github.com/diagnosis/clinic-bookings/internal/repository/postgres"
	"github.com/diagnosis/clinic-bookings/internal/service"
	"github.com/diagnosis/clinic-bookings/pkg/auth"
	"github.com/diagnosis/clinic-bookings/pkg/config"
	"github.com/diagnosis/clinic-bookings/pkg/database"
	"github.com/diagnosis/clinic-bookings/pkg/events"
	"github.com/diagnosis/clinic-bookings/pkg/logger"
)

func main() {
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Error("Clinic API error", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	secret, ok := cfg.JWTSecretOrDev()
	if !ok {
		return errors.New("JWT_SECRET is required when dev mode is off")
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, using the development secret")
	}
	cfg.Auth.JWTSecret = secret

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}()

	// Connect to event bus
	var eventBus events.Publisher = events.NoopBus{}
	if cfg.NATS.Enabled {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			return err
		}
		eventBus = bus
		logger.Info("Connected to NATS", "url", cfg.NATS.URL)
	}
	defer eventBus.Close()

	hasher, err := auth.NewHasher(cfg.Auth.HashAlgorithm, cfg.Auth.Argon2Memory, cfg.Auth.Argon2Time, cfg.Auth.Argon2Threads, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	// Initialize services
	authService := service.NewAuthService(store.Users, hasher, eventBus, cfg)
	userService := service.NewUserService(store.Users, hasher)
	appointmentService := service.NewAppointmentService(store.Appointments, eventBus)

	if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	limiter, err := newLimiter(ctx, g, cfg)
	if err != nil {
		return err
	}

	h := handlers.New(authService, userService, appointmentService, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      h.Routes(limiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		logger.Info("Starting clinic API", "port", cfg.Server.Port, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down clinic API...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore connects the configured backend and prepares its schema.
func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	switch cfg.Store.Driver {
	case "mongo", "mongodb":
		client, mdb, err := database.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, mdb); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		logger.Info("Connected to MongoDB", "database", cfg.Mongo.Database)
		return mongostore.NewStore(client, mdb), nil

	case "postgres":
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("Connected to Postgres")
		return postgres.NewStore(pool), nil

	case "memory":
		logger.Warn("Using the in-memory store, data is lost on restart")
		return memory.NewStore(), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// newLimiter prefers a shared redis counter and falls back to per-process buckets.
func newLimiter(ctx context.Context, g *errgroup.Group, cfg *config.Config) (ratelimit.Limiter, error) {
	if cfg.Redis.URL != "" {
		client, err := ratelimit.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			<-ctx.Done()
			return client.Close()
		})
		logger.Info("Rate limiting with Redis")
		return ratelimit.NewRedisLimiter(client, cfg.RateLimit.Requests, cfg.RateLimit.Window), nil
	}

	local := ratelimit.NewLocalLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	g.Go(func() error {
		local.Run(ctx)
		return nil
	})
	return local, nil
}
