package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/clinic-bookings/internal/mailer"
	"github.com/diagnosis/clinic-bookings/internal/notify"
	"github.com/diagnosis/clinic-bookings/pkg/config"
	"github.com/diagnosis/clinic-bookings/pkg/events"
	"github.com/diagnosis/clinic-bookings/pkg/logger"
	mw "github.com/diagnosis/clinic-bookings/pkg/middleware"
)

func main() {
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Error("Notify service error", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mail, err := mailer.New(cfg.Email)
	if err != nil {
		return err
	}

	bus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		return err
	}

	if err := notify.NewConsumer(bus, mail).Start(ctx); err != nil {
		_ = bus.Close()
		return err
	}

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("notify"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(mw.Metrics)

	srv := &http.Server{
		Addr:              ":" + cfg.Notify.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting notify service", "port", cfg.Notify.Port, "provider", cfg.Email.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down notify service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := bus.Drain(); err != nil {
			logger.Warn("NATS drain failed", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
