package main

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

	"golang.org/x/sync/errgroup"

	"staybook/internal/infra/config"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/obs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("staybook stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("staybook stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.close(logger)

	if cfg.FixturesPath != "" {
		if err := loadFixtures(ctx, app.factory, cfg.FixturesPath, cfg.Currency, logger); err != nil {
			return fmt.Errorf("load fixtures: %w", err)
		}
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Quiet: []string{"/livez", "/readyz"}}, obs.HealthHandlers{Ready: app.ready}, app.handlers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode, "payments", cfg.PaymentsMode, "kafka", cfg.KafkaEnabled())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	for _, w := range app.workers {
		w := w
		g.Go(func() error {
			err := w.run(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background worker failed", "worker", w.name, "err", err)
				return fmt.Errorf("%s: %w", w.name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
