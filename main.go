// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/redeem-portal/cliparse"
	"github.com/danielhkuo/redeem-portal/db"
	"github.com/danielhkuo/redeem-portal/handlers"
	"github.com/danielhkuo/redeem-portal/memstore"
	"github.com/danielhkuo/redeem-portal/metrics"
	"github.com/danielhkuo/redeem-portal/redisstore"
	"github.com/danielhkuo/redeem-portal/retry"
	"github.com/danielhkuo/redeem-portal/router"
	"github.com/danielhkuo/redeem-portal/selector"
	"github.com/danielhkuo/redeem-portal/sqlstore"
	"github.com/danielhkuo/redeem-portal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg))

	if err := run(cfg); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg cliparse.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// openDurable returns nil for memory-only mode.
func openDurable(cfg cliparse.Config) (store.Backend, error) {
	switch cfg.StoreType {
	case cliparse.StoreRedis:
		return redisstore.Open(redisstore.Options{
			URL:     cfg.RedisURL,
			Prefix:  cfg.KeyPrefix,
			Timeout: cfg.OpTimeout,
		})
	case cliparse.StorePostgres:
		return sqlstore.Open(db.TypePostgres, cfg.DatabaseURL)
	case cliparse.StoreSQLite:
		return sqlstore.Open(db.TypeSQLite, cfg.DatabaseURL)
	case cliparse.StoreMemory:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported store type %q", cfg.StoreType)
	}
}

func run(cfg cliparse.Config) error {
	durable, err := openDurable(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if durable != nil {
		defer durable.Close()
	}

	fallback := memstore.New()
	defer fallback.Close()

	m := metrics.New()

	monitor := selector.NewMonitor(durable, selector.Config{
		Policy: retry.Policy{
			MaxAttempts: cfg.RetryAttempts + 1, // the first attempt is the handshake
			BaseDelay:   cfg.RetryDelay,
			MaxDelay:    max(cfg.RetryDelay, retry.DefaultPolicy().MaxDelay),
			Multiplier:  1,
		},
		Clock:          retry.RealClock(),
		HealthInterval: cfg.HealthInterval,
		PingTimeout:    cfg.OpTimeout,
		Logger:         slog.Default(),
	})
	m.SetState(monitor.State().String())
	monitor.OnStateChange(func(from, to selector.State) {
		m.StateChanged(from.String(), to.String())
	})

	sel := selector.New(durable, fallback, monitor, slog.Default())
	deps := handlers.NewDeps(sel, cfg, m)

	// Create server
	server := &http.Server{
		Handler:           router.NewRouter(deps, cfg),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return monitor.Start(gctx)
	})

	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port, "store", cfg.StoreType)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("Server closed")
	return nil
}
