package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codehive-dev/codehive/internal/config"
	"github.com/codehive-dev/codehive/internal/logging"
	"github.com/codehive-dev/codehive/internal/metrics"
	"github.com/codehive-dev/codehive/internal/persistence"
	"github.com/codehive-dev/codehive/internal/persistence/file"
	"github.com/codehive-dev/codehive/internal/persistence/postgres"
	"github.com/codehive-dev/codehive/internal/relay"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RunServe loads configuration, wires the relay server, and blocks
// until SIGINT/SIGTERM.
func RunServe() error {
	cfg, err := config.LoadRelayConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Env:       logging.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logging.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting relay", "env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var persister persistence.Persister
	switch cfg.Persistence.Backend {
	case "file":
		persister = file.New(cfg.Persistence.Path)
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Persistence.DSN)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		persister = postgres.New(pool)
	case "none":
		persister = nil
	}

	m := metrics.New()

	srv := relay.New(relay.Config{
		Addr:               cfg.HTTP.Addr,
		PublicHost:         cfg.Public.Host,
		PublicPort:         cfg.Public.Port,
		PersistInterval:    cfg.Persistence.Interval,
		AdminTokenHash:     cfg.Admin.TokenHash,
		HeartbeatInterval:  cfg.Timeouts.HeartbeatInterval,
		HeartbeatTimeout:   cfg.Timeouts.HeartbeatTimeout,
		RoomExpiryCheckInt: cfg.Timeouts.RoomExpiryCheckInt,
	}, persister, m)

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	go srv.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	cancel()
	ctxShutdown, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
	return nil
}
