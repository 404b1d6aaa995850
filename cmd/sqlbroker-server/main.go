// Package main provides the sqlbroker server executable: an HTTP API in front of
// a broker sharing a SQL table with every other instance.
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

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/coregx/sqlbroker"
	"github.com/coregx/sqlbroker/adapters/relica"
	"github.com/coregx/sqlbroker/cmd/sqlbroker-server/internal/api"
	"github.com/coregx/sqlbroker/cmd/sqlbroker-server/internal/config"
	"github.com/coregx/sqlbroker/retry"
)

func main() {
	slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger := sqlbroker.NewSlogLogger(slogger)

	if err := run(logger); err != nil {
		logger.Errorf("Server failed: %v", err)
		os.Exit(1)
	}
}

func run(logger sqlbroker.Logger) error {
	logger.Infof("Starting sqlbroker server v%s...", api.Version)

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Infof("Configuration loaded: server=%s:%d, database=%s (%s:%d), prefix=%q, interval=%s",
		cfg.Server.Host, cfg.Server.Port, cfg.Database.Driver, cfg.Database.Host, cfg.Database.Port,
		cfg.Database.Prefix, cfg.Broker.PollInterval)

	repos, err := relica.NewFactoryForDriver(cfg.Database.DriverName())
	if err != nil {
		return err
	}

	source, err := sqlbroker.OpenDB(cfg.Database.DriverName(), cfg.Database.GetDSN())
	if err != nil {
		return err
	}

	var notificationService sqlbroker.NotificationService
	if cfg.Broker.EnableNotifications {
		notificationService = sqlbroker.NewLoggingNotificationService(logger)
	} else {
		notificationService = &sqlbroker.NoOpNotificationService{}
	}

	var codec sqlbroker.Codec = sqlbroker.Base64Codec{}
	if cfg.Broker.Codec == "text" {
		codec = sqlbroker.TextCodec{}
	}

	broker, err := sqlbroker.NewBroker(
		sqlbroker.WithSource(source),
		sqlbroker.WithRepositories(repos),
		sqlbroker.WithLogger(logger),
		sqlbroker.WithTablePrefix(cfg.Database.Prefix),
		sqlbroker.WithPollInterval(cfg.Broker.PollInterval),
		sqlbroker.WithBatchSize(cfg.Broker.BatchSize),
		sqlbroker.WithCodec(codec),
		sqlbroker.WithSubscriptions(sqlbroker.NewChannelSet(cfg.Broker.Channels...)),
		sqlbroker.WithHandler(logMessage(logger)),
		sqlbroker.WithNotifications(notificationService),
	)
	if err != nil {
		_ = source.Close()
		return fmt.Errorf("failed to create broker: %w", err)
	}
	defer broker.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The database may still be starting (containers, managed instances).
	strategy := retry.DefaultStrategy()
	strategy.MaxAttempts = cfg.Broker.StartAttempts
	err = strategy.Do(ctx, broker.Start, func(attempt int, delay time.Duration, err error) {
		logger.Warnf("Broker start attempt %d failed, retrying in %s: %v", attempt, delay, err)
	})
	if err != nil {
		return fmt.Errorf("failed to start broker: %w", err)
	}

	mux := http.NewServeMux()
	api.NewHandler(broker, logger).Routes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      loggingMiddleware(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("HTTP server listening on %s", addr)
		logger.Info("API Endpoints: POST /api/v1/publish, POST /api/v1/subscribe, GET /api/v1/subscriptions, " +
			"DELETE /api/v1/subscriptions/{channel}, GET /api/v1/health, GET /api/v1/status")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// logMessage returns the handler logging every message received on a subscribed channel.
func logMessage(logger sqlbroker.Logger) sqlbroker.Handler {
	return func(_ context.Context, channel string, payload []byte) error {
		logger.Infof("Message received: channel=%s, payload=%s", channel, payload)
		return nil
	}
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(next http.Handler, logger sqlbroker.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger.Infof("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
		logger.Debugf("%s %s - %v", r.Method, r.URL.Path, time.Since(start))
	})
}
