package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"product-store/internal/config"
	"product-store/internal/notifications"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
)

const metricsReadHeaderTimeout = 5 * time.Second

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	os.Exit(run(logger))
}

func run(logger *slog.Logger) int {
	cfg, err := config.LoadNotifications()
	if err != nil {
		logger.Error("load config", "error", err)
		return 1
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Error("connect rabbitmq", "error", err)
		return 1
	}
	defer conn.Close()

	events := notifications.NewEventsCounter()
	registry := prometheus.NewRegistry()
	registry.MustRegister(events)

	consumer, err := notifications.NewConsumer(conn, notifications.Options{
		Queue:    cfg.EventsQueue,
		Tag:      cfg.ConsumerTag,
		Prefetch: cfg.PrefetchCount,
	}, events, logger)
	if err != nil {
		logger.Error("init consumer", "queue", cfg.EventsQueue, "error", err)
		return 1
	}
	defer consumer.Close()

	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", cfg.MetricsAddr, "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- consumer.Listen(ctx)
	}()
	logger.Info("notifications service started",
		"queue", cfg.EventsQueue,
		"consumer_tag", cfg.ConsumerTag,
		"prefetch", cfg.PrefetchCount,
		"metrics_addr", cfg.MetricsAddr,
	)

	code := 0
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		code = drain(listenErr, cfg.ShutdownTimeout, logger)
	case err := <-listenErr:
		if err != nil {
			logger.Error("consumer failed", "error", err)
			code = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown failed", "error", err)
	}

	logger.Info("notifications service stopped", "exit_code", code)
	return code
}

// drain waits for the in-flight delivery to be acked or nacked.
func drain(listenErr <-chan error, timeout time.Duration, logger *slog.Logger) int {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case err := <-listenErr:
		if err != nil {
			logger.Error("consumer stop failed", "error", err)
			return 1
		}
		return 0
	case <-deadline.C:
		logger.Warn("consumer drain timed out", "timeout", timeout)
		return 0
	}
}
