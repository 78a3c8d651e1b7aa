package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "product-store/docs"
	"product-store/internal/config"
	producthttp "product-store/internal/products/http"
	"product-store/internal/products/messaging"
	"product-store/internal/products/repository"
	"product-store/internal/products/service"
	"product-store/internal/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	metricCreatedTotal  = "products_created_total"
	metricUpdatedTotal  = "products_updated_total"
	metricDeletedTotal  = "products_deleted_total"
	migrateSourcePrefix = "file://"
	postgresDriverName  = "postgres"
	serverSpanName      = "product-store"
)

// store is what the service and the health check need from a backend.
type store interface {
	service.Repository
	producthttp.HealthChecker
}

// @title        Product Store API
// @version      1.0
// @description  Product catalogue service with event notifications.
// @host         localhost:8080
// @BasePath     /
func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	os.Exit(run(logger))
}

func run(logger *slog.Logger) int {
	cfg, err := config.LoadProducts()
	if err != nil {
		logger.Error("load config", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.NewTracerProvider(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		logger.Error("init tracing", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracer shutdown failed", "error", err)
		}
	}()

	repo, closeRepo, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("open store", "driver", cfg.StoreDriver, "error", err)
		return 1
	}
	defer closeRepo()

	rabbitConn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Error("connect rabbitmq", "error", err)
		return 1
	}
	defer rabbitConn.Close()

	publisher, err := messaging.NewRabbitPublisher(rabbitConn, cfg.EventsQueue)
	if err != nil {
		logger.Error("init publisher", "error", err)
		return 1
	}
	defer publisher.Close()

	counters := service.Counters{
		Created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricCreatedTotal,
			Help: "Total number of products created",
		}),
		Updated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricUpdatedTotal,
			Help: "Total number of products updated",
		}),
		Deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricDeletedTotal,
			Help: "Total number of products deleted",
		}),
	}
	requestDuration := producthttp.NewRequestDuration()
	prometheus.MustRegister(counters.Created, counters.Updated, counters.Deleted, requestDuration)

	svc := service.New(repo, publisher, logger, counters)
	handler := producthttp.NewHandler(svc)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(producthttp.RequestIDMiddleware())
	router.Use(producthttp.AccessLogMiddleware(logger))
	router.Use(producthttp.MetricsMiddleware(requestDuration))
	producthttp.RegisterRoutes(router, handler, repo)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           telemetry.WrapHandler(router, serverSpanName),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("products service started", "addr", cfg.HTTPAddr, "driver", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("http server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return 1
	}
	logger.Info("products service stopped")
	return 0
}

func openStore(ctx context.Context, cfg config.Products) (store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		return repository.NewMemory(), func() {}, nil
	}

	if err := runMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open(postgresDriverName, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	pingCtx, pingCancel := context.WithTimeout(ctx, cfg.DBPingTimeout)
	defer pingCancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	return repository.NewPostgres(db), func() { _ = db.Close() }, nil
}

func runMigrations(databaseURL, migrationsPath string) error {
	m, err := migrate.New(migrateSourcePrefix+migrationsPath, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}
