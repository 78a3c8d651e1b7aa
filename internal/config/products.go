package config

import (
	"fmt"
	"os"
	"time"

	"product-store/internal/products"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	defaultStoreDriver     = StoreDriverPostgres
	defaultHTTPAddr        = ":8080"
	defaultMigrationsPath  = "migrations/products"
	defaultServiceName     = "product-store"
	defaultShutdownTimeout = 10 * time.Second

	defaultDBMaxOpenConns    = 25
	defaultDBMaxIdleConns    = 5
	defaultDBConnMaxLifetime = 5 * time.Minute
	defaultDBPingTimeout     = 5 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
)

type Products struct {
	StoreDriver       string
	DatabaseURL       string
	RabbitMQURL       string
	EventsQueue       string
	HTTPAddr          string
	MigrationsPath    string
	OTLPEndpoint      string
	ServiceName       string
	ShutdownTimeout   time.Duration
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBPingTimeout     time.Duration
	ReadHeaderTimeout time.Duration
}

func LoadProducts() (Products, error) {
	cfg := Products{
		StoreDriver:       getEnv("STORE_DRIVER", defaultStoreDriver),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		EventsQueue:       getEnv("EVENTS_QUEUE", products.EventsQueue),
		HTTPAddr:          getEnv("HTTP_ADDR", defaultHTTPAddr),
		MigrationsPath:    getEnv("MIGRATIONS_PATH", defaultMigrationsPath),
		OTLPEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:       getEnv("OTEL_SERVICE_NAME", defaultServiceName),
		ShutdownTimeout:   defaultShutdownTimeout,
		DBMaxOpenConns:    defaultDBMaxOpenConns,
		DBMaxIdleConns:    defaultDBMaxIdleConns,
		DBConnMaxLifetime: defaultDBConnMaxLifetime,
		DBPingTimeout:     defaultDBPingTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return Products{}, fmt.Errorf("DATABASE_URL is required")
		}
	case StoreDriverMemory:
	default:
		return Products{}, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, cfg.StoreDriver)
	}
	if cfg.RabbitMQURL == "" {
		return Products{}, fmt.Errorf("RABBITMQ_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
