package config

import (
	"fmt"
	"strconv"
	"time"

	"product-store/internal/products"
)

const (
	defaultConsumerTag   = "notifications-service"
	defaultPrefetchCount = 10
	defaultMetricsAddr   = ":9091"
)

type Notifications struct {
	RabbitMQURL     string
	EventsQueue     string
	ConsumerTag     string
	PrefetchCount   int
	MetricsAddr     string
	ShutdownTimeout time.Duration
}

func LoadNotifications() (Notifications, error) {
	cfg := Notifications{
		RabbitMQURL:     getEnv("RABBITMQ_URL", ""),
		EventsQueue:     getEnv("EVENTS_QUEUE", products.EventsQueue),
		ConsumerTag:     getEnv("CONSUMER_TAG", defaultConsumerTag),
		PrefetchCount:   defaultPrefetchCount,
		MetricsAddr:     getEnv("METRICS_ADDR", defaultMetricsAddr),
		ShutdownTimeout: defaultShutdownTimeout,
	}

	if cfg.RabbitMQURL == "" {
		return Notifications{}, fmt.Errorf("RABBITMQ_URL is required")
	}

	if raw := getEnv("PREFETCH_COUNT", ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Notifications{}, fmt.Errorf("PREFETCH_COUNT must be a positive integer, got %q", raw)
		}
		cfg.PrefetchCount = n
	}

	if raw := getEnv("SHUTDOWN_TIMEOUT", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return Notifications{}, fmt.Errorf("SHUTDOWN_TIMEOUT must be a positive duration, got %q", raw)
		}
		cfg.ShutdownTimeout = d
	}

	return cfg, nil
}
