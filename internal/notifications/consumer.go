package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"product-store/internal/products"

	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
)

const eventRejected = "rejected"

var errUnknownEvent = errors.New("unknown event type")

// Options configures one queue subscription.
type Options struct {
	Queue    string
	Tag      string
	Prefetch int
}

type Consumer struct {
	channel *amqp.Channel
	queue   string
	tag     string
	events  *prometheus.CounterVec
	logger  *slog.Logger
}

// NewEventsCounter counts consumed messages by event type. Dropped messages
// are counted under "rejected".
func NewEventsCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_events_total",
		Help: "Product events consumed, by event type",
	}, []string{"event_type"})
}

func NewConsumer(conn *amqp.Connection, opts Options, events *prometheus.CounterVec, logger *slog.Logger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.Qos(opts.Prefetch, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("set prefetch %d: %w", opts.Prefetch, err)
	}

	_, err = ch.QueueDeclare(
		opts.Queue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %q: %w", opts.Queue, err)
	}

	return &Consumer{
		channel: ch,
		queue:   opts.Queue,
		tag:     opts.Tag,
		events:  events,
		logger:  logger,
	}, nil
}

func (c *Consumer) Listen(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue,
		c.tag,
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume queue %q: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}

			// Malformed payloads would fail again on redelivery, so drop them.
			if err := c.handleMessage(msg.Body); err != nil {
				c.logger.Error("handle message failed",
					"message_id", msg.MessageId,
					"error", err,
				)
				c.events.WithLabelValues(eventRejected).Inc()
				_ = msg.Nack(false, false)
				continue
			}

			_ = msg.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(body []byte) error {
	var event products.ProductEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}

	switch event.EventType {
	case products.EventCreated, products.EventUpdated, products.EventDeleted:
	default:
		return fmt.Errorf("%w: %q", errUnknownEvent, event.EventType)
	}

	c.events.WithLabelValues(event.EventType).Inc()
	c.logger.Info("notification event",
		"event_type", event.EventType,
		"product_id", event.ProductID,
		"name", event.Name,
		"timestamp", event.Timestamp,
	)

	return nil
}

func (c *Consumer) Close() error {
	return c.channel.Close()
}
