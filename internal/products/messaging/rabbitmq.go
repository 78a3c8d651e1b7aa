package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"product-store/internal/products"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	contentTypeJSON = "application/json"
	appID           = "product-store"
)

type RabbitPublisher struct {
	channel *amqp.Channel
	queue   string
}

func NewRabbitPublisher(conn *amqp.Connection, queue string) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %q: %w", queue, err)
	}

	return &RabbitPublisher{
		channel: ch,
		queue:   queue,
	}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, event products.ProductEvent) error {
	msg, err := newPublishing(event)
	if err != nil {
		return err
	}

	if err := p.channel.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish %s to %q: %w", event.EventType, p.queue, err)
	}

	return nil
}

func (p *RabbitPublisher) Close() error {
	return p.channel.Close()
}

// newPublishing marks messages persistent so they survive a broker restart
// together with the durable queue.
func newPublishing(event products.ProductEvent) (amqp.Publishing, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}

	return amqp.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		Type:         event.EventType,
		AppId:        appID,
		Timestamp:    event.Timestamp,
		Body:         payload,
	}, nil
}
