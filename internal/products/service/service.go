package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"product-store/internal/products"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "product-store/internal/products/service"

type Repository interface {
	Create(ctx context.Context, product products.Product) (products.Product, error)
	Get(ctx context.Context, id uuid.UUID) (products.Product, error)
	Query(ctx context.Context, filter products.PriceFilter) ([]products.Product, error)
	Update(ctx context.Context, id uuid.UUID, update products.ProductUpdate, updatedAt time.Time) (products.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Publisher interface {
	Publish(ctx context.Context, event products.ProductEvent) error
}

// Counters groups the mutation counters exported on /metrics.
type Counters struct {
	Created prometheus.Counter
	Updated prometheus.Counter
	Deleted prometheus.Counter
}

type Service struct {
	repo      Repository
	publisher Publisher
	logger    *slog.Logger
	counters  Counters
	tracer    trace.Tracer
	now       func() time.Time
}

func New(repo Repository, publisher Publisher, logger *slog.Logger, counters Counters) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		counters:  counters,
		tracer:    otel.Tracer(tracerName),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, in products.ProductIn) (products.Product, error) {
	ctx, span := s.tracer.Start(ctx, "products.Create")
	defer span.End()

	now := s.now()
	product := products.Product{
		ID:        uuid.New(),
		Name:      in.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Quantity != nil {
		product.Quantity = *in.Quantity
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.Status != nil {
		product.Status = *in.Status
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		span.RecordError(err)
		return products.Product{}, fmt.Errorf("repo create: %w", err)
	}
	span.SetAttributes(attribute.String("product.id", created.ID.String()))

	s.publish(ctx, products.EventCreated, created.ID, created.Name)
	s.counters.Created.Inc()
	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (products.Product, error) {
	ctx, span := s.tracer.Start(ctx, "products.Get",
		trace.WithAttributes(attribute.String("product.id", id.String())))
	defer span.End()

	product, err := s.repo.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return products.Product{}, fmt.Errorf("repo get: %w", err)
	}
	return product, nil
}

func (s *Service) Query(ctx context.Context, filter products.PriceFilter) ([]products.Product, error) {
	ctx, span := s.tracer.Start(ctx, "products.Query")
	defer span.End()

	items, err := s.repo.Query(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("repo query: %w", err)
	}
	if items == nil {
		items = make([]products.Product, 0)
	}
	span.SetAttributes(attribute.Int("products.count", len(items)))
	return items, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, update products.ProductUpdate) (products.Product, error) {
	ctx, span := s.tracer.Start(ctx, "products.Update",
		trace.WithAttributes(attribute.String("product.id", id.String())))
	defer span.End()

	updated, err := s.repo.Update(ctx, id, update, s.now())
	if err != nil {
		span.RecordError(err)
		return products.Product{}, fmt.Errorf("repo update: %w", err)
	}

	s.publish(ctx, products.EventUpdated, updated.ID, updated.Name)
	s.counters.Updated.Inc()
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "products.Delete",
		trace.WithAttributes(attribute.String("product.id", id.String())))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("repo delete: %w", err)
	}

	s.publish(ctx, products.EventDeleted, id, "")
	s.counters.Deleted.Inc()
	return nil
}

// publish never fails the caller: the mutation is already committed.
func (s *Service) publish(ctx context.Context, eventType string, id uuid.UUID, name string) {
	if err := s.publisher.Publish(ctx, products.ProductEvent{
		EventType: eventType,
		ProductID: id,
		Name:      name,
		Timestamp: s.now(),
	}); err != nil {
		s.logger.Error("publish "+eventType+" event failed",
			"product_id", id,
			"error", err,
		)
	}
}
