package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"product-store/internal/products"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

type mockRepo struct {
	createFn func(ctx context.Context, p products.Product) (products.Product, error)
	getFn    func(ctx context.Context, id uuid.UUID) (products.Product, error)
	queryFn  func(ctx context.Context, f products.PriceFilter) ([]products.Product, error)
	updateFn func(ctx context.Context, id uuid.UUID, u products.ProductUpdate, at time.Time) (products.Product, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockRepo) Create(ctx context.Context, p products.Product) (products.Product, error) {
	return m.createFn(ctx, p)
}
func (m *mockRepo) Get(ctx context.Context, id uuid.UUID) (products.Product, error) {
	return m.getFn(ctx, id)
}
func (m *mockRepo) Query(ctx context.Context, f products.PriceFilter) ([]products.Product, error) {
	return m.queryFn(ctx, f)
}
func (m *mockRepo) Update(ctx context.Context, id uuid.UUID, u products.ProductUpdate, at time.Time) (products.Product, error) {
	return m.updateFn(ctx, id, u, at)
}
func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

type mockPublisher struct {
	events []products.ProductEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, event products.ProductEvent) error {
	m.events = append(m.events, event)
	return m.err
}

func newTestService(repo Repository, pub Publisher) *Service {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	return New(repo, pub, logger, Counters{
		Created: prometheus.NewCounter(prometheus.CounterOpts{Name: "t_created", Help: "t"}),
		Updated: prometheus.NewCounter(prometheus.CounterOpts{Name: "t_updated", Help: "t"}),
		Deleted: prometheus.NewCounter(prometheus.CounterOpts{Name: "t_deleted", Help: "t"}),
	})
}

func defaultRepo() *mockRepo {
	return &mockRepo{
		createFn: func(_ context.Context, p products.Product) (products.Product, error) { return p, nil },
		getFn: func(_ context.Context, id uuid.UUID) (products.Product, error) {
			return products.Product{}, products.ErrNotFound(id)
		},
		queryFn: func(_ context.Context, _ products.PriceFilter) ([]products.Product, error) { return nil, nil },
		updateFn: func(_ context.Context, id uuid.UUID, _ products.ProductUpdate, _ time.Time) (products.Product, error) {
			return products.Product{}, products.ErrNotFound(id)
		},
		deleteFn: func(_ context.Context, _ uuid.UUID) error { return nil },
	}
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreate(t *testing.T) {
	errDB := errors.New("db down")
	insertErr := products.ErrInsertion("name already exists")

	tests := []struct {
		name      string
		input     products.ProductIn
		repoErr   error
		wantErr   error
		wantName  string
		wantEvent string
	}{
		{
			name:      "success",
			input:     products.ProductIn{Name: "Phone", Quantity: intPtr(3), Price: decPtr("10.50"), Status: boolPtr(true)},
			wantName:  "Phone",
			wantEvent: products.EventCreated,
		},
		{
			name:      "name stored as given",
			input:     products.ProductIn{Name: " Phone ", Quantity: intPtr(3), Price: decPtr("10.50"), Status: boolPtr(true)},
			wantName:  " Phone ",
			wantEvent: products.EventCreated,
		},
		{
			name:    "insertion error is wrapped",
			input:   products.ProductIn{Name: "Phone", Quantity: intPtr(1), Price: decPtr("1"), Status: boolPtr(true)},
			repoErr: insertErr,
			wantErr: insertErr,
		},
		{
			name:    "repo error is wrapped",
			input:   products.ProductIn{Name: "Phone", Quantity: intPtr(1), Price: decPtr("1"), Status: boolPtr(true)},
			repoErr: errDB,
			wantErr: errDB,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := defaultRepo()
			if tt.repoErr != nil {
				repo.createFn = func(_ context.Context, _ products.Product) (products.Product, error) {
					return products.Product{}, tt.repoErr
				}
			}
			pub := &mockPublisher{}
			svc := newTestService(repo, pub)

			product, err := svc.Create(context.Background(), tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want error wrapping %v, got %v", tt.wantErr, err)
				}
				if len(pub.events) != 0 {
					t.Fatalf("want no events on failure, got %v", pub.events)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if product.ID == uuid.Nil {
				t.Fatal("expected server-assigned id")
			}
			if product.Name != tt.wantName {
				t.Fatalf("want name %q, got %q", tt.wantName, product.Name)
			}
			if !product.Price.Equal(*tt.input.Price) || product.Quantity != *tt.input.Quantity {
				t.Fatalf("fields not copied from input: %+v", product)
			}
			if product.CreatedAt.IsZero() || !product.CreatedAt.Equal(product.UpdatedAt) {
				t.Fatalf("want equal non-zero timestamps, got %v / %v", product.CreatedAt, product.UpdatedAt)
			}
			if len(pub.events) != 1 || pub.events[0].EventType != tt.wantEvent {
				t.Fatalf("want event %q, got %v", tt.wantEvent, pub.events)
			}
		})
	}
}

func TestGet_NotFoundIsMatchable(t *testing.T) {
	svc := newTestService(defaultRepo(), &mockPublisher{})
	id := uuid.New()

	_, err := svc.Get(context.Background(), id)

	var nf *products.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
	if nf.Message == "" {
		t.Fatal("expected not found message")
	}
}

func TestQuery_NilBecomesEmpty(t *testing.T) {
	svc := newTestService(defaultRepo(), &mockPublisher{})

	items, err := svc.Query(context.Background(), products.PriceFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", items)
	}
}

func TestQuery_PassesFilter(t *testing.T) {
	repo := defaultRepo()
	var got products.PriceFilter
	repo.queryFn = func(_ context.Context, f products.PriceFilter) ([]products.Product, error) {
		got = f
		return []products.Product{{ID: uuid.New()}}, nil
	}
	svc := newTestService(repo, &mockPublisher{})

	filter := products.PriceFilter{Min: decPtr("5")}
	items, err := svc.Query(context.Background(), filter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("want 1 item, got %d", len(items))
	}
	if got.Min == nil || !got.Min.Equal(*filter.Min) || got.Max != nil {
		t.Fatalf("filter not forwarded: %+v", got)
	}
}

func TestUpdate(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name      string
		repoErr   error
		wantEvent string
		wantNF    bool
	}{
		{name: "success", wantEvent: products.EventUpdated},
		{name: "not found", repoErr: products.ErrNotFound(id), wantNF: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := defaultRepo()
			repo.updateFn = func(_ context.Context, gotID uuid.UUID, u products.ProductUpdate, at time.Time) (products.Product, error) {
				if tt.repoErr != nil {
					return products.Product{}, tt.repoErr
				}
				if at.IsZero() {
					t.Fatal("expected updated_at to be set")
				}
				return u.Apply(products.Product{ID: gotID, Name: "Phone", UpdatedAt: at}), nil
			}
			pub := &mockPublisher{}
			svc := newTestService(repo, pub)

			product, err := svc.Update(context.Background(), id, products.ProductUpdate{Quantity: intPtr(7)})

			if tt.wantNF {
				var nf *products.NotFoundError
				if !errors.As(err, &nf) {
					t.Fatalf("want NotFoundError, got %v", err)
				}
				if len(pub.events) != 0 {
					t.Fatalf("want no events, got %v", pub.events)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if product.Quantity != 7 {
				t.Fatalf("want quantity 7, got %d", product.Quantity)
			}
			if len(pub.events) != 1 || pub.events[0].EventType != tt.wantEvent {
				t.Fatalf("want event %q, got %v", tt.wantEvent, pub.events)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name      string
		repoErr   error
		wantEvent string
	}{
		{
			name:      "success",
			wantEvent: products.EventDeleted,
		},
		{
			name:    "not found",
			repoErr: products.ErrNotFound(uuid.Nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := defaultRepo()
			repo.deleteFn = func(_ context.Context, _ uuid.UUID) error {
				return tt.repoErr
			}
			pub := &mockPublisher{}
			svc := newTestService(repo, pub)

			err := svc.Delete(context.Background(), uuid.New())

			if tt.repoErr != nil {
				if !errors.Is(err, tt.repoErr) {
					t.Fatalf("want error %v, got %v", tt.repoErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(pub.events) != 1 || pub.events[0].EventType != tt.wantEvent {
				t.Fatalf("want event %q, got %v", tt.wantEvent, pub.events)
			}
		})
	}
}

func TestCreate_PublishFail_StillReturnsProduct(t *testing.T) {
	repo := defaultRepo()
	pub := &mockPublisher{err: errors.New("broker down")}
	svc := newTestService(repo, pub)

	product, err := svc.Create(context.Background(), products.ProductIn{
		Name: "Widget", Quantity: intPtr(1), Price: decPtr("2.5"), Status: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("expected no error despite publish failure, got: %v", err)
	}
	if product.Name != "Widget" {
		t.Fatalf("want name Widget, got %q", product.Name)
	}
}
