package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"product-store/internal/products"

	"github.com/google/uuid"
)

// MemoryRepository keeps products in a map. It is safe for concurrent use
// and enforces the same unique-name rule as the products table.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]products.Product
}

func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		byID: make(map[uuid.UUID]products.Product),
	}
}

func (r *MemoryRepository) Create(_ context.Context, product products.Product) (products.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[product.ID]; ok {
		return products.Product{}, products.ErrInsertion(fmt.Sprintf("Product with id %s already exists", product.ID))
	}
	for _, existing := range r.byID {
		if existing.Name == product.Name {
			return products.Product{}, products.ErrInsertion(fmt.Sprintf("Product with name %q already exists", product.Name))
		}
	}
	r.byID[product.ID] = product
	return product, nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (products.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return products.Product{}, products.ErrNotFound(id)
	}
	return p, nil
}

func (r *MemoryRepository) Query(_ context.Context, filter products.PriceFilter) ([]products.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]products.Product, 0, len(r.byID))
	for _, p := range r.byID {
		if filter.Match(p.Price) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, id uuid.UUID, update products.ProductUpdate, updatedAt time.Time) (products.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return products.Product{}, products.ErrNotFound(id)
	}
	p = update.Apply(p)
	p.UpdatedAt = updatedAt
	r.byID[id] = p
	return p, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return products.ErrNotFound(id)
	}
	delete(r.byID, id)
	return nil
}

func (r *MemoryRepository) Health() error {
	return nil
}
