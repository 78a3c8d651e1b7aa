package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventsQueue  = "products.events"
	EventCreated = "product_created"
	EventUpdated = "product_updated"
	EventDeleted = "product_deleted"
)

// Product is the stored representation returned by every read and write.
type Product struct {
	ID        uuid.UUID       `json:"id" example:"3fa85f64-5717-4562-b3fc-2c963f66afa6"`
	Name      string          `json:"name" example:"Iphone 14 Pro Max"`
	Quantity  int             `json:"quantity" example:"10"`
	Price     decimal.Decimal `json:"price" swaggertype:"string" example:"8500.00"`
	Status    bool            `json:"status" example:"true"`
	CreatedAt time.Time       `json:"created_at" example:"2026-02-24T12:00:00Z"`
	UpdatedAt time.Time       `json:"updated_at" example:"2026-02-24T12:00:00Z"`
}

// ProductIn is the creation payload. Server-assigned fields are absent.
type ProductIn struct {
	Name     string           `json:"name" binding:"required,notblank" example:"Iphone 14 Pro Max"`
	Quantity *int             `json:"quantity" binding:"required,gte=0,lte=2147483647" example:"10"`
	Price    *decimal.Decimal `json:"price" binding:"required,gte=0" swaggertype:"string" example:"8500.00"`
	Status   *bool            `json:"status" binding:"required" example:"true"`
}

// ProductUpdate is a partial update. Nil fields keep their stored value.
type ProductUpdate struct {
	Quantity *int             `json:"quantity,omitempty" binding:"omitempty,gte=0,lte=2147483647" example:"5"`
	Price    *decimal.Decimal `json:"price,omitempty" binding:"omitempty,gte=0" swaggertype:"string" example:"7999.90"`
	Status   *bool            `json:"status,omitempty" example:"false"`
}

// Apply returns p with the fields present in u overwritten.
func (u ProductUpdate) Apply(p Product) Product {
	if u.Quantity != nil {
		p.Quantity = *u.Quantity
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	return p
}

// PriceFilter narrows a product query by price. A nil bound is unset.
type PriceFilter struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// Match reports whether price passes the filter. With both bounds set the
// range is exclusive; a single bound is inclusive.
func (f PriceFilter) Match(price decimal.Decimal) bool {
	switch {
	case f.Min != nil && f.Max != nil:
		return price.GreaterThan(*f.Min) && price.LessThan(*f.Max)
	case f.Min != nil:
		return price.GreaterThanOrEqual(*f.Min)
	case f.Max != nil:
		return price.LessThanOrEqual(*f.Max)
	default:
		return true
	}
}

type ProductEvent struct {
	EventType string    `json:"event_type"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
