package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"product-store/internal/products"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	healthCheckTimeout = 2 * time.Second

	uniqueViolationCode = "23505"
	checkViolationCode  = "23514"

	productColumns = `id, name, quantity, price, status, created_at, updated_at`
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (products.Product, error) {
	var p products.Product
	err := row.Scan(&p.ID, &p.Name, &p.Quantity, &p.Price, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PostgresRepository) Create(ctx context.Context, product products.Product) (products.Product, error) {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + productColumns

	p, err := scanProduct(r.db.QueryRowContext(ctx, query,
		product.ID, product.Name, product.Quantity, product.Price, product.Status,
		product.CreatedAt, product.UpdatedAt,
	))
	if err != nil {
		return products.Product{}, insertionError(product.Name, err)
	}
	return p, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (products.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return products.Product{}, products.ErrNotFound(id)
	}
	if err != nil {
		return products.Product{}, fmt.Errorf("select product %s: %w", id, err)
	}
	return p, nil
}

func (r *PostgresRepository) Query(ctx context.Context, filter products.PriceFilter) ([]products.Product, error) {
	where, args := priceClause(filter)
	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	list := make([]products.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return list, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, update products.ProductUpdate, updatedAt time.Time) (products.Product, error) {
	query := `
		UPDATE products
		SET quantity   = COALESCE($2, quantity),
		    price      = COALESCE($3, price),
		    status     = COALESCE($4, status),
		    updated_at = $5
		WHERE id = $1
		RETURNING ` + productColumns

	var price any
	if update.Price != nil {
		price = *update.Price
	}

	p, err := scanProduct(r.db.QueryRowContext(ctx, query,
		id, update.Quantity, price, update.Status, updatedAt,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return products.Product{}, products.ErrNotFound(id)
	}
	if err != nil {
		return products.Product{}, fmt.Errorf("update product %s: %w", id, err)
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return products.ErrNotFound(id)
	}

	return nil
}

func (r *PostgresRepository) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	return r.db.PingContext(ctx)
}

func priceClause(filter products.PriceFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	switch {
	case filter.Min != nil && filter.Max != nil:
		conds = append(conds, "price > $1", "price < $2")
		args = append(args, *filter.Min, *filter.Max)
	case filter.Min != nil:
		conds = append(conds, "price >= $1")
		args = append(args, *filter.Min)
	case filter.Max != nil:
		conds = append(conds, "price <= $1")
		args = append(args, *filter.Max)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func insertionError(name string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolationCode:
			return &products.InsertionError{
				Message: fmt.Sprintf("Product with name %q already exists", name),
				Err:     pqErr,
			}
		case checkViolationCode:
			return &products.InsertionError{
				Message: fmt.Sprintf("Product %q violates constraint %s", name, pqErr.Constraint),
				Err:     pqErr,
			}
		}
	}
	return fmt.Errorf("insert product: %w", err)
}
