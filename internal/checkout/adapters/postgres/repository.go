package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mercato/storefront/internal/checkout/domain"
	"github.com/mercato/storefront/internal/checkout/ports"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, order domain.Order) error {
	items, history, err := marshalOrderJSON(order)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (id, items, subtotal_cents, shipping_cents, total_cents,
			status, status_history, payment_reference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.pool.Exec(ctx, query,
		order.ID,
		items,
		order.SubtotalCents,
		order.ShippingCents,
		order.TotalCents,
		order.Status,
		history,
		order.PaymentReference,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, items, subtotal_cents, shipping_cents, total_cents,
			status, status_history, payment_reference, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	return order, nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	query := `
		SELECT id, items, subtotal_cents, shipping_cents, total_cents,
			status, status_history, payment_reference, created_at, updated_at
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var statusFilter *string
	if filter.Status != nil {
		s := string(*filter.Status)
		statusFilter = &s
	}

	offset := (page - 1) * pageSize

	rows, err := r.pool.Query(ctx, query, statusFilter, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

func (r *Repository) Update(ctx context.Context, order domain.Order) error {
	_, history, err := marshalOrderJSON(order)
	if err != nil {
		return err
	}

	query := `
		UPDATE orders
		SET status = $1, status_history = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := r.pool.Exec(ctx, query, order.Status, history, order.UpdatedAt, order.ID)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}

	return nil
}

func marshalOrderJSON(order domain.Order) (items, history []byte, err error) {
	items, err = json.Marshal(order.Items)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal items: %w", err)
	}
	history, err = json.Marshal(order.StatusHistory)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal status history: %w", err)
	}
	return items, history, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		order   domain.Order
		items   []byte
		history []byte
	)

	err := row.Scan(
		&order.ID,
		&items,
		&order.SubtotalCents,
		&order.ShippingCents,
		&order.TotalCents,
		&order.Status,
		&history,
		&order.PaymentReference,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	if err := json.Unmarshal(history, &order.StatusHistory); err != nil {
		return nil, fmt.Errorf("unmarshal status history: %w", err)
	}

	return &order, nil
}
