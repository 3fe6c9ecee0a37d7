package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mercato/storefront/internal/checkout/ports"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	query := `
		SELECT status_code, body, order_id, payment_reference
		FROM idempotency_keys
		WHERE key = $1
	`

	var resp ports.StoredResponse
	err := s.pool.QueryRow(ctx, query, key).Scan(
		&resp.StatusCode,
		&resp.Body,
		&resp.OrderID,
		&resp.PaymentReference,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select idempotency key: %w", err)
	}

	return &resp, nil
}

func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	query := `
		INSERT INTO idempotency_keys (key, status_code, body, order_id, payment_reference)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query,
		key,
		response.StatusCode,
		response.Body,
		response.OrderID,
		response.PaymentReference,
	)
	if err != nil {
		return fmt.Errorf("insert idempotency key: %w", err)
	}

	return nil
}
