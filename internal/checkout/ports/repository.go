package ports

import (
	"context"
	"errors"

	"github.com/mercato/storefront/internal/checkout/domain"
)

// OrderRepository exposes persistence operations required by the application
// layer. The repository owns the persisted order once Create succeeds.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	Update(ctx context.Context, order domain.Order) error
}

// ListFilter narrows list queries by status and pagination.
type ListFilter struct {
	Status   *domain.OrderStatus
	Page     int
	PageSize int
}

var (
	// ErrNotFound is returned when the requested order does not exist.
	ErrNotFound = errors.New("order not found")
)
