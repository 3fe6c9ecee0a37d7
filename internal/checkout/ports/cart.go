package ports

import (
	"context"
	"errors"

	"github.com/mercato/storefront/internal/checkout/domain"
)

// CartStore holds the session's cart. The cart is only cleared after an
// order is durably persisted, so a partial checkout failure leaves it
// inspectable.
type CartStore interface {
	Items(ctx context.Context) ([]domain.Item, error)
	Clear(ctx context.Context) error
}

// ErrEmptyCart is returned when checkout starts with nothing to buy.
var ErrEmptyCart = errors.New("cart is empty")
