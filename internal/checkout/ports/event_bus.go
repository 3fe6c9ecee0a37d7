package ports

import (
	"context"

	"github.com/mercato/storefront/internal/checkout/domain"
)

// EventBus defines the contract for publishing order lifecycle events.
type EventBus interface {
	PublishOrderPaid(ctx context.Context, orderID string) error
	PublishOrderStatusChanged(ctx context.Context, orderID string, status domain.OrderStatus) error
	// PublishPartialFailure routes a captured-payment-without-order incident
	// to the operator channel for manual reconciliation.
	PublishPartialFailure(ctx context.Context, paymentReference, reason string) error
}
