// Package events publishes order lifecycle events. Only a logging no-op
// publisher exists for now; a broker-backed one can slot in behind the same
// port.
package events

import (
	"context"
	"log/slog"

	"github.com/mercato/storefront/internal/checkout/domain"
)

// NoopPublisher logs events without sending them anywhere.
type NoopPublisher struct{}

// NewNoopPublisher returns a new no-op event publisher.
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (n *NoopPublisher) PublishOrderPaid(_ context.Context, orderID string) error {
	slog.Debug("event::order_paid", "order_id", orderID)
	return nil
}

func (n *NoopPublisher) PublishOrderStatusChanged(_ context.Context, orderID string, status domain.OrderStatus) error {
	slog.Debug("event::order_status_changed", "order_id", orderID, "status", status)
	return nil
}

func (n *NoopPublisher) PublishPartialFailure(_ context.Context, paymentReference, reason string) error {
	// Logged at error level even from the no-op publisher: this is the
	// operator signal for a captured payment with no order behind it.
	slog.Error("event::checkout_partial_failure",
		"payment_reference", paymentReference,
		"reason", reason,
	)
	return nil
}
