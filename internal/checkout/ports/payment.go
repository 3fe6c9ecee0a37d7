package ports

import (
	"context"

	"github.com/mercato/storefront/internal/checkout/payment"
)

// PaymentGateway confirms a tokenized payment. Failures should be returned
// as raw errors; classification happens in the retry layer.
type PaymentGateway interface {
	Confirm(ctx context.Context, clientSecret, paymentMethodRef string) (*payment.Confirmation, error)
}
