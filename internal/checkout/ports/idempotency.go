package ports

import "context"

// StoredResponse contains the response data to replay for a reused key.
type StoredResponse struct {
	StatusCode       int
	Body             []byte
	OrderID          string
	PaymentReference string
}

// IdempotencyStore ensures a checkout submission can be retried safely
// without capturing a second payment.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*StoredResponse, error)
	Save(ctx context.Context, key string, response StoredResponse) error
}
