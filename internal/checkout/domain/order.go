package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Item is a single purchased line within an order.
type Item struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
}

// StatusHistoryEntry records one observed status change. Entries are
// append-only and ordered by occurrence.
type StatusHistoryEntry struct {
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Note      string      `json:"note,omitempty"`
}

// Order represents a purchase that has reached payment. Orders are only ever
// created after a successful payment confirmation, so the first persisted
// status is paid rather than pending.
type Order struct {
	ID               string               `json:"id"`
	Items            []Item               `json:"items"`
	SubtotalCents    int64                `json:"subtotal_cents"`
	ShippingCents    int64                `json:"shipping_cents"`
	TotalCents       int64                `json:"total_cents"`
	Status           OrderStatus          `json:"status"`
	StatusHistory    []StatusHistoryEntry `json:"status_history"`
	PaymentReference string               `json:"payment_reference,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// ErrInvalidTransition is returned when a status change violates the
// lifecycle transition table.
var ErrInvalidTransition = errors.New("invalid status transition")

// NewDraft builds an order draft after payment confirmation. The identifier
// is generated locally so a retried persistence attempt stays idempotent
// against the same id.
func NewDraft(items []Item, subtotalCents, shippingCents int64, paymentReference string) (Order, error) {
	now := time.Now().UTC()

	order := Order{
		ID:               uuid.NewString(),
		Items:            items,
		SubtotalCents:    subtotalCents,
		ShippingCents:    shippingCents,
		TotalCents:       subtotalCents + shippingCents,
		Status:           StatusPaid,
		PaymentReference: paymentReference,
		CreatedAt:        now,
		UpdatedAt:        now,
		StatusHistory: []StatusHistoryEntry{
			{Status: StatusPaid, Timestamp: now, Note: "payment confirmed"},
		},
	}

	if err := order.Validate(); err != nil {
		return Order{}, err
	}
	return order, nil
}

// Validate ensures the order adheres to business constraints. The total is
// checked once here, at creation, and never re-derived afterwards.
func (o Order) Validate() error {
	if len(o.Items) == 0 {
		return errors.New("order must contain at least one item")
	}
	if o.SubtotalCents <= 0 {
		return errors.New("subtotal_cents must be positive")
	}
	if o.ShippingCents < 0 {
		return errors.New("shipping_cents must not be negative")
	}
	if o.TotalCents != o.SubtotalCents+o.ShippingCents {
		return fmt.Errorf("total_cents %d does not equal subtotal plus shipping %d",
			o.TotalCents, o.SubtotalCents+o.ShippingCents)
	}
	if !o.Status.IsValid() {
		return fmt.Errorf("unknown status %q", o.Status)
	}
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("item %s quantity must be positive", item.ProductID)
		}
		if item.PriceCents < 0 {
			return fmt.Errorf("item %s price must not be negative", item.ProductID)
		}
	}
	return nil
}

// AdvanceStatus moves the order to the next status, enforcing the transition
// table and appending a history entry.
func (o *Order) AdvanceStatus(to OrderStatus, note string) error {
	if !ValidTransition(o.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}

	now := time.Now().UTC()
	o.Status = to
	o.UpdatedAt = now
	o.StatusHistory = append(o.StatusHistory, StatusHistoryEntry{
		Status:    to,
		Timestamp: now,
		Note:      note,
	})
	return nil
}

// IsTerminal indicates whether the order has reached a terminal status.
func (o Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}
