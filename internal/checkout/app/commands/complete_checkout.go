package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mercato/storefront/internal/checkout/domain"
	"github.com/mercato/storefront/internal/checkout/payment"
	"github.com/mercato/storefront/internal/checkout/ports"
	"github.com/mercato/storefront/internal/checkout/retry"
)

// CompleteCheckoutCommand carries the payment context for a checkout
// submission. The items come from the session's cart.
type CompleteCheckoutCommand struct {
	ClientSecret     string
	PaymentMethodRef string
	ShippingCents    int64
}

func (c CompleteCheckoutCommand) Validate() error {
	if strings.TrimSpace(c.ClientSecret) == "" {
		return errors.New("client_secret is required")
	}
	if strings.TrimSpace(c.PaymentMethodRef) == "" {
		return errors.New("payment_method is required")
	}
	if c.ShippingCents < 0 {
		return errors.New("shipping_cents must not be negative")
	}
	return nil
}

// CheckoutState is the severity of a checkout outcome.
type CheckoutState string

const (
	// StateSucceeded means payment captured and order persisted.
	StateSucceeded CheckoutState = "succeeded"
	// StatePartialFailure means payment captured but the order could not be
	// persisted. Money moved; this must never be presented as a plain
	// retryable failure.
	StatePartialFailure CheckoutState = "partial_failure"
	// StateFailed means no money moved; the shopper may retry from scratch.
	StateFailed CheckoutState = "failed"
)

// CheckoutResult is the terminal outcome of a checkout flow.
type CheckoutResult struct {
	State            CheckoutState
	Order            *domain.Order
	PaymentReference string
	Reason           string
	Err              *payment.ErrorRecord
	Attempts         int
	Exhausted        bool
}

// CommandHandler handles a checkout submission.
type CommandHandler interface {
	Handle(ctx context.Context, cmd CompleteCheckoutCommand) (*CheckoutResult, error)
}

// CompleteCheckoutHandler orchestrates payment confirmation, order creation,
// and cart clearing.
type CompleteCheckoutHandler struct {
	gateway ports.PaymentGateway
	repo    ports.OrderRepository
	cart    ports.CartStore
	events  ports.EventBus

	maxAttempts int
	baseDelay   time.Duration
	onRetry     func(attempt int, record payment.ErrorRecord)
}

// HandlerOption tunes the checkout handler.
type HandlerOption func(*CompleteCheckoutHandler)

// WithRetryPolicy overrides the payment confirmation retry budget.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) HandlerOption {
	return func(h *CompleteCheckoutHandler) {
		h.maxAttempts = maxAttempts
		h.baseDelay = baseDelay
	}
}

// WithRetryNotifier registers a callback fired before each retry backoff,
// typically to surface "retrying payment..." feedback.
func WithRetryNotifier(fn func(attempt int, record payment.ErrorRecord)) HandlerOption {
	return func(h *CompleteCheckoutHandler) {
		h.onRetry = fn
	}
}

// NewCompleteCheckoutHandler wires required dependencies.
func NewCompleteCheckoutHandler(
	gateway ports.PaymentGateway,
	repo ports.OrderRepository,
	cart ports.CartStore,
	events ports.EventBus,
	opts ...HandlerOption,
) *CompleteCheckoutHandler {
	h := &CompleteCheckoutHandler{
		gateway:     gateway,
		repo:        repo,
		cart:        cart,
		events:      events,
		maxAttempts: retry.DefaultMaxAttempts,
		baseDelay:   retry.DefaultBaseDelay,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle runs the checkout flow. Payment confirmation is retried with
// backoff; the persistence call is made exactly once, because a blind retry
// against a captured payment risks duplicate orders. The cart is cleared only
// after persistence succeeds.
func (h *CompleteCheckoutHandler) Handle(ctx context.Context, cmd CompleteCheckoutCommand) (*CheckoutResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	items, err := h.cart.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ports.ErrEmptyCart
	}

	var subtotal int64
	for _, item := range items {
		subtotal += item.PriceCents * int64(item.Quantity)
	}

	outcome := retry.Do(ctx, func(ctx context.Context) (*payment.Confirmation, error) {
		return h.gateway.Confirm(ctx, cmd.ClientSecret, cmd.PaymentMethodRef)
	}, retry.Options{
		MaxAttempts: h.maxAttempts,
		BaseDelay:   h.baseDelay,
		OnRetry:     h.onRetry,
	})

	if !outcome.Success {
		return &CheckoutResult{
			State:     StateFailed,
			Err:       outcome.Err,
			Attempts:  outcome.Attempts,
			Exhausted: outcome.Exhausted,
		}, nil
	}

	confirmation := outcome.Data

	order, err := domain.NewDraft(items, subtotal, cmd.ShippingCents, confirmation.PaymentReference)
	if err != nil {
		// Payment is already captured; an invalid draft is still a partial
		// failure that needs operator attention, not a shopper retry.
		return h.partialFailure(ctx, confirmation.PaymentReference, fmt.Sprintf("build order draft: %v", err), outcome.Attempts), nil
	}

	if err := h.repo.Create(ctx, order); err != nil {
		return h.partialFailure(ctx, confirmation.PaymentReference, fmt.Sprintf("persist order: %v", err), outcome.Attempts), nil
	}

	result := &CheckoutResult{
		State:            StateSucceeded,
		Order:            &order,
		PaymentReference: confirmation.PaymentReference,
		Attempts:         outcome.Attempts,
	}

	if err := h.cart.Clear(ctx); err != nil {
		return result, fmt.Errorf("order persisted but cart not cleared: %w", err)
	}

	if err := h.events.PublishOrderPaid(ctx, order.ID); err != nil {
		return result, fmt.Errorf("order persisted but failed to publish event: %w", err)
	}

	return result, nil
}

func (h *CompleteCheckoutHandler) partialFailure(ctx context.Context, paymentReference, reason string, attempts int) *CheckoutResult {
	// Best effort: the result itself carries everything support needs.
	_ = h.events.PublishPartialFailure(ctx, paymentReference, reason)

	return &CheckoutResult{
		State:            StatePartialFailure,
		PaymentReference: paymentReference,
		Reason:           reason,
		Attempts:         attempts,
	}
}
