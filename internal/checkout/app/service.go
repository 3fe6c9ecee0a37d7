package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mercato/storefront/internal/checkout/app/commands"
	"github.com/mercato/storefront/internal/checkout/app/queries"
	"github.com/mercato/storefront/internal/checkout/domain"
	"github.com/mercato/storefront/internal/checkout/metrics"
	"github.com/mercato/storefront/internal/checkout/ports"
)

// Service bundles the checkout use cases exposed over the API.
type Service struct {
	repo      ports.OrderRepository
	idemStore ports.IdempotencyStore
	events    ports.EventBus

	checkoutHandler commands.CommandHandler
	getOrder        *queries.GetOrderQueryHandler
	timeline        *queries.OrderTimelineQueryHandler
}

// NewService wires required dependencies.
func NewService(
	gateway ports.PaymentGateway,
	repo ports.OrderRepository,
	cart ports.CartStore,
	events ports.EventBus,
	idem ports.IdempotencyStore,
	logger *slog.Logger,
	m *metrics.Metrics,
	opts ...commands.HandlerOption,
) *Service {
	coreHandler := commands.NewCompleteCheckoutHandler(gateway, repo, cart, events, opts...)
	observableHandler := commands.NewObservableCommandHandler(coreHandler, logger, m)

	return &Service{
		repo:            repo,
		idemStore:       idem,
		events:          events,
		checkoutHandler: observableHandler,
		getOrder:        queries.NewGetOrderQueryHandler(repo),
		timeline:        queries.NewOrderTimelineQueryHandler(repo),
	}
}

// CheckoutInput captures the payload for a checkout submission.
type CheckoutInput struct {
	ClientSecret     string `json:"client_secret"`
	PaymentMethodRef string `json:"payment_method"`
	ShippingCents    int64  `json:"shipping_cents"`
}

// CompleteCheckout runs the payment-and-order orchestration.
func (s *Service) CompleteCheckout(ctx context.Context, input CheckoutInput) (*commands.CheckoutResult, error) {
	cmd := commands.CompleteCheckoutCommand{
		ClientSecret:     input.ClientSecret,
		PaymentMethodRef: input.PaymentMethodRef,
		ShippingCents:    input.ShippingCents,
	}
	return s.checkoutHandler.Handle(ctx, cmd)
}

// GetOrder retrieves an order by ID.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.getOrder.Handle(ctx, queries.GetOrderQuery{OrderID: id})
}

// ListOrders returns orders using a filter.
func (s *Service) ListOrders(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	return s.repo.List(ctx, filter)
}

// GetOrderTimeline returns the progress view for an order.
func (s *Service) GetOrderTimeline(ctx context.Context, id string) ([]queries.TimelineStep, error) {
	return s.timeline.Handle(ctx, queries.OrderTimelineQuery{OrderID: id})
}

// CancelOrder cancels an order when its current status allows it.
func (s *Service) CancelOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.AdvanceOrderStatus(ctx, id, domain.StatusCancelled, "cancelled by customer")
}

// AdvanceOrderStatus moves an order to the given status, enforcing the
// lifecycle transition table, and records the change in the status history.
func (s *Service) AdvanceOrderStatus(ctx context.Context, id string, to domain.OrderStatus, note string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := order.AdvanceStatus(to, note); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, *order); err != nil {
		return nil, err
	}

	if err := s.events.PublishOrderStatusChanged(ctx, order.ID, to); err != nil {
		return order, fmt.Errorf("status updated but failed to publish event: %w", err)
	}

	return order, nil
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}
