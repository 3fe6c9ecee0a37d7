package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/mercato/storefront/internal/checkout/metrics"
	"github.com/mercato/storefront/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableCommandHandler struct {
	handler CommandHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCommandHandler(handler CommandHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCommandHandler {
	return &ObservableCommandHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCommandHandler) Handle(ctx context.Context, cmd CompleteCheckoutCommand) (*CheckoutResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "CompleteCheckoutCommand.Handle")
	defer span.End()

	start := time.Now()
	state := StateFailed
	defer func() {
		duration := time.Since(start).Seconds()
		o.metrics.RecordCheckoutDuration(ctx, duration)
		o.metrics.RecordCheckout(ctx, string(state))
	}()

	o.logger.InfoContext(ctx, "starting checkout",
		"shipping_cents", cmd.ShippingCents,
	)

	result, err := o.handler.Handle(ctx, cmd)

	if err != nil && result == nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "checkout rejected", "error", err)
		return nil, err
	}

	state = result.State
	o.metrics.RecordPaymentAttempts(ctx, result.Attempts)

	telemetry.AddSpanAttributes(span,
		attribute.String("checkout.state", string(result.State)),
		attribute.Int("checkout.payment_attempts", result.Attempts),
	)

	switch result.State {
	case StateSucceeded:
		telemetry.AddSpanAttributes(span,
			attribute.String("order.id", result.Order.ID),
			attribute.Int64("order.total_cents", result.Order.TotalCents),
		)
		o.logger.InfoContext(ctx, "checkout succeeded",
			"order_id", result.Order.ID,
			"payment_attempts", result.Attempts,
		)
		telemetry.SetSpanSuccess(span)

	case StatePartialFailure:
		o.metrics.RecordPartialFailure(ctx)
		telemetry.AddSpanAttributes(span,
			attribute.String("checkout.payment_reference", result.PaymentReference),
		)
		// Highest-severity outcome: money captured, no order on record.
		o.logger.ErrorContext(ctx, "checkout partial failure, payment captured without order",
			"payment_reference", result.PaymentReference,
			"reason", result.Reason,
		)

	case StateFailed:
		o.logger.WarnContext(ctx, "checkout payment failed",
			"kind", result.Err.Kind,
			"code", result.Err.Code,
			"payment_attempts", result.Attempts,
			"exhausted", result.Exhausted,
		)
	}

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "checkout post-persistence step failed", "error", err)
	}

	return result, err
}
