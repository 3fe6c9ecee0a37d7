package adapters

import (
	"context"
	"time"

	"github.com/mercato/storefront/internal/checkout/domain"
	"github.com/mercato/storefront/internal/checkout/ports"
	"github.com/mercato/storefront/internal/events"
	"github.com/mercato/storefront/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *events.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *events.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishOrderPaid(ctx context.Context, orderID string) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishOrderPaid")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", orderID),
		attribute.String("event.type", "order.paid"),
	)

	start := time.Now()
	err := e.bus.PublishOrderPaid(ctx, orderID)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, "order.paid", duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (e *ObservableEventBus) PublishOrderStatusChanged(ctx context.Context, orderID string, status domain.OrderStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishOrderStatusChanged")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", orderID),
		attribute.String("event.type", "order.status_changed"),
		attribute.String("order.status", string(status)),
	)

	start := time.Now()
	err := e.bus.PublishOrderStatusChanged(ctx, orderID, status)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, "order.status_changed", duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (e *ObservableEventBus) PublishPartialFailure(ctx context.Context, paymentReference, reason string) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishPartialFailure")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("event.type", "checkout.partial_failure"),
		attribute.String("checkout.payment_reference", paymentReference),
		attribute.String("failure.reason", reason),
	)

	start := time.Now()
	err := e.bus.PublishPartialFailure(ctx, paymentReference, reason)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, "checkout.partial_failure", duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
