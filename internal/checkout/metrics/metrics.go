package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	checkoutsTotal       metric.Int64Counter
	checkoutDuration     metric.Float64Histogram
	paymentAttempts      metric.Int64Histogram
	partialFailuresTotal metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.checkoutsTotal, err = meter.Int64Counter(
		"checkouts_total",
		metric.WithDescription("Total number of checkout flows by terminal state"),
		metric.WithUnit("{checkout}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create checkouts_total counter: %w", err)
	}

	m.checkoutDuration, err = meter.Float64Histogram(
		"checkout_duration_seconds",
		metric.WithDescription("Duration of complete checkout flows"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create checkout_duration histogram: %w", err)
	}

	m.paymentAttempts, err = meter.Int64Histogram(
		"checkout_payment_attempts",
		metric.WithDescription("Payment confirmation attempts per checkout"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create checkout_payment_attempts histogram: %w", err)
	}

	m.partialFailuresTotal, err = meter.Int64Counter(
		"checkout_partial_failures_total",
		metric.WithDescription("Checkouts where payment was captured but the order was not persisted"),
		metric.WithUnit("{checkout}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create checkout_partial_failures_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordCheckout(ctx context.Context, state string) {
	m.checkoutsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("state", state),
	))
}

func (m *Metrics) RecordCheckoutDuration(ctx context.Context, durationSeconds float64) {
	m.checkoutDuration.Record(ctx, durationSeconds)
}

func (m *Metrics) RecordPaymentAttempts(ctx context.Context, attempts int) {
	m.paymentAttempts.Record(ctx, int64(attempts))
}

func (m *Metrics) RecordPartialFailure(ctx context.Context) {
	m.partialFailuresTotal.Add(ctx, 1)
}
