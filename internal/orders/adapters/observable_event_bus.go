package adapters

import (
	"context"
	"time"

	"github.com/dkovacev/storefront/internal/events"
	"github.com/dkovacev/storefront/internal/orders/domain"
	"github.com/dkovacev/storefront/internal/orders/ports"
	"github.com/dkovacev/storefront/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableEventBus wraps an EventBus with tracing and publish metrics.
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

func (e *ObservableEventBus) PublishOrderCreated(ctx context.Context, orderID int64, orderNumber string) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishOrderCreated")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.Int64("order.id", orderID),
		attribute.String("order.number", orderNumber),
		attribute.String("event.type", "order.created"),
	)

	start := time.Now()
	err := e.bus.PublishOrderCreated(ctx, orderID, orderNumber)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, "order.created", duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (e *ObservableEventBus) PublishOrderStatusChanged(ctx context.Context, orderID int64, from, to domain.OrderStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishOrderStatusChanged")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.Int64("order.id", orderID),
		attribute.String("event.type", "order.status_changed"),
		attribute.String("status.from", string(from)),
		attribute.String("status.to", string(to)),
	)

	start := time.Now()
	err := e.bus.PublishOrderStatusChanged(ctx, orderID, from, to)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, "order.status_changed", duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (e *ObservableEventBus) PublishPaymentProcessed(ctx context.Context, orderID int64, approved bool) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishPaymentProcessed")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.Int64("order.id", orderID),
		attribute.String("event.type", "order.payment_processed"),
		attribute.Bool("payment.approved", approved),
	)

	start := time.Now()
	err := e.bus.PublishPaymentProcessed(ctx, orderID, approved)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, "order.payment_processed", duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
