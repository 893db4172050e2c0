package adapters

import (
	"context"
	"time"

	"github.com/dkovacev/storefront/internal/database"
	"github.com/dkovacev/storefront/internal/orders/domain"
	"github.com/dkovacev/storefront/internal/orders/ports"
	"github.com/dkovacev/storefront/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableStore wraps a ports.Store with tracing and query metrics.
// Operations inside a transaction are traced as one span; the fine-grained
// Tx calls stay unwrapped to keep the hot path cheap.
type ObservableStore struct {
	store   ports.Store
	metrics *database.Metrics
}

func NewObservableStore(store ports.Store, metrics *database.Metrics) *ObservableStore {
	return &ObservableStore{
		store:   store,
		metrics: metrics,
	}
}

func (s *ObservableStore) WithinTx(ctx context.Context, fn func(tx ports.Tx) error) error {
	ctx, span := telemetry.StartSpan(ctx, "Store.WithinTx")
	defer span.End()

	start := time.Now()
	err := s.store.WithinTx(ctx, fn)

	s.metrics.RecordQuery(ctx, "within_tx", time.Since(start), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (s *ObservableStore) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "Store.GetOrder")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.Int64("order.id", id),
		attribute.String("operation", "get_order"),
	)

	start := time.Now()
	order, err := s.store.GetOrder(ctx, id)

	s.metrics.RecordQuery(ctx, "get_order", time.Since(start), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.SetSpanSuccess(span)
	return order, nil
}

func (s *ObservableStore) ListOrdersByDateRange(ctx context.Context, start, end time.Time) ([]domain.OrderSummary, error) {
	ctx, span := telemetry.StartSpan(ctx, "Store.ListOrdersByDateRange")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("operation", "list_orders_by_date_range"),
	)

	began := time.Now()
	summaries, err := s.store.ListOrdersByDateRange(ctx, start, end)

	s.metrics.RecordQuery(ctx, "list_orders_by_date_range", time.Since(began), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.SetSpanSuccess(span)
	return summaries, nil
}
