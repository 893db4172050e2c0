package queries

import (
	"context"
	"time"

	"github.com/dkovacev/storefront/internal/orders/domain"
	"github.com/dkovacev/storefront/internal/orders/ports"
)

// ListOrdersByDateRangeQuery asks for order summaries with an order date
// inside [Start, End].
type ListOrdersByDateRangeQuery struct {
	Start time.Time
	End   time.Time
}

// Validate rejects empty or inverted ranges.
func (q ListOrdersByDateRangeQuery) Validate() error {
	if q.Start.IsZero() || q.End.IsZero() {
		return domain.Validationf("start and end are required")
	}
	if q.End.Before(q.Start) {
		return domain.Validationf("end must not be before start")
	}
	return nil
}

// ListOrdersByDateRangeQueryHandler resolves date-range listings.
type ListOrdersByDateRangeQueryHandler struct {
	store ports.Store
}

// NewListOrdersByDateRangeQueryHandler constructs the handler.
func NewListOrdersByDateRangeQueryHandler(store ports.Store) *ListOrdersByDateRangeQueryHandler {
	return &ListOrdersByDateRangeQueryHandler{store: store}
}

// Handle returns the summaries ordered by order date.
func (h *ListOrdersByDateRangeQueryHandler) Handle(ctx context.Context, query ListOrdersByDateRangeQuery) ([]domain.OrderSummary, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return h.store.ListOrdersByDateRange(ctx, query.Start, query.End)
}
