package queries

import (
	"context"
	"errors"

	"github.com/dkovacev/storefront/internal/orders/domain"
	"github.com/dkovacev/storefront/internal/orders/ports"
	"github.com/shopspring/decimal"
)

// OrderTotalQuery asks for the grand total of a single order.
type OrderTotalQuery struct {
	OrderID int64
}

// OrderTotalQueryHandler resolves an order's persisted total amount.
type OrderTotalQueryHandler struct {
	store ports.Store
}

// NewOrderTotalQueryHandler constructs the handler.
func NewOrderTotalQueryHandler(store ports.Store) *OrderTotalQueryHandler {
	return &OrderTotalQueryHandler{store: store}
}

// Handle returns the stored total. Totals are written once at creation, so
// no recomputation happens here.
func (h *OrderTotalQueryHandler) Handle(ctx context.Context, query OrderTotalQuery) (decimal.Decimal, error) {
	if query.OrderID <= 0 {
		return decimal.Zero, domain.Validationf("order_id is required")
	}

	order, err := h.store.GetOrder(ctx, query.OrderID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return decimal.Zero, &domain.NotFoundError{Entity: "order", IDs: []int64{query.OrderID}}
		}
		return decimal.Zero, err
	}

	return order.TotalAmount, nil
}
