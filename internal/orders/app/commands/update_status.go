package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkovacev/storefront/internal/orders/domain"
	"github.com/dkovacev/storefront/internal/orders/metrics"
	"github.com/dkovacev/storefront/internal/orders/ports"
	"github.com/dkovacev/storefront/internal/orders/stock"
)

// UpdateOrderStatusCommand requests a status transition for an order.
type UpdateOrderStatusCommand struct {
	OrderID int64
	Status  domain.OrderStatus
}

// Validate ensures the command carries a known status and a usable id.
func (c UpdateOrderStatusCommand) Validate() error {
	if c.OrderID <= 0 {
		return domain.Validationf("order_id is required")
	}
	if !domain.ValidStatus(c.Status) {
		return domain.Validationf("unknown order status %q", c.Status)
	}
	return nil
}

// UpdateOrderStatusCommandHandler drives the order state machine. Each
// transition is checked against the transition table before any mutation;
// cancellation triggers stock restoration exactly once, guarded by the
// order's prior status.
type UpdateOrderStatusCommandHandler struct {
	store   ports.Store
	ledger  *stock.Ledger
	events  ports.EventBus
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewUpdateOrderStatusCommandHandler wires the handler's dependencies.
// Metrics may be nil in tests.
func NewUpdateOrderStatusCommandHandler(
	store ports.Store,
	ledger *stock.Ledger,
	events ports.EventBus,
	m *metrics.Metrics,
	now func() time.Time,
) *UpdateOrderStatusCommandHandler {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &UpdateOrderStatusCommandHandler{
		store:   store,
		ledger:  ledger,
		events:  events,
		metrics: m,
		now:     now,
	}
}

// Handle applies the transition and its side effects atomically, then
// returns the updated order with items.
func (h *UpdateOrderStatusCommandHandler) Handle(ctx context.Context, cmd UpdateOrderStatusCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var prior domain.OrderStatus

	err := h.store.WithinTx(ctx, func(tx ports.Tx) error {
		order, err := tx.GetOrderForUpdate(ctx, cmd.OrderID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return &domain.NotFoundError{Entity: "order", IDs: []int64{cmd.OrderID}}
			}
			return fmt.Errorf("load order %d: %w", cmd.OrderID, err)
		}

		prior = order.Status
		if !domain.CanTransition(prior, cmd.Status) {
			return domain.Conflictf("cannot transition order %d from %s to %s",
				cmd.OrderID, prior, cmd.Status)
		}

		// A repeated cancel is a no-op: the stock was already restored.
		if cmd.Status == domain.StatusCancelled && prior != domain.StatusCancelled {
			if err := h.ledger.Restore(ctx, tx, cmd.OrderID); err != nil {
				return err
			}
		}

		var completed *time.Time
		if cmd.Status == domain.StatusCompleted && order.CompletedDate == nil {
			at := h.now()
			completed = &at
		}

		if err := tx.UpdateOrderStatus(ctx, cmd.OrderID, cmd.Status, completed); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := h.store.GetOrder(ctx, cmd.OrderID)
	if err != nil {
		return nil, fmt.Errorf("read back order %d: %w", cmd.OrderID, err)
	}

	if h.metrics != nil && cmd.Status == domain.StatusCancelled && prior != domain.StatusCancelled {
		h.metrics.RecordOrderCancelled(ctx)
		var units int64
		for _, item := range order.Items {
			units += int64(item.Quantity)
		}
		h.metrics.RecordStockRestored(ctx, units)
	}

	if prior != cmd.Status {
		if err := h.events.PublishOrderStatusChanged(ctx, cmd.OrderID, prior, cmd.Status); err != nil {
			return order, fmt.Errorf("status updated but failed to publish event: %w", err)
		}
	}

	return order, nil
}
