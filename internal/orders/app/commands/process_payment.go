package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkovacev/storefront/internal/orders/domain"
	"github.com/dkovacev/storefront/internal/orders/metrics"
	"github.com/dkovacev/storefront/internal/orders/payment"
	"github.com/dkovacev/storefront/internal/orders/ports"
)

// ProcessPaymentCommand requests payment authorization for a pending order.
type ProcessPaymentCommand struct {
	OrderID   int64
	Method    domain.PaymentMethod
	Reference string
}

// Validate checks the command shape.
func (c ProcessPaymentCommand) Validate() error {
	if c.OrderID <= 0 {
		return domain.Validationf("order_id is required")
	}
	if !domain.ValidPaymentMethod(c.Method) {
		return domain.Validationf("unknown payment method %q", c.Method)
	}
	return nil
}

// PaymentResult reports the authorization outcome. A declined payment is a
// normal result: the order stays pending and the caller may retry.
type PaymentResult struct {
	Approved  bool
	Reference string
	Order     *domain.Order
}

// ProcessPaymentCommandHandler runs the gateway call and, on approval, moves
// the order from pending to processing with the payment details recorded.
// The gateway is invoked outside the transaction: its simulated latency must
// not hold database locks.
type ProcessPaymentCommandHandler struct {
	store      ports.Store
	authorizer payment.Authorizer
	events     ports.EventBus
	metrics    *metrics.Metrics
}

// NewProcessPaymentCommandHandler wires the handler's dependencies. Metrics
// may be nil in tests.
func NewProcessPaymentCommandHandler(
	store ports.Store,
	authorizer payment.Authorizer,
	events ports.EventBus,
	m *metrics.Metrics,
) *ProcessPaymentCommandHandler {
	return &ProcessPaymentCommandHandler{
		store:      store,
		authorizer: authorizer,
		events:     events,
		metrics:    m,
	}
}

// Handle authorizes payment for the order. Only pending orders accept
// payment; anything else is a conflict.
func (h *ProcessPaymentCommandHandler) Handle(ctx context.Context, cmd ProcessPaymentCommand) (*PaymentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	order, err := h.store.GetOrder(ctx, cmd.OrderID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, &domain.NotFoundError{Entity: "order", IDs: []int64{cmd.OrderID}}
		}
		return nil, fmt.Errorf("load order %d: %w", cmd.OrderID, err)
	}
	if order.Status != domain.StatusPending {
		return nil, domain.Conflictf("cannot process payment for order %d in status %s",
			cmd.OrderID, order.Status)
	}

	auth, err := h.authorizer.Authorize(ctx, order.TotalAmount, cmd.Method)
	if err != nil {
		return nil, fmt.Errorf("authorize payment for order %d: %w", cmd.OrderID, err)
	}

	if !auth.Approved {
		if h.metrics != nil {
			h.metrics.RecordPayment(ctx, false)
		}
		if err := h.events.PublishPaymentProcessed(ctx, cmd.OrderID, false); err != nil {
			return nil, fmt.Errorf("publish payment event: %w", err)
		}
		return &PaymentResult{Approved: false, Order: order}, nil
	}

	reference := cmd.Reference
	if reference == "" {
		reference = auth.Reference
	}

	err = h.store.WithinTx(ctx, func(tx ports.Tx) error {
		current, err := tx.GetOrderForUpdate(ctx, cmd.OrderID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return &domain.NotFoundError{Entity: "order", IDs: []int64{cmd.OrderID}}
			}
			return fmt.Errorf("load order %d: %w", cmd.OrderID, err)
		}
		// Someone may have cancelled or completed the order while the
		// gateway call was in flight.
		if current.Status != domain.StatusPending {
			return domain.Conflictf("cannot process payment for order %d in status %s",
				cmd.OrderID, current.Status)
		}

		if err := tx.SetPaymentDetails(ctx, cmd.OrderID, cmd.Method, reference); err != nil {
			return fmt.Errorf("set payment details: %w", err)
		}
		if err := tx.UpdateOrderStatus(ctx, cmd.OrderID, domain.StatusProcessing, nil); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := h.store.GetOrder(ctx, cmd.OrderID)
	if err != nil {
		return nil, fmt.Errorf("read back order %d: %w", cmd.OrderID, err)
	}

	if h.metrics != nil {
		h.metrics.RecordPayment(ctx, true)
	}
	if err := h.events.PublishPaymentProcessed(ctx, cmd.OrderID, true); err != nil {
		return nil, fmt.Errorf("publish payment event: %w", err)
	}

	return &PaymentResult{Approved: true, Reference: reference, Order: updated}, nil
}
