package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkovacev/storefront/internal/orders/domain"
	"github.com/dkovacev/storefront/internal/orders/ordernum"
	"github.com/dkovacev/storefront/internal/orders/ports"
	"github.com/dkovacev/storefront/internal/orders/pricing"
	"github.com/dkovacev/storefront/internal/orders/stock"
	"github.com/shopspring/decimal"
)

// numberAllocationRetries bounds how many times a creation is re-run when
// another transaction claims the same order number first.
const numberAllocationRetries = 3

// CreateOrderItem is one requested cart line.
type CreateOrderItem struct {
	ProductID      int64
	Quantity       int
	DiscountAmount decimal.Decimal
	Notes          string
}

// CreateOrderCommand captures the payload for creating an order.
type CreateOrderCommand struct {
	CustomerID     *int64
	Items          []CreateOrderItem
	PaymentMethod  domain.PaymentMethod
	DiscountAmount decimal.Decimal
	Notes          string
}

// Validate rejects malformed requests before any storage work begins.
func (c CreateOrderCommand) Validate() error {
	if len(c.Items) == 0 {
		return domain.Validationf("order must contain at least one item")
	}
	for i, item := range c.Items {
		if item.ProductID <= 0 {
			return domain.Validationf("item %d: product_id is required", i)
		}
		if item.Quantity <= 0 {
			return domain.Validationf("item %d: quantity must be positive", i)
		}
		if item.DiscountAmount.IsNegative() {
			return domain.Validationf("item %d: discount_amount must not be negative", i)
		}
	}
	if c.DiscountAmount.IsNegative() {
		return domain.Validationf("discount_amount must not be negative")
	}
	if !domain.ValidPaymentMethod(c.PaymentMethod) {
		return domain.Validationf("unknown payment method %q", c.PaymentMethod)
	}
	return nil
}

// CommandHandler is the contract for creating orders, satisfied by the core
// handler and its observable decorator.
type CommandHandler interface {
	Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
}

// CreateOrderCommandHandler coordinates validation, stock reservation,
// pricing, order numbering and persistence as one atomic unit.
type CreateOrderCommandHandler struct {
	store   ports.Store
	ledger  *stock.Ledger
	pricer  *pricing.Engine
	numbers *ordernum.Allocator
	events  ports.EventBus
	now     func() time.Time
}

// NewCreateOrderCommandHandler wires the coordinator's collaborators.
func NewCreateOrderCommandHandler(
	store ports.Store,
	ledger *stock.Ledger,
	pricer *pricing.Engine,
	numbers *ordernum.Allocator,
	events ports.EventBus,
	now func() time.Time,
) *CreateOrderCommandHandler {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &CreateOrderCommandHandler{
		store:   store,
		ledger:  ledger,
		pricer:  pricer,
		numbers: numbers,
		events:  events,
		now:     now,
	}
}

// Handle creates the order. On any failure nothing is persisted: no order
// row, no items, no stock decrement. A duplicate order number aborts the
// transaction and the whole creation is retried with a fresh sequence.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var orderID int64
	var err error
	for attempt := 0; attempt < numberAllocationRetries; attempt++ {
		orderID, err = h.createOnce(ctx, cmd)
		if err == nil {
			break
		}
		if !errors.Is(err, ports.ErrDuplicateOrderNumber) {
			return nil, err
		}
	}
	if err != nil {
		return nil, fmt.Errorf("allocate order number: %w", err)
	}

	order, err := h.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("read back order %d: %w", orderID, err)
	}

	if err := h.events.PublishOrderCreated(ctx, order.ID, order.OrderNumber); err != nil {
		return order, fmt.Errorf("order saved but failed to publish event: %w", err)
	}

	return order, nil
}

func (h *CreateOrderCommandHandler) createOnce(ctx context.Context, cmd CreateOrderCommand) (int64, error) {
	var orderID int64

	err := h.store.WithinTx(ctx, func(tx ports.Tx) error {
		lines := mergeLines(cmd.Items)

		products, err := h.ledger.ValidateAvailability(ctx, tx, lines)
		if err != nil {
			return err
		}

		order := &domain.Order{
			CustomerID:    cmd.CustomerID,
			Status:        domain.StatusPending,
			PaymentMethod: cmd.PaymentMethod,
			OrderDate:     h.now(),
			Notes:         cmd.Notes,
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		lineTotals := make([]decimal.Decimal, 0, len(cmd.Items))
		for _, reqItem := range cmd.Items {
			product := products[reqItem.ProductID]
			lineTotal, lineDiscount := h.pricer.LineTotal(product.Price, reqItem.Quantity, reqItem.DiscountAmount)
			lineTotals = append(lineTotals, lineTotal)

			item := &domain.OrderItem{
				OrderID:        order.ID,
				ProductID:      reqItem.ProductID,
				Quantity:       reqItem.Quantity,
				UnitPrice:      product.Price,
				LineTotal:      pricing.Round(lineTotal),
				DiscountAmount: pricing.Round(lineDiscount),
				Notes:          reqItem.Notes,
			}
			if err := tx.InsertOrderItem(ctx, item); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		if err := h.ledger.Reserve(ctx, tx, lines); err != nil {
			return err
		}

		totals := h.pricer.OrderTotals(lineTotals, cmd.DiscountAmount).Rounded()
		err = tx.SetOrderTotals(ctx, order.ID,
			totals.SubTotal, totals.TaxAmount, totals.DiscountAmount, totals.TotalAmount)
		if err != nil {
			return fmt.Errorf("set order totals: %w", err)
		}

		prefix := h.numbers.DatePrefix()
		seq, err := tx.MaxOrderSequence(ctx, prefix)
		if err != nil {
			return fmt.Errorf("read max order sequence: %w", err)
		}
		if seq >= ordernum.MaxDailySequence {
			return fmt.Errorf("order number capacity for %s exhausted", prefix)
		}
		if err := tx.SetOrderNumber(ctx, order.ID, ordernum.Format(prefix, seq+1)); err != nil {
			return err
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	return orderID, nil
}

// mergeLines combines repeated product ids so availability is checked
// against the combined quantity, not per line.
func mergeLines(items []CreateOrderItem) []stock.Line {
	index := make(map[int64]int, len(items))
	lines := make([]stock.Line, 0, len(items))
	for _, item := range items {
		if pos, ok := index[item.ProductID]; ok {
			lines[pos].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(lines)
		lines = append(lines, stock.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}
