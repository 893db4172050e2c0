// Package stock validates and mutates per-product available quantity. All
// operations run against an already-open transaction so a failure partway
// through a reservation unwinds together with the rest of the order.
package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dkovacev/storefront/internal/orders/domain"
	"github.com/dkovacev/storefront/internal/orders/ports"
)

// Line is one product/quantity pair of a reservation request. Quantities for
// repeated product ids must already be merged by the caller.
type Line struct {
	ProductID int64
	Quantity  int
}

// Tx is the slice of the storage transaction the ledger needs.
type Tx interface {
	ProductsByID(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	AdjustStock(ctx context.Context, productID int64, delta int, at time.Time) error
	OrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error)
}

// Ledger implements the validate/reserve/restore stock operations.
type Ledger struct {
	now func() time.Time
}

// NewLedger constructs a Ledger. A nil clock defaults to time.Now in UTC.
func NewLedger(now func() time.Time) *Ledger {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Ledger{now: now}
}

// ValidateAvailability loads every referenced product and checks stock
// without mutating anything. Missing or inactive products are aggregated
// into a single NotFoundError listing all offending ids; the first product
// with insufficient stock (in id order, for determinism) yields a
// ConflictError carrying the per-product detail.
func (l *Ledger) ValidateAvailability(ctx context.Context, tx Tx, lines []Line) (map[int64]domain.Product, error) {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	products, err := tx.ProductsByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	var missing []int64
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok || !product.IsActive {
			missing = append(missing, line.ProductID)
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return nil, &domain.NotFoundError{Entity: "product", IDs: missing}
	}

	sorted := make([]Line, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	for _, line := range sorted {
		product := products[line.ProductID]
		if product.StockQuantity < line.Quantity {
			return nil, &domain.ConflictError{Err: &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Available: product.StockQuantity,
				Requested: line.Quantity,
			}}
		}
	}

	return products, nil
}

// Reserve decrements stock for each line and stamps the modified date. It
// must only run after ValidateAvailability succeeded for the same lines in
// the same transaction. The decrement itself is conditional at the storage
// layer, so a concurrent depletion surfaces as a stock conflict instead of a
// negative quantity.
func (l *Ledger) Reserve(ctx context.Context, tx Tx, lines []Line) error {
	at := l.now()
	for _, line := range lines {
		err := tx.AdjustStock(ctx, line.ProductID, -line.Quantity, at)
		if err == nil {
			continue
		}
		if errors.Is(err, ports.ErrInsufficientStock) {
			detail := &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
			}
			if products, perr := tx.ProductsByID(ctx, []int64{line.ProductID}); perr == nil {
				if p, ok := products[line.ProductID]; ok {
					detail.Available = p.StockQuantity
				}
			}
			return &domain.ConflictError{Err: detail}
		}
		return fmt.Errorf("reserve stock for product %d: %w", line.ProductID, err)
	}
	return nil
}

// Restore re-credits the quantities reserved by an order's items. Callers
// invoke it at most once per cancellation, guarded by the order's prior
// status; the ledger itself does not track whether it already ran.
func (l *Ledger) Restore(ctx context.Context, tx Tx, orderID int64) error {
	items, err := tx.OrderItems(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load items for order %d: %w", orderID, err)
	}

	at := l.now()
	for _, item := range items {
		if err := tx.AdjustStock(ctx, item.ProductID, item.Quantity, at); err != nil {
			return fmt.Errorf("restore stock for product %d: %w", item.ProductID, err)
		}
	}
	return nil
}
