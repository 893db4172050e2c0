package ports

import (
	"context"
	"errors"
	"time"

	"github.com/dkovacev/storefront/internal/orders/domain"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateOrderNumber signals the unique constraint on order_number
	// fired; the caller re-runs the transaction with a fresh sequence.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")

	// ErrInsufficientStock signals a conditional stock decrement would have
	// taken a product below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Store exposes persistence operations required by the application layer.
// WithinTx runs fn inside a single transaction; any error from fn rolls the
// whole unit back.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrdersByDateRange(ctx context.Context, start, end time.Time) ([]domain.OrderSummary, error)
}

// Tx is the set of operations available inside one atomic unit. Product reads
// take row locks so a concurrent creation cannot observe stale stock.
type Tx interface {
	// ProductsByID loads the given products for update. Missing ids are
	// simply absent from the result map.
	ProductsByID(ctx context.Context, ids []int64) (map[int64]domain.Product, error)

	// AdjustStock applies delta to a product's stock and stamps its
	// modified date. A decrement that would go negative fails with
	// ErrInsufficientStock and leaves the row untouched.
	AdjustStock(ctx context.Context, productID int64, delta int, at time.Time) error

	// InsertOrder persists a new order row and fills order.ID.
	InsertOrder(ctx context.Context, order *domain.Order) error

	// InsertOrderItem persists one line and fills item.ID.
	InsertOrderItem(ctx context.Context, item *domain.OrderItem) error

	// SetOrderTotals writes the computed monetary fields onto an order.
	SetOrderTotals(ctx context.Context, orderID int64, subTotal, taxAmount, discountAmount, totalAmount decimal.Decimal) error

	// SetOrderNumber assigns the human-readable number, failing with
	// ErrDuplicateOrderNumber if another transaction claimed it first.
	SetOrderNumber(ctx context.Context, orderID int64, number string) error

	// MaxOrderSequence returns the highest sequence suffix already issued
	// for a date prefix such as "ORD-20260831", or 0 when none exist.
	MaxOrderSequence(ctx context.Context, prefix string) (int, error)

	// GetOrderForUpdate loads an order (without items) holding its row lock.
	GetOrderForUpdate(ctx context.Context, id int64) (*domain.Order, error)

	// OrderItems returns the items belonging to an order in insertion order.
	OrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error)

	// UpdateOrderStatus sets the status and, when completed is non-nil, the
	// completion timestamp.
	UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus, completed *time.Time) error

	// SetPaymentDetails records the payment method and gateway reference.
	SetPaymentDetails(ctx context.Context, id int64, method domain.PaymentMethod, reference string) error
}
