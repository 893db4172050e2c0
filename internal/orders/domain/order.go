package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus captures the lifecycle of an order in the system.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
)

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

// CanTransition reports whether an order may move from one status to another.
// Repeating the current status is allowed only where the repeat is an
// idempotent no-op; the stock-restoration guard for a repeated cancel lives
// with the caller, keyed on the prior status.
func CanTransition(from, to OrderStatus) bool {
	switch to {
	case StatusRefunded:
		return true
	case StatusCancelled:
		return true
	case StatusCompleted:
		return from == StatusPending || from == StatusProcessing
	case StatusProcessing:
		return from == StatusPending
	case StatusPending:
		return from == StatusPending
	default:
		return false
	}
}

// PaymentMethod identifies how an order is paid.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentDebitCard    PaymentMethod = "debit_card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// ValidPaymentMethod reports whether m is a supported payment method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentBankTransfer:
		return true
	default:
		return false
	}
}

// Order represents a committed purchase with its priced line items.
type Order struct {
	ID               int64           `json:"id"`
	OrderNumber      string          `json:"order_number"`
	CustomerID       *int64          `json:"customer_id,omitempty"`
	SubTotal         decimal.Decimal `json:"sub_total"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Status           OrderStatus     `json:"status"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	OrderDate        time.Time       `json:"order_date"`
	CompletedDate    *time.Time      `json:"completed_date,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	Items            []OrderItem     `json:"items,omitempty"`
}

// OrderItem is one line of an order. UnitPrice is the product price frozen
// at creation time; it never tracks later catalog price changes.
type OrderItem struct {
	ID             int64           `json:"id"`
	OrderID        int64           `json:"order_id"`
	ProductID      int64           `json:"product_id"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	LineTotal      decimal.Decimal `json:"line_total"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Notes          string          `json:"notes,omitempty"`
}

// OrderSummary is the compact shape returned by date-range listings.
type OrderSummary struct {
	ID          int64           `json:"id"`
	OrderNumber string          `json:"order_number"`
	Status      OrderStatus     `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderDate   time.Time       `json:"order_date"`
	ItemCount   int             `json:"item_count"`
}

// IsTerminal indicates whether the order is in a terminal state.
func (o Order) IsTerminal() bool {
	switch o.Status {
	case StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}
