// Package pricing computes line and order totals in exact decimal
// arithmetic. Nothing here touches I/O; given the same inputs the results
// are identical.
package pricing

import (
	"github.com/shopspring/decimal"
)

// minorUnitPlaces is the precision of the default currency.
const minorUnitPlaces = 2

// Engine prices order lines and totals. The tax rate is injected so it can
// vary by deployment without a rebuild.
type Engine struct {
	taxRate decimal.Decimal
}

// NewEngine constructs an Engine with the given tax rate (e.g. "0.08").
func NewEngine(taxRate decimal.Decimal) *Engine {
	return &Engine{taxRate: taxRate}
}

// TaxRate returns the configured rate.
func (e *Engine) TaxRate() decimal.Decimal {
	return e.taxRate
}

// LineTotal computes unitPrice*quantity minus the item discount. The
// discount is clamped to [0, gross] so a line can never go negative; the
// effective discount is returned so callers persist the value that was
// actually applied.
func (e *Engine) LineTotal(unitPrice decimal.Decimal, quantity int, discount decimal.Decimal) (total, effectiveDiscount decimal.Decimal) {
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	effectiveDiscount = clamp(discount, gross)
	return gross.Sub(effectiveDiscount), effectiveDiscount
}

// Totals holds the order-level monetary fields. Values stay unrounded until
// Rounded is called, so many-line orders accumulate no rounding drift.
type Totals struct {
	SubTotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
}

// OrderTotals sums the line totals and applies the order discount and tax:
//
//	taxAmount   = (subTotal - discount) * taxRate
//	totalAmount = subTotal + taxAmount - discount
//
// The order discount is clamped to [0, subTotal].
func (e *Engine) OrderTotals(lineTotals []decimal.Decimal, orderDiscount decimal.Decimal) Totals {
	subTotal := decimal.Zero
	for _, lt := range lineTotals {
		subTotal = subTotal.Add(lt)
	}

	discount := clamp(orderDiscount, subTotal)
	taxAmount := subTotal.Sub(discount).Mul(e.taxRate)
	totalAmount := subTotal.Add(taxAmount).Sub(discount)

	return Totals{
		SubTotal:       subTotal,
		TaxAmount:      taxAmount,
		DiscountAmount: discount,
		TotalAmount:    totalAmount,
	}
}

// Rounded reports the totals at the currency's minor-unit precision. This is
// the single rounding point; callers persist and expose these values.
func (t Totals) Rounded() Totals {
	return Totals{
		SubTotal:       Round(t.SubTotal),
		TaxAmount:      Round(t.TaxAmount),
		DiscountAmount: Round(t.DiscountAmount),
		TotalAmount:    Round(t.TotalAmount),
	}
}

// Round brings a value to the currency's minor-unit precision.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(minorUnitPlaces)
}

func clamp(d, max decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(max) {
		return max
	}
	return d
}
