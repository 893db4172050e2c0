package pricing_test

import (
	"testing"

	"github.com/dkovacev/storefront/internal/orders/pricing"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLineTotal(t *testing.T) {
	engine := pricing.NewEngine(dec("0.08"))

	t.Run("multiplies unit price by quantity", func(t *testing.T) {
		got, _ := engine.LineTotal(dec("10.00"), 2, decimal.Zero)

		if !got.Equal(dec("20.00")) {
			t.Errorf("expected 20.00, got %s", got)
		}
	})

	t.Run("subtracts item discount", func(t *testing.T) {
		got, discount := engine.LineTotal(dec("10.00"), 3, dec("5.00"))

		if !got.Equal(dec("25.00")) {
			t.Errorf("expected 25.00, got %s", got)
		}
		if !discount.Equal(dec("5.00")) {
			t.Errorf("expected effective discount 5.00, got %s", discount)
		}
	})

	t.Run("clamps discount to the gross amount", func(t *testing.T) {
		got, discount := engine.LineTotal(dec("10.00"), 1, dec("50.00"))

		if !got.Equal(decimal.Zero) {
			t.Errorf("expected 0, got %s", got)
		}
		if !discount.Equal(dec("10.00")) {
			t.Errorf("expected effective discount 10.00, got %s", discount)
		}
	})

	t.Run("treats negative discount as zero", func(t *testing.T) {
		got, discount := engine.LineTotal(dec("10.00"), 1, dec("-3.00"))

		if !got.Equal(dec("10.00")) {
			t.Errorf("expected 10.00, got %s", got)
		}
		if !discount.IsZero() {
			t.Errorf("expected effective discount 0, got %s", discount)
		}
	})

	t.Run("keeps sub-cent precision", func(t *testing.T) {
		got, _ := engine.LineTotal(dec("0.333"), 3, decimal.Zero)

		if !got.Equal(dec("0.999")) {
			t.Errorf("expected 0.999, got %s", got)
		}
	})
}

func TestOrderTotals(t *testing.T) {
	engine := pricing.NewEngine(dec("0.08"))

	t.Run("computes tax and total from line totals", func(t *testing.T) {
		totals := engine.OrderTotals([]decimal.Decimal{dec("20.00")}, decimal.Zero).Rounded()

		if !totals.SubTotal.Equal(dec("20.00")) {
			t.Errorf("expected sub total 20.00, got %s", totals.SubTotal)
		}
		if !totals.TaxAmount.Equal(dec("1.60")) {
			t.Errorf("expected tax 1.60, got %s", totals.TaxAmount)
		}
		if !totals.TotalAmount.Equal(dec("21.60")) {
			t.Errorf("expected total 21.60, got %s", totals.TotalAmount)
		}
	})

	t.Run("applies order discount before tax", func(t *testing.T) {
		totals := engine.OrderTotals([]decimal.Decimal{dec("100.00")}, dec("10.00")).Rounded()

		if !totals.DiscountAmount.Equal(dec("10.00")) {
			t.Errorf("expected discount 10.00, got %s", totals.DiscountAmount)
		}
		if !totals.TaxAmount.Equal(dec("7.20")) {
			t.Errorf("expected tax 7.20, got %s", totals.TaxAmount)
		}
		if !totals.TotalAmount.Equal(dec("97.20")) {
			t.Errorf("expected total 97.20, got %s", totals.TotalAmount)
		}
	})

	t.Run("clamps order discount to the sub total", func(t *testing.T) {
		totals := engine.OrderTotals([]decimal.Decimal{dec("5.00")}, dec("100.00")).Rounded()

		if !totals.DiscountAmount.Equal(dec("5.00")) {
			t.Errorf("expected discount clamped to 5.00, got %s", totals.DiscountAmount)
		}
		if !totals.TotalAmount.Equal(decimal.Zero) {
			t.Errorf("expected total 0, got %s", totals.TotalAmount)
		}
	})

	t.Run("total equals sub total plus tax minus discount", func(t *testing.T) {
		lines := []decimal.Decimal{dec("19.99"), dec("4.37"), dec("120.05")}
		totals := engine.OrderTotals(lines, dec("7.13"))

		want := totals.SubTotal.Add(totals.TaxAmount).Sub(totals.DiscountAmount)
		if !totals.TotalAmount.Equal(want) {
			t.Errorf("expected total %s, got %s", want, totals.TotalAmount)
		}
	})

	t.Run("rounds only at the boundary", func(t *testing.T) {
		// 0.999 * 0.08 = 0.07992; rounding the tax early would give 0.08
		// on a 1.00 sub total instead.
		totals := engine.OrderTotals([]decimal.Decimal{dec("0.999")}, decimal.Zero)

		if !totals.TaxAmount.Equal(dec("0.07992")) {
			t.Errorf("expected unrounded tax 0.07992, got %s", totals.TaxAmount)
		}

		rounded := totals.Rounded()
		if !rounded.SubTotal.Equal(dec("1.00")) {
			t.Errorf("expected rounded sub total 1.00, got %s", rounded.SubTotal)
		}
		if !rounded.TaxAmount.Equal(dec("0.08")) {
			t.Errorf("expected rounded tax 0.08, got %s", rounded.TaxAmount)
		}
	})

	t.Run("empty line list yields zero totals", func(t *testing.T) {
		totals := engine.OrderTotals(nil, decimal.Zero)

		if !totals.TotalAmount.Equal(decimal.Zero) {
			t.Errorf("expected total 0, got %s", totals.TotalAmount)
		}
	})
}

func TestRound(t *testing.T) {
	got := pricing.Round(dec("1.005"))

	if !got.Equal(dec("1.01")) {
		t.Errorf("expected 1.01, got %s", got)
	}
}
