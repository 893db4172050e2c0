package ordernum_test

import (
	"testing"
	"time"

	"github.com/dkovacev/storefront/internal/orders/ordernum"
)

func TestDatePrefix(t *testing.T) {
	clock := func() time.Time {
		return time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC)
	}
	allocator := ordernum.NewAllocator(clock)

	if got := allocator.DatePrefix(); got != "ORD-20260315" {
		t.Errorf("expected ORD-20260315, got %s", got)
	}
}

func TestFormat(t *testing.T) {
	t.Run("zero-pads the sequence", func(t *testing.T) {
		if got := ordernum.Format("ORD-20260315", 1); got != "ORD-20260315-0001" {
			t.Errorf("expected ORD-20260315-0001, got %s", got)
		}
	})

	t.Run("keeps four digits up to 9999", func(t *testing.T) {
		if got := ordernum.Format("ORD-20260315", 9999); got != "ORD-20260315-9999" {
			t.Errorf("expected ORD-20260315-9999, got %s", got)
		}
	})
}

func TestValid(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{"well-formed number", "ORD-20260315-0001", true},
		{"missing prefix", "20260315-0001", false},
		{"short sequence", "ORD-20260315-001", false},
		{"short date", "ORD-2026031-0001", false},
		{"empty string", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ordernum.Valid(tc.input); got != tc.want {
				t.Errorf("Valid(%q) = %v, expected %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestSequence(t *testing.T) {
	t.Run("extracts the numeric suffix", func(t *testing.T) {
		if got := ordernum.Sequence("ORD-20260315-0042"); got != 42 {
			t.Errorf("expected 42, got %d", got)
		}
	})

	t.Run("returns zero for garbage", func(t *testing.T) {
		if got := ordernum.Sequence("nope"); got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})
}
