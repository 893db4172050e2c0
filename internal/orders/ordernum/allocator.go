// Package ordernum produces human-readable, date-scoped order numbers of the
// form ORD-YYYYMMDD-NNNN.
package ordernum

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const prefix = "ORD"

// MaxDailySequence is the highest sequence the 4-digit suffix can carry.
// Issuing beyond it would produce a 5-digit suffix that the last-4-chars
// readers mis-parse, so allocation refuses to pass it.
const MaxDailySequence = 9999

var pattern = regexp.MustCompile(`^ORD-\d{8}-\d{4}$`)

// Allocator formats order numbers for the current date. The clock is
// injected so tests can pin the day.
type Allocator struct {
	now func() time.Time
}

// NewAllocator constructs an Allocator using the given clock. A nil clock
// defaults to time.Now in UTC.
func NewAllocator(now func() time.Time) *Allocator {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Allocator{now: now}
}

// DatePrefix returns today's prefix, e.g. "ORD-20260831". Storage lookups
// for the highest issued sequence are scoped to this prefix.
func (a *Allocator) DatePrefix() string {
	return prefix + "-" + a.now().Format("20060102")
}

// Format composes a full order number from a date prefix and a sequence,
// zero-padded to four digits. The first order of a day is sequence 1.
func Format(datePrefix string, seq int) string {
	return fmt.Sprintf("%s-%04d", datePrefix, seq)
}

// Valid reports whether s matches the order-number pattern.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// Sequence extracts the numeric suffix of an order number. It returns 0 for
// strings that do not carry a parseable suffix.
func Sequence(orderNumber string) int {
	if len(orderNumber) < 4 {
		return 0
	}
	n, err := strconv.Atoi(orderNumber[len(orderNumber)-4:])
	if err != nil {
		return 0
	}
	return n
}
