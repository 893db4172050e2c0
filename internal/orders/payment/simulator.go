// Package payment stands in for an external payment gateway. The simulator
// introduces artificial latency and succeeds with a configured probability;
// both the random roll and the sleep are injectable so tests stay
// deterministic.
package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mathrand "math/rand"
	"time"

	"github.com/dkovacev/storefront/internal/orders/domain"
	"github.com/shopspring/decimal"
)

// Authorization is the outcome of a gateway call. A declined authorization
// is a normal result, not an error.
type Authorization struct {
	Approved  bool
	Reference string
}

// Authorizer models the external payment gateway.
type Authorizer interface {
	Authorize(ctx context.Context, amount decimal.Decimal, method domain.PaymentMethod) (Authorization, error)
}

// Simulator approves a configurable fraction of authorization attempts
// after a simulated network delay.
type Simulator struct {
	successRate float64
	latency     time.Duration
	roll        func() float64
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithRoll overrides the random source. The roll must return values in
// [0, 1); an authorization succeeds when roll() < successRate.
func WithRoll(roll func() float64) Option {
	return func(s *Simulator) {
		s.roll = roll
	}
}

// WithSleep overrides the latency wait, letting tests skip real time.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Simulator) {
		s.sleep = sleep
	}
}

// NewSimulator constructs a Simulator with the given success rate and
// simulated gateway latency.
func NewSimulator(successRate float64, latency time.Duration, opts ...Option) *Simulator {
	s := &Simulator{
		successRate: successRate,
		latency:     latency,
		roll:        mathrand.Float64,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize waits out the simulated latency, then returns an approved or
// declined authorization. It has no side effects beyond the result; applying
// status changes is the caller's job.
func (s *Simulator) Authorize(ctx context.Context, amount decimal.Decimal, method domain.PaymentMethod) (Authorization, error) {
	if amount.IsNegative() {
		return Authorization{}, fmt.Errorf("authorize: negative amount %s", amount)
	}

	if err := s.sleep(ctx, s.latency); err != nil {
		return Authorization{}, fmt.Errorf("authorize: %w", err)
	}

	if s.roll() >= s.successRate {
		return Authorization{Approved: false}, nil
	}

	ref, err := generateReference()
	if err != nil {
		return Authorization{}, err
	}

	return Authorization{Approved: true, Reference: ref}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func generateReference() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate payment reference: %w", err)
	}
	return "PAY-" + hex.EncodeToString(buf), nil
}
