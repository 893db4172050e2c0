// Package events publishes order lifecycle events. Only the logging no-op
// publisher is wired today; a broker-backed implementation slots in behind
// the same ports.EventBus interface.
package events

import (
	"context"
	"log/slog"

	"github.com/dkovacev/storefront/internal/orders/domain"
)

// NoopEventBus logs events without sending them anywhere. Useful for local
// dev before a broker is wired.
type NoopEventBus struct{}

// NewNoopEventBus returns a new no-op event publisher.
func NewNoopEventBus() *NoopEventBus {
	return &NoopEventBus{}
}

func (n *NoopEventBus) PublishOrderCreated(_ context.Context, orderID int64, orderNumber string) error {
	slog.Debug("event::order_created", "order_id", orderID, "order_number", orderNumber)
	return nil
}

func (n *NoopEventBus) PublishOrderStatusChanged(_ context.Context, orderID int64, from, to domain.OrderStatus) error {
	slog.Debug("event::order_status_changed", "order_id", orderID, "from", from, "to", to)
	return nil
}

func (n *NoopEventBus) PublishPaymentProcessed(_ context.Context, orderID int64, approved bool) error {
	slog.Debug("event::payment_processed", "order_id", orderID, "approved", approved)
	return nil
}
