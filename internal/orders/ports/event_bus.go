package ports

import (
	"context"

	"github.com/dkovacev/storefront/internal/orders/domain"
)

// EventBus defines the contract for publishing order lifecycle events.
type EventBus interface {
	PublishOrderCreated(ctx context.Context, orderID int64, orderNumber string) error
	PublishOrderStatusChanged(ctx context.Context, orderID int64, from, to domain.OrderStatus) error
	PublishPaymentProcessed(ctx context.Context, orderID int64, approved bool) error
}
