package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/dkovacev/storefront/internal/orders/app/commands"
	"github.com/dkovacev/storefront/internal/orders/app/queries"
	"github.com/dkovacev/storefront/internal/orders/domain"
	"github.com/dkovacev/storefront/internal/orders/metrics"
	"github.com/dkovacev/storefront/internal/orders/ordernum"
	"github.com/dkovacev/storefront/internal/orders/payment"
	"github.com/dkovacev/storefront/internal/orders/ports"
	"github.com/dkovacev/storefront/internal/orders/pricing"
	"github.com/dkovacev/storefront/internal/orders/stock"
	"github.com/shopspring/decimal"
)

// Service bundles the order use cases exposed to the transport layer.
type Service struct {
	store     ports.Store
	idemStore ports.IdempotencyStore

	createOrder    commands.CommandHandler
	updateStatus   *commands.UpdateOrderStatusCommandHandler
	processPayment *commands.ProcessPaymentCommandHandler
	getOrder       *queries.GetOrderQueryHandler
	listOrders     *queries.ListOrdersByDateRangeQueryHandler
	orderTotal     *queries.OrderTotalQueryHandler
}

// NewService wires required dependencies.
func NewService(
	store ports.Store,
	events ports.EventBus,
	idem ports.IdempotencyStore,
	pricer *pricing.Engine,
	authorizer payment.Authorizer,
	logger *slog.Logger,
	orderMetrics *metrics.Metrics,
) *Service {
	ledger := stock.NewLedger(nil)
	numbers := ordernum.NewAllocator(nil)

	coreCreate := commands.NewCreateOrderCommandHandler(store, ledger, pricer, numbers, events, nil)
	observableCreate := commands.NewObservableCommandHandler(coreCreate, logger, orderMetrics)

	return &Service{
		store:          store,
		idemStore:      idem,
		createOrder:    observableCreate,
		updateStatus:   commands.NewUpdateOrderStatusCommandHandler(store, ledger, events, orderMetrics, nil),
		processPayment: commands.NewProcessPaymentCommandHandler(store, authorizer, events, orderMetrics),
		getOrder:       queries.NewGetOrderQueryHandler(store),
		listOrders:     queries.NewListOrdersByDateRangeQueryHandler(store),
		orderTotal:     queries.NewOrderTotalQueryHandler(store),
	}
}

// CreateOrderItemInput is one cart line of a creation request.
type CreateOrderItemInput struct {
	ProductID      int64           `json:"product_id"`
	Quantity       int             `json:"quantity"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Notes          string          `json:"notes,omitempty"`
}

// CreateOrderInput captures the payload for creating an order.
type CreateOrderInput struct {
	CustomerID     *int64                 `json:"customer_id,omitempty"`
	Items          []CreateOrderItemInput `json:"items"`
	PaymentMethod  domain.PaymentMethod   `json:"payment_method"`
	DiscountAmount decimal.Decimal        `json:"discount_amount"`
	Notes          string                 `json:"notes,omitempty"`
}

// CreateOrder runs the atomic creation flow and returns the committed order.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	cmd := commands.CreateOrderCommand{
		CustomerID:     input.CustomerID,
		PaymentMethod:  input.PaymentMethod,
		DiscountAmount: input.DiscountAmount,
		Notes:          input.Notes,
	}
	for _, item := range input.Items {
		cmd.Items = append(cmd.Items, commands.CreateOrderItem{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			DiscountAmount: item.DiscountAmount,
			Notes:          item.Notes,
		})
	}
	return s.createOrder.Handle(ctx, cmd)
}

// GetOrder retrieves an order with its items.
func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.getOrder.Handle(ctx, queries.GetOrderQuery{OrderID: id})
}

// ListOrdersByDateRange returns summaries for orders placed inside the range.
func (s *Service) ListOrdersByDateRange(ctx context.Context, start, end time.Time) ([]domain.OrderSummary, error) {
	return s.listOrders.Handle(ctx, queries.ListOrdersByDateRangeQuery{Start: start, End: end})
}

// UpdateOrderStatus applies a lifecycle transition.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	return s.updateStatus.Handle(ctx, commands.UpdateOrderStatusCommand{OrderID: id, Status: status})
}

// ProcessPayment runs payment authorization for a pending order.
func (s *Service) ProcessPayment(ctx context.Context, id int64, method domain.PaymentMethod, reference string) (*commands.PaymentResult, error) {
	return s.processPayment.Handle(ctx, commands.ProcessPaymentCommand{
		OrderID:   id,
		Method:    method,
		Reference: reference,
	})
}

// CalculateOrderTotal returns the persisted grand total for an order.
func (s *Service) CalculateOrderTotal(ctx context.Context, id int64) (decimal.Decimal, error) {
	return s.orderTotal.Handle(ctx, queries.OrderTotalQuery{OrderID: id})
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}
