// Package memory provides an in-memory store useful for local development
// and tests. Transactions hold the store lock for their whole duration and
// roll back by restoring a snapshot, which gives the same serializable
// behavior the postgres adapter gets from row locks.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dkovacev/storefront/internal/orders/domain"
	"github.com/dkovacev/storefront/internal/orders/ports"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu           sync.Mutex
	products     map[int64]domain.Product
	orders       map[int64]domain.Order
	items        map[int64][]domain.OrderItem
	orderNumbers map[string]int64
	nextOrderID  int64
	nextItemID   int64
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		products:     make(map[int64]domain.Product),
		orders:       make(map[int64]domain.Order),
		items:        make(map[int64][]domain.OrderItem),
		orderNumbers: make(map[string]int64),
	}
}

// SeedProduct inserts or replaces a catalog row. Intended for fixtures.
func (s *Store) SeedProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// Product returns a copy of a seeded product, for assertions in tests.
func (s *Store) Product(id int64) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	return p, ok
}

type snapshot struct {
	products     map[int64]domain.Product
	orders       map[int64]domain.Order
	items        map[int64][]domain.OrderItem
	orderNumbers map[string]int64
	nextOrderID  int64
	nextItemID   int64
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		products:     make(map[int64]domain.Product, len(s.products)),
		orders:       make(map[int64]domain.Order, len(s.orders)),
		items:        make(map[int64][]domain.OrderItem, len(s.items)),
		orderNumbers: make(map[string]int64, len(s.orderNumbers)),
		nextOrderID:  s.nextOrderID,
		nextItemID:   s.nextItemID,
	}
	for id, p := range s.products {
		snap.products[id] = p
	}
	for id, o := range s.orders {
		snap.orders[id] = o
	}
	for id, list := range s.items {
		copied := make([]domain.OrderItem, len(list))
		copy(copied, list)
		snap.items[id] = copied
	}
	for n, id := range s.orderNumbers {
		snap.orderNumbers[n] = id
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.products = snap.products
	s.orders = snap.orders
	s.items = snap.items
	s.orderNumbers = snap.orderNumbers
	s.nextOrderID = snap.nextOrderID
	s.nextItemID = snap.nextItemID
}

// WithinTx runs fn atomically; an error restores the pre-transaction state.
func (s *Store) WithinTx(ctx context.Context, fn func(tx ports.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := s.snapshot()
	if err := fn(&tx{store: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// GetOrder fetches an order joined with its items.
func (s *Store) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrder(id)
}

func (s *Store) getOrder(id int64) (*domain.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	items := make([]domain.OrderItem, len(s.items[id]))
	copy(items, s.items[id])
	order.Items = items
	return &order, nil
}

// ListOrdersByDateRange returns summaries for orders placed in [start, end],
// ordered by order date.
func (s *Store) ListOrdersByDateRange(_ context.Context, start, end time.Time) ([]domain.OrderSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []domain.OrderSummary
	for id, order := range s.orders {
		if order.OrderDate.Before(start) || order.OrderDate.After(end) {
			continue
		}
		result = append(result, domain.OrderSummary{
			ID:          order.ID,
			OrderNumber: order.OrderNumber,
			Status:      order.Status,
			TotalAmount: order.TotalAmount,
			OrderDate:   order.OrderDate,
			ItemCount:   len(s.items[id]),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].OrderDate.Equal(result[j].OrderDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].OrderDate.Before(result[j].OrderDate)
	})

	return result, nil
}

// tx exposes the mutating operations while the store lock is held.
type tx struct {
	store *Store
}

func (t *tx) ProductsByID(_ context.Context, ids []int64) (map[int64]domain.Product, error) {
	result := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := t.store.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (t *tx) AdjustStock(_ context.Context, productID int64, delta int, at time.Time) error {
	product, ok := t.store.products[productID]
	if !ok {
		return ports.ErrNotFound
	}
	next := product.StockQuantity + delta
	if next < 0 {
		return ports.ErrInsufficientStock
	}
	product.StockQuantity = next
	product.ModifiedDate = at
	t.store.products[productID] = product
	return nil
}

func (t *tx) InsertOrder(_ context.Context, order *domain.Order) error {
	t.store.nextOrderID++
	order.ID = t.store.nextOrderID
	stored := *order
	stored.Items = nil
	t.store.orders[order.ID] = stored
	return nil
}

func (t *tx) InsertOrderItem(_ context.Context, item *domain.OrderItem) error {
	if _, ok := t.store.orders[item.OrderID]; !ok {
		return ports.ErrNotFound
	}
	t.store.nextItemID++
	item.ID = t.store.nextItemID
	t.store.items[item.OrderID] = append(t.store.items[item.OrderID], *item)
	return nil
}

func (t *tx) SetOrderTotals(_ context.Context, orderID int64, subTotal, taxAmount, discountAmount, totalAmount decimal.Decimal) error {
	order, ok := t.store.orders[orderID]
	if !ok {
		return ports.ErrNotFound
	}
	order.SubTotal = subTotal
	order.TaxAmount = taxAmount
	order.DiscountAmount = discountAmount
	order.TotalAmount = totalAmount
	t.store.orders[orderID] = order
	return nil
}

func (t *tx) SetOrderNumber(_ context.Context, orderID int64, number string) error {
	if existing, taken := t.store.orderNumbers[number]; taken && existing != orderID {
		return ports.ErrDuplicateOrderNumber
	}
	order, ok := t.store.orders[orderID]
	if !ok {
		return ports.ErrNotFound
	}
	order.OrderNumber = number
	t.store.orders[orderID] = order
	t.store.orderNumbers[number] = orderID
	return nil
}

func (t *tx) MaxOrderSequence(_ context.Context, prefix string) (int, error) {
	max := 0
	for number := range t.store.orderNumbers {
		if !strings.HasPrefix(number, prefix+"-") {
			continue
		}
		suffix := number[len(prefix)+1:]
		seq := 0
		for _, r := range suffix {
			if r < '0' || r > '9' {
				seq = 0
				break
			}
			seq = seq*10 + int(r-'0')
		}
		if seq > max {
			max = seq
		}
	}
	return max, nil
}

func (t *tx) GetOrderForUpdate(_ context.Context, id int64) (*domain.Order, error) {
	order, ok := t.store.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	copied := order
	return &copied, nil
}

func (t *tx) OrderItems(_ context.Context, orderID int64) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, len(t.store.items[orderID]))
	copy(items, t.store.items[orderID])
	return items, nil
}

func (t *tx) UpdateOrderStatus(_ context.Context, id int64, status domain.OrderStatus, completed *time.Time) error {
	order, ok := t.store.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	order.Status = status
	if completed != nil {
		order.CompletedDate = completed
	}
	t.store.orders[id] = order
	return nil
}

func (t *tx) SetPaymentDetails(_ context.Context, id int64, method domain.PaymentMethod, reference string) error {
	order, ok := t.store.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	order.PaymentMethod = method
	order.PaymentReference = reference
	t.store.orders[id] = order
	return nil
}
