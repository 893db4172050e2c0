package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkovacev/storefront/internal/orders/domain"
	"github.com/dkovacev/storefront/internal/orders/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// uniqueViolation is the postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithinTx runs fn inside a single database transaction and rolls the whole
// unit back on any error.
func (s *Store) WithinTx(ctx context.Context, fn func(tx ports.Tx) error) error {
	pgtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = pgtx.Rollback(ctx) }()

	if err := fn(&tx{q: pgtx}); err != nil {
		return err
	}

	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	query := `
		SELECT id, COALESCE(order_number, ''), customer_id,
		       sub_total, tax_amount, discount_amount, total_amount,
		       status, payment_method, COALESCE(payment_reference, ''),
		       order_date, completed_date, COALESCE(notes, '')
		FROM orders
		WHERE id = $1
	`

	var order domain.Order
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.CustomerID,
		&order.SubTotal,
		&order.TaxAmount,
		&order.DiscountAmount,
		&order.TotalAmount,
		&order.Status,
		&order.PaymentMethod,
		&order.PaymentReference,
		&order.OrderDate,
		&order.CompletedDate,
		&order.Notes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	items, err := queryOrderItems(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (s *Store) ListOrdersByDateRange(ctx context.Context, start, end time.Time) ([]domain.OrderSummary, error) {
	query := `
		SELECT o.id, COALESCE(o.order_number, ''), o.status, o.total_amount, o.order_date,
		       COUNT(i.id)
		FROM orders o
		LEFT JOIN order_items i ON i.order_id = o.id
		WHERE o.order_date >= $1 AND o.order_date <= $2
		GROUP BY o.id
		ORDER BY o.order_date, o.id
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query orders by date range: %w", err)
	}
	defer rows.Close()

	var summaries []domain.OrderSummary
	for rows.Next() {
		var summary domain.OrderSummary
		if err := rows.Scan(
			&summary.ID,
			&summary.OrderNumber,
			&summary.Status,
			&summary.TotalAmount,
			&summary.OrderDate,
			&summary.ItemCount,
		); err != nil {
			return nil, fmt.Errorf("scan order summary: %w", err)
		}
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order summaries: %w", err)
	}

	return summaries, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func queryOrderItems(ctx context.Context, q querier, orderID int64) ([]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price, line_total,
		       discount_amount, COALESCE(notes, '')
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.LineTotal,
			&item.DiscountAmount,
			&item.Notes,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

type tx struct {
	q pgx.Tx
}

// ProductsByID loads products holding row locks until commit, so stock reads
// stay consistent with the decrement that follows.
func (t *tx) ProductsByID(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	query := `
		SELECT id, sku, name, price, stock_quantity, is_active, modified_date
		FROM products
		WHERE id = ANY($1)
		FOR UPDATE
	`

	rows, err := t.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make(map[int64]domain.Product)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.SKU,
			&p.Name,
			&p.Price,
			&p.StockQuantity,
			&p.IsActive,
			&p.ModifiedDate,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

// AdjustStock is a conditional update: the predicate keeps stock_quantity
// from ever dipping below zero, even under concurrent reservations.
func (t *tx) AdjustStock(ctx context.Context, productID int64, delta int, at time.Time) error {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, modified_date = $3
		WHERE id = $1 AND stock_quantity + $2 >= 0
	`

	result, err := t.q.Exec(ctx, query, productID, delta, at)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	if result.RowsAffected() == 0 {
		var exists bool
		if err := t.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
			return fmt.Errorf("check product existence: %w", err)
		}
		if !exists {
			return ports.ErrNotFound
		}
		return ports.ErrInsufficientStock
	}
	return nil
}

func (t *tx) InsertOrder(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (customer_id, sub_total, tax_amount, discount_amount, total_amount,
		                    status, payment_method, order_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := t.q.QueryRow(ctx, query,
		order.CustomerID,
		order.SubTotal,
		order.TaxAmount,
		order.DiscountAmount,
		order.TotalAmount,
		order.Status,
		order.PaymentMethod,
		order.OrderDate,
		nullIfEmpty(order.Notes),
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (t *tx) InsertOrderItem(ctx context.Context, item *domain.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price, line_total,
		                         discount_amount, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := t.q.QueryRow(ctx, query,
		item.OrderID,
		item.ProductID,
		item.Quantity,
		item.UnitPrice,
		item.LineTotal,
		item.DiscountAmount,
		nullIfEmpty(item.Notes),
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (t *tx) SetOrderTotals(ctx context.Context, orderID int64, subTotal, taxAmount, discountAmount, totalAmount decimal.Decimal) error {
	query := `
		UPDATE orders
		SET sub_total = $2, tax_amount = $3, discount_amount = $4, total_amount = $5
		WHERE id = $1
	`

	result, err := t.q.Exec(ctx, query, orderID, subTotal, taxAmount, discountAmount, totalAmount)
	if err != nil {
		return fmt.Errorf("set order totals: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (t *tx) SetOrderNumber(ctx context.Context, orderID int64, number string) error {
	query := `
		UPDATE orders
		SET order_number = $2
		WHERE id = $1
	`

	result, err := t.q.Exec(ctx, query, orderID, number)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ports.ErrDuplicateOrderNumber
		}
		return fmt.Errorf("set order number: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// MaxOrderSequence reads the 4-digit suffix, so a day holds at most
// ordernum.MaxDailySequence orders; allocation stops before exceeding it.
func (t *tx) MaxOrderSequence(ctx context.Context, prefix string) (int, error) {
	query := `
		SELECT COALESCE(MAX(CAST(RIGHT(order_number, 4) AS INTEGER)), 0)
		FROM orders
		WHERE order_number LIKE $1 || '-%'
	`

	var max int
	if err := t.q.QueryRow(ctx, query, prefix).Scan(&max); err != nil {
		return 0, fmt.Errorf("select max order sequence: %w", err)
	}
	return max, nil
}

func (t *tx) GetOrderForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	query := `
		SELECT id, COALESCE(order_number, ''), customer_id,
		       sub_total, tax_amount, discount_amount, total_amount,
		       status, payment_method, COALESCE(payment_reference, ''),
		       order_date, completed_date, COALESCE(notes, '')
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`

	var order domain.Order
	err := t.q.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.CustomerID,
		&order.SubTotal,
		&order.TaxAmount,
		&order.DiscountAmount,
		&order.TotalAmount,
		&order.Status,
		&order.PaymentMethod,
		&order.PaymentReference,
		&order.OrderDate,
		&order.CompletedDate,
		&order.Notes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select order for update: %w", err)
	}

	return &order, nil
}

func (t *tx) OrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	return queryOrderItems(ctx, t.q, orderID)
}

func (t *tx) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus, completed *time.Time) error {
	query := `
		UPDATE orders
		SET status = $2, completed_date = COALESCE($3, completed_date)
		WHERE id = $1
	`

	result, err := t.q.Exec(ctx, query, id, status, completed)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (t *tx) SetPaymentDetails(ctx context.Context, id int64, method domain.PaymentMethod, reference string) error {
	query := `
		UPDATE orders
		SET payment_method = $2, payment_reference = $3
		WHERE id = $1
	`

	result, err := t.q.Exec(ctx, query, id, method, nullIfEmpty(reference))
	if err != nil {
		return fmt.Errorf("set payment details: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
