//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkovacev/storefront/internal/database"
	"github.com/dkovacev/storefront/internal/orders/adapters/postgres"
	"github.com/dkovacev/storefront/internal/orders/domain"
	"github.com/dkovacev/storefront/internal/orders/ports"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	testpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := testpostgres.Run(ctx,
		"postgres:16-alpine",
		testpostgres.WithDatabase("test"),
		testpostgres.WithUsername("test"),
		testpostgres.WithPassword("test"),
		testpostgres.BasicWaitStrategies(),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	projectRoot := findProjectRoot(t)
	migrationsPath := filepath.Join(projectRoot, "migrations")

	if err := database.RunMigrations(connStr, migrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	pool, err := database.NewPool(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
	})

	return pool
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

func seedTestProduct(t *testing.T, pool *pgxpool.Pool, sku string, price string, qty int) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO products (sku, name, price, stock_quantity, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id
	`, sku, "test product", price, qty).Scan(&id)
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return id
}

func insertTestOrder(t *testing.T, store *postgres.Store, productID int64, qty int) int64 {
	t.Helper()

	var orderID int64
	err := store.WithinTx(context.Background(), func(tx ports.Tx) error {
		order := &domain.Order{
			Status:        domain.StatusPending,
			PaymentMethod: domain.PaymentCash,
			OrderDate:     time.Now().UTC(),
		}
		if err := tx.InsertOrder(context.Background(), order); err != nil {
			return err
		}
		item := &domain.OrderItem{
			OrderID:   order.ID,
			ProductID: productID,
			Quantity:  qty,
			UnitPrice: decimal.NewFromInt(10),
			LineTotal: decimal.NewFromInt(10).Mul(decimal.NewFromInt(int64(qty))),
		}
		if err := tx.InsertOrderItem(context.Background(), item); err != nil {
			return err
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		t.Fatalf("failed to insert order: %v", err)
	}
	return orderID
}

func TestStoreOrderRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewStore(pool)
	ctx := context.Background()

	productID := seedTestProduct(t, pool, "SKU-RT", "10.00", 50)
	orderID := insertTestOrder(t, store, productID, 2)

	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("failed to retrieve order: %v", err)
	}

	if order.Status != domain.StatusPending {
		t.Errorf("expected status pending, got %s", order.Status)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(order.Items))
	}
	if order.Items[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", order.Items[0].Quantity)
	}
}

func TestStoreGetOrderNotFound(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewStore(pool)

	_, err := store.GetOrder(context.Background(), 424242)
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestStoreAdjustStock(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewStore(pool)
	ctx := context.Background()

	productID := seedTestProduct(t, pool, "SKU-ADJ", "10.00", 5)

	t.Run("decrements within bounds", func(t *testing.T) {
		err := store.WithinTx(ctx, func(tx ports.Tx) error {
			return tx.AdjustStock(ctx, productID, -3, time.Now().UTC())
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		var qty int
		if err := pool.QueryRow(ctx, `SELECT stock_quantity FROM products WHERE id = $1`, productID).Scan(&qty); err != nil {
			t.Fatalf("failed to read stock: %v", err)
		}
		if qty != 2 {
			t.Errorf("expected stock 2, got %d", qty)
		}
	})

	t.Run("refuses to go negative", func(t *testing.T) {
		err := store.WithinTx(ctx, func(tx ports.Tx) error {
			return tx.AdjustStock(ctx, productID, -10, time.Now().UTC())
		})
		if !errors.Is(err, ports.ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got: %v", err)
		}
	})

	t.Run("unknown product is not found", func(t *testing.T) {
		err := store.WithinTx(ctx, func(tx ports.Tx) error {
			return tx.AdjustStock(ctx, 424242, -1, time.Now().UTC())
		})
		if !errors.Is(err, ports.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got: %v", err)
		}
	})
}

func TestStoreRollbackOnError(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewStore(pool)
	ctx := context.Background()

	productID := seedTestProduct(t, pool, "SKU-RB", "10.00", 5)

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx ports.Tx) error {
		if err := tx.AdjustStock(ctx, productID, -3, time.Now().UTC()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected transaction error, got: %v", err)
	}

	var qty int
	if err := pool.QueryRow(ctx, `SELECT stock_quantity FROM products WHERE id = $1`, productID).Scan(&qty); err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	if qty != 5 {
		t.Errorf("expected stock rolled back to 5, got %d", qty)
	}
}

func TestStoreOrderNumberUniqueness(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewStore(pool)
	ctx := context.Background()

	productID := seedTestProduct(t, pool, "SKU-NUM", "10.00", 50)
	first := insertTestOrder(t, store, productID, 1)
	second := insertTestOrder(t, store, productID, 1)

	err := store.WithinTx(ctx, func(tx ports.Tx) error {
		return tx.SetOrderNumber(ctx, first, "ORD-20260315-0001")
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	err = store.WithinTx(ctx, func(tx ports.Tx) error {
		return tx.SetOrderNumber(ctx, second, "ORD-20260315-0001")
	})
	if !errors.Is(err, ports.ErrDuplicateOrderNumber) {
		t.Fatalf("expected ErrDuplicateOrderNumber, got: %v", err)
	}
}

func TestStoreMaxOrderSequence(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewStore(pool)
	ctx := context.Background()

	productID := seedTestProduct(t, pool, "SKU-SEQ", "10.00", 50)

	numbers := map[int64]string{
		insertTestOrder(t, store, productID, 1): "ORD-20260315-0001",
		insertTestOrder(t, store, productID, 1): "ORD-20260315-0007",
		insertTestOrder(t, store, productID, 1): "ORD-20260314-0042",
	}
	for orderID, number := range numbers {
		err := store.WithinTx(ctx, func(tx ports.Tx) error {
			return tx.SetOrderNumber(ctx, orderID, number)
		})
		if err != nil {
			t.Fatalf("failed to set order number: %v", err)
		}
	}

	err := store.WithinTx(ctx, func(tx ports.Tx) error {
		seq, err := tx.MaxOrderSequence(ctx, "ORD-20260315")
		if err != nil {
			return err
		}
		if seq != 7 {
			t.Errorf("expected max sequence 7, got %d", seq)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestStoreListOrdersByDateRange(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewStore(pool)
	ctx := context.Background()

	productID := seedTestProduct(t, pool, "SKU-LST", "10.00", 50)
	orderID := insertTestOrder(t, store, productID, 2)

	now := time.Now().UTC()
	summaries, err := store.ListOrdersByDateRange(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("failed to list orders: %v", err)
	}

	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].ID != orderID {
		t.Errorf("expected order %d, got %d", orderID, summaries[0].ID)
	}
	if summaries[0].ItemCount != 1 {
		t.Errorf("expected item count 1, got %d", summaries[0].ItemCount)
	}

	outside, err := store.ListOrdersByDateRange(ctx, now.Add(2*time.Hour), now.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("failed to list orders: %v", err)
	}
	if len(outside) != 0 {
		t.Errorf("expected no summaries outside the range, got %d", len(outside))
	}
}

func TestStoreUpdateOrderStatus(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewStore(pool)
	ctx := context.Background()

	productID := seedTestProduct(t, pool, "SKU-UPD", "10.00", 50)
	orderID := insertTestOrder(t, store, productID, 1)

	completed := time.Now().UTC().Truncate(time.Microsecond)
	err := store.WithinTx(ctx, func(tx ports.Tx) error {
		return tx.UpdateOrderStatus(ctx, orderID, domain.StatusCompleted, &completed)
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("failed to retrieve order: %v", err)
	}
	if order.Status != domain.StatusCompleted {
		t.Errorf("expected status completed, got %s", order.Status)
	}
	if order.CompletedDate == nil || !order.CompletedDate.Equal(completed) {
		t.Errorf("expected completed date %s, got %v", completed, order.CompletedDate)
	}

	// A later status write without a timestamp must keep the original.
	err = store.WithinTx(ctx, func(tx ports.Tx) error {
		return tx.UpdateOrderStatus(ctx, orderID, domain.StatusRefunded, nil)
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	order, err = store.GetOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("failed to retrieve order: %v", err)
	}
	if order.CompletedDate == nil || !order.CompletedDate.Equal(completed) {
		t.Errorf("expected completed date to stay %s, got %v", completed, order.CompletedDate)
	}
}

func TestStoreSetPaymentDetails(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewStore(pool)
	ctx := context.Background()

	productID := seedTestProduct(t, pool, "SKU-PAY", "10.00", 50)
	orderID := insertTestOrder(t, store, productID, 1)

	err := store.WithinTx(ctx, func(tx ports.Tx) error {
		return tx.SetPaymentDetails(ctx, orderID, domain.PaymentCreditCard, "PAY-abc123")
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("failed to retrieve order: %v", err)
	}
	if order.PaymentMethod != domain.PaymentCreditCard {
		t.Errorf("expected credit_card, got %s", order.PaymentMethod)
	}
	if order.PaymentReference != "PAY-abc123" {
		t.Errorf("expected reference PAY-abc123, got %q", order.PaymentReference)
	}
}
