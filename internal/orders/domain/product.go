package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. The order core mutates only StockQuantity and
// ModifiedDate; everything else is owned by the catalog surface.
type Product struct {
	ID            int64           `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	IsActive      bool            `json:"is_active"`
	ModifiedDate  time.Time       `json:"modified_date"`
}
