package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketbridge/settlement-service/internal/domain"
)

// OrderRepository reads orders and order items. The settlement core never
// writes to the commerce tables; everything here is read-only.
//
// Aggregation methods push GROUP BY / SUM work into the database so that
// answering per-party questions never requires loading unrelated parties'
// order sets into memory.
type OrderRepository interface {
	// GetByID loads an order together with its items.
	// Returns ORDER_NOT_FOUND if the order does not exist.
	GetByID(ctx context.Context, db DBTX, id string) (*domain.Order, error)

	// ListCompletedInPeriod returns payment-completed orders (with items)
	// whose order date falls within the range, oldest first.
	ListCompletedInPeriod(ctx context.Context, db DBTX, r domain.DateRange) ([]*domain.Order, error)

	// SellerCommissionByOrder groups a seller's items on payment-completed
	// orders in range into one row per order, order date descending.
	SellerCommissionByOrder(ctx context.Context, db DBTX, sellerID string, r domain.DateRange) ([]SellerOrderCommissionRow, error)

	// SupplierRevenueByOrder mirrors SellerCommissionByOrder for suppliers,
	// summing base-price revenue and margin instead of commission.
	SupplierRevenueByOrder(ctx context.Context, db DBTX, supplierID string, r domain.DateRange) ([]SupplierOrderRevenueRow, error)

	// SellerOrderStats runs the single grouped query backing the seller
	// dashboard: distinct orders, sales, item count and commission.
	SellerOrderStats(ctx context.Context, db DBTX, sellerID string, r domain.DateRange) (*SellerOrderStats, error)

	// SupplierOrderStats mirrors SellerOrderStats with pass-through revenue.
	SupplierOrderStats(ctx context.Context, db DBTX, supplierID string, r domain.DateRange) (*SupplierOrderStats, error)

	// ListOrderSummariesForParty returns one row per order containing the
	// party, aggregated at the database level, order date descending.
	ListOrderSummariesForParty(ctx context.Context, db DBTX, party domain.PartyType, partyID string, f OrderListFilter) ([]PartyOrderSummary, error)

	// CountOrdersForParty supplies the pagination total for
	// ListOrderSummariesForParty under the same filters.
	CountOrdersForParty(ctx context.Context, db DBTX, party domain.PartyType, partyID string, f OrderListFilter) (int64, error)
}

// OrderListFilter filters and paginates party order listings
type OrderListFilter struct {
	Range  domain.DateRange
	Status domain.OrderStatus // empty matches all statuses
	Page   int                // 1-based
	Limit  int
}

// Offset converts page/limit to a row offset
func (f OrderListFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// SellerOrderCommissionRow is one order's seller-filtered aggregate
type SellerOrderCommissionRow struct {
	OrderID          string
	OrderNumber      string
	OrderDate        time.Time
	SalesAmount      decimal.Decimal
	CommissionAmount decimal.Decimal
	ItemCount        int64
}

// SupplierOrderRevenueRow is one order's supplier-filtered aggregate
type SupplierOrderRevenueRow struct {
	OrderID     string
	OrderNumber string
	OrderDate   time.Time
	Revenue     decimal.Decimal
	Margin      decimal.Decimal
	ItemCount   int64
}

// SellerOrderStats aggregates a seller's completed order items in range
type SellerOrderStats struct {
	TotalOrders     int64
	TotalSales      decimal.Decimal
	TotalItems      int64
	TotalCommission decimal.Decimal
}

// SupplierOrderStats aggregates a supplier's completed order items in range
type SupplierOrderStats struct {
	TotalOrders  int64
	TotalRevenue decimal.Decimal
	TotalItems   int64
	TotalMargin  decimal.Decimal
}

// PartyOrderSummary is one order as seen by one party: the order's own
// total plus the party-specific subset sums.
type PartyOrderSummary struct {
	OrderID     string
	OrderNumber string
	OrderDate   time.Time
	Status      domain.OrderStatus
	TotalAmount decimal.Decimal // the order's full total, not party-filtered
	PartyAmount decimal.Decimal // seller: item sales; supplier: base revenue
	ItemCount   int64
}
