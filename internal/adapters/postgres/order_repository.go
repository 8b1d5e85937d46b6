package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/marketbridge/settlement-service/internal/domain"
	"github.com/marketbridge/settlement-service/internal/domain/ports"
)

// OrderRepository implements ports.OrderRepository over the commerce tables
type OrderRepository struct {
	db ports.DBPort
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db ports.DBPort) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// GetByID loads an order with its items
func (r *OrderRepository) GetByID(ctx context.Context, db ports.DBTX, id string) (*domain.Order, error) {
	q := r.executor(db)

	const orderQuery = `
		SELECT id::text, order_number, buyer_id::text, order_date, status, payment_status,
			total_amount, created_at, updated_at
		FROM orders
		WHERE id = $1::uuid
	`

	var (
		order  domain.Order
		amount pgtype.Numeric
	)
	err := q.QueryRow(ctx, orderQuery, id).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.BuyerID,
		&order.OrderDate,
		&order.Status,
		&order.PaymentStatus,
		&amount,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	if order.TotalAmount, err = numericToDecimal(amount); err != nil {
		return nil, fmt.Errorf("order total: %w", err)
	}

	items, err := r.listItems(ctx, q, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

const itemColumns = `id::text, order_id::text, product_id::text, product_name,
			seller_id::text, supplier_id::text, quantity,
			unit_price, total_price, base_price_snapshot, sale_price_snapshot,
			commission_amount, partner_id::text, created_at`

func scanOrderItem(rows pgx.Rows) (domain.OrderItem, error) {
	var (
		item      domain.OrderItem
		unit      pgtype.Numeric
		total     pgtype.Numeric
		base      pgtype.Numeric
		sale      pgtype.Numeric
		comm      pgtype.Numeric
		partnerID pgtype.Text
	)
	err := rows.Scan(
		&item.ID,
		&item.OrderID,
		&item.ProductID,
		&item.ProductName,
		&item.SellerID,
		&item.SupplierID,
		&item.Quantity,
		&unit,
		&total,
		&base,
		&sale,
		&comm,
		&partnerID,
		&item.CreatedAt,
	)
	if err != nil {
		return item, fmt.Errorf("scan order item: %w", err)
	}

	if item.UnitPrice, err = numericToDecimal(unit); err != nil {
		return item, err
	}
	if item.TotalPrice, err = numericToDecimal(total); err != nil {
		return item, err
	}
	if item.BasePriceSnapshot, err = numericToDecimal(base); err != nil {
		return item, err
	}
	if item.SalePriceSnapshot, err = numericPtrToDecimal(sale); err != nil {
		return item, err
	}
	if item.CommissionAmount, err = numericToDecimal(comm); err != nil {
		return item, err
	}
	item.PartnerID = textPtr(partnerID)

	return item, nil
}

func (r *OrderRepository) listItems(ctx context.Context, q ports.DBTX, orderID string) ([]domain.OrderItem, error) {
	const itemQuery = `
		SELECT ` + itemColumns + `
		FROM order_items
		WHERE order_id = $1::uuid
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, itemQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

// listItemsByOrders batch-loads items for many orders, grouped by order id
func (r *OrderRepository) listItemsByOrders(ctx context.Context, q ports.DBTX, orderIDs []string) (map[string][]domain.OrderItem, error) {
	const itemQuery = `
		SELECT ` + itemColumns + `
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, created_at, id
	`

	rows, err := q.Query(ctx, itemQuery, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	grouped := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		grouped[item.OrderID] = append(grouped[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return grouped, nil
}

// ListCompletedInPeriod returns payment-completed orders with items, oldest
// first. Two queries total: one for the orders, one batch-load of the items.
func (r *OrderRepository) ListCompletedInPeriod(ctx context.Context, db ports.DBTX, dr domain.DateRange) ([]*domain.Order, error) {
	q := r.executor(db)

	const query = `
		SELECT id::text, order_number, buyer_id::text, order_date, status, payment_status,
			total_amount, created_at, updated_at
		FROM orders
		WHERE payment_status = $1
			AND order_date >= $2 AND order_date <= $3
		ORDER BY order_date, id
	`

	rows, err := q.Query(ctx, query, domain.PaymentStatusCompleted, dr.From, dr.To)
	if err != nil {
		return nil, fmt.Errorf("list completed orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var (
			order  domain.Order
			amount pgtype.Numeric
		)
		if err := rows.Scan(
			&order.ID,
			&order.OrderNumber,
			&order.BuyerID,
			&order.OrderDate,
			&order.Status,
			&order.PaymentStatus,
			&amount,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if order.TotalAmount, err = numericToDecimal(amount); err != nil {
			return nil, fmt.Errorf("order total: %w", err)
		}
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
	}
	itemsByOrder, err := r.listItemsByOrders(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		order.Items = itemsByOrder[order.ID]
	}

	return orders, nil
}

// SellerCommissionByOrder groups a seller's completed order items per order
func (r *OrderRepository) SellerCommissionByOrder(ctx context.Context, db ports.DBTX, sellerID string, dr domain.DateRange) ([]ports.SellerOrderCommissionRow, error) {
	q := r.executor(db)

	const query = `
		SELECT o.id::text, o.order_number, o.order_date,
			COALESCE(SUM(i.total_price), 0) AS sales_amount,
			COALESCE(SUM(i.commission_amount), 0) AS commission_amount,
			COALESCE(SUM(i.quantity), 0) AS item_count
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		WHERE i.seller_id = $1::uuid
			AND o.payment_status = $2
			AND o.order_date >= $3 AND o.order_date <= $4
		GROUP BY o.id, o.order_number, o.order_date
		ORDER BY o.order_date DESC, o.id
	`

	rows, err := q.Query(ctx, query, sellerID, domain.PaymentStatusCompleted, dr.From, dr.To)
	if err != nil {
		return nil, fmt.Errorf("seller commission by order: %w", err)
	}
	defer rows.Close()

	var out []ports.SellerOrderCommissionRow
	for rows.Next() {
		var (
			row   ports.SellerOrderCommissionRow
			sales pgtype.Numeric
			comm  pgtype.Numeric
		)
		if err := rows.Scan(&row.OrderID, &row.OrderNumber, &row.OrderDate, &sales, &comm, &row.ItemCount); err != nil {
			return nil, fmt.Errorf("scan seller commission row: %w", err)
		}
		if row.SalesAmount, err = numericToDecimal(sales); err != nil {
			return nil, err
		}
		if row.CommissionAmount, err = numericToDecimal(comm); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seller commission rows: %w", err)
	}

	return out, nil
}

// SupplierRevenueByOrder groups a supplier's completed order items per order.
// Revenue falls back to the unit price when no base-price snapshot exists;
// margin requires a sale-price snapshot and is zero otherwise.
func (r *OrderRepository) SupplierRevenueByOrder(ctx context.Context, db ports.DBTX, supplierID string, dr domain.DateRange) ([]ports.SupplierOrderRevenueRow, error) {
	q := r.executor(db)

	const query = `
		SELECT o.id::text, o.order_number, o.order_date,
			COALESCE(SUM(
				CASE WHEN i.base_price_snapshot > 0 THEN i.base_price_snapshot ELSE i.unit_price END * i.quantity
			), 0) AS revenue,
			COALESCE(SUM(
				CASE WHEN i.sale_price_snapshot IS NOT NULL
					THEN (i.sale_price_snapshot - i.base_price_snapshot) * i.quantity
					ELSE 0 END
			), 0) AS margin,
			COALESCE(SUM(i.quantity), 0) AS item_count
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		WHERE i.supplier_id = $1::uuid
			AND o.payment_status = $2
			AND o.order_date >= $3 AND o.order_date <= $4
		GROUP BY o.id, o.order_number, o.order_date
		ORDER BY o.order_date DESC, o.id
	`

	rows, err := q.Query(ctx, query, supplierID, domain.PaymentStatusCompleted, dr.From, dr.To)
	if err != nil {
		return nil, fmt.Errorf("supplier revenue by order: %w", err)
	}
	defer rows.Close()

	var out []ports.SupplierOrderRevenueRow
	for rows.Next() {
		var (
			row     ports.SupplierOrderRevenueRow
			revenue pgtype.Numeric
			margin  pgtype.Numeric
		)
		if err := rows.Scan(&row.OrderID, &row.OrderNumber, &row.OrderDate, &revenue, &margin, &row.ItemCount); err != nil {
			return nil, fmt.Errorf("scan supplier revenue row: %w", err)
		}
		if row.Revenue, err = numericToDecimal(revenue); err != nil {
			return nil, err
		}
		if row.Margin, err = numericToDecimal(margin); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate supplier revenue rows: %w", err)
	}

	return out, nil
}

// SellerOrderStats runs the single grouped query backing the seller dashboard
func (r *OrderRepository) SellerOrderStats(ctx context.Context, db ports.DBTX, sellerID string, dr domain.DateRange) (*ports.SellerOrderStats, error) {
	q := r.executor(db)

	const query = `
		SELECT COUNT(DISTINCT o.id),
			COALESCE(SUM(i.total_price), 0),
			COALESCE(SUM(i.quantity), 0),
			COALESCE(SUM(i.commission_amount), 0)
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE i.seller_id = $1::uuid
			AND o.payment_status = $2
			AND o.order_date >= $3 AND o.order_date <= $4
	`

	var (
		stats ports.SellerOrderStats
		sales pgtype.Numeric
		comm  pgtype.Numeric
	)
	err := q.QueryRow(ctx, query, sellerID, domain.PaymentStatusCompleted, dr.From, dr.To).
		Scan(&stats.TotalOrders, &sales, &stats.TotalItems, &comm)
	if err != nil {
		return nil, fmt.Errorf("seller order stats: %w", err)
	}
	if stats.TotalSales, err = numericToDecimal(sales); err != nil {
		return nil, err
	}
	if stats.TotalCommission, err = numericToDecimal(comm); err != nil {
		return nil, err
	}

	return &stats, nil
}

// SupplierOrderStats mirrors SellerOrderStats with pass-through revenue
func (r *OrderRepository) SupplierOrderStats(ctx context.Context, db ports.DBTX, supplierID string, dr domain.DateRange) (*ports.SupplierOrderStats, error) {
	q := r.executor(db)

	const query = `
		SELECT COUNT(DISTINCT o.id),
			COALESCE(SUM(
				CASE WHEN i.base_price_snapshot > 0 THEN i.base_price_snapshot ELSE i.unit_price END * i.quantity
			), 0),
			COALESCE(SUM(i.quantity), 0),
			COALESCE(SUM(
				CASE WHEN i.sale_price_snapshot IS NOT NULL
					THEN (i.sale_price_snapshot - i.base_price_snapshot) * i.quantity
					ELSE 0 END
			), 0)
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE i.supplier_id = $1::uuid
			AND o.payment_status = $2
			AND o.order_date >= $3 AND o.order_date <= $4
	`

	var (
		stats   ports.SupplierOrderStats
		revenue pgtype.Numeric
		margin  pgtype.Numeric
	)
	err := q.QueryRow(ctx, query, supplierID, domain.PaymentStatusCompleted, dr.From, dr.To).
		Scan(&stats.TotalOrders, &revenue, &stats.TotalItems, &margin)
	if err != nil {
		return nil, fmt.Errorf("supplier order stats: %w", err)
	}
	if stats.TotalRevenue, err = numericToDecimal(revenue); err != nil {
		return nil, err
	}
	if stats.TotalMargin, err = numericToDecimal(margin); err != nil {
		return nil, err
	}

	return &stats, nil
}

// partyColumn maps a party type to its order_items column. Only seller and
// supplier appear on order items; other parties have no order listing.
func partyColumn(party domain.PartyType) (string, error) {
	switch party {
	case domain.PartySeller:
		return "seller_id", nil
	case domain.PartySupplier:
		return "supplier_id", nil
	default:
		return "", fmt.Errorf("party %q has no order items", party)
	}
}

// partyAmountExpr is the party-specific per-item amount: sellers earn the
// sale price, suppliers their wholesale pass-through.
func partyAmountExpr(party domain.PartyType) string {
	if party == domain.PartySupplier {
		return "CASE WHEN i.base_price_snapshot > 0 THEN i.base_price_snapshot ELSE i.unit_price END * i.quantity"
	}
	return "i.total_price"
}

// ListOrderSummariesForParty aggregates at the database level: one row per
// order, party-filtered sums, order date descending.
func (r *OrderRepository) ListOrderSummariesForParty(ctx context.Context, db ports.DBTX, party domain.PartyType, partyID string, f ports.OrderListFilter) ([]ports.PartyOrderSummary, error) {
	q := r.executor(db)

	col, err := partyColumn(party)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT o.id::text, o.order_number, o.order_date, o.status, o.total_amount,
			COALESCE(SUM(%s), 0) AS party_amount,
			COALESCE(SUM(i.quantity), 0) AS item_count
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		WHERE i.%s = $1::uuid
			AND o.payment_status = $2
			AND o.order_date >= $3 AND o.order_date <= $4
			AND ($5 = '' OR o.status = $5)
		GROUP BY o.id, o.order_number, o.order_date, o.status, o.total_amount
		ORDER BY o.order_date DESC, o.id
		LIMIT $6 OFFSET $7
	`, partyAmountExpr(party), col)

	rows, err := q.Query(ctx, query,
		partyID, domain.PaymentStatusCompleted, f.Range.From, f.Range.To,
		string(f.Status), f.Limit, f.Offset())
	if err != nil {
		return nil, fmt.Errorf("list party orders: %w", err)
	}
	defer rows.Close()

	var out []ports.PartyOrderSummary
	for rows.Next() {
		var (
			row    ports.PartyOrderSummary
			total  pgtype.Numeric
			amount pgtype.Numeric
		)
		if err := rows.Scan(&row.OrderID, &row.OrderNumber, &row.OrderDate, &row.Status, &total, &amount, &row.ItemCount); err != nil {
			return nil, fmt.Errorf("scan party order row: %w", err)
		}
		if row.TotalAmount, err = numericToDecimal(total); err != nil {
			return nil, err
		}
		if row.PartyAmount, err = numericToDecimal(amount); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate party order rows: %w", err)
	}

	return out, nil
}

// CountOrdersForParty supplies the pagination total for the same filters
func (r *OrderRepository) CountOrdersForParty(ctx context.Context, db ports.DBTX, party domain.PartyType, partyID string, f ports.OrderListFilter) (int64, error) {
	q := r.executor(db)

	col, err := partyColumn(party)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		SELECT COUNT(DISTINCT o.id)
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		WHERE i.%s = $1::uuid
			AND o.payment_status = $2
			AND o.order_date >= $3 AND o.order_date <= $4
			AND ($5 = '' OR o.status = $5)
	`, col)

	var count int64
	err = q.QueryRow(ctx, query,
		partyID, domain.PaymentStatusCompleted, f.Range.From, f.Range.To, string(f.Status)).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count party orders: %w", err)
	}

	return count, nil
}
