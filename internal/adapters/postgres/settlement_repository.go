package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/marketbridge/settlement-service/internal/domain"
	"github.com/marketbridge/settlement-service/internal/domain/ports"
)

// uniqueViolation is the postgres error code raised when an insert breaks
// the (source_order_id, party_type, party_id) ledger constraint.
const uniqueViolation = "23505"

// SettlementRepository implements ports.SettlementRepository
type SettlementRepository struct {
	db ports.DBPort
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db ports.DBPort) *SettlementRepository {
	return &SettlementRepository{db: db}
}

func (r *SettlementRepository) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// CreateSettlement inserts a new settlement row
func (r *SettlementRepository) CreateSettlement(ctx context.Context, tx ports.DBTX, s *domain.Settlement) error {
	q := r.executor(tx)

	const query = `
		INSERT INTO settlements (
			id, party_type, party_id, payable_amount, status,
			period_start, period_end, source_order_id, cancel_reason,
			created_at, updated_at, paid_at
		)
		VALUES ($1::uuid, $2, $3::uuid, $4, $5, $6, $7, $8::uuid, $9, $10, $11, $12)
	`

	amount, err := decimalToNumeric(s.PayableAmount)
	if err != nil {
		return fmt.Errorf("settlement amount: %w", err)
	}

	_, err = q.Exec(ctx, query,
		s.ID,
		s.PartyType,
		s.PartyID,
		amount,
		s.Status,
		s.PeriodStart,
		s.PeriodEnd,
		s.SourceOrderID,
		nullText(s.CancelReason),
		s.CreatedAt,
		s.UpdatedAt,
		s.PaidAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrSettlementDuplicate
		}
		return fmt.Errorf("create settlement: %w", err)
	}

	return nil
}

// CreateItems inserts the ledger lines belonging to a settlement
func (r *SettlementRepository) CreateItems(ctx context.Context, tx ports.DBTX, items []*domain.SettlementItem) error {
	q := r.executor(tx)

	const query = `
		INSERT INTO settlement_items (
			id, settlement_id, order_id, order_item_id, product_name, quantity,
			unit_price, total_price, base_price_snapshot, commission_amount,
			party_type, party_id, gross_amount, net_amount, reason_code, created_at
		)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4::uuid, $5, $6, $7, $8, $9, $10, $11, $12::uuid, $13, $14, $15, $16)
	`

	for _, item := range items {
		unit, err := decimalToNumeric(item.UnitPrice)
		if err != nil {
			return fmt.Errorf("item unit price: %w", err)
		}
		total, err := decimalToNumeric(item.TotalPrice)
		if err != nil {
			return fmt.Errorf("item total price: %w", err)
		}
		base, err := decimalToNumeric(item.BasePriceSnapshot)
		if err != nil {
			return fmt.Errorf("item base price: %w", err)
		}
		comm, err := decimalToNumeric(item.CommissionAmount)
		if err != nil {
			return fmt.Errorf("item commission: %w", err)
		}
		gross, err := decimalToNumeric(item.GrossAmount)
		if err != nil {
			return fmt.Errorf("item gross amount: %w", err)
		}
		net, err := decimalToNumeric(item.NetAmount)
		if err != nil {
			return fmt.Errorf("item net amount: %w", err)
		}

		if _, err := q.Exec(ctx, query,
			item.ID,
			item.SettlementID,
			item.OrderID,
			item.OrderItemID,
			item.ProductName,
			item.Quantity,
			unit,
			total,
			base,
			comm,
			item.PartyType,
			item.PartyID,
			gross,
			net,
			item.ReasonCode,
			item.CreatedAt,
		); err != nil {
			return fmt.Errorf("create settlement item: %w", err)
		}
	}

	return nil
}

// GetByID loads a settlement by id
func (r *SettlementRepository) GetByID(ctx context.Context, db ports.DBTX, id string) (*domain.Settlement, error) {
	q := r.executor(db)

	const query = `
		SELECT id::text, party_type, party_id::text, payable_amount, status,
			period_start, period_end, source_order_id::text, COALESCE(cancel_reason, ''),
			created_at, updated_at, paid_at
		FROM settlements
		WHERE id = $1::uuid
	`

	var (
		s      domain.Settlement
		amount pgtype.Numeric
	)
	err := q.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.PartyType,
		&s.PartyID,
		&amount,
		&s.Status,
		&s.PeriodStart,
		&s.PeriodEnd,
		&s.SourceOrderID,
		&s.CancelReason,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.PaidAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSettlementNotFound
		}
		return nil, fmt.Errorf("get settlement by id: %w", err)
	}
	if s.PayableAmount, err = numericToDecimal(amount); err != nil {
		return nil, fmt.Errorf("settlement amount: %w", err)
	}

	return &s, nil
}

// UpdateStatus persists the outcome of a state transition
func (r *SettlementRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, s *domain.Settlement) error {
	q := r.executor(tx)

	const query = `
		UPDATE settlements
		SET status = $2, cancel_reason = $3, paid_at = $4, updated_at = $5
		WHERE id = $1::uuid
	`

	tag, err := q.Exec(ctx, query, s.ID, s.Status, nullText(s.CancelReason), s.PaidAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update settlement status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSettlementNotFound
	}

	return nil
}

// ExistsForOrder reports whether any settlement references the order
func (r *SettlementRepository) ExistsForOrder(ctx context.Context, db ports.DBTX, orderID string) (bool, error) {
	q := r.executor(db)

	const query = `SELECT EXISTS (SELECT 1 FROM settlements WHERE source_order_id = $1::uuid)`

	var exists bool
	if err := q.QueryRow(ctx, query, orderID).Scan(&exists); err != nil {
		return false, fmt.Errorf("settlement exists for order: %w", err)
	}

	return exists, nil
}

// ListItemsBySettlement returns the ledger lines in creation order
func (r *SettlementRepository) ListItemsBySettlement(ctx context.Context, db ports.DBTX, settlementID string) ([]*domain.SettlementItem, error) {
	q := r.executor(db)

	const query = `
		SELECT id::text, settlement_id::text, order_id::text, order_item_id::text,
			product_name, quantity, unit_price, total_price, base_price_snapshot,
			commission_amount, party_type, party_id::text, gross_amount, net_amount,
			reason_code, created_at
		FROM settlement_items
		WHERE settlement_id = $1::uuid
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query, settlementID)
	if err != nil {
		return nil, fmt.Errorf("list settlement items: %w", err)
	}
	defer rows.Close()

	var items []*domain.SettlementItem
	for rows.Next() {
		var (
			item  domain.SettlementItem
			unit  pgtype.Numeric
			total pgtype.Numeric
			base  pgtype.Numeric
			comm  pgtype.Numeric
			gross pgtype.Numeric
			net   pgtype.Numeric
		)
		if err := rows.Scan(
			&item.ID,
			&item.SettlementID,
			&item.OrderID,
			&item.OrderItemID,
			&item.ProductName,
			&item.Quantity,
			&unit,
			&total,
			&base,
			&comm,
			&item.PartyType,
			&item.PartyID,
			&gross,
			&net,
			&item.ReasonCode,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan settlement item: %w", err)
		}

		if item.UnitPrice, err = numericToDecimal(unit); err != nil {
			return nil, err
		}
		if item.TotalPrice, err = numericToDecimal(total); err != nil {
			return nil, err
		}
		if item.BasePriceSnapshot, err = numericToDecimal(base); err != nil {
			return nil, err
		}
		if item.CommissionAmount, err = numericToDecimal(comm); err != nil {
			return nil, err
		}
		if item.GrossAmount, err = numericToDecimal(gross); err != nil {
			return nil, err
		}
		if item.NetAmount, err = numericToDecimal(net); err != nil {
			return nil, err
		}

		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settlement items: %w", err)
	}

	return items, nil
}

// StatusSummary sums payable amounts per status for one party in range
func (r *SettlementRepository) StatusSummary(ctx context.Context, db ports.DBTX, party domain.PartyType, partyID string, dr domain.DateRange) (*ports.SettlementStatusSummary, error) {
	q := r.executor(db)

	const query = `
		SELECT
			COALESCE(SUM(payable_amount) FILTER (WHERE status = 'pending'), 0),
			COALESCE(SUM(payable_amount) FILTER (WHERE status = 'processing'), 0),
			COALESCE(SUM(payable_amount) FILTER (WHERE status = 'paid'), 0),
			COUNT(*),
			MAX(created_at)
		FROM settlements
		WHERE party_type = $1 AND party_id = $2::uuid
			AND created_at >= $3 AND created_at <= $4
	`

	var (
		summary    ports.SettlementStatusSummary
		pending    pgtype.Numeric
		processing pgtype.Numeric
		paid       pgtype.Numeric
	)
	err := q.QueryRow(ctx, query, party, partyID, dr.From, dr.To).
		Scan(&pending, &processing, &paid, &summary.SettlementCount, &summary.LastSettlementDate)
	if err != nil {
		return nil, fmt.Errorf("settlement status summary: %w", err)
	}
	if summary.TotalPending, err = numericToDecimal(pending); err != nil {
		return nil, err
	}
	if summary.TotalProcessing, err = numericToDecimal(processing); err != nil {
		return nil, err
	}
	if summary.TotalPaid, err = numericToDecimal(paid); err != nil {
		return nil, err
	}

	return &summary, nil
}

// ListByParty returns a page of settlements, newest first
func (r *SettlementRepository) ListByParty(ctx context.Context, db ports.DBTX, party domain.PartyType, partyID string, f ports.SettlementListFilter) ([]*domain.Settlement, error) {
	q := r.executor(db)

	const query = `
		SELECT id::text, party_type, party_id::text, payable_amount, status,
			period_start, period_end, source_order_id::text, COALESCE(cancel_reason, ''),
			created_at, updated_at, paid_at
		FROM settlements
		WHERE party_type = $1 AND party_id = $2::uuid
			AND created_at >= $3 AND created_at <= $4
			AND ($5 = '' OR status = $5)
		ORDER BY created_at DESC, id
		LIMIT $6 OFFSET $7
	`

	rows, err := q.Query(ctx, query,
		party, partyID, f.Range.From, f.Range.To, string(f.Status), f.Limit, f.Offset())
	if err != nil {
		return nil, fmt.Errorf("list settlements by party: %w", err)
	}
	defer rows.Close()

	var out []*domain.Settlement
	for rows.Next() {
		var (
			s      domain.Settlement
			amount pgtype.Numeric
		)
		if err := rows.Scan(
			&s.ID,
			&s.PartyType,
			&s.PartyID,
			&amount,
			&s.Status,
			&s.PeriodStart,
			&s.PeriodEnd,
			&s.SourceOrderID,
			&s.CancelReason,
			&s.CreatedAt,
			&s.UpdatedAt,
			&s.PaidAt,
		); err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		if s.PayableAmount, err = numericToDecimal(amount); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settlements: %w", err)
	}

	return out, nil
}

// CountByParty supplies the pagination total for ListByParty
func (r *SettlementRepository) CountByParty(ctx context.Context, db ports.DBTX, party domain.PartyType, partyID string, f ports.SettlementListFilter) (int64, error) {
	q := r.executor(db)

	const query = `
		SELECT COUNT(*)
		FROM settlements
		WHERE party_type = $1 AND party_id = $2::uuid
			AND created_at >= $3 AND created_at <= $4
			AND ($5 = '' OR status = $5)
	`

	var count int64
	err := q.QueryRow(ctx, query, party, partyID, f.Range.From, f.Range.To, string(f.Status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count settlements by party: %w", err)
	}

	return count, nil
}
