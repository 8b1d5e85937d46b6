package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketbridge/settlement-service/internal/domain"
)

// SettlementRepository persists settlements and their ledger items
type SettlementRepository interface {
	// CreateSettlement inserts a new settlement. A second settlement for
	// the same (source order, party) violates the ledger's uniqueness
	// constraint and returns SETTLEMENT_DUPLICATE.
	CreateSettlement(ctx context.Context, tx DBTX, s *domain.Settlement) error

	// CreateItems inserts the ledger lines belonging to a settlement
	CreateItems(ctx context.Context, tx DBTX, items []*domain.SettlementItem) error

	// GetByID returns SETTLEMENT_NOT_FOUND when the id is unknown
	GetByID(ctx context.Context, db DBTX, id string) (*domain.Settlement, error)

	// UpdateStatus persists the outcome of a state transition
	UpdateStatus(ctx context.Context, tx DBTX, s *domain.Settlement) error

	// ExistsForOrder reports whether any settlement references the order
	ExistsForOrder(ctx context.Context, db DBTX, orderID string) (bool, error)

	// ListItemsBySettlement returns the ledger lines, creation order
	ListItemsBySettlement(ctx context.Context, db DBTX, settlementID string) ([]*domain.SettlementItem, error)

	// StatusSummary sums payable amounts per status for one party in range
	StatusSummary(ctx context.Context, db DBTX, party domain.PartyType, partyID string, r domain.DateRange) (*SettlementStatusSummary, error)

	// ListByParty returns a page of settlements, newest first
	ListByParty(ctx context.Context, db DBTX, party domain.PartyType, partyID string, f SettlementListFilter) ([]*domain.Settlement, error)

	// CountByParty supplies the pagination total for ListByParty
	CountByParty(ctx context.Context, db DBTX, party domain.PartyType, partyID string, f SettlementListFilter) (int64, error)
}

// SettlementListFilter filters and paginates settlement listings
type SettlementListFilter struct {
	Range  domain.DateRange
	Status domain.SettlementStatus // empty matches all statuses
	Page   int                     // 1-based
	Limit  int
}

// Offset converts page/limit to a row offset
func (f SettlementListFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// SettlementStatusSummary aggregates one party's settlements by status
type SettlementStatusSummary struct {
	TotalPending       decimal.Decimal
	TotalProcessing    decimal.Decimal
	TotalPaid          decimal.Decimal
	SettlementCount    int64
	LastSettlementDate *time.Time
}
