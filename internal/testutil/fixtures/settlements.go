package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketbridge/settlement-service/internal/domain"
)

// SettlementBuilder provides a fluent API for building test settlements.
type SettlementBuilder struct {
	settlement *domain.Settlement
}

// NewSettlement creates a pending seller settlement with defaults.
func NewSettlement() *SettlementBuilder {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return &SettlementBuilder{
		settlement: &domain.Settlement{
			ID:            uuid.NewString(),
			PartyType:     domain.PartySeller,
			PartyID:       uuid.NewString(),
			PayableAmount: decimal.NewFromInt(88000),
			Status:        domain.SettlementStatusPending,
			PeriodStart:   time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			PeriodEnd:     time.Date(2025, 6, 15, 23, 59, 59, 999999999, time.UTC),
			SourceOrderID: uuid.NewString(),
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}

func (b *SettlementBuilder) WithID(id string) *SettlementBuilder {
	b.settlement.ID = id
	return b
}

func (b *SettlementBuilder) WithParty(party domain.PartyType, partyID string) *SettlementBuilder {
	b.settlement.PartyType = party
	b.settlement.PartyID = partyID
	return b
}

func (b *SettlementBuilder) WithStatus(status domain.SettlementStatus) *SettlementBuilder {
	b.settlement.Status = status
	return b
}

func (b *SettlementBuilder) WithAmount(amount decimal.Decimal) *SettlementBuilder {
	b.settlement.PayableAmount = amount
	return b
}

func (b *SettlementBuilder) WithSourceOrderID(orderID string) *SettlementBuilder {
	b.settlement.SourceOrderID = orderID
	return b
}

// Build returns the assembled settlement
func (b *SettlementBuilder) Build() *domain.Settlement {
	return b.settlement
}
