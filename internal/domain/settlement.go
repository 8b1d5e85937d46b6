package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PartyType identifies a beneficiary in a multi-sided marketplace order
type PartyType string

const (
	PartySeller   PartyType = "seller"
	PartySupplier PartyType = "supplier"
	PartyPartner  PartyType = "partner"
	PartyPlatform PartyType = "platform"
)

// PlatformAccountID is the fixed ledger account owning platform-fee
// settlements. The platform is a single party, not a marketplace user.
const PlatformAccountID = "00000000-0000-0000-0000-000000000001"

// Valid reports whether the party type is one of the known roles
func (p PartyType) Valid() bool {
	switch p {
	case PartySeller, PartySupplier, PartyPartner, PartyPlatform:
		return true
	}
	return false
}

// SettlementStatus represents the settlement lifecycle state
type SettlementStatus string

const (
	SettlementStatusPending    SettlementStatus = "pending"
	SettlementStatusProcessing SettlementStatus = "processing"
	SettlementStatusPaid       SettlementStatus = "paid"
	SettlementStatusCancelled  SettlementStatus = "cancelled"
)

// IsTerminal returns true for states that reject any further transition
func (s SettlementStatus) IsTerminal() bool {
	return s == SettlementStatusPaid || s == SettlementStatusCancelled
}

// Settlement is a payable ledger entry for exactly one party, derived from
// one source order. Lifecycle: pending -> processing -> paid, with
// pending/processing -> cancelled as the abort path.
type Settlement struct {
	ID            string
	PartyType     PartyType
	PartyID       string
	PayableAmount decimal.Decimal
	Status        SettlementStatus
	PeriodStart   time.Time
	PeriodEnd     time.Time

	// SourceOrderID correlates the settlement back to the order it was
	// generated from. Exactly one settlement exists per (order, party).
	SourceOrderID string

	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PaidAt       *time.Time
}

// Tag returns the legacy correlation tag used by external reporting tools
func (s *Settlement) Tag() string {
	return "order-" + s.SourceOrderID
}

// Finalize transitions a pending settlement to processing. Any other
// starting state is rejected; repeat calls on a processing settlement fail.
func (s *Settlement) Finalize() error {
	switch s.Status {
	case SettlementStatusPending:
		s.Status = SettlementStatusProcessing
		return nil
	case SettlementStatusProcessing:
		return NewDomainError(ErrorCodeSettlementInvalidState, "settlement already processing").
			WithDetail("settlement_id", s.ID)
	default:
		return s.terminalError()
	}
}

// MarkPaid transitions a pending or processing settlement to paid and
// stamps PaidAt. Paid is terminal.
func (s *Settlement) MarkPaid(now time.Time) error {
	switch s.Status {
	case SettlementStatusPending, SettlementStatusProcessing:
		s.Status = SettlementStatusPaid
		s.PaidAt = &now
		return nil
	default:
		return s.terminalError()
	}
}

// Cancel aborts a pending or processing settlement
func (s *Settlement) Cancel(reason string) error {
	switch s.Status {
	case SettlementStatusPending, SettlementStatusProcessing:
		s.Status = SettlementStatusCancelled
		s.CancelReason = reason
		return nil
	default:
		return s.terminalError()
	}
}

func (s *Settlement) terminalError() error {
	var msg string
	switch s.Status {
	case SettlementStatusPaid:
		msg = "settlement already paid"
	case SettlementStatusCancelled:
		msg = "settlement cancelled"
	default:
		msg = fmt.Sprintf("settlement in unexpected state %q", s.Status)
	}
	return NewDomainError(ErrorCodeSettlementInvalidState, msg).
		WithDetail("settlement_id", s.ID).
		WithDetail("status", string(s.Status))
}

// SettlementItem links a Settlement to the originating OrderItem, carrying
// forward the price and commission snapshots. Immutable after creation.
type SettlementItem struct {
	ID           string
	SettlementID string
	OrderID      string
	OrderItemID  string
	ProductName  string
	Quantity     int32

	UnitPrice         decimal.Decimal
	TotalPrice        decimal.Decimal
	BasePriceSnapshot decimal.Decimal
	CommissionAmount  decimal.Decimal

	PartyType   PartyType
	PartyID     string
	GrossAmount decimal.Decimal
	NetAmount   decimal.Decimal
	ReasonCode  string

	CreatedAt time.Time
}
