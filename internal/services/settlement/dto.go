package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketbridge/settlement-service/internal/domain"
)

// SellerCommissionSummary reports a seller's sales and commission over a
// period, one row per order plus period totals.
type SellerCommissionSummary struct {
	SellerID string          `json:"sellerId"`
	Period   PeriodDTO       `json:"period"`
	Orders   []SellerOrderRow `json:"orders"`

	TotalSales      decimal.Decimal `json:"totalSales"`
	TotalCommission decimal.Decimal `json:"totalCommission"`
	TotalNet        decimal.Decimal `json:"totalNet"`
	TotalOrders     int64           `json:"totalOrders"`
	TotalItems      int64           `json:"totalItems"`

	// AverageCommissionRate is totalCommission / totalSales, zero when
	// there were no sales.
	AverageCommissionRate decimal.Decimal `json:"averageCommissionRate"`
}

// SellerOrderRow is one order's commission breakdown for a seller
type SellerOrderRow struct {
	OrderID          string          `json:"orderId"`
	OrderNumber      string          `json:"orderNumber"`
	OrderDate        time.Time       `json:"orderDate"`
	SalesAmount      decimal.Decimal `json:"salesAmount"`
	CommissionAmount decimal.Decimal `json:"commissionAmount"`
	NetAmount        decimal.Decimal `json:"netAmount"`
	CommissionRate   decimal.Decimal `json:"commissionRate"`
	ItemCount        int64           `json:"itemCount"`
}

// SupplierCommissionSummary reports a supplier's pass-through revenue and
// margin over a period.
type SupplierCommissionSummary struct {
	SupplierID string             `json:"supplierId"`
	Period     PeriodDTO          `json:"period"`
	Orders     []SupplierOrderRow `json:"orders"`

	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	TotalMargin  decimal.Decimal `json:"totalMargin"`
	TotalOrders  int64           `json:"totalOrders"`
	TotalItems   int64           `json:"totalItems"`
}

// SupplierOrderRow is one order's revenue breakdown for a supplier
type SupplierOrderRow struct {
	OrderID     string          `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	OrderDate   time.Time       `json:"orderDate"`
	Revenue     decimal.Decimal `json:"revenue"`
	Margin      decimal.Decimal `json:"margin"`
	ItemCount   int64           `json:"itemCount"`
}

// SettlementSummary groups one party's settlements by lifecycle state
type SettlementSummary struct {
	PartyType domain.PartyType `json:"partyType"`
	PartyID   string           `json:"partyId"`
	Period    PeriodDTO        `json:"period"`

	TotalPending    decimal.Decimal `json:"totalPending"`
	TotalProcessing decimal.Decimal `json:"totalProcessing"`
	TotalPaid       decimal.Decimal `json:"totalPaid"`

	SettlementCount    int64      `json:"settlementCount"`
	LastSettlementDate *time.Time `json:"lastSettlementDate,omitempty"`
}

// PeriodDTO is the resolved reporting window echoed back to callers
type PeriodDTO struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func periodDTO(r domain.DateRange) PeriodDTO {
	return PeriodDTO{From: r.From, To: r.To}
}

// ListOptions filters and paginates settlement listings
type ListOptions struct {
	Range  *domain.DateRange
	Status domain.SettlementStatus // empty matches all statuses
	Page   int                     // 1-based, defaults to 1
	Limit  int                     // defaults to 20, capped at 100
}

func (o ListOptions) normalized() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit <= 0 {
		o.Limit = 20
	}
	if o.Limit > 100 {
		o.Limit = 100
	}
	return o
}

// SettlementPage is one page of a party's settlements, newest first
type SettlementPage struct {
	Settlements []*domain.Settlement `json:"settlements"`
	Total       int64                `json:"total"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
}

// SettlementDetail pairs a settlement with its ledger lines
type SettlementDetail struct {
	Settlement *domain.Settlement       `json:"settlement"`
	Items      []*domain.SettlementItem `json:"items"`
}
