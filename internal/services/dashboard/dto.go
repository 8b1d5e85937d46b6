package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketbridge/settlement-service/internal/domain"
)

// SellerSummary is the seller dashboard KPI set. Field names are the
// canonical ones; legacy wire aliases live on LegacySellerSummary only.
type SellerSummary struct {
	SellerID string    `json:"sellerId"`
	Period   PeriodDTO `json:"period"`

	TotalOrders       int64           `json:"totalOrders"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalItems        int64           `json:"totalItems"`
	TotalCommission   decimal.Decimal `json:"totalCommission"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`

	ProductTotal    int64 `json:"productTotal"`
	ProductActive   int64 `json:"productActive"`
	ProductInactive int64 `json:"productInactive"`

	AuthorizationsPending  int64 `json:"authorizationsPending"`
	AuthorizationsApproved int64 `json:"authorizationsApproved"`
	AuthorizationsRejected int64 `json:"authorizationsRejected"`
}

// LegacySellerSummary duplicates SellerSummary under the field names older
// consumers expect. Only serialization differs; all computation happens on
// the canonical type.
type LegacySellerSummary struct {
	SellerSummary

	TotalSalesAmount decimal.Decimal `json:"totalSalesAmount"`
	AvgOrderAmount   decimal.Decimal `json:"avgOrderAmount"`
}

// Legacy returns the summary in the backward-compatible wire shape
func (s *SellerSummary) Legacy() LegacySellerSummary {
	return LegacySellerSummary{
		SellerSummary:    *s,
		TotalSalesAmount: s.TotalRevenue,
		AvgOrderAmount:   s.AverageOrderValue,
	}
}

// SupplierSummary is the supplier dashboard KPI set
type SupplierSummary struct {
	SupplierID string    `json:"supplierId"`
	Period     PeriodDTO `json:"period"`

	TotalOrders       int64           `json:"totalOrders"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalItems        int64           `json:"totalItems"`
	TotalMargin       decimal.Decimal `json:"totalMargin"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`

	ProductTotal    int64 `json:"productTotal"`
	ProductActive   int64 `json:"productActive"`
	ProductInactive int64 `json:"productInactive"`

	AuthorizationsPending  int64 `json:"authorizationsPending"`
	AuthorizationsApproved int64 `json:"authorizationsApproved"`
	AuthorizationsRejected int64 `json:"authorizationsRejected"`
}

// PeriodDTO is the resolved reporting window echoed back to callers
type PeriodDTO struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// OrderRow is one order as seen by the requesting party
type OrderRow struct {
	OrderID     string             `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	OrderDate   time.Time          `json:"orderDate"`
	Status      domain.OrderStatus `json:"status"`

	// TotalAmount is the order's own total across all parties.
	TotalAmount decimal.Decimal `json:"totalAmount"`
	// PartyAmount is the requesting party's share: item sales for a
	// seller, wholesale revenue for a supplier.
	PartyAmount decimal.Decimal `json:"partyAmount"`
	ItemCount   int64           `json:"itemCount"`
}

// OrderPage is one page of a party's orders, newest first
type OrderPage struct {
	Orders []OrderRow `json:"orders"`
	Total  int64      `json:"total"`
	Page   int        `json:"page"`
	Limit  int        `json:"limit"`
}

// OrderFilter filters and paginates dashboard order listings
type OrderFilter struct {
	Range  *domain.DateRange
	Status domain.OrderStatus // empty matches all statuses
	Page   int                // 1-based, defaults to 1
	Limit  int                // defaults to 20, capped at 100
}

func (f OrderFilter) normalized() OrderFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return f
}
