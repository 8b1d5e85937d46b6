package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the order lifecycle state
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Order represents a marketplace purchase. Once payment completes the
// monetary fields are immutable; only status transitions are driven
// externally by the commerce module.
type Order struct {
	ID            string
	OrderNumber   string
	BuyerID       string
	OrderDate     time.Time
	Status        OrderStatus
	PaymentStatus PaymentStatus
	TotalAmount   decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []OrderItem
}

// IsSettleable returns true if settlements may be generated for this order
func (o *Order) IsSettleable() bool {
	return o.PaymentStatus == PaymentStatusCompleted
}

// OrderItem is one line item of an Order. Price and commission fields are
// snapshots captured at order creation and never recalculated afterwards,
// so historical settlements stay correct even if catalog prices change.
type OrderItem struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	SellerID    string
	SupplierID  string
	Quantity    int32
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal // authoritative: UnitPrice * Quantity

	// BasePriceSnapshot is the supplier's wholesale cost at order time.
	BasePriceSnapshot decimal.Decimal
	// SalePriceSnapshot is the retail price at order time, when captured.
	SalePriceSnapshot *decimal.Decimal
	// CommissionAmount is the seller commission precomputed at order creation.
	// Zero means no snapshot was taken and the default rate applies.
	CommissionAmount decimal.Decimal

	// PartnerID is set when the order item was referred by a partner.
	PartnerID *string

	CreatedAt time.Time
}

// SupplierAmount returns the supplier's pass-through payable for this item:
// the wholesale cost times quantity, independent of retail markup.
func (i *OrderItem) SupplierAmount() decimal.Decimal {
	base := i.BasePriceSnapshot
	if base.IsZero() {
		base = i.UnitPrice
	}
	return base.Mul(decimal.NewFromInt32(i.Quantity))
}

// Margin returns (salePriceSnapshot - basePriceSnapshot) * quantity when a
// sale-price snapshot exists, zero otherwise.
func (i *OrderItem) Margin() decimal.Decimal {
	if i.SalePriceSnapshot == nil {
		return decimal.Zero
	}
	return i.SalePriceSnapshot.Sub(i.BasePriceSnapshot).Mul(decimal.NewFromInt32(i.Quantity))
}

// HasPartner returns true if the item carries a partner referral
func (i *OrderItem) HasPartner() bool {
	return i.PartnerID != nil && *i.PartnerID != ""
}
