package domain

import "github.com/shopspring/decimal"

// Reason codes recorded on settlement items
const (
	ReasonSale        = "SALE"
	ReasonSupplyCost  = "SUPPLY_COST"
	ReasonReferral    = "REFERRAL"
	ReasonPlatformFee = "PLATFORM_FEE"
)

// CommissionPolicy holds the default commission rates. Per-item snapshots
// taken at order time always win over the defaults; the policy only fills
// in when no snapshot exists.
type CommissionPolicy struct {
	// SellerRate is the fraction of the sale price retained as platform
	// commission when the order item carries no commission snapshot.
	SellerRate decimal.Decimal
	// PartnerRate is the referral fraction of the sale price paid to the
	// partner on referred items.
	PartnerRate decimal.Decimal
}

// DefaultCommissionPolicy returns the marketplace defaults: 20% seller
// commission, 5% partner referral. Suppliers are paid their wholesale
// price in full and are never charged commission.
func DefaultCommissionPolicy() CommissionPolicy {
	return CommissionPolicy{
		SellerRate:  decimal.NewFromFloat(0.20),
		PartnerRate: decimal.NewFromFloat(0.05),
	}
}

// SellerCommission returns the commission owed on an item: the snapshot
// taken at order creation when present, otherwise SellerRate of the total.
func (p CommissionPolicy) SellerCommission(item *OrderItem) decimal.Decimal {
	if !item.CommissionAmount.IsZero() {
		return item.CommissionAmount
	}
	return item.TotalPrice.Mul(p.SellerRate)
}

// SellerNet returns the seller's payable for an item. The commission is a
// partition of the sale price: SellerNet + SellerCommission == TotalPrice.
func (p CommissionPolicy) SellerNet(item *OrderItem) decimal.Decimal {
	return item.TotalPrice.Sub(p.SellerCommission(item))
}

// PartnerCommission returns the referral payable for an item, zero when the
// item carries no partner reference.
func (p CommissionPolicy) PartnerCommission(item *OrderItem) decimal.Decimal {
	if !item.HasPartner() {
		return decimal.Zero
	}
	return item.TotalPrice.Mul(p.PartnerRate)
}

// PlatformFee returns what the platform retains from an item: the seller
// commission minus any referral paid out of it. Negative results clamp to
// zero so referral promotions never produce a platform payable.
func (p CommissionPolicy) PlatformFee(item *OrderItem) decimal.Decimal {
	fee := p.SellerCommission(item).Sub(p.PartnerCommission(item))
	if fee.IsNegative() {
		return decimal.Zero
	}
	return fee
}
