package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func referredItem() *OrderItem {
	// quantity=2, unitPrice=55000 -> totalPrice=110000, base=40000, partner set
	return &OrderItem{
		ID:                "item-1",
		OrderID:           "order-1",
		SellerID:          "seller-1",
		SupplierID:        "supplier-1",
		Quantity:          2,
		UnitPrice:         decimal.NewFromInt(55000),
		TotalPrice:        decimal.NewFromInt(110000),
		BasePriceSnapshot: decimal.NewFromInt(40000),
		PartnerID:         strPtr("partner-1"),
	}
}

func TestCommissionPolicy_SellerPartition(t *testing.T) {
	policy := DefaultCommissionPolicy()
	item := referredItem()

	commission := policy.SellerCommission(item)
	net := policy.SellerNet(item)

	assert.True(t, commission.Equal(decimal.NewFromInt(22000)), "20%% of 110000")
	assert.True(t, net.Equal(decimal.NewFromInt(88000)))
	// Commission partitions the sale price, it is never additive
	assert.True(t, net.Add(commission).Equal(item.TotalPrice))
}

func TestCommissionPolicy_SnapshotWinsOverDefaultRate(t *testing.T) {
	policy := DefaultCommissionPolicy()
	item := referredItem()
	item.CommissionAmount = decimal.NewFromInt(11000) // 10% negotiated at order time

	assert.True(t, policy.SellerCommission(item).Equal(decimal.NewFromInt(11000)))
	assert.True(t, policy.SellerNet(item).Equal(decimal.NewFromInt(99000)))
}

func TestCommissionPolicy_PartnerCommission(t *testing.T) {
	policy := DefaultCommissionPolicy()

	t.Run("referred item earns 5%", func(t *testing.T) {
		item := referredItem()
		assert.True(t, policy.PartnerCommission(item).Equal(decimal.NewFromInt(5500)))
	})

	t.Run("no partner means zero", func(t *testing.T) {
		item := referredItem()
		item.PartnerID = nil
		assert.True(t, policy.PartnerCommission(item).IsZero())

		item.PartnerID = strPtr("")
		assert.True(t, policy.PartnerCommission(item).IsZero())
	})
}

func TestCommissionPolicy_PlatformFee(t *testing.T) {
	policy := DefaultCommissionPolicy()

	t.Run("retains commission minus referral", func(t *testing.T) {
		item := referredItem()
		// 22000 commission - 5500 referral
		assert.True(t, policy.PlatformFee(item).Equal(decimal.NewFromInt(16500)))
	})

	t.Run("clamps to zero when referral exceeds commission", func(t *testing.T) {
		item := referredItem()
		item.CommissionAmount = decimal.NewFromInt(1000) // below the 5500 referral
		assert.True(t, policy.PlatformFee(item).IsZero())
	})
}

func TestOrderItem_SupplierAmount(t *testing.T) {
	item := referredItem()
	// Pass-through: base price times quantity regardless of sale price
	assert.True(t, item.SupplierAmount().Equal(decimal.NewFromInt(80000)))

	// Falls back to unit price when no snapshot was captured
	item.BasePriceSnapshot = decimal.Zero
	assert.True(t, item.SupplierAmount().Equal(decimal.NewFromInt(110000)))
}

func TestOrderItem_Margin(t *testing.T) {
	item := referredItem()
	assert.True(t, item.Margin().IsZero(), "no sale snapshot, no margin")

	sale := decimal.NewFromInt(55000)
	item.SalePriceSnapshot = &sale
	// (55000-40000) * 2
	assert.True(t, item.Margin().Equal(decimal.NewFromInt(30000)))
}

func TestOrder_IsSettleable(t *testing.T) {
	order := &Order{PaymentStatus: PaymentStatusCompleted}
	assert.True(t, order.IsSettleable())

	for _, ps := range []PaymentStatus{PaymentStatusPending, PaymentStatusFailed, PaymentStatusRefunded} {
		order.PaymentStatus = ps
		assert.False(t, order.IsSettleable())
	}
}
