package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketbridge/settlement-service/internal/domain"
)

// OrderBuilder provides a fluent API for building test orders.
type OrderBuilder struct {
	order *domain.Order
}

// NewOrder creates an order builder with sensible defaults: one payment
// completed order with no items.
func NewOrder() *OrderBuilder {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	return &OrderBuilder{
		order: &domain.Order{
			ID:            uuid.NewString(),
			OrderNumber:   "ORD-20250615-0001",
			BuyerID:       uuid.NewString(),
			OrderDate:     now,
			Status:        domain.OrderStatusCompleted,
			PaymentStatus: domain.PaymentStatusCompleted,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}

func (b *OrderBuilder) WithID(id string) *OrderBuilder {
	b.order.ID = id
	return b
}

func (b *OrderBuilder) WithOrderNumber(number string) *OrderBuilder {
	b.order.OrderNumber = number
	return b
}

func (b *OrderBuilder) WithOrderDate(t time.Time) *OrderBuilder {
	b.order.OrderDate = t
	return b
}

func (b *OrderBuilder) WithPaymentStatus(status domain.PaymentStatus) *OrderBuilder {
	b.order.PaymentStatus = status
	return b
}

func (b *OrderBuilder) WithItem(item domain.OrderItem) *OrderBuilder {
	item.OrderID = b.order.ID
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	b.order.Items = append(b.order.Items, item)
	b.order.TotalAmount = b.order.TotalAmount.Add(item.TotalPrice)
	return b
}

// Build returns the assembled order
func (b *OrderBuilder) Build() *domain.Order {
	return b.order
}

// ItemBuilder provides a fluent API for building test order items.
type ItemBuilder struct {
	item domain.OrderItem
}

// NewItem creates an item builder with the common baseline: quantity 2 at
// 55000 each (110000 total), wholesale cost 40000, no commission snapshot,
// no partner.
func NewItem() *ItemBuilder {
	return &ItemBuilder{
		item: domain.OrderItem{
			ID:                uuid.NewString(),
			ProductID:         uuid.NewString(),
			ProductName:       "Ceramic mug set",
			SellerID:          uuid.NewString(),
			SupplierID:        uuid.NewString(),
			Quantity:          2,
			UnitPrice:         decimal.NewFromInt(55000),
			TotalPrice:        decimal.NewFromInt(110000),
			BasePriceSnapshot: decimal.NewFromInt(40000),
			CreatedAt:         time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
		},
	}
}

func (b *ItemBuilder) WithSellerID(id string) *ItemBuilder {
	b.item.SellerID = id
	return b
}

func (b *ItemBuilder) WithSupplierID(id string) *ItemBuilder {
	b.item.SupplierID = id
	return b
}

func (b *ItemBuilder) WithPartnerID(id string) *ItemBuilder {
	b.item.PartnerID = &id
	return b
}

func (b *ItemBuilder) WithQuantity(q int32) *ItemBuilder {
	b.item.Quantity = q
	b.item.TotalPrice = b.item.UnitPrice.Mul(decimal.NewFromInt32(q))
	return b
}

func (b *ItemBuilder) WithUnitPrice(p decimal.Decimal) *ItemBuilder {
	b.item.UnitPrice = p
	b.item.TotalPrice = p.Mul(decimal.NewFromInt32(b.item.Quantity))
	return b
}

func (b *ItemBuilder) WithBasePriceSnapshot(p decimal.Decimal) *ItemBuilder {
	b.item.BasePriceSnapshot = p
	return b
}

func (b *ItemBuilder) WithSalePriceSnapshot(p decimal.Decimal) *ItemBuilder {
	b.item.SalePriceSnapshot = &p
	return b
}

func (b *ItemBuilder) WithCommissionAmount(a decimal.Decimal) *ItemBuilder {
	b.item.CommissionAmount = a
	return b
}

// Build returns the assembled item
func (b *ItemBuilder) Build() domain.OrderItem {
	return b.item
}
