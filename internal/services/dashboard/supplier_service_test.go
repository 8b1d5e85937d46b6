package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketbridge/settlement-service/internal/domain"
	"github.com/marketbridge/settlement-service/internal/domain/ports"
	"github.com/marketbridge/settlement-service/internal/testutil/mocks"
)

const testSupplierID = "5a1b2c3d-4e5f-6071-8293-a4b5c6d7e8f9"

func newTestSupplierService(orderRepo *mocks.MockOrderRepository, catalogRepo *mocks.MockCatalogRepository, cache *mocks.MockCache) *SupplierService {
	svc := NewSupplierService(orderRepo, catalogRepo, cache, mocks.NopLogger{})
	svc.now = func() time.Time { return time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestSupplierGetSummary(t *testing.T) {
	t.Run("composes revenue, margin and catalog stats", func(t *testing.T) {
		orderRepo := new(mocks.MockOrderRepository)
		catalogRepo := new(mocks.MockCatalogRepository)

		orderRepo.On("SupplierOrderStats", mock.Anything, mock.Anything, testSupplierID, mock.Anything).
			Return(&ports.SupplierOrderStats{
				TotalOrders:  2,
				TotalRevenue: decimal.NewFromInt(160000),
				TotalItems:   4,
				TotalMargin:  decimal.NewFromInt(60000),
			}, nil)
		catalogRepo.On("ProductStats", mock.Anything, mock.Anything, domain.PartySupplier, testSupplierID).
			Return(&ports.ProductStats{Total: 5, Active: 5}, nil)
		catalogRepo.On("AuthorizationStats", mock.Anything, mock.Anything, domain.PartySupplier, testSupplierID).
			Return(&ports.AuthorizationStats{Approved: 3}, nil)

		svc := newTestSupplierService(orderRepo, catalogRepo, mocks.NewMockCache())

		summary, err := svc.GetSummary(context.Background(), testSupplierID, nil)
		require.NoError(t, err)

		assert.Equal(t, int64(2), summary.TotalOrders)
		assert.True(t, summary.TotalRevenue.Equal(decimal.NewFromInt(160000)))
		assert.True(t, summary.TotalMargin.Equal(decimal.NewFromInt(60000)))
		assert.True(t, summary.AverageOrderValue.Equal(decimal.NewFromInt(80000)))
		assert.Equal(t, int64(5), summary.ProductActive)
		assert.Equal(t, int64(3), summary.AuthorizationsApproved)
	})

	t.Run("sub-query failure fails the summary", func(t *testing.T) {
		orderRepo := new(mocks.MockOrderRepository)
		catalogRepo := new(mocks.MockCatalogRepository)

		orderRepo.On("SupplierOrderStats", mock.Anything, mock.Anything, testSupplierID, mock.Anything).
			Return(nil, assert.AnError)
		catalogRepo.On("ProductStats", mock.Anything, mock.Anything, domain.PartySupplier, testSupplierID).
			Return(&ports.ProductStats{}, nil)
		catalogRepo.On("AuthorizationStats", mock.Anything, mock.Anything, domain.PartySupplier, testSupplierID).
			Return(&ports.AuthorizationStats{}, nil)

		svc := newTestSupplierService(orderRepo, catalogRepo, mocks.NewMockCache())

		_, err := svc.GetSummary(context.Background(), testSupplierID, nil)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorCodeAggregationFailed, domain.GetErrorCode(err))
	})
}

func TestSupplierGetOrders(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	svc := newTestSupplierService(orderRepo, new(mocks.MockCatalogRepository), mocks.NewMockCache())

	rows := []ports.PartyOrderSummary{
		{
			OrderID:     "o1",
			OrderNumber: "ORD-1",
			OrderDate:   time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
			Status:      domain.OrderStatusCompleted,
			TotalAmount: decimal.NewFromInt(150000),
			PartyAmount: decimal.NewFromInt(80000),
			ItemCount:   2,
		},
	}
	orderRepo.On("ListOrderSummariesForParty", mock.Anything, mock.Anything, domain.PartySupplier, testSupplierID, mock.Anything).
		Return(rows, nil)
	orderRepo.On("CountOrdersForParty", mock.Anything, mock.Anything, domain.PartySupplier, testSupplierID, mock.Anything).
		Return(int64(1), nil)

	page, err := svc.GetOrders(context.Background(), testSupplierID, OrderFilter{})
	require.NoError(t, err)

	require.Len(t, page.Orders, 1)
	assert.True(t, page.Orders[0].PartyAmount.Equal(decimal.NewFromInt(80000)))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.Limit)
}
