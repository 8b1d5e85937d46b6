package dashboard

import (
	"context"
	"encoding/json"
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

const testSellerID = "c2d5e9b0-8a1f-4c3d-9e2b-5f6a7c8d9e0f"

func newTestSellerService(orderRepo *mocks.MockOrderRepository, catalogRepo *mocks.MockCatalogRepository, cache *mocks.MockCache) *SellerService {
	svc := NewSellerService(orderRepo, catalogRepo, cache, mocks.NopLogger{})
	svc.now = func() time.Time { return time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC) }
	return svc
}

func sellerHappyPathMocks() (*mocks.MockOrderRepository, *mocks.MockCatalogRepository) {
	orderRepo := new(mocks.MockOrderRepository)
	catalogRepo := new(mocks.MockCatalogRepository)

	orderRepo.On("SellerOrderStats", mock.Anything, mock.Anything, testSellerID, mock.Anything).
		Return(&ports.SellerOrderStats{
			TotalOrders:     4,
			TotalSales:      decimal.NewFromInt(440000),
			TotalItems:      8,
			TotalCommission: decimal.NewFromInt(88000),
		}, nil)
	catalogRepo.On("ProductStats", mock.Anything, mock.Anything, domain.PartySeller, testSellerID).
		Return(&ports.ProductStats{Total: 12, Active: 10, Inactive: 2}, nil)
	catalogRepo.On("AuthorizationStats", mock.Anything, mock.Anything, domain.PartySeller, testSellerID).
		Return(&ports.AuthorizationStats{Pending: 1, Approved: 7, Rejected: 2}, nil)

	return orderRepo, catalogRepo
}

func TestSellerGetSummary(t *testing.T) {
	t.Run("composes order, product and authorization stats", func(t *testing.T) {
		orderRepo, catalogRepo := sellerHappyPathMocks()
		svc := newTestSellerService(orderRepo, catalogRepo, mocks.NewMockCache())

		summary, err := svc.GetSummary(context.Background(), testSellerID, nil)
		require.NoError(t, err)

		assert.Equal(t, int64(4), summary.TotalOrders)
		assert.True(t, summary.TotalRevenue.Equal(decimal.NewFromInt(440000)))
		assert.Equal(t, int64(8), summary.TotalItems)
		assert.True(t, summary.TotalCommission.Equal(decimal.NewFromInt(88000)))
		assert.True(t, summary.AverageOrderValue.Equal(decimal.NewFromInt(110000)))

		assert.Equal(t, int64(12), summary.ProductTotal)
		assert.Equal(t, int64(10), summary.ProductActive)
		assert.Equal(t, int64(2), summary.ProductInactive)
		assert.Equal(t, int64(1), summary.AuthorizationsPending)
		assert.Equal(t, int64(7), summary.AuthorizationsApproved)
		assert.Equal(t, int64(2), summary.AuthorizationsRejected)

		// Default window is the trailing 30 days
		assert.Equal(t, time.Date(2025, 5, 17, 9, 0, 0, 0, time.UTC), summary.Period.From)
	})

	t.Run("zero orders yields zero average", func(t *testing.T) {
		orderRepo := new(mocks.MockOrderRepository)
		catalogRepo := new(mocks.MockCatalogRepository)

		orderRepo.On("SellerOrderStats", mock.Anything, mock.Anything, testSellerID, mock.Anything).
			Return(&ports.SellerOrderStats{}, nil)
		catalogRepo.On("ProductStats", mock.Anything, mock.Anything, domain.PartySeller, testSellerID).
			Return(&ports.ProductStats{}, nil)
		catalogRepo.On("AuthorizationStats", mock.Anything, mock.Anything, domain.PartySeller, testSellerID).
			Return(&ports.AuthorizationStats{}, nil)

		svc := newTestSellerService(orderRepo, catalogRepo, mocks.NewMockCache())

		summary, err := svc.GetSummary(context.Background(), testSellerID, nil)
		require.NoError(t, err)
		assert.True(t, summary.AverageOrderValue.IsZero())
	})

	t.Run("second call within ttl hits the cache", func(t *testing.T) {
		orderRepo, catalogRepo := sellerHappyPathMocks()
		svc := newTestSellerService(orderRepo, catalogRepo, mocks.NewMockCache())

		_, err := svc.GetSummary(context.Background(), testSellerID, nil)
		require.NoError(t, err)
		_, err = svc.GetSummary(context.Background(), testSellerID, nil)
		require.NoError(t, err)

		orderRepo.AssertNumberOfCalls(t, "SellerOrderStats", 1)
		catalogRepo.AssertNumberOfCalls(t, "ProductStats", 1)
	})

	t.Run("cache outage degrades to direct queries", func(t *testing.T) {
		orderRepo, catalogRepo := sellerHappyPathMocks()
		cache := mocks.NewMockCache()
		cache.FailGet = true
		cache.FailSet = true
		svc := newTestSellerService(orderRepo, catalogRepo, cache)

		summary, err := svc.GetSummary(context.Background(), testSellerID, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(4), summary.TotalOrders)
	})

	t.Run("any failed sub-query fails the summary", func(t *testing.T) {
		orderRepo := new(mocks.MockOrderRepository)
		catalogRepo := new(mocks.MockCatalogRepository)

		orderRepo.On("SellerOrderStats", mock.Anything, mock.Anything, testSellerID, mock.Anything).
			Return(&ports.SellerOrderStats{}, nil)
		catalogRepo.On("ProductStats", mock.Anything, mock.Anything, domain.PartySeller, testSellerID).
			Return(nil, assert.AnError)
		catalogRepo.On("AuthorizationStats", mock.Anything, mock.Anything, domain.PartySeller, testSellerID).
			Return(&ports.AuthorizationStats{}, nil)

		svc := newTestSellerService(orderRepo, catalogRepo, mocks.NewMockCache())

		_, err := svc.GetSummary(context.Background(), testSellerID, nil)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorCodeAggregationFailed, domain.GetErrorCode(err))
	})

	t.Run("missing seller id", func(t *testing.T) {
		svc := newTestSellerService(new(mocks.MockOrderRepository), new(mocks.MockCatalogRepository), mocks.NewMockCache())

		_, err := svc.GetSummary(context.Background(), "", nil)
		require.Error(t, err)
		assert.True(t, domain.IsValidationError(err))
	})
}

func TestSellerSummaryLegacyAliases(t *testing.T) {
	summary := SellerSummary{
		SellerID:          testSellerID,
		TotalRevenue:      decimal.NewFromInt(440000),
		AverageOrderValue: decimal.NewFromInt(110000),
	}

	data, err := json.Marshal(summary.Legacy())
	require.NoError(t, err)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &wire))

	// Canonical and legacy names carry the same values on the wire
	assert.Equal(t, wire["totalRevenue"], wire["totalSalesAmount"])
	assert.Equal(t, wire["averageOrderValue"], wire["avgOrderAmount"])
}

func TestSellerGetOrders(t *testing.T) {
	t.Run("maps rows and pagination", func(t *testing.T) {
		orderRepo := new(mocks.MockOrderRepository)
		svc := newTestSellerService(orderRepo, new(mocks.MockCatalogRepository), mocks.NewMockCache())

		rows := []ports.PartyOrderSummary{
			{
				OrderID:     "o1",
				OrderNumber: "ORD-1",
				OrderDate:   time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
				Status:      domain.OrderStatusCompleted,
				TotalAmount: decimal.NewFromInt(150000),
				PartyAmount: decimal.NewFromInt(110000),
				ItemCount:   2,
			},
		}
		orderRepo.On("ListOrderSummariesForParty", mock.Anything, mock.Anything, domain.PartySeller, testSellerID, mock.Anything).
			Return(rows, nil)
		orderRepo.On("CountOrdersForParty", mock.Anything, mock.Anything, domain.PartySeller, testSellerID, mock.Anything).
			Return(int64(31), nil)

		page, err := svc.GetOrders(context.Background(), testSellerID, OrderFilter{Page: 2, Limit: 10})
		require.NoError(t, err)

		assert.Equal(t, int64(31), page.Total)
		assert.Equal(t, 2, page.Page)
		require.Len(t, page.Orders, 1)

		// The order's own total is reported alongside the seller share
		assert.True(t, page.Orders[0].TotalAmount.Equal(decimal.NewFromInt(150000)))
		assert.True(t, page.Orders[0].PartyAmount.Equal(decimal.NewFromInt(110000)))

		filter := orderRepo.Calls[0].Arguments.Get(4).(ports.OrderListFilter)
		assert.Equal(t, 10, filter.Offset())
	})

	t.Run("listing failure is wrapped", func(t *testing.T) {
		orderRepo := new(mocks.MockOrderRepository)
		svc := newTestSellerService(orderRepo, new(mocks.MockCatalogRepository), mocks.NewMockCache())

		orderRepo.On("ListOrderSummariesForParty", mock.Anything, mock.Anything, domain.PartySeller, testSellerID, mock.Anything).
			Return(nil, assert.AnError)

		_, err := svc.GetOrders(context.Background(), testSellerID, OrderFilter{})
		require.Error(t, err)
		assert.Equal(t, domain.ErrorCodeAggregationFailed, domain.GetErrorCode(err))
	})
}
