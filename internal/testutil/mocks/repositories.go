// Package mocks provides shared mock implementations for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/marketbridge/settlement-service/internal/domain"
	"github.com/marketbridge/settlement-service/internal/domain/ports"
)

// MockOrderRepository mocks ports.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) GetByID(ctx context.Context, db ports.DBTX, id string) (*domain.Order, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) ListCompletedInPeriod(ctx context.Context, db ports.DBTX, r domain.DateRange) ([]*domain.Order, error) {
	args := m.Called(ctx, db, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) SellerCommissionByOrder(ctx context.Context, db ports.DBTX, sellerID string, r domain.DateRange) ([]ports.SellerOrderCommissionRow, error) {
	args := m.Called(ctx, db, sellerID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.SellerOrderCommissionRow), args.Error(1)
}

func (m *MockOrderRepository) SupplierRevenueByOrder(ctx context.Context, db ports.DBTX, supplierID string, r domain.DateRange) ([]ports.SupplierOrderRevenueRow, error) {
	args := m.Called(ctx, db, supplierID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.SupplierOrderRevenueRow), args.Error(1)
}

func (m *MockOrderRepository) SellerOrderStats(ctx context.Context, db ports.DBTX, sellerID string, r domain.DateRange) (*ports.SellerOrderStats, error) {
	args := m.Called(ctx, db, sellerID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.SellerOrderStats), args.Error(1)
}

func (m *MockOrderRepository) SupplierOrderStats(ctx context.Context, db ports.DBTX, supplierID string, r domain.DateRange) (*ports.SupplierOrderStats, error) {
	args := m.Called(ctx, db, supplierID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.SupplierOrderStats), args.Error(1)
}

func (m *MockOrderRepository) ListOrderSummariesForParty(ctx context.Context, db ports.DBTX, party domain.PartyType, partyID string, f ports.OrderListFilter) ([]ports.PartyOrderSummary, error) {
	args := m.Called(ctx, db, party, partyID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.PartyOrderSummary), args.Error(1)
}

func (m *MockOrderRepository) CountOrdersForParty(ctx context.Context, db ports.DBTX, party domain.PartyType, partyID string, f ports.OrderListFilter) (int64, error) {
	args := m.Called(ctx, db, party, partyID, f)
	return args.Get(0).(int64), args.Error(1)
}

// MockSettlementRepository mocks ports.SettlementRepository
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) CreateSettlement(ctx context.Context, tx ports.DBTX, s *domain.Settlement) error {
	args := m.Called(ctx, tx, s)
	return args.Error(0)
}

func (m *MockSettlementRepository) CreateItems(ctx context.Context, tx ports.DBTX, items []*domain.SettlementItem) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

func (m *MockSettlementRepository) GetByID(ctx context.Context, db ports.DBTX, id string) (*domain.Settlement, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, s *domain.Settlement) error {
	args := m.Called(ctx, tx, s)
	return args.Error(0)
}

func (m *MockSettlementRepository) ExistsForOrder(ctx context.Context, db ports.DBTX, orderID string) (bool, error) {
	args := m.Called(ctx, db, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSettlementRepository) ListItemsBySettlement(ctx context.Context, db ports.DBTX, settlementID string) ([]*domain.SettlementItem, error) {
	args := m.Called(ctx, db, settlementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SettlementItem), args.Error(1)
}

func (m *MockSettlementRepository) StatusSummary(ctx context.Context, db ports.DBTX, party domain.PartyType, partyID string, r domain.DateRange) (*ports.SettlementStatusSummary, error) {
	args := m.Called(ctx, db, party, partyID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.SettlementStatusSummary), args.Error(1)
}

func (m *MockSettlementRepository) ListByParty(ctx context.Context, db ports.DBTX, party domain.PartyType, partyID string, f ports.SettlementListFilter) ([]*domain.Settlement, error) {
	args := m.Called(ctx, db, party, partyID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) CountByParty(ctx context.Context, db ports.DBTX, party domain.PartyType, partyID string, f ports.SettlementListFilter) (int64, error) {
	args := m.Called(ctx, db, party, partyID, f)
	return args.Get(0).(int64), args.Error(1)
}

// MockCatalogRepository mocks ports.CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) ProductStats(ctx context.Context, db ports.DBTX, party domain.PartyType, partyID string) (*ports.ProductStats, error) {
	args := m.Called(ctx, db, party, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.ProductStats), args.Error(1)
}

func (m *MockCatalogRepository) AuthorizationStats(ctx context.Context, db ports.DBTX, party domain.PartyType, partyID string) (*ports.AuthorizationStats, error) {
	args := m.Called(ctx, db, party, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.AuthorizationStats), args.Error(1)
}
