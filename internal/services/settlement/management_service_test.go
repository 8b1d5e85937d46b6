package settlement

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketbridge/settlement-service/internal/domain"
	"github.com/marketbridge/settlement-service/internal/testutil/fixtures"
	"github.com/marketbridge/settlement-service/internal/testutil/mocks"
)

func newTestManagementService(orderRepo *mocks.MockOrderRepository, settlementRepo *mocks.MockSettlementRepository) (*ManagementService, *mocks.MockDB) {
	db := &mocks.MockDB{}
	svc := NewManagementService(db, orderRepo, settlementRepo, domain.DefaultCommissionPolicy(), mocks.NopLogger{})
	svc.now = func() time.Time { return time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC) }
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("00000000-0000-0000-0000-%012d", seq)
	}
	return svc, db
}

func findByParty(t *testing.T, settlements []*domain.Settlement, party domain.PartyType) *domain.Settlement {
	t.Helper()
	for _, s := range settlements {
		if s.PartyType == party {
			return s
		}
	}
	t.Fatalf("no settlement for party %s", party)
	return nil
}

func TestGenerateSettlement_SplitsOrderAcrossParties(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	settlementRepo := new(mocks.MockSettlementRepository)
	svc, db := newTestManagementService(orderRepo, settlementRepo)

	partnerID := "7b43a2a1-14c2-4b4f-9e5f-2f1a6a3c9d10"
	order := fixtures.NewOrder().
		WithItem(fixtures.NewItem().WithPartnerID(partnerID).Build()).
		Build()

	orderRepo.On("GetByID", mock.Anything, mock.Anything, order.ID).Return(order, nil)
	settlementRepo.On("CreateSettlement", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	settlementRepo.On("CreateItems", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.GenerateSettlement(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, result.Settlements, 4)

	// 110000 sale, no commission snapshot: 20% default applies
	seller := findByParty(t, result.Settlements, domain.PartySeller)
	assert.True(t, seller.PayableAmount.Equal(decimal.NewFromInt(88000)), "seller net, got %s", seller.PayableAmount)

	supplier := findByParty(t, result.Settlements, domain.PartySupplier)
	assert.True(t, supplier.PayableAmount.Equal(decimal.NewFromInt(80000)), "supplier pass-through, got %s", supplier.PayableAmount)

	partner := findByParty(t, result.Settlements, domain.PartyPartner)
	assert.True(t, partner.PayableAmount.Equal(decimal.NewFromInt(5500)), "partner referral, got %s", partner.PayableAmount)
	assert.Equal(t, partnerID, partner.PartyID)

	platform := findByParty(t, result.Settlements, domain.PartyPlatform)
	assert.True(t, platform.PayableAmount.Equal(decimal.NewFromInt(16500)), "platform fee, got %s", platform.PayableAmount)

	// Seller net and commission partition the sale price
	commission := result.Diagnostics.TotalsByParty[domain.PartyPartner].
		Add(result.Diagnostics.TotalsByParty[domain.PartyPlatform])
	assert.True(t, seller.PayableAmount.Add(commission).Equal(order.TotalAmount))

	for _, s := range result.Settlements {
		assert.Equal(t, domain.SettlementStatusPending, s.Status)
		assert.Equal(t, order.ID, s.SourceOrderID)
		assert.Equal(t, "order-"+order.ID, s.Tag())
	}

	assert.Equal(t, 1, result.Diagnostics.OrdersProcessed)
	assert.Equal(t, 1, result.Diagnostics.ItemsProcessed)
	assert.Equal(t, 1, db.TransactionCalls)
	settlementRepo.AssertNumberOfCalls(t, "CreateSettlement", 4)
}

func TestGenerateSettlement_NoPartner(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	settlementRepo := new(mocks.MockSettlementRepository)
	svc, _ := newTestManagementService(orderRepo, settlementRepo)

	order := fixtures.NewOrder().WithItem(fixtures.NewItem().Build()).Build()

	orderRepo.On("GetByID", mock.Anything, mock.Anything, order.ID).Return(order, nil)
	settlementRepo.On("CreateSettlement", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	settlementRepo.On("CreateItems", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.GenerateSettlement(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, result.Settlements, 3, "no partner settlement without a referral")

	// With no referral the platform keeps the whole commission
	platform := findByParty(t, result.Settlements, domain.PartyPlatform)
	assert.True(t, platform.PayableAmount.Equal(decimal.NewFromInt(22000)))
}

func TestGenerateSettlement_SkipsZeroAmountParty(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	settlementRepo := new(mocks.MockSettlementRepository)
	svc, _ := newTestManagementService(orderRepo, settlementRepo)

	// Commission snapshot equals the referral exactly, so the platform
	// remainder is zero and no platform settlement may appear.
	order := fixtures.NewOrder().
		WithItem(fixtures.NewItem().
			WithPartnerID("2d0cb8a4-51f7-43ce-8453-64931e2e0a77").
			WithCommissionAmount(decimal.NewFromInt(5500)).
			Build()).
		Build()

	orderRepo.On("GetByID", mock.Anything, mock.Anything, order.ID).Return(order, nil)
	settlementRepo.On("CreateSettlement", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	settlementRepo.On("CreateItems", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.GenerateSettlement(context.Background(), order.ID)
	require.NoError(t, err)

	for _, s := range result.Settlements {
		assert.NotEqual(t, domain.PartyPlatform, s.PartyType)
		assert.False(t, s.PayableAmount.IsZero())
	}
}

func TestGenerateSettlement_UsesCommissionSnapshot(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	settlementRepo := new(mocks.MockSettlementRepository)
	svc, _ := newTestManagementService(orderRepo, settlementRepo)

	order := fixtures.NewOrder().
		WithItem(fixtures.NewItem().WithCommissionAmount(decimal.NewFromInt(10000)).Build()).
		Build()

	orderRepo.On("GetByID", mock.Anything, mock.Anything, order.ID).Return(order, nil)
	settlementRepo.On("CreateSettlement", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	settlementRepo.On("CreateItems", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.GenerateSettlement(context.Background(), order.ID)
	require.NoError(t, err)

	// Snapshot wins over the 20% default
	seller := findByParty(t, result.Settlements, domain.PartySeller)
	assert.True(t, seller.PayableAmount.Equal(decimal.NewFromInt(100000)))
}

func TestGenerateSettlement_RejectsUnpaidOrder(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	settlementRepo := new(mocks.MockSettlementRepository)
	svc, db := newTestManagementService(orderRepo, settlementRepo)

	order := fixtures.NewOrder().
		WithPaymentStatus(domain.PaymentStatusPending).
		WithItem(fixtures.NewItem().Build()).
		Build()

	orderRepo.On("GetByID", mock.Anything, mock.Anything, order.ID).Return(order, nil)

	_, err := svc.GenerateSettlement(context.Background(), order.ID)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeOrderNotSettleable, domain.GetErrorCode(err))
	assert.Equal(t, 0, db.TransactionCalls)
}

func TestGenerateSettlement_OrderNotFound(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	settlementRepo := new(mocks.MockSettlementRepository)
	svc, _ := newTestManagementService(orderRepo, settlementRepo)

	orderRepo.On("GetByID", mock.Anything, mock.Anything, "missing").Return(nil, domain.ErrOrderNotFound)

	_, err := svc.GenerateSettlement(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, domain.IsNotFoundError(err))
}

func TestGenerateSettlement_DuplicateOrder(t *testing.T) {
	orderRepo := new(mocks.MockOrderRepository)
	settlementRepo := new(mocks.MockSettlementRepository)
	svc, _ := newTestManagementService(orderRepo, settlementRepo)

	order := fixtures.NewOrder().WithItem(fixtures.NewItem().Build()).Build()

	orderRepo.On("GetByID", mock.Anything, mock.Anything, order.ID).Return(order, nil)
	settlementRepo.On("CreateSettlement", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.ErrSettlementDuplicate)

	_, err := svc.GenerateSettlement(context.Background(), order.ID)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeSettlementDuplicate, domain.GetErrorCode(err))
}

func TestGenerateSettlement_MissingOrderID(t *testing.T) {
	svc, _ := newTestManagementService(new(mocks.MockOrderRepository), new(mocks.MockSettlementRepository))

	_, err := svc.GenerateSettlement(context.Background(), "")
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestGenerateForPeriod(t *testing.T) {
	t.Run("skips already settled orders", func(t *testing.T) {
		orderRepo := new(mocks.MockOrderRepository)
		settlementRepo := new(mocks.MockSettlementRepository)
		svc, _ := newTestManagementService(orderRepo, settlementRepo)

		settled := fixtures.NewOrder().WithItem(fixtures.NewItem().Build()).Build()
		fresh := fixtures.NewOrder().WithItem(fixtures.NewItem().Build()).Build()

		orderRepo.On("ListCompletedInPeriod", mock.Anything, mock.Anything, mock.Anything).
			Return([]*domain.Order{settled, fresh}, nil)
		settlementRepo.On("ExistsForOrder", mock.Anything, mock.Anything, settled.ID).Return(true, nil)
		settlementRepo.On("ExistsForOrder", mock.Anything, mock.Anything, fresh.ID).Return(false, nil)
		settlementRepo.On("CreateSettlement", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		settlementRepo.On("CreateItems", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		result, err := svc.GenerateForPeriod(context.Background(), PeriodConfig{})
		require.NoError(t, err)

		assert.Equal(t, 1, result.Diagnostics.OrdersProcessed)
		assert.Equal(t, 1, result.Diagnostics.OrdersSkipped)
		for _, s := range result.Settlements {
			assert.Equal(t, fresh.ID, s.SourceOrderID)
		}
	})

	t.Run("dry run computes without persisting", func(t *testing.T) {
		orderRepo := new(mocks.MockOrderRepository)
		settlementRepo := new(mocks.MockSettlementRepository)
		svc, db := newTestManagementService(orderRepo, settlementRepo)

		order := fixtures.NewOrder().WithItem(fixtures.NewItem().Build()).Build()

		orderRepo.On("ListCompletedInPeriod", mock.Anything, mock.Anything, mock.Anything).
			Return([]*domain.Order{order}, nil)
		settlementRepo.On("ExistsForOrder", mock.Anything, mock.Anything, order.ID).Return(false, nil)

		result, err := svc.GenerateForPeriod(context.Background(), PeriodConfig{DryRun: true})
		require.NoError(t, err)

		assert.NotEmpty(t, result.Settlements)
		assert.Equal(t, 0, db.TransactionCalls)
		settlementRepo.AssertNotCalled(t, "CreateSettlement", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		svc, _ := newTestManagementService(new(mocks.MockOrderRepository), new(mocks.MockSettlementRepository))

		r := &domain.DateRange{
			From: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		}
		_, err := svc.GenerateForPeriod(context.Background(), PeriodConfig{Range: r})
		require.Error(t, err)
		assert.True(t, domain.IsValidationError(err))
	})

	t.Run("failed order is reported and the batch continues", func(t *testing.T) {
		orderRepo := new(mocks.MockOrderRepository)
		settlementRepo := new(mocks.MockSettlementRepository)
		svc, _ := newTestManagementService(orderRepo, settlementRepo)

		first := fixtures.NewOrder().WithItem(fixtures.NewItem().Build()).Build()
		bad := fixtures.NewOrder().WithItem(fixtures.NewItem().Build()).Build()
		last := fixtures.NewOrder().WithItem(fixtures.NewItem().Build()).Build()

		orderRepo.On("ListCompletedInPeriod", mock.Anything, mock.Anything, mock.Anything).
			Return([]*domain.Order{first, bad, last}, nil)
		settlementRepo.On("ExistsForOrder", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

		insertErr := errors.New("insert failed")
		settlementRepo.On("CreateSettlement", mock.Anything, mock.Anything, mock.MatchedBy(func(s *domain.Settlement) bool {
			return s.SourceOrderID == bad.ID
		})).Return(insertErr)
		settlementRepo.On("CreateSettlement", mock.Anything, mock.Anything, mock.MatchedBy(func(s *domain.Settlement) bool {
			return s.SourceOrderID != bad.ID
		})).Return(nil)
		settlementRepo.On("CreateItems", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		result, err := svc.GenerateForPeriod(context.Background(), PeriodConfig{})
		require.NoError(t, err)

		assert.Equal(t, 2, result.Diagnostics.OrdersProcessed)
		require.Len(t, result.Diagnostics.Failures, 1)
		assert.Equal(t, bad.ID, result.Diagnostics.Failures[0].OrderID)
		assert.ErrorIs(t, result.Diagnostics.Failures[0].Err, insertErr)

		// The failed order contributes nothing to settlements or totals.
		for _, s := range result.Settlements {
			assert.NotEqual(t, bad.ID, s.SourceOrderID)
		}
		sellerNet := first.Items[0].TotalPrice.Sub(svc.policy.SellerCommission(&first.Items[0])).
			Add(last.Items[0].TotalPrice.Sub(svc.policy.SellerCommission(&last.Items[0])))
		assert.True(t, result.Diagnostics.TotalsByParty[domain.PartySeller].Equal(sellerNet))

		// Both orders after the failure still settled.
		for _, order := range []*domain.Order{first, last} {
			found := false
			for _, s := range result.Settlements {
				if s.SourceOrderID == order.ID {
					found = true
				}
			}
			assert.True(t, found, "order %s missing from results", order.ID)
		}
	})
}

func TestFinalizeSettlement(t *testing.T) {
	t.Run("pending moves to processing", func(t *testing.T) {
		settlementRepo := new(mocks.MockSettlementRepository)
		svc, _ := newTestManagementService(new(mocks.MockOrderRepository), settlementRepo)

		stored := fixtures.NewSettlement().Build()
		settlementRepo.On("GetByID", mock.Anything, mock.Anything, stored.ID).Return(stored, nil)
		settlementRepo.On("UpdateStatus", mock.Anything, mock.Anything, stored).Return(nil)

		updated, err := svc.FinalizeSettlement(context.Background(), stored.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SettlementStatusProcessing, updated.Status)
		settlementRepo.AssertCalled(t, "UpdateStatus", mock.Anything, mock.Anything, stored)
	})

	t.Run("repeat finalize is rejected", func(t *testing.T) {
		settlementRepo := new(mocks.MockSettlementRepository)
		svc, _ := newTestManagementService(new(mocks.MockOrderRepository), settlementRepo)

		stored := fixtures.NewSettlement().WithStatus(domain.SettlementStatusProcessing).Build()
		settlementRepo.On("GetByID", mock.Anything, mock.Anything, stored.ID).Return(stored, nil)

		_, err := svc.FinalizeSettlement(context.Background(), stored.ID)
		require.Error(t, err)
		assert.True(t, domain.IsInvalidStateError(err))
		settlementRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown id", func(t *testing.T) {
		settlementRepo := new(mocks.MockSettlementRepository)
		svc, _ := newTestManagementService(new(mocks.MockOrderRepository), settlementRepo)

		settlementRepo.On("GetByID", mock.Anything, mock.Anything, "missing").
			Return(nil, domain.ErrSettlementNotFound)

		_, err := svc.FinalizeSettlement(context.Background(), "missing")
		require.Error(t, err)
		assert.True(t, domain.IsNotFoundError(err))
	})
}

func TestMarkAsPaid(t *testing.T) {
	t.Run("processing moves to paid with timestamp", func(t *testing.T) {
		settlementRepo := new(mocks.MockSettlementRepository)
		svc, _ := newTestManagementService(new(mocks.MockOrderRepository), settlementRepo)

		stored := fixtures.NewSettlement().WithStatus(domain.SettlementStatusProcessing).Build()
		settlementRepo.On("GetByID", mock.Anything, mock.Anything, stored.ID).Return(stored, nil)
		settlementRepo.On("UpdateStatus", mock.Anything, mock.Anything, stored).Return(nil)

		updated, err := svc.MarkAsPaid(context.Background(), stored.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SettlementStatusPaid, updated.Status)
		require.NotNil(t, updated.PaidAt)
		assert.Equal(t, time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC), *updated.PaidAt)
	})

	t.Run("paid is terminal", func(t *testing.T) {
		settlementRepo := new(mocks.MockSettlementRepository)
		svc, _ := newTestManagementService(new(mocks.MockOrderRepository), settlementRepo)

		stored := fixtures.NewSettlement().WithStatus(domain.SettlementStatusPaid).Build()
		settlementRepo.On("GetByID", mock.Anything, mock.Anything, stored.ID).Return(stored, nil)

		_, err := svc.MarkAsPaid(context.Background(), stored.ID)
		require.Error(t, err)
		assert.True(t, domain.IsInvalidStateError(err))
		assert.Contains(t, err.Error(), "already paid")
	})
}

func TestCancelSettlement(t *testing.T) {
	t.Run("pending cancels with reason", func(t *testing.T) {
		settlementRepo := new(mocks.MockSettlementRepository)
		svc, _ := newTestManagementService(new(mocks.MockOrderRepository), settlementRepo)

		stored := fixtures.NewSettlement().Build()
		settlementRepo.On("GetByID", mock.Anything, mock.Anything, stored.ID).Return(stored, nil)
		settlementRepo.On("UpdateStatus", mock.Anything, mock.Anything, stored).Return(nil)

		updated, err := svc.CancelSettlement(context.Background(), stored.ID, "order refunded")
		require.NoError(t, err)
		assert.Equal(t, domain.SettlementStatusCancelled, updated.Status)
		assert.Equal(t, "order refunded", updated.CancelReason)
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		settlementRepo := new(mocks.MockSettlementRepository)
		svc, _ := newTestManagementService(new(mocks.MockOrderRepository), settlementRepo)

		stored := fixtures.NewSettlement().WithStatus(domain.SettlementStatusCancelled).Build()
		settlementRepo.On("GetByID", mock.Anything, mock.Anything, stored.ID).Return(stored, nil)

		_, err := svc.CancelSettlement(context.Background(), stored.ID, "again")
		require.Error(t, err)
		assert.True(t, domain.IsInvalidStateError(err))
	})
}
