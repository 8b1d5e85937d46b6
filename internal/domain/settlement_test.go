package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingSettlement() *Settlement {
	return &Settlement{
		ID:            "st-1",
		PartyType:     PartySeller,
		PartyID:       "seller-1",
		PayableAmount: decimal.NewFromInt(88000),
		Status:        SettlementStatusPending,
		SourceOrderID: "order-1",
	}
}

func TestSettlement_Finalize(t *testing.T) {
	t.Run("pending transitions to processing", func(t *testing.T) {
		s := newPendingSettlement()
		require.NoError(t, s.Finalize())
		assert.Equal(t, SettlementStatusProcessing, s.Status)
	})

	t.Run("repeat finalize is rejected", func(t *testing.T) {
		s := newPendingSettlement()
		require.NoError(t, s.Finalize())

		err := s.Finalize()
		require.Error(t, err)
		assert.True(t, IsInvalidStateError(err))
		// The failed call must not disturb the state
		assert.Equal(t, SettlementStatusProcessing, s.Status)
	})

	t.Run("paid is terminal", func(t *testing.T) {
		s := newPendingSettlement()
		require.NoError(t, s.MarkPaid(time.Now()))

		err := s.Finalize()
		require.Error(t, err)
		assert.True(t, IsInvalidStateError(err))
		assert.Contains(t, err.Error(), "already paid")
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		s := newPendingSettlement()
		require.NoError(t, s.Cancel("operator abort"))

		err := s.Finalize()
		require.Error(t, err)
		assert.True(t, IsInvalidStateError(err))
		assert.Contains(t, err.Error(), "cancelled")
	})
}

func TestSettlement_MarkPaid(t *testing.T) {
	t.Run("from processing", func(t *testing.T) {
		s := newPendingSettlement()
		require.NoError(t, s.Finalize())

		now := time.Now()
		require.NoError(t, s.MarkPaid(now))
		assert.Equal(t, SettlementStatusPaid, s.Status)
		require.NotNil(t, s.PaidAt)
		assert.Equal(t, now, *s.PaidAt)
	})

	t.Run("directly from pending", func(t *testing.T) {
		s := newPendingSettlement()
		require.NoError(t, s.MarkPaid(time.Now()))
		assert.Equal(t, SettlementStatusPaid, s.Status)
	})

	t.Run("paying twice fails", func(t *testing.T) {
		s := newPendingSettlement()
		require.NoError(t, s.MarkPaid(time.Now()))
		assert.Error(t, s.MarkPaid(time.Now()))
	})

	t.Run("paying a cancelled settlement fails", func(t *testing.T) {
		s := newPendingSettlement()
		require.NoError(t, s.Cancel("dup"))
		err := s.MarkPaid(time.Now())
		require.Error(t, err)
		assert.True(t, IsInvalidStateError(err))
	})
}

func TestSettlement_Cancel(t *testing.T) {
	t.Run("from pending and processing", func(t *testing.T) {
		s := newPendingSettlement()
		require.NoError(t, s.Cancel("mistake"))
		assert.Equal(t, SettlementStatusCancelled, s.Status)
		assert.Equal(t, "mistake", s.CancelReason)

		s2 := newPendingSettlement()
		require.NoError(t, s2.Finalize())
		require.NoError(t, s2.Cancel("abort"))
		assert.Equal(t, SettlementStatusCancelled, s2.Status)
	})

	t.Run("paid cannot be cancelled", func(t *testing.T) {
		s := newPendingSettlement()
		require.NoError(t, s.MarkPaid(time.Now()))
		assert.Error(t, s.Cancel("too late"))
	})
}

func TestSettlement_Tag(t *testing.T) {
	s := newPendingSettlement()
	assert.Equal(t, "order-order-1", s.Tag())

	s.SourceOrderID = "3f2a"
	assert.Equal(t, "order-3f2a", s.Tag())
}

func TestSettlementStatus_IsTerminal(t *testing.T) {
	assert.False(t, SettlementStatusPending.IsTerminal())
	assert.False(t, SettlementStatusProcessing.IsTerminal())
	assert.True(t, SettlementStatusPaid.IsTerminal())
	assert.True(t, SettlementStatusCancelled.IsTerminal())
}

func TestPartyType_Valid(t *testing.T) {
	for _, p := range []PartyType{PartySeller, PartySupplier, PartyPartner, PartyPlatform} {
		assert.True(t, p.Valid())
	}
	assert.False(t, PartyType("buyer").Valid())
}
