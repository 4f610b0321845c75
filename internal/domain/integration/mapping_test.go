package integration

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductMapping(t *testing.T) {
	connID := uuid.New()
	productID := uuid.New()

	t.Run("creates mapping with inventory item handle", func(t *testing.T) {
		mapping, err := NewProductMapping(connID, productID, RemoteProduct{
			ProductID:       "9001",
			VariantID:       "9002",
			InventoryItemID: "inv-77",
			SKU:             "WIDGET-1",
		})
		require.NoError(t, err)
		assert.Equal(t, connID, mapping.ConnectionID)
		assert.Equal(t, productID, mapping.LocalProductID)
		assert.Equal(t, "inv-77", mapping.RemoteInventoryItemID)
		assert.Equal(t, MappingStatusPendingPush, mapping.Status)
		assert.Nil(t, mapping.LastSyncedAt)
	})

	t.Run("falls back to product ID as handle", func(t *testing.T) {
		mapping, err := NewProductMapping(connID, productID, RemoteProduct{ProductID: "9001"})
		require.NoError(t, err)
		assert.Equal(t, "9001", mapping.RemoteInventoryItemID)
	})

	t.Run("rejects missing identifiers", func(t *testing.T) {
		_, err := NewProductMapping(uuid.Nil, productID, RemoteProduct{ProductID: "9001"})
		assert.ErrorIs(t, err, ErrMappingInvalidInput)

		_, err = NewProductMapping(connID, uuid.Nil, RemoteProduct{ProductID: "9001"})
		assert.ErrorIs(t, err, ErrMappingInvalidInput)

		_, err = NewProductMapping(connID, productID, RemoteProduct{})
		assert.ErrorIs(t, err, ErrMappingInvalidInput)
	})
}

func TestProductMapping_DriftClassification(t *testing.T) {
	mapping := &ProductMapping{
		LastKnownLocalQty:  decimal.NewFromInt(10),
		LastKnownRemoteQty: decimal.NewFromInt(10),
	}

	tests := []struct {
		name         string
		local        int64
		remote       int64
		localDrift   bool
		remoteDrift  bool
	}{
		{"no drift", 10, 10, false, false},
		{"local only", 7, 10, true, false},
		{"remote only", 10, 15, false, true},
		{"both sides", 7, 15, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.localDrift, mapping.LocalChanged(decimal.NewFromInt(tt.local)))
			assert.Equal(t, tt.remoteDrift, mapping.RemoteChanged(decimal.NewFromInt(tt.remote)))
		})
	}
}

func TestProductMapping_MarkSynced(t *testing.T) {
	mapping := &ProductMapping{
		Status:             MappingStatusConflict,
		LastKnownLocalQty:  decimal.NewFromInt(10),
		LastKnownRemoteQty: decimal.NewFromInt(10),
	}

	mapping.MarkSynced(decimal.NewFromInt(7), decimal.NewFromInt(7))

	assert.Equal(t, MappingStatusSynced, mapping.Status)
	assert.True(t, mapping.LastKnownLocalQty.Equal(decimal.NewFromInt(7)))
	assert.True(t, mapping.LastKnownRemoteQty.Equal(decimal.NewFromInt(7)))
	require.NotNil(t, mapping.LastSyncedAt)
}

func TestSyncLogEntry_Lifecycle(t *testing.T) {
	entry := NewSyncLogEntry(uuid.New(), SyncKindFull, SyncTriggerManual)
	assert.Equal(t, SyncLogStatusStarted, entry.Status)
	assert.Nil(t, entry.CompletedAt)

	t.Run("complete fills final counts", func(t *testing.T) {
		e := *entry
		e.Complete(3, 2, 1, "1 conflict resolved")
		assert.Equal(t, SyncLogStatusCompleted, e.Status)
		assert.Equal(t, 3, e.Pushed)
		assert.Equal(t, 2, e.Pulled)
		assert.Equal(t, 1, e.ErrorCount)
		assert.NotNil(t, e.CompletedAt)
	})

	t.Run("fail keeps partial counts", func(t *testing.T) {
		e := *entry
		e.Fail(1, 0, 1, "remote fetch failed")
		assert.Equal(t, SyncLogStatusFailed, e.Status)
		assert.Equal(t, 1, e.Pushed)
		assert.Equal(t, "remote fetch failed", e.Detail)
		assert.NotNil(t, e.CompletedAt)
	})
}

func TestUpdateResult_AllSucceeded(t *testing.T) {
	ok := &UpdateResult{Succeeded: []string{"a", "b"}}
	assert.True(t, ok.AllSucceeded())

	bad := &UpdateResult{Succeeded: []string{"a"}, Failed: []UpdateFailure{{InventoryItemID: "b", Message: "denied"}}}
	assert.False(t, bad.AllSucceeded())
}
