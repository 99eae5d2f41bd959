package warehouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func seedStock(repo *memoryStockRepo, available, reserved int64) {
	key := testStockKey()
	repo.records[key] = StockRecord{Key: key, Available: available, Reserved: reserved}
}

func TestReserveMovesAvailableToReserved(t *testing.T) {
	repo := newMemoryStockRepo()
	seedStock(repo, 10, 0)
	mgr := NewReservationManager(repo, nil, nil, nil)

	record, err := mgr.Reserve(context.Background(), testStockKey(), 4, 1)
	require.NoError(t, err)
	require.EqualValues(t, 6, record.Available)
	require.EqualValues(t, 4, record.Reserved)
}

func TestReserveMayDriveAvailableNegative(t *testing.T) {
	repo := newMemoryStockRepo()
	mgr := NewReservationManager(repo, nil, nil, nil)

	record, err := mgr.Reserve(context.Background(), testStockKey(), 5, 1)
	require.NoError(t, err)
	require.EqualValues(t, -5, record.Available)
	require.EqualValues(t, 5, record.Reserved)
}

func TestReleaseFloorsReservedAtZero(t *testing.T) {
	repo := newMemoryStockRepo()
	seedStock(repo, 6, 4)
	mgr := NewReservationManager(repo, nil, nil, nil)

	record, err := mgr.Release(context.Background(), testStockKey(), 10, false, 1)
	require.NoError(t, err)
	require.EqualValues(t, 0, record.Reserved)
	require.EqualValues(t, 6, record.Available)
}

func TestReleaseNegativeReservedWhenAllowed(t *testing.T) {
	repo := newMemoryStockRepo()
	seedStock(repo, 0, 4)
	mgr := NewReservationManager(repo, nil, nil, nil)

	record, err := mgr.Release(context.Background(), testStockKey(), 10, true, 1)
	require.NoError(t, err)
	require.EqualValues(t, -6, record.Reserved)
}

func TestReserveRestoreRoundTripLeavesCountersUnchanged(t *testing.T) {
	repo := newMemoryStockRepo()
	seedStock(repo, 10, 2)
	mgr := NewReservationManager(repo, nil, nil, nil)

	_, err := mgr.Reserve(context.Background(), testStockKey(), 7, 1)
	require.NoError(t, err)
	record, err := mgr.Restore(context.Background(), testStockKey(), 7, 1)
	require.NoError(t, err)

	require.EqualValues(t, 10, record.Available)
	require.EqualValues(t, 2, record.Reserved)
}

func TestMutateValidatesInput(t *testing.T) {
	mgr := NewReservationManager(newMemoryStockRepo(), nil, nil, nil)

	_, err := mgr.Reserve(context.Background(), StockKey{}, 1, 1)
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = mgr.Reserve(context.Background(), testStockKey(), -1, 1)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}
