package warehouse

import (
	"context"
	"errors"

	"github.com/meridian-commerce/meridian/internal/observability"
	"github.com/meridian-commerce/meridian/internal/shared"
)

// ReservationManager implements soft reservations over the stock counters.
// Reserving is unconditional: a sales channel that permits advance orders may
// drive available negative, and the deficit stays on the record until a goods
// receipt replenishes it.
type ReservationManager struct {
	repo    RepositoryPort
	audit   AuditPort
	cache   CachePort
	metrics *observability.Metrics
}

// NewReservationManager builds a ReservationManager.
func NewReservationManager(repo RepositoryPort, audit AuditPort, cache CachePort, metrics *observability.Metrics) *ReservationManager {
	return &ReservationManager{repo: repo, audit: audit, cache: cache, metrics: metrics}
}

// Reserve earmarks qty for an order: reserved += qty, available -= qty.
func (m *ReservationManager) Reserve(ctx context.Context, key StockKey, qty int64, actorID int64) (StockRecord, error) {
	return m.mutate(ctx, key, qty, actorID, "reserve", func(record *StockRecord) {
		record.Reserved += qty
		record.Available -= qty
	})
}

// Release drops a reservation on fulfilment. Available is untouched: the
// checkout already decremented it and the shipment-time stock decrement is a
// separate ledger adjustment. With allowNegativeReserved false the counter is
// floored at zero.
func (m *ReservationManager) Release(ctx context.Context, key StockKey, qty int64, allowNegativeReserved bool, actorID int64) (StockRecord, error) {
	return m.mutate(ctx, key, qty, actorID, "release", func(record *StockRecord) {
		record.Reserved -= qty
		if !allowNegativeReserved && record.Reserved < 0 {
			record.Reserved = 0
		}
	})
}

// Restore moves a reservation back into free stock on order cancellation.
func (m *ReservationManager) Restore(ctx context.Context, key StockKey, qty int64, actorID int64) (StockRecord, error) {
	return m.mutate(ctx, key, qty, actorID, "restore", func(record *StockRecord) {
		record.Available += qty
		record.Reserved -= qty
		if record.Reserved < 0 {
			record.Reserved = 0
		}
	})
}

func (m *ReservationManager) mutate(ctx context.Context, key StockKey, qty int64, actorID int64, kind string, apply func(*StockRecord)) (StockRecord, error) {
	if !key.Valid() {
		return StockRecord{}, ErrInvalidKey
	}
	if qty < 0 {
		return StockRecord{}, ErrInvalidQuantity
	}
	var result StockRecord
	err := m.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		record, err := tx.GetStockForUpdate(ctx, key)
		if err != nil && !errors.Is(err, ErrStockNotFound) {
			return err
		}
		apply(&record)
		result = record
		return tx.UpsertStock(ctx, record)
	})
	if err != nil {
		return StockRecord{}, err
	}
	if m.cache != nil {
		m.cache.Invalidate(ctx, key)
	}
	m.metrics.CountReservation(kind)
	if m.audit != nil {
		_ = m.audit.Record(ctx, shared.AuditLog{
			CompanyID: key.CompanyID,
			ActorID:   actorID,
			Action:    "stock:" + kind,
			Entity:    "stock_record",
			EntityID:  stockEntityID(key),
			Meta: map[string]any{
				"warehouse_id": key.WarehouseID,
				"product_id":   key.ProductID,
				"variant_id":   key.VariantID,
				"qty":          qty,
				"available":    result.Available,
				"reserved":     result.Reserved,
			},
		})
	}
	return result, nil
}
