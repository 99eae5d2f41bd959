package warehouse

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-commerce/meridian/internal/shared"
)

// RepositoryPort abstracts repository usage for the ledger services.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetStock(ctx context.Context, key StockKey) (StockRecord, error)
	ListStock(ctx context.Context, companyID, warehouseID int64, limit, offset int) ([]StockRecord, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort abstracts the read cache for stock records.
type CachePort interface {
	Get(ctx context.Context, key StockKey) (StockRecord, bool)
	Set(ctx context.Context, record StockRecord)
	Invalidate(ctx context.Context, key StockKey)
}

// Ledger exposes the durable stock counters. It applies no business policy
// beyond the non-negative floor; reservation semantics live in
// ReservationManager and receipt semantics in procurement.
type Ledger struct {
	repo  RepositoryPort
	audit AuditPort
	cache CachePort
	group singleflight.Group
}

// NewLedger builds a Ledger.
func NewLedger(repo RepositoryPort, audit AuditPort, cache CachePort) *Ledger {
	return &Ledger{repo: repo, audit: audit, cache: cache}
}

// GetStock returns the record for a key, zero-valued when no row exists.
// Concurrent misses for the same key collapse into a single repository read.
func (l *Ledger) GetStock(ctx context.Context, key StockKey) (StockRecord, error) {
	if !key.Valid() {
		return StockRecord{}, ErrInvalidKey
	}
	if l.cache != nil {
		if record, ok := l.cache.Get(ctx, key); ok {
			return record, nil
		}
	}
	v, err, _ := l.group.Do(cacheKey(key), func() (any, error) {
		record, err := l.repo.GetStock(ctx, key)
		if err != nil {
			return nil, err
		}
		if l.cache != nil {
			l.cache.Set(ctx, record)
		}
		return record, nil
	})
	if err != nil {
		return StockRecord{}, err
	}
	return v.(StockRecord), nil
}

// ListStock lists records per warehouse for the read surface and snapshots.
func (l *Ledger) ListStock(ctx context.Context, companyID, warehouseID int64, limit, offset int) ([]StockRecord, error) {
	if companyID <= 0 || warehouseID <= 0 {
		return nil, ErrInvalidKey
	}
	return l.repo.ListStock(ctx, companyID, warehouseID, limit, offset)
}

// Adjust applies a delta to available quantity and returns the new value.
// The row is created on first use. With allowNegative false the result is
// floored at zero; the ledger does not verify product or warehouse existence.
func (l *Ledger) Adjust(ctx context.Context, input AdjustInput) (int64, error) {
	if !input.Key.Valid() {
		return 0, ErrInvalidKey
	}
	if input.Delta == 0 {
		return 0, ErrZeroDelta
	}
	var newAvailable int64
	err := l.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		record, err := tx.GetStockForUpdate(ctx, input.Key)
		if err != nil && !errors.Is(err, ErrStockNotFound) {
			return err
		}
		record.Available += input.Delta
		if !input.AllowNegative && record.Available < 0 {
			record.Available = 0
		}
		newAvailable = record.Available
		return tx.UpsertStock(ctx, record)
	})
	if err != nil {
		return 0, err
	}
	if l.cache != nil {
		l.cache.Invalidate(ctx, input.Key)
	}
	if l.audit != nil {
		_ = l.audit.Record(ctx, shared.AuditLog{
			CompanyID: input.Key.CompanyID,
			ActorID:   input.ActorID,
			Action:    "stock:adjust",
			Entity:    "stock_record",
			EntityID:  stockEntityID(input.Key),
			Meta: map[string]any{
				"warehouse_id": input.Key.WarehouseID,
				"product_id":   input.Key.ProductID,
				"variant_id":   input.Key.VariantID,
				"delta":        input.Delta,
				"available":    newAvailable,
				"reason":       input.Reason,
			},
		})
	}
	return newAvailable, nil
}

func stockEntityID(key StockKey) string {
	return fmt.Sprintf("%d:%d:%d", key.WarehouseID, key.ProductID, key.VariantID)
}
