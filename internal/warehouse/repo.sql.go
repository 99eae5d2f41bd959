package warehouse

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-commerce/meridian/internal/platform/db"
)

// Repository persists stock records in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the ledger and
// reservation manager. Rows read for update stay locked until commit.
type TxRepository interface {
	GetStockForUpdate(ctx context.Context, key StockKey) (StockRecord, error)
	UpsertStock(ctx context.Context, record StockRecord) error
}

type txRepo struct {
	tx pgx.Tx
}

// ErrStockNotFound indicates a missing stock row; callers treat it as a
// zero-value record, never as a failure.
var ErrStockNotFound = errors.New("warehouse: stock record not found")

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return db.ClassifyError(err)
	}
	wrapper := &txRepo{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return db.ClassifyError(err)
	}
	return nil
}

// GetStock returns the record for a key, zero-valued when absent.
func (r *Repository) GetStock(ctx context.Context, key StockKey) (StockRecord, error) {
	record := StockRecord{Key: key}
	err := r.pool.QueryRow(ctx, `SELECT available_qty, reserved_qty, COALESCE(location,''), updated_at
FROM stock_records WHERE company_id=$1 AND warehouse_id=$2 AND product_id=$3 AND variant_id=$4`,
		key.CompanyID, key.WarehouseID, key.ProductID, key.VariantID).
		Scan(&record.Available, &record.Reserved, &record.Location, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockRecord{Key: key}, nil
		}
		return StockRecord{}, db.ClassifyError(err)
	}
	return record, nil
}

// ListStock returns all records for a warehouse ordered by product and variant.
func (r *Repository) ListStock(ctx context.Context, companyID, warehouseID int64, limit, offset int) ([]StockRecord, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT product_id, variant_id, available_qty, reserved_qty, COALESCE(location,''), updated_at
FROM stock_records WHERE company_id=$1 AND warehouse_id=$2 ORDER BY product_id, variant_id LIMIT $3 OFFSET $4`,
		companyID, warehouseID, limit, offset)
	if err != nil {
		return nil, db.ClassifyError(err)
	}
	defer rows.Close()
	var records []StockRecord
	for rows.Next() {
		record := StockRecord{Key: StockKey{CompanyID: companyID, WarehouseID: warehouseID}}
		if err := rows.Scan(&record.Key.ProductID, &record.Key.VariantID, &record.Available, &record.Reserved, &record.Location, &record.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (tx *txRepo) GetStockForUpdate(ctx context.Context, key StockKey) (StockRecord, error) {
	record := StockRecord{Key: key}
	err := tx.tx.QueryRow(ctx, `SELECT available_qty, reserved_qty, COALESCE(location,''), updated_at
FROM stock_records WHERE company_id=$1 AND warehouse_id=$2 AND product_id=$3 AND variant_id=$4 FOR UPDATE`,
		key.CompanyID, key.WarehouseID, key.ProductID, key.VariantID).
		Scan(&record.Available, &record.Reserved, &record.Location, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockRecord{Key: key}, ErrStockNotFound
		}
		return StockRecord{}, db.ClassifyError(err)
	}
	return record, nil
}

func (tx *txRepo) UpsertStock(ctx context.Context, record StockRecord) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO stock_records (company_id, warehouse_id, product_id, variant_id, available_qty, reserved_qty, location, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),NOW())
ON CONFLICT (company_id, warehouse_id, product_id, variant_id)
DO UPDATE SET available_qty=EXCLUDED.available_qty, reserved_qty=EXCLUDED.reserved_qty, location=COALESCE(EXCLUDED.location, stock_records.location), updated_at=NOW()`,
		record.Key.CompanyID, record.Key.WarehouseID, record.Key.ProductID, record.Key.VariantID,
		record.Available, record.Reserved, record.Location)
	return db.ClassifyError(err)
}
