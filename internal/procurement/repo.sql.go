package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-commerce/meridian/internal/platform/db"
	"github.com/meridian-commerce/meridian/internal/warehouse"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations. Reconciliation acquires row
// locks through the *ForUpdate reads; stock writes run on the same
// transaction so a failure anywhere rolls back everything.
type TxRepository interface {
	CreatePO(ctx context.Context, po PurchaseOrder) (int64, error)
	InsertPOLine(ctx context.Context, line POLine) error
	UpdatePOStatus(ctx context.Context, id int64, status POStatus) error
	GetPOForUpdate(ctx context.Context, companyID, id int64) (PurchaseOrder, error)
	GetPOLinesForUpdate(ctx context.Context, poID int64) ([]POLine, error)
	AddLineReceived(ctx context.Context, lineID, delta int64) error

	CreateReceipt(ctx context.Context, receipt GoodsReceipt) (int64, error)
	InsertReceiptItem(ctx context.Context, item ReceiptItem) error
	UpdateReceiptStatus(ctx context.Context, id int64, status ReceiptStatus) error
	GetReceiptForUpdate(ctx context.Context, companyID, id int64) (GoodsReceipt, error)
	GetReceiptItems(ctx context.Context, receiptID int64) ([]ReceiptItem, error)
	UpdateReceiptItemQuantities(ctx context.Context, itemID, received, accepted, rejected int64) error

	SumCompletedAccepted(ctx context.Context, lineID int64) (int64, error)
	SumOpenReceived(ctx context.Context, lineID int64) (int64, error)
	ListOpenItemsForLine(ctx context.Context, lineID, excludeReceiptID int64) ([]OpenReceiptItem, error)

	AdjustStock(ctx context.Context, key warehouse.StockKey, delta int64, allowNegative bool) error

	InvoiceExistsForReceipt(ctx context.Context, receiptID int64) (bool, error)
	CreateInvoice(ctx context.Context, inv PurchaseInvoice) (int64, error)
}

type txRepo struct {
	tx pgx.Tx
}

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

// GetPO returns a purchase order and its lines.
func (r *Repository) GetPO(ctx context.Context, companyID, id int64) (PurchaseOrder, []POLine, error) {
	var po PurchaseOrder
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, number, supplier_id, warehouse_id, status, currency, COALESCE(expected_date, CURRENT_DATE), note
FROM purchase_orders WHERE id=$1 AND company_id=$2`, id, companyID).
		Scan(&po.ID, &po.CompanyID, &po.Number, &po.SupplierID, &po.WarehouseID, &po.Status, &po.Currency, &po.ExpectedDate, &po.Note)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, nil, ErrNotFound
		}
		return PurchaseOrder{}, nil, db.ClassifyError(err)
	}
	lines, err := r.fetchPOLines(ctx, id)
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	return po, lines, nil
}

func (r *Repository) fetchPOLines(ctx context.Context, poID int64) ([]POLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, po_id, product_id, variant_id, ordered_qty, received_qty, unit_price
FROM po_lines WHERE po_id=$1 ORDER BY id`, poID)
	if err != nil {
		return nil, db.ClassifyError(err)
	}
	defer rows.Close()
	var lines []POLine
	for rows.Next() {
		var line POLine
		if err := rows.Scan(&line.ID, &line.POID, &line.ProductID, &line.VariantID, &line.OrderedQty, &line.ReceivedQty, &line.UnitPrice); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// GetReceipt returns a goods receipt and its items.
func (r *Repository) GetReceipt(ctx context.Context, companyID, id int64) (GoodsReceipt, []ReceiptItem, error) {
	var receipt GoodsReceipt
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, number, po_id, supplier_id, warehouse_id, status, received_at, note, created_at
FROM goods_receipts WHERE id=$1 AND company_id=$2`, id, companyID).
		Scan(&receipt.ID, &receipt.CompanyID, &receipt.Number, &receipt.POID, &receipt.SupplierID, &receipt.WarehouseID, &receipt.Status, &receipt.ReceivedAt, &receipt.Note, &receipt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return GoodsReceipt{}, nil, ErrNotFound
		}
		return GoodsReceipt{}, nil, db.ClassifyError(err)
	}
	rows, err := r.pool.Query(ctx, `SELECT id, receipt_id, po_line_id, product_id, variant_id, qty_received, qty_accepted, qty_rejected, unit_cost
FROM receipt_items WHERE receipt_id=$1 ORDER BY id`, id)
	if err != nil {
		return GoodsReceipt{}, nil, db.ClassifyError(err)
	}
	defer rows.Close()
	var items []ReceiptItem
	for rows.Next() {
		var item ReceiptItem
		if err := rows.Scan(&item.ID, &item.ReceiptID, &item.POLineID, &item.ProductID, &item.VariantID, &item.QtyReceived, &item.QtyAccepted, &item.QtyRejected, &item.UnitCost); err != nil {
			return GoodsReceipt{}, nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return GoodsReceipt{}, nil, err
	}
	return receipt, items, nil
}

// GetInvoice fetches a purchase invoice by id.
func (r *Repository) GetInvoice(ctx context.Context, companyID, id int64) (PurchaseInvoice, error) {
	var inv PurchaseInvoice
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, number, supplier_id, receipt_id, currency, total, status, COALESCE(due_at, CURRENT_DATE)
FROM purchase_invoices WHERE id=$1 AND company_id=$2`, id, companyID).
		Scan(&inv.ID, &inv.CompanyID, &inv.Number, &inv.SupplierID, &inv.ReceiptID, &inv.Currency, &inv.Total, &inv.Status, &inv.DueAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseInvoice{}, ErrNotFound
		}
		return PurchaseInvoice{}, db.ClassifyError(err)
	}
	return inv, nil
}

func (tx *txRepo) CreatePO(ctx context.Context, po PurchaseOrder) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO purchase_orders (company_id, number, supplier_id, warehouse_id, status, currency, expected_date, note, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW()) RETURNING id`,
		po.CompanyID, po.Number, po.SupplierID, po.WarehouseID, po.Status, po.Currency, nullDate(po.ExpectedDate), po.Note).Scan(&id)
	return id, db.ClassifyError(err)
}

func (tx *txRepo) InsertPOLine(ctx context.Context, line POLine) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO po_lines (po_id, product_id, variant_id, ordered_qty, received_qty, unit_price)
VALUES ($1,$2,$3,$4,0,$5)`, line.POID, line.ProductID, line.VariantID, line.OrderedQty, line.UnitPrice)
	return db.ClassifyError(err)
}

func (tx *txRepo) UpdatePOStatus(ctx context.Context, id int64, status POStatus) error {
	_, err := tx.tx.Exec(ctx, `UPDATE purchase_orders SET status=$1 WHERE id=$2`, status, id)
	return db.ClassifyError(err)
}

func (tx *txRepo) GetPOForUpdate(ctx context.Context, companyID, id int64) (PurchaseOrder, error) {
	var po PurchaseOrder
	err := tx.tx.QueryRow(ctx, `SELECT id, company_id, number, supplier_id, warehouse_id, status, currency, COALESCE(expected_date, CURRENT_DATE), note
FROM purchase_orders WHERE id=$1 AND company_id=$2 FOR UPDATE`, id, companyID).
		Scan(&po.ID, &po.CompanyID, &po.Number, &po.SupplierID, &po.WarehouseID, &po.Status, &po.Currency, &po.ExpectedDate, &po.Note)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, ErrNotFound
		}
		return PurchaseOrder{}, db.ClassifyError(err)
	}
	return po, nil
}

// GetPOLinesForUpdate locks lines in ascending id order so concurrent
// completions always acquire locks in the same sequence.
func (tx *txRepo) GetPOLinesForUpdate(ctx context.Context, poID int64) ([]POLine, error) {
	rows, err := tx.tx.Query(ctx, `SELECT id, po_id, product_id, variant_id, ordered_qty, received_qty, unit_price
FROM po_lines WHERE po_id=$1 ORDER BY id FOR UPDATE`, poID)
	if err != nil {
		return nil, db.ClassifyError(err)
	}
	defer rows.Close()
	var lines []POLine
	for rows.Next() {
		var line POLine
		if err := rows.Scan(&line.ID, &line.POID, &line.ProductID, &line.VariantID, &line.OrderedQty, &line.ReceivedQty, &line.UnitPrice); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (tx *txRepo) AddLineReceived(ctx context.Context, lineID, delta int64) error {
	_, err := tx.tx.Exec(ctx, `UPDATE po_lines SET received_qty = received_qty + $1 WHERE id=$2`, delta, lineID)
	return db.ClassifyError(err)
}

func (tx *txRepo) CreateReceipt(ctx context.Context, receipt GoodsReceipt) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO goods_receipts (company_id, number, po_id, supplier_id, warehouse_id, status, received_at, note, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW()) RETURNING id`,
		receipt.CompanyID, receipt.Number, receipt.POID, receipt.SupplierID, receipt.WarehouseID, receipt.Status, receipt.ReceivedAt, receipt.Note).Scan(&id)
	return id, db.ClassifyError(err)
}

func (tx *txRepo) InsertReceiptItem(ctx context.Context, item ReceiptItem) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO receipt_items (receipt_id, po_line_id, product_id, variant_id, qty_received, qty_accepted, qty_rejected, unit_cost)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		item.ReceiptID, item.POLineID, item.ProductID, item.VariantID, item.QtyReceived, item.QtyAccepted, item.QtyRejected, item.UnitCost)
	return db.ClassifyError(err)
}

func (tx *txRepo) UpdateReceiptStatus(ctx context.Context, id int64, status ReceiptStatus) error {
	_, err := tx.tx.Exec(ctx, `UPDATE goods_receipts SET status=$1 WHERE id=$2`, status, id)
	return db.ClassifyError(err)
}

func (tx *txRepo) GetReceiptForUpdate(ctx context.Context, companyID, id int64) (GoodsReceipt, error) {
	var receipt GoodsReceipt
	err := tx.tx.QueryRow(ctx, `SELECT id, company_id, number, po_id, supplier_id, warehouse_id, status, received_at, note, created_at
FROM goods_receipts WHERE id=$1 AND company_id=$2 FOR UPDATE`, id, companyID).
		Scan(&receipt.ID, &receipt.CompanyID, &receipt.Number, &receipt.POID, &receipt.SupplierID, &receipt.WarehouseID, &receipt.Status, &receipt.ReceivedAt, &receipt.Note, &receipt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return GoodsReceipt{}, ErrNotFound
		}
		return GoodsReceipt{}, db.ClassifyError(err)
	}
	return receipt, nil
}

func (tx *txRepo) GetReceiptItems(ctx context.Context, receiptID int64) ([]ReceiptItem, error) {
	rows, err := tx.tx.Query(ctx, `SELECT id, receipt_id, po_line_id, product_id, variant_id, qty_received, qty_accepted, qty_rejected, unit_cost
FROM receipt_items WHERE receipt_id=$1 ORDER BY id`, receiptID)
	if err != nil {
		return nil, db.ClassifyError(err)
	}
	defer rows.Close()
	var items []ReceiptItem
	for rows.Next() {
		var item ReceiptItem
		if err := rows.Scan(&item.ID, &item.ReceiptID, &item.POLineID, &item.ProductID, &item.VariantID, &item.QtyReceived, &item.QtyAccepted, &item.QtyRejected, &item.UnitCost); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (tx *txRepo) UpdateReceiptItemQuantities(ctx context.Context, itemID, received, accepted, rejected int64) error {
	_, err := tx.tx.Exec(ctx, `UPDATE receipt_items SET qty_received=$1, qty_accepted=$2, qty_rejected=$3 WHERE id=$4`,
		received, accepted, rejected, itemID)
	return db.ClassifyError(err)
}

func (tx *txRepo) SumCompletedAccepted(ctx context.Context, lineID int64) (int64, error) {
	var total int64
	err := tx.tx.QueryRow(ctx, `SELECT COALESCE(SUM(i.qty_accepted),0)
FROM receipt_items i JOIN goods_receipts g ON g.id = i.receipt_id
WHERE i.po_line_id=$1 AND g.status=$2`, lineID, ReceiptStatusCompleted).Scan(&total)
	return total, db.ClassifyError(err)
}

func (tx *txRepo) SumOpenReceived(ctx context.Context, lineID int64) (int64, error) {
	var total int64
	err := tx.tx.QueryRow(ctx, `SELECT COALESCE(SUM(i.qty_received),0)
FROM receipt_items i JOIN goods_receipts g ON g.id = i.receipt_id
WHERE i.po_line_id=$1 AND g.status IN ($2,$3)`, lineID, ReceiptStatusPending, ReceiptStatusInspected).Scan(&total)
	return total, db.ClassifyError(err)
}

// ListOpenItemsForLine returns items from other still-open receipts ordered
// by receipt creation then item id; the shrink pass walks them in this order.
func (tx *txRepo) ListOpenItemsForLine(ctx context.Context, lineID, excludeReceiptID int64) ([]OpenReceiptItem, error) {
	rows, err := tx.tx.Query(ctx, `SELECT i.id, i.receipt_id, i.po_line_id, i.product_id, i.variant_id, i.qty_received, i.qty_accepted, i.qty_rejected, i.unit_cost, g.number, g.created_at
FROM receipt_items i JOIN goods_receipts g ON g.id = i.receipt_id
WHERE i.po_line_id=$1 AND i.receipt_id <> $2 AND g.status IN ($3,$4)
ORDER BY g.created_at, i.id FOR UPDATE OF i`, lineID, excludeReceiptID, ReceiptStatusPending, ReceiptStatusInspected)
	if err != nil {
		return nil, db.ClassifyError(err)
	}
	defer rows.Close()
	var open []OpenReceiptItem
	for rows.Next() {
		var entry OpenReceiptItem
		if err := rows.Scan(&entry.Item.ID, &entry.Item.ReceiptID, &entry.Item.POLineID, &entry.Item.ProductID, &entry.Item.VariantID,
			&entry.Item.QtyReceived, &entry.Item.QtyAccepted, &entry.Item.QtyRejected, &entry.Item.UnitCost,
			&entry.ReceiptNumber, &entry.ReceiptCreatedAt); err != nil {
			return nil, err
		}
		open = append(open, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return open, nil
}

// AdjustStock applies an atomic increment-with-floor to the stock record on
// the current transaction, creating the row when absent.
func (tx *txRepo) AdjustStock(ctx context.Context, key warehouse.StockKey, delta int64, allowNegative bool) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO stock_records AS s (company_id, warehouse_id, product_id, variant_id, available_qty, reserved_qty, updated_at)
VALUES ($1,$2,$3,$4, CASE WHEN $6::bool THEN $5::bigint ELSE GREATEST($5::bigint, 0) END, 0, NOW())
ON CONFLICT (company_id, warehouse_id, product_id, variant_id)
DO UPDATE SET available_qty = CASE WHEN $6::bool THEN s.available_qty + $5::bigint ELSE GREATEST(s.available_qty + $5::bigint, 0) END, updated_at = NOW()`,
		key.CompanyID, key.WarehouseID, key.ProductID, key.VariantID, delta, allowNegative)
	return db.ClassifyError(err)
}

func (tx *txRepo) InvoiceExistsForReceipt(ctx context.Context, receiptID int64) (bool, error) {
	var exists bool
	err := tx.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM purchase_invoices WHERE receipt_id=$1)`, receiptID).Scan(&exists)
	return exists, db.ClassifyError(err)
}

func (tx *txRepo) CreateInvoice(ctx context.Context, inv PurchaseInvoice) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO purchase_invoices (company_id, number, supplier_id, receipt_id, currency, total, status, issued_at, due_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,CURRENT_DATE,$8,NOW()) RETURNING id`,
		inv.CompanyID, inv.Number, inv.SupplierID, inv.ReceiptID, inv.Currency, inv.Total, inv.Status, nullDate(inv.DueAt)).Scan(&id)
	return id, db.ClassifyError(err)
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
