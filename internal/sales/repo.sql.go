package sales

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-commerce/meridian/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreateOrder(ctx context.Context, order Order) (int64, error)
	InsertOrderLine(ctx context.Context, line OrderLine) error
	UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) error
	GetOrderForUpdate(ctx context.Context, companyID, id int64) (Order, error)
	GetOrderLines(ctx context.Context, orderID int64) ([]OrderLine, error)
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

// GetOrder returns an order and its lines.
func (r *Repository) GetOrder(ctx context.Context, companyID, id int64) (Order, []OrderLine, error) {
	var order Order
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, number, customer_id, warehouse_id, channel, status, total, note, created_at
FROM sales_orders WHERE id=$1 AND company_id=$2`, id, companyID).
		Scan(&order.ID, &order.CompanyID, &order.Number, &order.CustomerID, &order.WarehouseID, &order.Channel, &order.Status, &order.Total, &order.Note, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, nil, ErrNotFound
		}
		return Order{}, nil, db.ClassifyError(err)
	}
	lines, err := r.fetchLines(ctx, id)
	if err != nil {
		return Order{}, nil, err
	}
	return order, lines, nil
}

// ListOrders returns orders for a company, newest first.
func (r *Repository) ListOrders(ctx context.Context, companyID int64, limit, offset int) ([]Order, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, company_id, number, customer_id, warehouse_id, channel, status, total, note, created_at
FROM sales_orders WHERE company_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, db.ClassifyError(err)
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		var order Order
		if err := rows.Scan(&order.ID, &order.CompanyID, &order.Number, &order.CustomerID, &order.WarehouseID, &order.Channel, &order.Status, &order.Total, &order.Note, &order.CreatedAt); err != nil {
			return nil, db.ClassifyError(err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *Repository) fetchLines(ctx context.Context, orderID int64) ([]OrderLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, product_id, variant_id, qty, unit_price
FROM sales_order_lines WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, db.ClassifyError(err)
	}
	defer rows.Close()
	var lines []OrderLine
	for rows.Next() {
		var line OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.VariantID, &line.Qty, &line.UnitPrice); err != nil {
			return nil, db.ClassifyError(err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (tx *txRepo) CreateOrder(ctx context.Context, order Order) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO sales_orders (company_id, number, customer_id, warehouse_id, channel, status, total, note, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW()) RETURNING id`,
		order.CompanyID, order.Number, order.CustomerID, order.WarehouseID, order.Channel, order.Status, order.Total, order.Note).Scan(&id)
	if err != nil {
		return 0, db.ClassifyError(err)
	}
	return id, nil
}

func (tx *txRepo) InsertOrderLine(ctx context.Context, line OrderLine) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO sales_order_lines (order_id, product_id, variant_id, qty, unit_price)
VALUES ($1,$2,$3,$4,$5)`, line.OrderID, line.ProductID, line.VariantID, line.Qty, line.UnitPrice)
	return db.ClassifyError(err)
}

func (tx *txRepo) UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) error {
	_, err := tx.tx.Exec(ctx, `UPDATE sales_orders SET status=$2 WHERE id=$1`, id, status)
	return db.ClassifyError(err)
}

func (tx *txRepo) GetOrderForUpdate(ctx context.Context, companyID, id int64) (Order, error) {
	var order Order
	err := tx.tx.QueryRow(ctx, `SELECT id, company_id, number, customer_id, warehouse_id, channel, status, total, note, created_at
FROM sales_orders WHERE id=$1 AND company_id=$2 FOR UPDATE`, id, companyID).
		Scan(&order.ID, &order.CompanyID, &order.Number, &order.CustomerID, &order.WarehouseID, &order.Channel, &order.Status, &order.Total, &order.Note, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, db.ClassifyError(err)
	}
	return order, nil
}

func (tx *txRepo) GetOrderLines(ctx context.Context, orderID int64) ([]OrderLine, error) {
	rows, err := tx.tx.Query(ctx, `SELECT id, order_id, product_id, variant_id, qty, unit_price
FROM sales_order_lines WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, db.ClassifyError(err)
	}
	defer rows.Close()
	var lines []OrderLine
	for rows.Next() {
		var line OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.VariantID, &line.Qty, &line.UnitPrice); err != nil {
			return nil, db.ClassifyError(err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
