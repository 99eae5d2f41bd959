package masterdata

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

func classifyInsert(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateCode
	}
	return db.ClassifyError(err)
}

// CreateWarehouse inserts a warehouse.
func (r *Repository) CreateWarehouse(ctx context.Context, wh Warehouse) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO warehouses (company_id, code, name, address, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,NOW()) RETURNING id`, wh.CompanyID, wh.Code, wh.Name, wh.Address, wh.IsActive).Scan(&id)
	if err != nil {
		return 0, classifyInsert(err)
	}
	return id, nil
}

// GetWarehouse returns one warehouse in the company scope.
func (r *Repository) GetWarehouse(ctx context.Context, companyID, id int64) (Warehouse, error) {
	var wh Warehouse
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, code, name, COALESCE(address,''), is_active, created_at
FROM warehouses WHERE id=$1 AND company_id=$2`, id, companyID).
		Scan(&wh.ID, &wh.CompanyID, &wh.Code, &wh.Name, &wh.Address, &wh.IsActive, &wh.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Warehouse{}, ErrNotFound
		}
		return Warehouse{}, db.ClassifyError(err)
	}
	return wh, nil
}

// ListWarehouses lists active warehouses for a company.
func (r *Repository) ListWarehouses(ctx context.Context, companyID int64) ([]Warehouse, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, company_id, code, name, COALESCE(address,''), is_active, created_at
FROM warehouses WHERE company_id=$1 AND is_active ORDER BY code`, companyID)
	if err != nil {
		return nil, db.ClassifyError(err)
	}
	defer rows.Close()
	var out []Warehouse
	for rows.Next() {
		var wh Warehouse
		if err := rows.Scan(&wh.ID, &wh.CompanyID, &wh.Code, &wh.Name, &wh.Address, &wh.IsActive, &wh.CreatedAt); err != nil {
			return nil, db.ClassifyError(err)
		}
		out = append(out, wh)
	}
	return out, rows.Err()
}

// CreateProduct inserts a product with its variants in one transaction. When
// no variant is flagged default the first becomes it.
func (r *Repository) CreateProduct(ctx context.Context, product Product, variants []Variant) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `INSERT INTO products (company_id, sku, name, category, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,NOW()) RETURNING id`, product.CompanyID, product.SKU, product.Name, product.Category, product.IsActive).Scan(&id); err != nil {
			return classifyInsert(err)
		}
		for _, variant := range variants {
			if _, err := tx.Exec(ctx, `INSERT INTO product_variants (product_id, code, name, is_default)
VALUES ($1,$2,$3,$4)`, id, variant.Code, variant.Name, variant.IsDefault); err != nil {
				return classifyInsert(err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetProduct returns a product and its variants.
func (r *Repository) GetProduct(ctx context.Context, companyID, id int64) (Product, []Variant, error) {
	var product Product
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, sku, name, COALESCE(category,''), is_active, created_at
FROM products WHERE id=$1 AND company_id=$2`, id, companyID).
		Scan(&product.ID, &product.CompanyID, &product.SKU, &product.Name, &product.Category, &product.IsActive, &product.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, nil, ErrNotFound
		}
		return Product{}, nil, db.ClassifyError(err)
	}
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, code, COALESCE(name,''), is_default
FROM product_variants WHERE product_id=$1 ORDER BY id`, id)
	if err != nil {
		return Product{}, nil, db.ClassifyError(err)
	}
	defer rows.Close()
	var variants []Variant
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Code, &v.Name, &v.IsDefault); err != nil {
			return Product{}, nil, db.ClassifyError(err)
		}
		variants = append(variants, v)
	}
	return product, variants, rows.Err()
}

// ListProducts lists products for a company.
func (r *Repository) ListProducts(ctx context.Context, companyID int64, limit, offset int) ([]Product, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT id, company_id, sku, name, COALESCE(category,''), is_active, created_at
FROM products WHERE company_id=$1 ORDER BY sku LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, db.ClassifyError(err)
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		var product Product
		if err := rows.Scan(&product.ID, &product.CompanyID, &product.SKU, &product.Name, &product.Category, &product.IsActive, &product.CreatedAt); err != nil {
			return nil, db.ClassifyError(err)
		}
		out = append(out, product)
	}
	return out, rows.Err()
}

// DefaultVariantID returns the default variant of a product in the company
// scope.
func (r *Repository) DefaultVariantID(ctx context.Context, companyID, productID int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT v.id FROM product_variants v
JOIN products p ON p.id = v.product_id
WHERE v.product_id=$1 AND p.company_id=$2 AND v.is_default`, productID, companyID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, db.ClassifyError(err)
	}
	return id, nil
}

// CreateSupplier inserts a supplier.
func (r *Repository) CreateSupplier(ctx context.Context, supplier Supplier) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO suppliers (company_id, code, name, email, phone, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW()) RETURNING id`,
		supplier.CompanyID, supplier.Code, supplier.Name, supplier.Email, supplier.Phone, supplier.IsActive).Scan(&id)
	if err != nil {
		return 0, classifyInsert(err)
	}
	return id, nil
}

// GetSupplier returns one supplier in the company scope.
func (r *Repository) GetSupplier(ctx context.Context, companyID, id int64) (Supplier, error) {
	var supplier Supplier
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, code, name, COALESCE(email,''), COALESCE(phone,''), is_active, created_at
FROM suppliers WHERE id=$1 AND company_id=$2`, id, companyID).
		Scan(&supplier.ID, &supplier.CompanyID, &supplier.Code, &supplier.Name, &supplier.Email, &supplier.Phone, &supplier.IsActive, &supplier.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, ErrNotFound
		}
		return Supplier{}, db.ClassifyError(err)
	}
	return supplier, nil
}

// ListSuppliers lists active suppliers for a company.
func (r *Repository) ListSuppliers(ctx context.Context, companyID int64) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, company_id, code, name, COALESCE(email,''), COALESCE(phone,''), is_active, created_at
FROM suppliers WHERE company_id=$1 AND is_active ORDER BY code`, companyID)
	if err != nil {
		return nil, db.ClassifyError(err)
	}
	defer rows.Close()
	var out []Supplier
	for rows.Next() {
		var supplier Supplier
		if err := rows.Scan(&supplier.ID, &supplier.CompanyID, &supplier.Code, &supplier.Name, &supplier.Email, &supplier.Phone, &supplier.IsActive, &supplier.CreatedAt); err != nil {
			return nil, db.ClassifyError(err)
		}
		out = append(out, supplier)
	}
	return out, rows.Err()
}
