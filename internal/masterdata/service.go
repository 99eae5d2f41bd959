package masterdata

import (
	"context"
	"fmt"
	"strings"
)

// Store abstracts repository usage for the service.
type Store interface {
	CreateWarehouse(ctx context.Context, wh Warehouse) (int64, error)
	GetWarehouse(ctx context.Context, companyID, id int64) (Warehouse, error)
	ListWarehouses(ctx context.Context, companyID int64) ([]Warehouse, error)

	CreateProduct(ctx context.Context, product Product, variants []Variant) (int64, error)
	GetProduct(ctx context.Context, companyID, id int64) (Product, []Variant, error)
	ListProducts(ctx context.Context, companyID int64, limit, offset int) ([]Product, error)
	DefaultVariantID(ctx context.Context, companyID, productID int64) (int64, error)

	CreateSupplier(ctx context.Context, supplier Supplier) (int64, error)
	GetSupplier(ctx context.Context, companyID, id int64) (Supplier, error)
	ListSuppliers(ctx context.Context, companyID int64) ([]Supplier, error)
}

// Service validates and persists reference data. It also implements the
// catalog lookup the inventory facade uses for default variants.
type Service struct {
	store Store
}

// NewService builds Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateWarehouse validates and stores a warehouse.
func (s *Service) CreateWarehouse(ctx context.Context, wh Warehouse) (Warehouse, error) {
	wh.Code = strings.TrimSpace(strings.ToUpper(wh.Code))
	if wh.CompanyID <= 0 || wh.Code == "" || strings.TrimSpace(wh.Name) == "" {
		return Warehouse{}, fmt.Errorf("%w: company, code and name required", ErrValidation)
	}
	wh.IsActive = true
	id, err := s.store.CreateWarehouse(ctx, wh)
	if err != nil {
		return Warehouse{}, err
	}
	wh.ID = id
	return wh, nil
}

// GetWarehouse returns one warehouse.
func (s *Service) GetWarehouse(ctx context.Context, companyID, id int64) (Warehouse, error) {
	return s.store.GetWarehouse(ctx, companyID, id)
}

// ListWarehouses returns active warehouses.
func (s *Service) ListWarehouses(ctx context.Context, companyID int64) ([]Warehouse, error) {
	return s.store.ListWarehouses(ctx, companyID)
}

// CreateProduct validates and stores a product with variants. A product
// without explicit variants gets a single default variant carrying the SKU.
func (s *Service) CreateProduct(ctx context.Context, product Product, variants []Variant) (Product, error) {
	product.SKU = strings.TrimSpace(strings.ToUpper(product.SKU))
	if product.CompanyID <= 0 || product.SKU == "" || strings.TrimSpace(product.Name) == "" {
		return Product{}, fmt.Errorf("%w: company, sku and name required", ErrValidation)
	}
	if len(variants) == 0 {
		variants = []Variant{{Code: product.SKU, Name: product.Name, IsDefault: true}}
	}
	defaults := 0
	for i, variant := range variants {
		if strings.TrimSpace(variant.Code) == "" {
			return Product{}, fmt.Errorf("%w: variant code required", ErrValidation)
		}
		if variant.IsDefault {
			defaults++
		}
		variants[i].Code = strings.TrimSpace(strings.ToUpper(variant.Code))
	}
	if defaults > 1 {
		return Product{}, fmt.Errorf("%w: at most one default variant", ErrValidation)
	}
	// Every product must resolve through the catalog port, so a list
	// without an explicit default promotes its first variant.
	if defaults == 0 {
		variants[0].IsDefault = true
	}
	product.IsActive = true
	id, err := s.store.CreateProduct(ctx, product, variants)
	if err != nil {
		return Product{}, err
	}
	product.ID = id
	return product, nil
}

// GetProduct returns a product and its variants.
func (s *Service) GetProduct(ctx context.Context, companyID, id int64) (Product, []Variant, error) {
	return s.store.GetProduct(ctx, companyID, id)
}

// ListProducts returns products for a company.
func (s *Service) ListProducts(ctx context.Context, companyID int64, limit, offset int) ([]Product, error) {
	return s.store.ListProducts(ctx, companyID, limit, offset)
}

// DefaultVariantID satisfies the inventory catalog port.
func (s *Service) DefaultVariantID(ctx context.Context, companyID, productID int64) (int64, error) {
	if productID <= 0 {
		return 0, fmt.Errorf("%w: product required", ErrValidation)
	}
	return s.store.DefaultVariantID(ctx, companyID, productID)
}

// CreateSupplier validates and stores a supplier.
func (s *Service) CreateSupplier(ctx context.Context, supplier Supplier) (Supplier, error) {
	supplier.Code = strings.TrimSpace(strings.ToUpper(supplier.Code))
	if supplier.CompanyID <= 0 || supplier.Code == "" || strings.TrimSpace(supplier.Name) == "" {
		return Supplier{}, fmt.Errorf("%w: company, code and name required", ErrValidation)
	}
	supplier.IsActive = true
	id, err := s.store.CreateSupplier(ctx, supplier)
	if err != nil {
		return Supplier{}, err
	}
	supplier.ID = id
	return supplier, nil
}

// GetSupplier returns one supplier.
func (s *Service) GetSupplier(ctx context.Context, companyID, id int64) (Supplier, error) {
	return s.store.GetSupplier(ctx, companyID, id)
}

// ListSuppliers returns active suppliers.
func (s *Service) ListSuppliers(ctx context.Context, companyID int64) ([]Supplier, error) {
	return s.store.ListSuppliers(ctx, companyID)
}
