package masterdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-commerce/meridian/internal/shared"
)

type memoryStore struct {
	warehouses map[int64]Warehouse
	products   map[int64]Product
	variants   map[int64][]Variant
	suppliers  map[int64]Supplier
	nextID     int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		warehouses: make(map[int64]Warehouse),
		products:   make(map[int64]Product),
		variants:   make(map[int64][]Variant),
		suppliers:  make(map[int64]Supplier),
	}
}

func (m *memoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryStore) CreateWarehouse(ctx context.Context, wh Warehouse) (int64, error) {
	for _, existing := range m.warehouses {
		if existing.CompanyID == wh.CompanyID && existing.Code == wh.Code {
			return 0, ErrDuplicateCode
		}
	}
	wh.ID = m.id()
	m.warehouses[wh.ID] = wh
	return wh.ID, nil
}

func (m *memoryStore) GetWarehouse(ctx context.Context, companyID, id int64) (Warehouse, error) {
	wh, ok := m.warehouses[id]
	if !ok || wh.CompanyID != companyID {
		return Warehouse{}, ErrNotFound
	}
	return wh, nil
}

func (m *memoryStore) ListWarehouses(ctx context.Context, companyID int64) ([]Warehouse, error) {
	var out []Warehouse
	for _, wh := range m.warehouses {
		if wh.CompanyID == companyID {
			out = append(out, wh)
		}
	}
	return out, nil
}

func (m *memoryStore) CreateProduct(ctx context.Context, product Product, variants []Variant) (int64, error) {
	product.ID = m.id()
	m.products[product.ID] = product
	stored := make([]Variant, 0, len(variants))
	for _, v := range variants {
		v.ID = m.id()
		v.ProductID = product.ID
		stored = append(stored, v)
	}
	m.variants[product.ID] = stored
	return product.ID, nil
}

func (m *memoryStore) GetProduct(ctx context.Context, companyID, id int64) (Product, []Variant, error) {
	product, ok := m.products[id]
	if !ok || product.CompanyID != companyID {
		return Product{}, nil, ErrNotFound
	}
	return product, append([]Variant(nil), m.variants[id]...), nil
}

func (m *memoryStore) ListProducts(ctx context.Context, companyID int64, limit, offset int) ([]Product, error) {
	var out []Product
	for _, product := range m.products {
		if product.CompanyID == companyID {
			out = append(out, product)
		}
	}
	return out, nil
}

func (m *memoryStore) DefaultVariantID(ctx context.Context, companyID, productID int64) (int64, error) {
	product, ok := m.products[productID]
	if !ok || product.CompanyID != companyID {
		return 0, ErrNotFound
	}
	for _, v := range m.variants[productID] {
		if v.IsDefault {
			return v.ID, nil
		}
	}
	return 0, ErrNotFound
}

func (m *memoryStore) CreateSupplier(ctx context.Context, supplier Supplier) (int64, error) {
	supplier.ID = m.id()
	m.suppliers[supplier.ID] = supplier
	return supplier.ID, nil
}

func (m *memoryStore) GetSupplier(ctx context.Context, companyID, id int64) (Supplier, error) {
	supplier, ok := m.suppliers[id]
	if !ok || supplier.CompanyID != companyID {
		return Supplier{}, ErrNotFound
	}
	return supplier, nil
}

func (m *memoryStore) ListSuppliers(ctx context.Context, companyID int64) ([]Supplier, error) {
	var out []Supplier
	for _, supplier := range m.suppliers {
		if supplier.CompanyID == companyID {
			out = append(out, supplier)
		}
	}
	return out, nil
}

func TestCreateProductDefaultsSingleVariant(t *testing.T) {
	svc := NewService(newMemoryStore())

	product, err := svc.CreateProduct(context.Background(), Product{CompanyID: 1, SKU: "widget-1", Name: "Widget"}, nil)
	require.NoError(t, err)
	require.Equal(t, "WIDGET-1", product.SKU)

	_, variants, err := svc.GetProduct(context.Background(), 1, product.ID)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	require.True(t, variants[0].IsDefault)

	variantID, err := svc.DefaultVariantID(context.Background(), 1, product.ID)
	require.NoError(t, err)
	require.Equal(t, variants[0].ID, variantID)
}

func TestCreateProductPromotesFirstVariantWhenNoDefault(t *testing.T) {
	svc := NewService(newMemoryStore())

	product, err := svc.CreateProduct(context.Background(), Product{CompanyID: 1, SKU: "S", Name: "Shirt"}, []Variant{
		{Code: "S-RED"},
		{Code: "S-BLUE"},
	})
	require.NoError(t, err)

	_, variants, err := svc.GetProduct(context.Background(), 1, product.ID)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	require.True(t, variants[0].IsDefault)
	require.False(t, variants[1].IsDefault)

	variantID, err := svc.DefaultVariantID(context.Background(), 1, product.ID)
	require.NoError(t, err)
	require.Equal(t, variants[0].ID, variantID)
}

func TestCreateProductRejectsMultipleDefaults(t *testing.T) {
	svc := NewService(newMemoryStore())

	_, err := svc.CreateProduct(context.Background(), Product{CompanyID: 1, SKU: "S", Name: "Shirt"}, []Variant{
		{Code: "S-RED", IsDefault: true},
		{Code: "S-BLUE", IsDefault: true},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDefaultVariantScopedToCompany(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store)

	product, err := svc.CreateProduct(context.Background(), Product{CompanyID: 1, SKU: "A", Name: "A"}, nil)
	require.NoError(t, err)

	_, err = svc.DefaultVariantID(context.Background(), 2, product.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateWarehouseValidation(t *testing.T) {
	svc := NewService(newMemoryStore())

	_, err := svc.CreateWarehouse(context.Background(), Warehouse{CompanyID: 1, Code: " ", Name: "Main"})
	require.ErrorIs(t, err, shared.ErrValidation)

	wh, err := svc.CreateWarehouse(context.Background(), Warehouse{CompanyID: 1, Code: "main", Name: "Main"})
	require.NoError(t, err)
	require.Equal(t, "MAIN", wh.Code)
	require.True(t, wh.IsActive)

	_, err = svc.CreateWarehouse(context.Background(), Warehouse{CompanyID: 1, Code: "MAIN", Name: "Duplicate"})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateSupplierValidation(t *testing.T) {
	svc := NewService(newMemoryStore())

	_, err := svc.CreateSupplier(context.Background(), Supplier{CompanyID: 0, Code: "ACME", Name: "Acme"})
	require.ErrorIs(t, err, shared.ErrValidation)

	supplier, err := svc.CreateSupplier(context.Background(), Supplier{CompanyID: 1, Code: "acme", Name: "Acme"})
	require.NoError(t, err)
	require.Equal(t, "ACME", supplier.Code)
}
