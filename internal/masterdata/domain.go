// Package masterdata holds the reference entities the stock and procurement
// flows point at: warehouses, products with their sellable variants, and
// suppliers.
package masterdata

import (
	"fmt"
	"time"

	"github.com/meridian-commerce/meridian/internal/shared"
)

// Warehouse is a physical stock location.
type Warehouse struct {
	ID        int64
	CompanyID int64
	Code      string
	Name      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
}

// Product groups variants under one catalog entry.
type Product struct {
	ID        int64
	CompanyID int64
	SKU       string
	Name      string
	Category  string
	IsActive  bool
	CreatedAt time.Time
}

// Variant is the unit stock is tracked in. Every product has exactly one
// default variant; single-variant products never expose variant ids to
// clients.
type Variant struct {
	ID        int64
	ProductID int64
	Code      string
	Name      string
	IsDefault bool
}

// Supplier is a procurement counterparty.
type Supplier struct {
	ID        int64
	CompanyID int64
	Code      string
	Name      string
	Email     string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
}

var (
	// ErrNotFound indicates a missing record in the company scope.
	ErrNotFound = fmt.Errorf("%w: masterdata record", shared.ErrNotFound)
	// ErrValidation indicates invalid input.
	ErrValidation = fmt.Errorf("%w: masterdata input", shared.ErrValidation)
	// ErrDuplicateCode indicates a code collision within a company.
	ErrDuplicateCode = fmt.Errorf("%w: code already exists", shared.ErrConflict)
)
