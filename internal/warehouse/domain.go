package warehouse

import (
	"fmt"
	"time"

	"github.com/meridian-commerce/meridian/internal/shared"
)

// StockKey identifies one stock record. Every field is mandatory; variant
// resolution happens in the inventory facade before the ledger is touched.
type StockKey struct {
	CompanyID   int64
	WarehouseID int64
	ProductID   int64
	VariantID   int64
}

// Valid reports whether all key components are set.
func (k StockKey) Valid() bool {
	return k.CompanyID > 0 && k.WarehouseID > 0 && k.ProductID > 0 && k.VariantID > 0
}

// StockRecord holds the durable counters for one key. Available may be
// negative: an advance order books stock that is not physically on hand and
// the deficit stays visible until replenished.
type StockRecord struct {
	Key       StockKey
	Available int64
	Reserved  int64
	Location  string
	UpdatedAt time.Time
}

// AdjustInput describes a manual or receipt-driven stock adjustment.
type AdjustInput struct {
	Key           StockKey
	Delta         int64
	AllowNegative bool
	Reason        string
	ActorID       int64
}

var (
	// ErrInvalidKey indicates a stock key with missing components.
	ErrInvalidKey = fmt.Errorf("%w: warehouse, product and variant are required", shared.ErrValidation)
	// ErrInvalidQuantity indicates a negative quantity where only non-negative is allowed.
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be >= 0", shared.ErrValidation)
	// ErrZeroDelta indicates an adjustment that would not change anything.
	ErrZeroDelta = fmt.Errorf("%w: delta must be non zero", shared.ErrValidation)
)
