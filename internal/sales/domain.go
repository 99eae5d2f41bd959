package sales

import (
	"fmt"
	"time"

	"github.com/meridian-commerce/meridian/internal/shared"
)

// Sales channels. Retail orders only sell what is on hand; advance orders
// may oversell and release more than was reserved once goods arrive.
type Channel string

const (
	ChannelRetail  Channel = "RETAIL"
	ChannelAdvance Channel = "ADVANCE"
)

// Order lifecycle statuses.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusFulfilled OrderStatus = "FULFILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order is a sales order holding reservations until fulfilment or
// cancellation.
type Order struct {
	ID          int64
	CompanyID   int64
	Number      string
	CustomerID  int64
	WarehouseID int64
	Channel     Channel
	Status      OrderStatus
	Total       float64
	Note        string
	CreatedAt   time.Time
}

// OrderLine reserves quantity of one variant.
type OrderLine struct {
	ID        int64
	OrderID   int64
	ProductID int64
	VariantID int64
	Qty       int64
	UnitPrice float64
}

var (
	// ErrNotFound indicates a missing order in the company scope.
	ErrNotFound = fmt.Errorf("%w: sales order", shared.ErrNotFound)
	// ErrValidation indicates invalid input.
	ErrValidation = fmt.Errorf("%w: sales input", shared.ErrValidation)
	// ErrInvalidState occurs when an action violates the order workflow.
	ErrInvalidState = fmt.Errorf("%w: invalid order state", shared.ErrConflict)
)
