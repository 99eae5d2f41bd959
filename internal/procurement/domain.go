package procurement

import (
	"fmt"
	"time"

	"github.com/meridian-commerce/meridian/internal/shared"
)

// Purchase order lifecycle statuses. Once goods receipts begin, the status is
// recomputed from line counters and never set directly.
type POStatus string

const (
	POStatusDraft     POStatus = "DRAFT"
	POStatusApproved  POStatus = "APPROVED"
	POStatusOrdered   POStatus = "ORDERED"
	POStatusPartial   POStatus = "PARTIALLY_RECEIVED"
	POStatusReceived  POStatus = "RECEIVED"
	POStatusCancelled POStatus = "CANCELLED"
)

// Goods receipt lifecycle statuses.
type ReceiptStatus string

const (
	ReceiptStatusPending   ReceiptStatus = "PENDING"
	ReceiptStatusInspected ReceiptStatus = "INSPECTED"
	ReceiptStatusCompleted ReceiptStatus = "COMPLETED"
	ReceiptStatusDeleted   ReceiptStatus = "DELETED"
)

// Purchase invoice statuses.
type InvoiceStatus string

const (
	InvoiceStatusDraft  InvoiceStatus = "DRAFT"
	InvoiceStatusPosted InvoiceStatus = "POSTED"
)

// PurchaseOrder domain model.
type PurchaseOrder struct {
	ID           int64
	CompanyID    int64
	Number       string
	SupplierID   int64
	WarehouseID  int64
	Status       POStatus
	Currency     string
	ExpectedDate time.Time
	Note         string
}

// POLine represents an ordered product. ReceivedQty is cumulative across
// completed receipts and never exceeds OrderedQty.
type POLine struct {
	ID          int64
	POID        int64
	ProductID   int64
	VariantID   int64
	OrderedQty  int64
	ReceivedQty int64
	UnitPrice   float64
}

// GoodsReceipt domain model. CreatedAt orders receipts for the stable
// proportional shrink during completion.
type GoodsReceipt struct {
	ID          int64
	CompanyID   int64
	Number      string
	POID        int64
	SupplierID  int64
	WarehouseID int64
	Status      ReceiptStatus
	ReceivedAt  time.Time
	Note        string
	CreatedAt   time.Time
}

// ReceiptItem describes goods received against one PO line. Accepted and
// rejected always sum to received.
type ReceiptItem struct {
	ID          int64
	ReceiptID   int64
	POLineID    int64
	ProductID   int64
	VariantID   int64
	QtyReceived int64
	QtyAccepted int64
	QtyRejected int64
	UnitCost    float64
}

// OpenReceiptItem pairs a still-open receipt item with its receipt for the
// shrink pass during completion.
type OpenReceiptItem struct {
	Item             ReceiptItem
	ReceiptNumber    string
	ReceiptCreatedAt time.Time
}

// PurchaseInvoice references a completed receipt; its existence blocks
// receipt deletion.
type PurchaseInvoice struct {
	ID         int64
	CompanyID  int64
	Number     string
	SupplierID int64
	ReceiptID  int64
	Currency   string
	Total      float64
	Status     InvoiceStatus
	DueAt      time.Time
}

var (
	// ErrInvalidState occurs when an action violates the status workflow.
	ErrInvalidState = fmt.Errorf("%w: invalid state transition", shared.ErrConflict)
	// ErrNotFound indicates a missing record or one outside the company scope.
	ErrNotFound = fmt.Errorf("%w: procurement record", shared.ErrNotFound)
	// ErrValidation indicates invalid input.
	ErrValidation = fmt.Errorf("%w: procurement input", shared.ErrValidation)
	// ErrOverCapacity indicates a receipt that would push a line past its ordered quantity.
	ErrOverCapacity = fmt.Errorf("%w: received quantity exceeds ordered quantity", shared.ErrValidation)
	// ErrReceiptInvoiced blocks deletion of a receipt that an invoice references.
	ErrReceiptInvoiced = fmt.Errorf("%w: receipt is referenced by an invoice", shared.ErrConflict)
)
