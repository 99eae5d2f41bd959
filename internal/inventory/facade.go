// Package inventory exposes a single entry point over the stock ledger,
// reservations and goods receipt reconciliation, so callers never talk to
// the warehouse and procurement services separately and never skip variant
// resolution.
package inventory

import (
	"context"
	"fmt"

	"github.com/meridian-commerce/meridian/internal/procurement"
	"github.com/meridian-commerce/meridian/internal/shared"
	"github.com/meridian-commerce/meridian/internal/warehouse"
)

// CatalogPort resolves the default variant of a product. VariantID zero in a
// facade call means "the product's default variant".
type CatalogPort interface {
	DefaultVariantID(ctx context.Context, companyID, productID int64) (int64, error)
}

// LedgerPort is the slice of the stock ledger the facade needs.
type LedgerPort interface {
	GetStock(ctx context.Context, key warehouse.StockKey) (warehouse.StockRecord, error)
	Adjust(ctx context.Context, input warehouse.AdjustInput) (int64, error)
}

// ReservationPort is the slice of the reservation manager the facade needs.
type ReservationPort interface {
	Reserve(ctx context.Context, key warehouse.StockKey, qty int64, actorID int64) (warehouse.StockRecord, error)
	Release(ctx context.Context, key warehouse.StockKey, qty int64, allowNegativeReserved bool, actorID int64) (warehouse.StockRecord, error)
	Restore(ctx context.Context, key warehouse.StockKey, qty int64, actorID int64) (warehouse.StockRecord, error)
}

// ReceiptPort is the slice of the procurement service the facade needs.
type ReceiptPort interface {
	CreateReceipt(ctx context.Context, input procurement.CreateReceiptInput) (procurement.GoodsReceipt, error)
	CompleteReceipt(ctx context.Context, companyID, receiptID, actorID int64) error
	DeleteReceipt(ctx context.Context, companyID, receiptID, actorID int64) error
}

// Facade wires the stock surfaces together.
type Facade struct {
	catalog      CatalogPort
	ledger       LedgerPort
	reservations ReservationPort
	receipts     ReceiptPort
}

// NewFacade builds Facade.
func NewFacade(catalog CatalogPort, ledger LedgerPort, reservations ReservationPort, receipts ReceiptPort) *Facade {
	return &Facade{catalog: catalog, ledger: ledger, reservations: reservations, receipts: receipts}
}

// StockRef identifies stock the way API clients do: variant optional.
type StockRef struct {
	CompanyID   int64
	WarehouseID int64
	ProductID   int64
	VariantID   int64
}

func (f *Facade) resolveKey(ctx context.Context, ref StockRef) (warehouse.StockKey, error) {
	key := warehouse.StockKey{
		CompanyID:   ref.CompanyID,
		WarehouseID: ref.WarehouseID,
		ProductID:   ref.ProductID,
		VariantID:   ref.VariantID,
	}
	if key.VariantID != 0 {
		return key, nil
	}
	if f.catalog == nil {
		return warehouse.StockKey{}, fmt.Errorf("%w: variant required", shared.ErrValidation)
	}
	variantID, err := f.catalog.DefaultVariantID(ctx, ref.CompanyID, ref.ProductID)
	if err != nil {
		return warehouse.StockKey{}, err
	}
	key.VariantID = variantID
	return key, nil
}

// GetStock returns the stock record for a reference.
func (f *Facade) GetStock(ctx context.Context, ref StockRef) (warehouse.StockRecord, error) {
	key, err := f.resolveKey(ctx, ref)
	if err != nil {
		return warehouse.StockRecord{}, err
	}
	return f.ledger.GetStock(ctx, key)
}

// AdjustStock applies a manual correction and returns the new available
// quantity.
func (f *Facade) AdjustStock(ctx context.Context, ref StockRef, delta int64, allowNegative bool, reason string) (int64, error) {
	key, err := f.resolveKey(ctx, ref)
	if err != nil {
		return 0, err
	}
	return f.ledger.Adjust(ctx, warehouse.AdjustInput{
		Key:           key,
		Delta:         delta,
		AllowNegative: allowNegative,
		Reason:        reason,
		ActorID:       shared.ActorFromContext(ctx),
	})
}

// Reserve earmarks quantity for an order.
func (f *Facade) Reserve(ctx context.Context, ref StockRef, qty int64) (warehouse.StockRecord, error) {
	key, err := f.resolveKey(ctx, ref)
	if err != nil {
		return warehouse.StockRecord{}, err
	}
	return f.reservations.Reserve(ctx, key, qty, shared.ActorFromContext(ctx))
}

// Release consumes a reservation on fulfilment. allowNegativeReserved lets
// advance-sale channels release more than was reserved.
func (f *Facade) Release(ctx context.Context, ref StockRef, qty int64, allowNegativeReserved bool) (warehouse.StockRecord, error) {
	key, err := f.resolveKey(ctx, ref)
	if err != nil {
		return warehouse.StockRecord{}, err
	}
	return f.reservations.Release(ctx, key, qty, allowNegativeReserved, shared.ActorFromContext(ctx))
}

// Restore returns reserved quantity to available stock on cancellation.
func (f *Facade) Restore(ctx context.Context, ref StockRef, qty int64) (warehouse.StockRecord, error) {
	key, err := f.resolveKey(ctx, ref)
	if err != nil {
		return warehouse.StockRecord{}, err
	}
	return f.reservations.Restore(ctx, key, qty, shared.ActorFromContext(ctx))
}

// CreateReceipt resolves default variants on items before handing the
// receipt to procurement. Items carry PO line references which already pin
// product and variant, so resolution happens inside procurement; the facade
// only forwards.
func (f *Facade) CreateReceipt(ctx context.Context, input procurement.CreateReceiptInput) (procurement.GoodsReceipt, error) {
	return f.receipts.CreateReceipt(ctx, input)
}

// CompleteReceipt applies an open receipt to stock.
func (f *Facade) CompleteReceipt(ctx context.Context, companyID, receiptID int64) error {
	return f.receipts.CompleteReceipt(ctx, companyID, receiptID, shared.ActorFromContext(ctx))
}

// DeleteReceipt removes a receipt, reversing it when already completed.
func (f *Facade) DeleteReceipt(ctx context.Context, companyID, receiptID int64) error {
	return f.receipts.DeleteReceipt(ctx, companyID, receiptID, shared.ActorFromContext(ctx))
}
