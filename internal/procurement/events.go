package procurement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-commerce/meridian/internal/warehouse"
)

// ReceiptItemEvent describes per-item values for integration mapping.
type ReceiptItemEvent struct {
	POLineID    int64
	ProductID   int64
	VariantID   int64
	QtyAccepted int64
	QtyRejected int64
	UnitCost    float64
}

// ReceiptCompletedEvent captures a completed goods receipt after commit.
type ReceiptCompletedEvent struct {
	ID          int64
	CompanyID   int64
	Number      string
	POID        int64
	SupplierID  int64
	WarehouseID int64
	CompletedAt time.Time
	Items       []ReceiptItemEvent
}

// ReceiptDeletedEvent captures the reversal of a completed receipt.
type ReceiptDeletedEvent struct {
	ID          int64
	CompanyID   int64
	Number      string
	POID        int64
	WarehouseID int64
	DeletedAt   time.Time
	Items       []ReceiptItemEvent
}

// IntegrationHandler receives procurement domain events after commit.
type IntegrationHandler interface {
	HandleReceiptCompleted(ctx context.Context, evt ReceiptCompletedEvent) error
	HandleReceiptDeleted(ctx context.Context, evt ReceiptDeletedEvent) error
}

// StockCachePort drops cached stock reads touched by receipt events.
type StockCachePort interface {
	Invalidate(ctx context.Context, key warehouse.StockKey)
}

type stockIntegration struct {
	logger *slog.Logger
	cache  StockCachePort
}

// NewIntegrationHandler builds the default integration: cached stock reads
// for the touched keys are dropped and the event is logged.
func NewIntegrationHandler(logger *slog.Logger, cache StockCachePort) IntegrationHandler {
	return &stockIntegration{logger: logger, cache: cache}
}

func (s *stockIntegration) HandleReceiptCompleted(ctx context.Context, evt ReceiptCompletedEvent) error {
	s.invalidate(ctx, evt.CompanyID, evt.WarehouseID, evt.Items)
	s.logger.Info("goods receipt completed",
		slog.String("source_id", eventSourceID("GRN", evt.ID).String()),
		slog.Int64("receipt_id", evt.ID),
		slog.String("number", evt.Number),
		slog.Int64("po_id", evt.POID),
		slog.Int("items", len(evt.Items)))
	return nil
}

func (s *stockIntegration) HandleReceiptDeleted(ctx context.Context, evt ReceiptDeletedEvent) error {
	s.invalidate(ctx, evt.CompanyID, evt.WarehouseID, evt.Items)
	s.logger.Info("goods receipt reversed",
		slog.String("source_id", eventSourceID("GRN-DEL", evt.ID).String()),
		slog.Int64("receipt_id", evt.ID),
		slog.String("number", evt.Number),
		slog.Int64("po_id", evt.POID))
	return nil
}

// eventSourceID derives a stable identifier for an event so downstream
// consumers can deduplicate redeliveries.
func eventSourceID(kind string, id int64) uuid.UUID {
	return uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("%s:%d", kind, id)))
}

func (s *stockIntegration) invalidate(ctx context.Context, companyID, warehouseID int64, items []ReceiptItemEvent) {
	if s.cache == nil {
		return
	}
	for _, item := range items {
		s.cache.Invalidate(ctx, warehouse.StockKey{
			CompanyID:   companyID,
			WarehouseID: warehouseID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
		})
	}
}
