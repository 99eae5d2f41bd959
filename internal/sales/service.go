package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-commerce/meridian/internal/inventory"
	"github.com/meridian-commerce/meridian/internal/shared"
	"github.com/meridian-commerce/meridian/internal/warehouse"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, companyID, id int64) (Order, []OrderLine, error)
	ListOrders(ctx context.Context, companyID int64, limit, offset int) ([]Order, error)
}

// StockPort is the slice of the inventory facade orders need.
type StockPort interface {
	Reserve(ctx context.Context, ref inventory.StockRef, qty int64) (warehouse.StockRecord, error)
	Release(ctx context.Context, ref inventory.StockRef, qty int64, allowNegativeReserved bool) (warehouse.StockRecord, error)
	Restore(ctx context.Context, ref inventory.StockRef, qty int64) (warehouse.StockRecord, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates sales orders with stock reservations. Placement
// reserves, fulfilment releases, cancellation restores; the reservation
// round trip leaves available stock unchanged when an order is cancelled.
type Service struct {
	repo  RepositoryPort
	stock StockPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, stock StockPort, audit AuditPort) *Service {
	return &Service{repo: repo, stock: stock, audit: audit}
}

// OrderLineInput describes one requested line.
type OrderLineInput struct {
	ProductID int64
	VariantID int64
	Qty       int64
	UnitPrice float64
}

// PlaceOrderInput describes order placement.
type PlaceOrderInput struct {
	CompanyID   int64
	Number      string
	CustomerID  int64
	WarehouseID int64
	Channel     Channel
	Note        string
	Lines       []OrderLineInput
}

// PlaceOrder persists the order and reserves stock for every line. A failed
// reservation restores the ones already taken before returning.
func (s *Service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (Order, error) {
	if input.CompanyID <= 0 || input.CustomerID <= 0 || input.WarehouseID <= 0 {
		return Order{}, fmt.Errorf("%w: company, customer and warehouse required", ErrValidation)
	}
	if len(input.Lines) == 0 {
		return Order{}, fmt.Errorf("%w: minimal 1 line", ErrValidation)
	}
	switch input.Channel {
	case ChannelRetail, ChannelAdvance:
	case "":
		input.Channel = ChannelRetail
	default:
		return Order{}, fmt.Errorf("%w: unknown channel %q", ErrValidation, input.Channel)
	}
	if input.Number == "" {
		input.Number = fmt.Sprintf("SO-%d", time.Now().UnixNano())
	}

	var total float64
	for _, line := range input.Lines {
		if line.ProductID <= 0 || line.Qty <= 0 {
			return Order{}, fmt.Errorf("%w: line requires product and positive quantity", ErrValidation)
		}
		total += float64(line.Qty) * line.UnitPrice
	}

	reserved := make([]OrderLineInput, 0, len(input.Lines))
	for _, line := range input.Lines {
		_, err := s.stock.Reserve(ctx, s.ref(input.CompanyID, input.WarehouseID, line), line.Qty)
		if err != nil {
			s.rollbackReservations(ctx, input.CompanyID, input.WarehouseID, reserved)
			return Order{}, err
		}
		reserved = append(reserved, line)
	}

	order := Order{
		CompanyID:   input.CompanyID,
		Number:      input.Number,
		CustomerID:  input.CustomerID,
		WarehouseID: input.WarehouseID,
		Channel:     input.Channel,
		Status:      OrderStatusPending,
		Total:       total,
		Note:        input.Note,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = id
		for _, line := range input.Lines {
			if err := tx.InsertOrderLine(ctx, OrderLine{
				OrderID:   id,
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Qty:       line.Qty,
				UnitPrice: line.UnitPrice,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.rollbackReservations(ctx, input.CompanyID, input.WarehouseID, reserved)
		return Order{}, err
	}
	s.recordAudit(ctx, input.CompanyID, "SO_PLACE", order.ID, map[string]any{"number": order.Number, "channel": order.Channel})
	return order, nil
}

// FulfillOrder ships a pending order, consuming its reservations. Advance
// channel orders may release below zero reserved; goods promised before
// arrival are squared once the receipt lands.
func (s *Service) FulfillOrder(ctx context.Context, companyID, orderID, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, companyID, orderID)
		if err != nil {
			return err
		}
		if order.Status != OrderStatusPending {
			return ErrInvalidState
		}
		lines, err := tx.GetOrderLines(ctx, orderID)
		if err != nil {
			return err
		}
		allowNegative := order.Channel == ChannelAdvance
		for _, line := range lines {
			ref := inventory.StockRef{CompanyID: companyID, WarehouseID: order.WarehouseID, ProductID: line.ProductID, VariantID: line.VariantID}
			if _, err := s.stock.Release(ctx, ref, line.Qty, allowNegative); err != nil {
				return err
			}
		}
		return tx.UpdateOrderStatus(ctx, orderID, OrderStatusFulfilled)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, companyID, "SO_FULFILL", orderID, map[string]any{"actor_id": actorID})
	return nil
}

// CancelOrder returns reservations of a pending order to available stock.
func (s *Service) CancelOrder(ctx context.Context, companyID, orderID, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, companyID, orderID)
		if err != nil {
			return err
		}
		if order.Status != OrderStatusPending {
			return ErrInvalidState
		}
		lines, err := tx.GetOrderLines(ctx, orderID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			ref := inventory.StockRef{CompanyID: companyID, WarehouseID: order.WarehouseID, ProductID: line.ProductID, VariantID: line.VariantID}
			if _, err := s.stock.Restore(ctx, ref, line.Qty); err != nil {
				return err
			}
		}
		return tx.UpdateOrderStatus(ctx, orderID, OrderStatusCancelled)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, companyID, "SO_CANCEL", orderID, map[string]any{"actor_id": actorID})
	return nil
}

// GetOrder exposes the read path for handlers.
func (s *Service) GetOrder(ctx context.Context, companyID, orderID int64) (Order, []OrderLine, error) {
	return s.repo.GetOrder(ctx, companyID, orderID)
}

// ListOrders exposes the read path for handlers.
func (s *Service) ListOrders(ctx context.Context, companyID int64, limit, offset int) ([]Order, error) {
	return s.repo.ListOrders(ctx, companyID, limit, offset)
}

func (s *Service) ref(companyID, warehouseID int64, line OrderLineInput) inventory.StockRef {
	return inventory.StockRef{
		CompanyID:   companyID,
		WarehouseID: warehouseID,
		ProductID:   line.ProductID,
		VariantID:   line.VariantID,
	}
}

func (s *Service) rollbackReservations(ctx context.Context, companyID, warehouseID int64, lines []OrderLineInput) {
	for _, line := range lines {
		_, _ = s.stock.Restore(ctx, s.ref(companyID, warehouseID, line), line.Qty)
	}
}

func (s *Service) recordAudit(ctx context.Context, companyID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		CompanyID: companyID,
		ActorID:   shared.ActorFromContext(ctx),
		Action:    action,
		Entity:    "sales",
		EntityID:  fmt.Sprintf("%d", entityID),
		Meta:      meta,
	})
}
