package procurement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/meridian-commerce/meridian/internal/observability"
	"github.com/meridian-commerce/meridian/internal/shared"
	"github.com/meridian-commerce/meridian/internal/warehouse"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPO(ctx context.Context, companyID, id int64) (PurchaseOrder, []POLine, error)
	GetReceipt(ctx context.Context, companyID, id int64) (GoodsReceipt, []ReceiptItem, error)
	GetInvoice(ctx context.Context, companyID, id int64) (PurchaseInvoice, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service reconciles goods receipts against purchase order capacity and
// drives purchase order status transitions. It is the only component allowed
// to complete a receipt or to move a line's received counter.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	metrics     *observability.Metrics
	integration IntegrationHandler
	logger      *slog.Logger
}

// NewService constructs the procurement service.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, metrics *observability.Metrics, integration IntegrationHandler, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, idempotency: idem, metrics: metrics, integration: integration, logger: logger}
}

// CreatePOInput defines data to create a purchase order.
type CreatePOInput struct {
	CompanyID    int64
	Number       string
	SupplierID   int64
	WarehouseID  int64
	Currency     string
	ExpectedDate time.Time
	Note         string
	Lines        []POLineInput
}

// POLineInput describes an ordered line.
type POLineInput struct {
	ProductID  int64
	VariantID  int64
	OrderedQty int64
	UnitPrice  float64
}

// CreateReceiptInput describes goods receipt creation.
type CreateReceiptInput struct {
	CompanyID  int64
	POID       int64
	Number     string
	ReceivedAt time.Time
	Note       string
	Items      []ReceiptItemInput
}

// ReceiptItemInput describes one received line. At most one of QtyAccepted
// and QtyRejected may be supplied; the other is derived so they sum to
// QtyReceived. When neither is set everything received counts as accepted.
type ReceiptItemInput struct {
	POLineID    int64
	QtyReceived int64
	QtyAccepted *int64
	QtyRejected *int64
	UnitCost    float64
}

// InspectionSplit revises the accepted quantity of one receipt item.
type InspectionSplit struct {
	ItemID      int64
	QtyAccepted int64
}

// InvoiceInput describes purchase invoice creation from a completed receipt.
type InvoiceInput struct {
	CompanyID int64
	ReceiptID int64
	Number    string
	DueDate   time.Time
}

// CreatePurchaseOrder persists a draft PO with its lines.
func (s *Service) CreatePurchaseOrder(ctx context.Context, input CreatePOInput) (PurchaseOrder, error) {
	if input.CompanyID <= 0 || input.SupplierID <= 0 || input.WarehouseID <= 0 {
		return PurchaseOrder{}, fmt.Errorf("%w: company, supplier and warehouse required", ErrValidation)
	}
	if len(input.Lines) == 0 {
		return PurchaseOrder{}, fmt.Errorf("%w: minimal 1 line", ErrValidation)
	}
	if input.Number == "" {
		input.Number = generateNumber("PO")
	}
	po := PurchaseOrder{
		CompanyID:    input.CompanyID,
		Number:       input.Number,
		SupplierID:   input.SupplierID,
		WarehouseID:  input.WarehouseID,
		Status:       POStatusDraft,
		Currency:     defaultString(input.Currency, "USD"),
		ExpectedDate: input.ExpectedDate,
		Note:         input.Note,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		poID, err := tx.CreatePO(ctx, po)
		if err != nil {
			return err
		}
		po.ID = poID
		for _, line := range input.Lines {
			if line.ProductID <= 0 || line.VariantID <= 0 || line.OrderedQty <= 0 {
				return fmt.Errorf("%w: line requires product, variant and positive quantity", ErrValidation)
			}
			if err := tx.InsertPOLine(ctx, POLine{
				POID:       poID,
				ProductID:  line.ProductID,
				VariantID:  line.VariantID,
				OrderedQty: line.OrderedQty,
				UnitPrice:  line.UnitPrice,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordAudit(ctx, input.CompanyID, "PO_CREATE", po.ID, map[string]any{"number": po.Number})
	return po, nil
}

// ApprovePurchaseOrder transitions a draft PO to approved.
func (s *Service) ApprovePurchaseOrder(ctx context.Context, companyID, poID, actorID int64) error {
	return s.transitionPO(ctx, companyID, poID, actorID, POStatusDraft, POStatusApproved, "PO_APPROVE")
}

// MarkPurchaseOrderOrdered records that the order was sent to the supplier.
func (s *Service) MarkPurchaseOrderOrdered(ctx context.Context, companyID, poID, actorID int64) error {
	return s.transitionPO(ctx, companyID, poID, actorID, POStatusApproved, POStatusOrdered, "PO_ORDER")
}

// CancelPurchaseOrder cancels a PO that has not received any goods yet.
func (s *Service) CancelPurchaseOrder(ctx context.Context, companyID, poID, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetPOForUpdate(ctx, companyID, poID)
		if err != nil {
			return err
		}
		switch po.Status {
		case POStatusDraft, POStatusApproved, POStatusOrdered:
		default:
			return ErrInvalidState
		}
		lines, err := tx.GetPOLinesForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if line.ReceivedQty > 0 {
				return fmt.Errorf("%w: goods already received", ErrInvalidState)
			}
			open, err := tx.SumOpenReceived(ctx, line.ID)
			if err != nil {
				return err
			}
			if open > 0 {
				return fmt.Errorf("%w: open receipts exist", ErrInvalidState)
			}
		}
		return tx.UpdatePOStatus(ctx, poID, POStatusCancelled)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, companyID, "PO_CANCEL", poID, map[string]any{"actor_id": actorID})
	return nil
}

// CreateReceipt validates receipt quantities against line capacity and
// persists the receipt as pending. Capacity counts accepted quantities of
// completed receipts plus planned received quantities of every other open
// receipt, so the sum of all receipts ever counted can never pass what the
// order authorised.
func (s *Service) CreateReceipt(ctx context.Context, input CreateReceiptInput) (GoodsReceipt, error) {
	if input.CompanyID <= 0 || input.POID <= 0 {
		return GoodsReceipt{}, fmt.Errorf("%w: company and purchase order required", ErrValidation)
	}
	if len(input.Items) == 0 {
		return GoodsReceipt{}, fmt.Errorf("%w: minimal 1 item", ErrValidation)
	}
	if input.Number == "" {
		input.Number = generateNumber("GRN")
	}
	receipt := GoodsReceipt{
		CompanyID:  input.CompanyID,
		Number:     input.Number,
		POID:       input.POID,
		Status:     ReceiptStatusPending,
		ReceivedAt: defaultTime(input.ReceivedAt),
		Note:       input.Note,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetPOForUpdate(ctx, input.CompanyID, input.POID)
		if err != nil {
			return err
		}
		switch po.Status {
		case POStatusApproved, POStatusOrdered, POStatusPartial:
		default:
			return fmt.Errorf("%w: receipts require an approved or ordered purchase order", ErrInvalidState)
		}
		receipt.SupplierID = po.SupplierID
		receipt.WarehouseID = po.WarehouseID

		lines, err := tx.GetPOLinesForUpdate(ctx, input.POID)
		if err != nil {
			return err
		}
		lineByID := make(map[int64]POLine, len(lines))
		for _, line := range lines {
			lineByID[line.ID] = line
		}

		items, err := s.buildItems(ctx, tx, lineByID, input.Items)
		if err != nil {
			return err
		}

		receiptID, err := tx.CreateReceipt(ctx, receipt)
		if err != nil {
			return err
		}
		receipt.ID = receiptID
		for _, item := range items {
			item.ReceiptID = receiptID
			if err := tx.InsertReceiptItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return GoodsReceipt{}, err
	}
	s.recordAudit(ctx, input.CompanyID, "GRN_CREATE", receipt.ID, map[string]any{"number": receipt.Number, "po_id": input.POID})
	return receipt, nil
}

func (s *Service) buildItems(ctx context.Context, tx TxRepository, lineByID map[int64]POLine, inputs []ReceiptItemInput) ([]ReceiptItem, error) {
	// Quantities already claimed by this request, per line, so one receipt
	// with two items on the same line cannot sneak past the capacity check.
	claimed := make(map[int64]int64)
	items := make([]ReceiptItem, 0, len(inputs))
	for _, in := range inputs {
		line, ok := lineByID[in.POLineID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown purchase order line %d", ErrValidation, in.POLineID)
		}
		if in.QtyReceived <= 0 {
			return nil, fmt.Errorf("%w: received quantity must be positive", ErrValidation)
		}
		accepted, rejected, err := deriveSplit(in.QtyReceived, in.QtyAccepted, in.QtyRejected)
		if err != nil {
			return nil, err
		}
		completed, err := tx.SumCompletedAccepted(ctx, line.ID)
		if err != nil {
			return nil, err
		}
		open, err := tx.SumOpenReceived(ctx, line.ID)
		if err != nil {
			return nil, err
		}
		alreadyCounted := completed + open + claimed[line.ID]
		if alreadyCounted+in.QtyReceived > line.OrderedQty {
			return nil, fmt.Errorf("%w: line %d has %d of %d already counted", ErrOverCapacity, line.ID, alreadyCounted, line.OrderedQty)
		}
		claimed[line.ID] += in.QtyReceived
		items = append(items, ReceiptItem{
			POLineID:    line.ID,
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			QtyReceived: in.QtyReceived,
			QtyAccepted: accepted,
			QtyRejected: rejected,
			UnitCost:    in.UnitCost,
		})
	}
	return items, nil
}

// InspectReceipt revises the accepted/rejected split of a pending receipt and
// marks it inspected. Received quantities are untouched.
func (s *Service) InspectReceipt(ctx context.Context, companyID, receiptID int64, splits []InspectionSplit, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		receipt, err := tx.GetReceiptForUpdate(ctx, companyID, receiptID)
		if err != nil {
			return err
		}
		if receipt.Status != ReceiptStatusPending && receipt.Status != ReceiptStatusInspected {
			return ErrInvalidState
		}
		items, err := tx.GetReceiptItems(ctx, receiptID)
		if err != nil {
			return err
		}
		itemByID := make(map[int64]ReceiptItem, len(items))
		for _, item := range items {
			itemByID[item.ID] = item
		}
		for _, split := range splits {
			item, ok := itemByID[split.ItemID]
			if !ok {
				return fmt.Errorf("%w: unknown receipt item %d", ErrValidation, split.ItemID)
			}
			if split.QtyAccepted < 0 || split.QtyAccepted > item.QtyReceived {
				return fmt.Errorf("%w: accepted quantity outside 0..%d", ErrValidation, item.QtyReceived)
			}
			if err := tx.UpdateReceiptItemQuantities(ctx, item.ID, item.QtyReceived, split.QtyAccepted, item.QtyReceived-split.QtyAccepted); err != nil {
				return err
			}
		}
		return tx.UpdateReceiptStatus(ctx, receiptID, ReceiptStatusInspected)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, companyID, "GRN_INSPECT", receiptID, map[string]any{"actor_id": actorID})
	return nil
}

// CompleteReceipt applies an open receipt: it shrinks every other open
// receipt that no longer fits the line's remaining capacity, adds accepted
// stock to the warehouse ledger, moves the line counters and recomputes the
// purchase order status. Everything happens in one transaction; a failure
// anywhere leaves no partial state.
func (s *Service) CompleteReceipt(ctx context.Context, companyID, receiptID, actorID int64) error {
	receipt, _, err := s.repo.GetReceipt(ctx, companyID, receiptID)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("GRN-COMPLETE:%s", receipt.Number)
	inserted := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "procurement.receipt"); err != nil {
			return err
		}
		inserted = true
	}
	var evt ReceiptCompletedEvent
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		receipt, err := tx.GetReceiptForUpdate(ctx, companyID, receiptID)
		if err != nil {
			return err
		}
		if receipt.Status != ReceiptStatusPending && receipt.Status != ReceiptStatusInspected {
			return ErrInvalidState
		}
		po, err := tx.GetPOForUpdate(ctx, companyID, receipt.POID)
		if err != nil {
			return err
		}
		lines, err := tx.GetPOLinesForUpdate(ctx, po.ID)
		if err != nil {
			return err
		}
		items, err := tx.GetReceiptItems(ctx, receiptID)
		if err != nil {
			return err
		}
		lineByID := make(map[int64]*POLine, len(lines))
		for i := range lines {
			lineByID[lines[i].ID] = &lines[i]
		}

		acceptedNow := make(map[int64]int64)
		lineOrder := make([]int64, 0, len(items))
		for _, item := range items {
			if _, seen := acceptedNow[item.POLineID]; !seen {
				lineOrder = append(lineOrder, item.POLineID)
			}
			acceptedNow[item.POLineID] += item.QtyAccepted
		}

		for _, lineID := range lineOrder {
			line, ok := lineByID[lineID]
			if !ok {
				return fmt.Errorf("%w: item references line %d outside purchase order", ErrValidation, lineID)
			}
			if line.ReceivedQty+acceptedNow[lineID] > line.OrderedQty {
				return fmt.Errorf("%w: line %d", ErrOverCapacity, lineID)
			}
			if err := s.shrinkOpenReceipts(ctx, tx, line, acceptedNow[lineID], receiptID); err != nil {
				return err
			}
		}

		for _, item := range items {
			if item.QtyAccepted <= 0 {
				continue
			}
			stockKey := warehouse.StockKey{
				CompanyID:   companyID,
				WarehouseID: receipt.WarehouseID,
				ProductID:   item.ProductID,
				VariantID:   item.VariantID,
			}
			if err := tx.AdjustStock(ctx, stockKey, item.QtyAccepted, false); err != nil {
				return err
			}
			if err := tx.AddLineReceived(ctx, item.POLineID, item.QtyAccepted); err != nil {
				return err
			}
		}

		if err := tx.UpdateReceiptStatus(ctx, receiptID, ReceiptStatusCompleted); err != nil {
			return err
		}

		for i := range lines {
			lines[i].ReceivedQty += acceptedNow[lines[i].ID]
		}
		if next := derivePOStatus(po.Status, lines); next != po.Status {
			if err := tx.UpdatePOStatus(ctx, po.ID, next); err != nil {
				return err
			}
		}

		evt = ReceiptCompletedEvent{
			ID:          receipt.ID,
			CompanyID:   companyID,
			Number:      receipt.Number,
			POID:        receipt.POID,
			SupplierID:  receipt.SupplierID,
			WarehouseID: receipt.WarehouseID,
			CompletedAt: time.Now().UTC(),
			Items:       itemEvents(items),
		}
		return nil
	})
	if err != nil {
		if inserted {
			_ = s.idempotency.Delete(ctx, key)
		}
		if errors.Is(err, shared.ErrConflict) {
			s.metrics.CountReceiptConflict()
		}
		return err
	}
	if s.integration != nil {
		// The receipt is already committed; a failed side effect must not
		// turn a completed receipt into a caller-visible error.
		if err := s.integration.HandleReceiptCompleted(ctx, evt); err != nil {
			s.logger.Warn("receipt completed event",
				slog.Any("error", err), slog.Int64("receipt_id", receiptID))
		}
	}
	s.recordAudit(ctx, companyID, "GRN_COMPLETE", receiptID, map[string]any{"number": receipt.Number})
	return nil
}

// shrinkOpenReceipts proportionally reduces every other open receipt item on
// the line when their combined plan no longer fits the remaining capacity.
// The floor division may leave residual capacity unused; that waste is the
// accepted price of never over-allocating. Items are visited in receipt
// creation order so equal plans shrink deterministically.
func (s *Service) shrinkOpenReceipts(ctx context.Context, tx TxRepository, line *POLine, acceptedNow int64, completingReceiptID int64) error {
	remaining := line.OrderedQty - line.ReceivedQty - acceptedNow
	if remaining < 0 {
		remaining = 0
	}
	open, err := tx.ListOpenItemsForLine(ctx, line.ID, completingReceiptID)
	if err != nil {
		return err
	}
	var pendingTotal int64
	for _, entry := range open {
		pendingTotal += entry.Item.QtyReceived
	}
	if pendingTotal <= remaining {
		return nil
	}
	for _, entry := range open {
		var adjusted int64
		if remaining > 0 {
			adjusted = entry.Item.QtyReceived * remaining / pendingTotal
		}
		accepted := entry.Item.QtyAccepted
		if accepted > adjusted {
			accepted = adjusted
		}
		if err := tx.UpdateReceiptItemQuantities(ctx, entry.Item.ID, adjusted, accepted, adjusted-accepted); err != nil {
			return err
		}
	}
	return nil
}

// DeleteReceipt removes a receipt. Open receipts are simply marked deleted.
// Deleting a completed receipt is a privileged reversal: stock and line
// counters are decremented (stock may go negative, the goods are gone), and
// it is refused while a purchase invoice references the receipt.
func (s *Service) DeleteReceipt(ctx context.Context, companyID, receiptID, actorID int64) error {
	var evt ReceiptDeletedEvent
	reversed := false
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		receipt, err := tx.GetReceiptForUpdate(ctx, companyID, receiptID)
		if err != nil {
			return err
		}
		switch receipt.Status {
		case ReceiptStatusPending, ReceiptStatusInspected:
			return tx.UpdateReceiptStatus(ctx, receiptID, ReceiptStatusDeleted)
		case ReceiptStatusCompleted:
		default:
			return ErrInvalidState
		}
		invoiced, err := tx.InvoiceExistsForReceipt(ctx, receiptID)
		if err != nil {
			return err
		}
		if invoiced {
			return ErrReceiptInvoiced
		}
		po, err := tx.GetPOForUpdate(ctx, companyID, receipt.POID)
		if err != nil {
			return err
		}
		lines, err := tx.GetPOLinesForUpdate(ctx, po.ID)
		if err != nil {
			return err
		}
		items, err := tx.GetReceiptItems(ctx, receiptID)
		if err != nil {
			return err
		}
		acceptedByLine := make(map[int64]int64)
		for _, item := range items {
			if item.QtyAccepted <= 0 {
				continue
			}
			stockKey := warehouse.StockKey{
				CompanyID:   companyID,
				WarehouseID: receipt.WarehouseID,
				ProductID:   item.ProductID,
				VariantID:   item.VariantID,
			}
			if err := tx.AdjustStock(ctx, stockKey, -item.QtyAccepted, true); err != nil {
				return err
			}
			if err := tx.AddLineReceived(ctx, item.POLineID, -item.QtyAccepted); err != nil {
				return err
			}
			acceptedByLine[item.POLineID] += item.QtyAccepted
		}
		if err := tx.UpdateReceiptStatus(ctx, receiptID, ReceiptStatusDeleted); err != nil {
			return err
		}
		for i := range lines {
			lines[i].ReceivedQty -= acceptedByLine[lines[i].ID]
		}
		if next := derivePOStatus(po.Status, lines); next != po.Status {
			if err := tx.UpdatePOStatus(ctx, po.ID, next); err != nil {
				return err
			}
		}
		reversed = true
		evt = ReceiptDeletedEvent{
			ID:          receipt.ID,
			CompanyID:   companyID,
			Number:      receipt.Number,
			POID:        receipt.POID,
			WarehouseID: receipt.WarehouseID,
			DeletedAt:   time.Now().UTC(),
			Items:       itemEvents(items),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrConflict) {
			s.metrics.CountReceiptConflict()
		}
		return err
	}
	if reversed && s.integration != nil {
		if err := s.integration.HandleReceiptDeleted(ctx, evt); err != nil {
			s.logger.Warn("receipt reversed event",
				slog.Any("error", err), slog.Int64("receipt_id", receiptID))
		}
	}
	s.recordAudit(ctx, companyID, "GRN_DELETE", receiptID, map[string]any{"actor_id": actorID, "reversed": reversed})
	return nil
}

// CreateInvoiceFromReceipt sums accepted quantities of a completed receipt
// into a purchase invoice.
func (s *Service) CreateInvoiceFromReceipt(ctx context.Context, input InvoiceInput) (PurchaseInvoice, error) {
	receipt, items, err := s.repo.GetReceipt(ctx, input.CompanyID, input.ReceiptID)
	if err != nil {
		return PurchaseInvoice{}, err
	}
	if receipt.Status != ReceiptStatusCompleted {
		return PurchaseInvoice{}, ErrInvalidState
	}
	var total float64
	for _, item := range items {
		total += float64(item.QtyAccepted) * item.UnitCost
	}
	if total < 0 {
		total = 0
	}
	inv := PurchaseInvoice{
		CompanyID:  input.CompanyID,
		Number:     input.Number,
		SupplierID: receipt.SupplierID,
		ReceiptID:  receipt.ID,
		Currency:   "USD",
		Total:      math.Round(total*100) / 100,
		Status:     InvoiceStatusDraft,
		DueAt:      input.DueDate,
	}
	if inv.Number == "" {
		inv.Number = generateNumber("PI")
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateInvoice(ctx, inv)
		if err != nil {
			return err
		}
		inv.ID = id
		return nil
	})
	if err != nil {
		return PurchaseInvoice{}, err
	}
	s.recordAudit(ctx, input.CompanyID, "PI_CREATE", inv.ID, map[string]any{"number": inv.Number, "total": inv.Total})
	return inv, nil
}

// GetPurchaseOrder exposes the read path for handlers.
func (s *Service) GetPurchaseOrder(ctx context.Context, companyID, poID int64) (PurchaseOrder, []POLine, error) {
	return s.repo.GetPO(ctx, companyID, poID)
}

// GetGoodsReceipt exposes the read path for handlers.
func (s *Service) GetGoodsReceipt(ctx context.Context, companyID, receiptID int64) (GoodsReceipt, []ReceiptItem, error) {
	return s.repo.GetReceipt(ctx, companyID, receiptID)
}

func (s *Service) transitionPO(ctx context.Context, companyID, poID, actorID int64, from, to POStatus, action string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetPOForUpdate(ctx, companyID, poID)
		if err != nil {
			return err
		}
		if po.Status != from {
			return ErrInvalidState
		}
		return tx.UpdatePOStatus(ctx, poID, to)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, companyID, action, poID, map[string]any{"actor_id": actorID})
	return nil
}

// derivePOStatus recomputes the aggregate status from line counters once
// receiving has begun. Draft, approved and cancelled orders keep their status.
func derivePOStatus(current POStatus, lines []POLine) POStatus {
	if current == POStatusDraft || current == POStatusApproved || current == POStatusCancelled || len(lines) == 0 {
		return current
	}
	allReceived := true
	anyReceived := false
	for _, line := range lines {
		if line.ReceivedQty < line.OrderedQty {
			allReceived = false
		}
		if line.ReceivedQty > 0 {
			anyReceived = true
		}
	}
	switch {
	case allReceived:
		return POStatusReceived
	case anyReceived:
		return POStatusPartial
	default:
		return POStatusOrdered
	}
}

func deriveSplit(received int64, accepted, rejected *int64) (int64, int64, error) {
	switch {
	case accepted != nil && rejected != nil:
		if *accepted < 0 || *rejected < 0 || *accepted+*rejected != received {
			return 0, 0, fmt.Errorf("%w: accepted and rejected must sum to received", ErrValidation)
		}
		return *accepted, *rejected, nil
	case accepted != nil:
		if *accepted < 0 || *accepted > received {
			return 0, 0, fmt.Errorf("%w: accepted quantity outside 0..%d", ErrValidation, received)
		}
		return *accepted, received - *accepted, nil
	case rejected != nil:
		if *rejected < 0 || *rejected > received {
			return 0, 0, fmt.Errorf("%w: rejected quantity outside 0..%d", ErrValidation, received)
		}
		return received - *rejected, *rejected, nil
	default:
		return received, 0, nil
	}
}

func itemEvents(items []ReceiptItem) []ReceiptItemEvent {
	events := make([]ReceiptItemEvent, 0, len(items))
	for _, item := range items {
		events = append(events, ReceiptItemEvent{
			POLineID:    item.POLineID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			QtyAccepted: item.QtyAccepted,
			QtyRejected: item.QtyRejected,
			UnitCost:    item.UnitCost,
		})
	}
	return events
}

func (s *Service) recordAudit(ctx context.Context, companyID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		CompanyID: companyID,
		ActorID:   shared.ActorFromContext(ctx),
		Action:    action,
		Entity:    "procurement",
		EntityID:  fmt.Sprintf("%d", entityID),
		Meta:      meta,
	})
}

func generateNumber(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func defaultString(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func defaultTime(value time.Time) time.Time {
	if value.IsZero() {
		return time.Now()
	}
	return value
}
