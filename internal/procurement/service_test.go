package procurement

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-commerce/meridian/internal/shared"
	"github.com/meridian-commerce/meridian/internal/warehouse"
)

type memoryProcRepo struct {
	pos      map[int64]PurchaseOrder
	poLines  map[int64][]POLine
	receipts map[int64]GoodsReceipt
	items    map[int64][]ReceiptItem
	invoices map[int64]PurchaseInvoice
	stock    map[warehouse.StockKey]int64
	nextID   int64
}

type memoryProcTx struct {
	repo *memoryProcRepo
}

func newMemoryProcRepo() *memoryProcRepo {
	return &memoryProcRepo{
		pos:      make(map[int64]PurchaseOrder),
		poLines:  make(map[int64][]POLine),
		receipts: make(map[int64]GoodsReceipt),
		items:    make(map[int64][]ReceiptItem),
		invoices: make(map[int64]PurchaseInvoice),
		stock:    make(map[warehouse.StockKey]int64),
	}
}

func (r *memoryProcRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryProcTx{repo: r})
}

func (r *memoryProcRepo) GetPO(ctx context.Context, companyID, id int64) (PurchaseOrder, []POLine, error) {
	po, ok := r.pos[id]
	if !ok || po.CompanyID != companyID {
		return PurchaseOrder{}, nil, ErrNotFound
	}
	return po, append([]POLine(nil), r.poLines[id]...), nil
}

func (r *memoryProcRepo) GetReceipt(ctx context.Context, companyID, id int64) (GoodsReceipt, []ReceiptItem, error) {
	receipt, ok := r.receipts[id]
	if !ok || receipt.CompanyID != companyID {
		return GoodsReceipt{}, nil, ErrNotFound
	}
	return receipt, append([]ReceiptItem(nil), r.items[id]...), nil
}

func (r *memoryProcRepo) GetInvoice(ctx context.Context, companyID, id int64) (PurchaseInvoice, error) {
	inv, ok := r.invoices[id]
	if !ok || inv.CompanyID != companyID {
		return PurchaseInvoice{}, ErrNotFound
	}
	return inv, nil
}

func (tx *memoryProcTx) nextID() int64 {
	tx.repo.nextID++
	return tx.repo.nextID
}

func (tx *memoryProcTx) CreatePO(ctx context.Context, po PurchaseOrder) (int64, error) {
	id := tx.nextID()
	po.ID = id
	tx.repo.pos[id] = po
	return id, nil
}

func (tx *memoryProcTx) InsertPOLine(ctx context.Context, line POLine) error {
	line.ID = tx.nextID()
	tx.repo.poLines[line.POID] = append(tx.repo.poLines[line.POID], line)
	return nil
}

func (tx *memoryProcTx) UpdatePOStatus(ctx context.Context, id int64, status POStatus) error {
	po, ok := tx.repo.pos[id]
	if !ok {
		return ErrNotFound
	}
	po.Status = status
	tx.repo.pos[id] = po
	return nil
}

func (tx *memoryProcTx) GetPOForUpdate(ctx context.Context, companyID, id int64) (PurchaseOrder, error) {
	po, ok := tx.repo.pos[id]
	if !ok || po.CompanyID != companyID {
		return PurchaseOrder{}, ErrNotFound
	}
	return po, nil
}

func (tx *memoryProcTx) GetPOLinesForUpdate(ctx context.Context, poID int64) ([]POLine, error) {
	return append([]POLine(nil), tx.repo.poLines[poID]...), nil
}

func (tx *memoryProcTx) AddLineReceived(ctx context.Context, lineID, delta int64) error {
	for poID, lines := range tx.repo.poLines {
		for i := range lines {
			if lines[i].ID == lineID {
				lines[i].ReceivedQty += delta
				tx.repo.poLines[poID] = lines
				return nil
			}
		}
	}
	return ErrNotFound
}

func (tx *memoryProcTx) CreateReceipt(ctx context.Context, receipt GoodsReceipt) (int64, error) {
	id := tx.nextID()
	receipt.ID = id
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now()
	}
	tx.repo.receipts[id] = receipt
	return id, nil
}

func (tx *memoryProcTx) InsertReceiptItem(ctx context.Context, item ReceiptItem) error {
	item.ID = tx.nextID()
	tx.repo.items[item.ReceiptID] = append(tx.repo.items[item.ReceiptID], item)
	return nil
}

func (tx *memoryProcTx) UpdateReceiptStatus(ctx context.Context, id int64, status ReceiptStatus) error {
	receipt, ok := tx.repo.receipts[id]
	if !ok {
		return ErrNotFound
	}
	receipt.Status = status
	tx.repo.receipts[id] = receipt
	return nil
}

func (tx *memoryProcTx) GetReceiptForUpdate(ctx context.Context, companyID, id int64) (GoodsReceipt, error) {
	receipt, ok := tx.repo.receipts[id]
	if !ok || receipt.CompanyID != companyID {
		return GoodsReceipt{}, ErrNotFound
	}
	return receipt, nil
}

func (tx *memoryProcTx) GetReceiptItems(ctx context.Context, receiptID int64) ([]ReceiptItem, error) {
	return append([]ReceiptItem(nil), tx.repo.items[receiptID]...), nil
}

func (tx *memoryProcTx) UpdateReceiptItemQuantities(ctx context.Context, itemID, received, accepted, rejected int64) error {
	for receiptID, items := range tx.repo.items {
		for i := range items {
			if items[i].ID == itemID {
				items[i].QtyReceived = received
				items[i].QtyAccepted = accepted
				items[i].QtyRejected = rejected
				tx.repo.items[receiptID] = items
				return nil
			}
		}
	}
	return ErrNotFound
}

func (tx *memoryProcTx) SumCompletedAccepted(ctx context.Context, lineID int64) (int64, error) {
	var total int64
	for id, receipt := range tx.repo.receipts {
		if receipt.Status != ReceiptStatusCompleted {
			continue
		}
		for _, item := range tx.repo.items[id] {
			if item.POLineID == lineID {
				total += item.QtyAccepted
			}
		}
	}
	return total, nil
}

func (tx *memoryProcTx) SumOpenReceived(ctx context.Context, lineID int64) (int64, error) {
	var total int64
	for id, receipt := range tx.repo.receipts {
		if receipt.Status != ReceiptStatusPending && receipt.Status != ReceiptStatusInspected {
			continue
		}
		for _, item := range tx.repo.items[id] {
			if item.POLineID == lineID {
				total += item.QtyReceived
			}
		}
	}
	return total, nil
}

func (tx *memoryProcTx) ListOpenItemsForLine(ctx context.Context, lineID, excludeReceiptID int64) ([]OpenReceiptItem, error) {
	var out []OpenReceiptItem
	for id, receipt := range tx.repo.receipts {
		if id == excludeReceiptID {
			continue
		}
		if receipt.Status != ReceiptStatusPending && receipt.Status != ReceiptStatusInspected {
			continue
		}
		for _, item := range tx.repo.items[id] {
			if item.POLineID == lineID {
				out = append(out, OpenReceiptItem{Item: item, ReceiptNumber: receipt.Number, ReceiptCreatedAt: receipt.CreatedAt})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceiptCreatedAt.Equal(out[j].ReceiptCreatedAt) {
			return out[i].ReceiptCreatedAt.Before(out[j].ReceiptCreatedAt)
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out, nil
}

func (tx *memoryProcTx) AdjustStock(ctx context.Context, key warehouse.StockKey, delta int64, allowNegative bool) error {
	next := tx.repo.stock[key] + delta
	if next < 0 && !allowNegative {
		next = 0
	}
	tx.repo.stock[key] = next
	return nil
}

func (tx *memoryProcTx) InvoiceExistsForReceipt(ctx context.Context, receiptID int64) (bool, error) {
	for _, inv := range tx.repo.invoices {
		if inv.ReceiptID == receiptID {
			return true, nil
		}
	}
	return false, nil
}

func (tx *memoryProcTx) CreateInvoice(ctx context.Context, inv PurchaseInvoice) (int64, error) {
	id := tx.nextID()
	inv.ID = id
	tx.repo.invoices[id] = inv
	return id, nil
}

func newTestService(repo *memoryProcRepo) *Service {
	return NewService(repo, nil, nil, nil, nil, nil)
}

func seedPO(t *testing.T, repo *memoryProcRepo, svc *Service, orderedQty int64) (int64, int64) {
	t.Helper()
	po, err := svc.CreatePurchaseOrder(context.Background(), CreatePOInput{
		CompanyID:   1,
		SupplierID:  10,
		WarehouseID: 20,
		Lines:       []POLineInput{{ProductID: 100, VariantID: 200, OrderedQty: orderedQty, UnitPrice: 2.5}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.ApprovePurchaseOrder(context.Background(), 1, po.ID, 1))
	require.NoError(t, svc.MarkPurchaseOrderOrdered(context.Background(), 1, po.ID, 1))
	return po.ID, repo.poLines[po.ID][0].ID
}

// seedOpenReceipt injects a pending receipt directly, the way racing clients
// of an earlier release could leave the database over-planned.
func seedOpenReceipt(repo *memoryProcRepo, poID, lineID, qty int64, createdAt time.Time) int64 {
	repo.nextID++
	id := repo.nextID
	po := repo.pos[poID]
	repo.receipts[id] = GoodsReceipt{
		ID:          id,
		CompanyID:   1,
		Number:      "GRN-SEED",
		POID:        poID,
		SupplierID:  po.SupplierID,
		WarehouseID: po.WarehouseID,
		Status:      ReceiptStatusPending,
		CreatedAt:   createdAt,
	}
	repo.nextID++
	repo.items[id] = []ReceiptItem{{
		ID:          repo.nextID,
		ReceiptID:   id,
		POLineID:    lineID,
		ProductID:   100,
		VariantID:   200,
		QtyReceived: qty,
		QtyAccepted: qty,
		UnitCost:    2.5,
	}}
	return id
}

func stockLevel(repo *memoryProcRepo) int64 {
	return repo.stock[warehouse.StockKey{CompanyID: 1, WarehouseID: 20, ProductID: 100, VariantID: 200}]
}

func TestCreateReceiptRejectsOverCapacity(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo)
	poID, lineID := seedPO(t, repo, svc, 100)

	receipt, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      poID,
		Items:     []ReceiptItemInput{{POLineID: lineID, QtyReceived: 60}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.CompleteReceipt(context.Background(), 1, receipt.ID, 1))

	seedOpenReceipt(repo, poID, lineID, 30, time.Now())

	// 60 completed + 30 open leaves room for 10.
	_, err = svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      poID,
		Items:     []ReceiptItemInput{{POLineID: lineID, QtyReceived: 11}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      poID,
		Items:     []ReceiptItemInput{{POLineID: lineID, QtyReceived: 10}},
	})
	require.NoError(t, err)
}

func TestCreateReceiptCountsRepeatedLineWithinRequest(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo)
	poID, lineID := seedPO(t, repo, svc, 100)

	_, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      poID,
		Items: []ReceiptItemInput{
			{POLineID: lineID, QtyReceived: 60},
			{POLineID: lineID, QtyReceived: 50},
		},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCompleteReceiptShrinksOtherOpenReceipts(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo)
	poID, lineID := seedPO(t, repo, svc, 100)

	grnA := seedOpenReceipt(repo, poID, lineID, 60, time.Now().Add(-time.Hour))
	grnB := seedOpenReceipt(repo, poID, lineID, 70, time.Now())

	require.NoError(t, svc.CompleteReceipt(context.Background(), 1, grnA, 1))

	require.EqualValues(t, 60, stockLevel(repo))
	require.EqualValues(t, 60, repo.poLines[poID][0].ReceivedQty)
	require.Equal(t, POStatusPartial, repo.pos[poID].Status)

	// GRN B planned 70 but only 40 remain: 70*40/70 = 40.
	itemB := repo.items[grnB][0]
	require.EqualValues(t, 40, itemB.QtyReceived)
	require.EqualValues(t, 40, itemB.QtyAccepted)
	require.EqualValues(t, 0, itemB.QtyRejected)

	require.NoError(t, svc.CompleteReceipt(context.Background(), 1, grnB, 1))
	require.EqualValues(t, 100, stockLevel(repo))
	require.EqualValues(t, 100, repo.poLines[poID][0].ReceivedQty)
	require.Equal(t, POStatusReceived, repo.pos[poID].Status)
}

func TestCompleteReceiptShrinkUsesFloorDivision(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo)
	poID, lineID := seedPO(t, repo, svc, 100)

	grnA := seedOpenReceipt(repo, poID, lineID, 60, time.Now().Add(-2*time.Hour))
	grnB := seedOpenReceipt(repo, poID, lineID, 25, time.Now().Add(-time.Hour))
	grnC := seedOpenReceipt(repo, poID, lineID, 35, time.Now())

	require.NoError(t, svc.CompleteReceipt(context.Background(), 1, grnA, 1))

	// Remaining 40 over a pending total of 60: 25*40/60=16, 35*40/60=23.
	require.EqualValues(t, 16, repo.items[grnB][0].QtyReceived)
	require.EqualValues(t, 23, repo.items[grnC][0].QtyReceived)

	require.NoError(t, svc.CompleteReceipt(context.Background(), 1, grnB, 1))
	require.NoError(t, svc.CompleteReceipt(context.Background(), 1, grnC, 1))

	received := repo.poLines[poID][0].ReceivedQty
	require.LessOrEqual(t, received, int64(100))
	require.EqualValues(t, received, stockLevel(repo))
}

func TestCompleteReceiptOnlyAcceptedReachesStock(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo)
	poID, lineID := seedPO(t, repo, svc, 50)

	receipt, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      poID,
		Items:     []ReceiptItemInput{{POLineID: lineID, QtyReceived: 30, UnitCost: 4}},
	})
	require.NoError(t, err)

	itemID := repo.items[receipt.ID][0].ID
	require.NoError(t, svc.InspectReceipt(context.Background(), 1, receipt.ID, []InspectionSplit{{ItemID: itemID, QtyAccepted: 25}}, 1))
	require.Equal(t, ReceiptStatusInspected, repo.receipts[receipt.ID].Status)

	require.NoError(t, svc.CompleteReceipt(context.Background(), 1, receipt.ID, 1))
	require.EqualValues(t, 25, stockLevel(repo))
	require.EqualValues(t, 25, repo.poLines[poID][0].ReceivedQty)

	item := repo.items[receipt.ID][0]
	require.EqualValues(t, item.QtyReceived, item.QtyAccepted+item.QtyRejected)
}

type failingIntegration struct {
	completed int
	deleted   int
}

func (f *failingIntegration) HandleReceiptCompleted(ctx context.Context, evt ReceiptCompletedEvent) error {
	f.completed++
	return errors.New("downstream unavailable")
}

func (f *failingIntegration) HandleReceiptDeleted(ctx context.Context, evt ReceiptDeletedEvent) error {
	f.deleted++
	return errors.New("downstream unavailable")
}

func TestCompleteReceiptSurvivesEventHandlerFailure(t *testing.T) {
	repo := newMemoryProcRepo()
	integration := &failingIntegration{}
	svc := NewService(repo, nil, nil, nil, integration, nil)
	poID, lineID := seedPO(t, repo, svc, 50)

	receipt, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      poID,
		Items:     []ReceiptItemInput{{POLineID: lineID, QtyReceived: 20}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.CompleteReceipt(context.Background(), 1, receipt.ID, 1))
	require.Equal(t, 1, integration.completed)
	require.Equal(t, ReceiptStatusCompleted, repo.receipts[receipt.ID].Status)
	require.EqualValues(t, 20, stockLevel(repo))

	require.NoError(t, svc.DeleteReceipt(context.Background(), 1, receipt.ID, 1))
	require.Equal(t, 1, integration.deleted)
	require.EqualValues(t, 0, stockLevel(repo))
}

func TestCompleteReceiptTwiceFails(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo)
	poID, lineID := seedPO(t, repo, svc, 50)

	receipt, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      poID,
		Items:     []ReceiptItemInput{{POLineID: lineID, QtyReceived: 20}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.CompleteReceipt(context.Background(), 1, receipt.ID, 1))

	err = svc.CompleteReceipt(context.Background(), 1, receipt.ID, 1)
	require.ErrorIs(t, err, shared.ErrConflict)
	require.EqualValues(t, 20, stockLevel(repo))
}

func TestDeleteCompletedReceiptReversesStockAndCounters(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo)
	poID, lineID := seedPO(t, repo, svc, 100)

	receipt, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      poID,
		Items:     []ReceiptItemInput{{POLineID: lineID, QtyReceived: 40}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.CompleteReceipt(context.Background(), 1, receipt.ID, 1))
	require.Equal(t, POStatusPartial, repo.pos[poID].Status)

	require.NoError(t, svc.DeleteReceipt(context.Background(), 1, receipt.ID, 1))

	require.Equal(t, ReceiptStatusDeleted, repo.receipts[receipt.ID].Status)
	require.EqualValues(t, 0, stockLevel(repo))
	require.EqualValues(t, 0, repo.poLines[poID][0].ReceivedQty)
	require.Equal(t, POStatusOrdered, repo.pos[poID].Status)
}

func TestDeleteCompletedReceiptMayDriveStockNegative(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo)
	poID, lineID := seedPO(t, repo, svc, 100)

	receipt, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      poID,
		Items:     []ReceiptItemInput{{POLineID: lineID, QtyReceived: 40}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.CompleteReceipt(context.Background(), 1, receipt.ID, 1))

	// Goods already shipped out before the reversal.
	key := warehouse.StockKey{CompanyID: 1, WarehouseID: 20, ProductID: 100, VariantID: 200}
	repo.stock[key] = 10

	require.NoError(t, svc.DeleteReceipt(context.Background(), 1, receipt.ID, 1))
	require.EqualValues(t, -30, stockLevel(repo))
}

func TestDeleteReceiptBlockedByInvoice(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo)
	poID, lineID := seedPO(t, repo, svc, 100)

	receipt, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      poID,
		Items:     []ReceiptItemInput{{POLineID: lineID, QtyReceived: 40, UnitCost: 3}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.CompleteReceipt(context.Background(), 1, receipt.ID, 1))

	inv, err := svc.CreateInvoiceFromReceipt(context.Background(), InvoiceInput{CompanyID: 1, ReceiptID: receipt.ID})
	require.NoError(t, err)
	require.InDelta(t, 120.0, inv.Total, 0.001)

	err = svc.DeleteReceipt(context.Background(), 1, receipt.ID, 1)
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Equal(t, ReceiptStatusCompleted, repo.receipts[receipt.ID].Status)
	require.EqualValues(t, 40, stockLevel(repo))
}

func TestDeletePendingReceiptFreesPlannedCapacity(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo)
	poID, lineID := seedPO(t, repo, svc, 100)

	receipt, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      poID,
		Items:     []ReceiptItemInput{{POLineID: lineID, QtyReceived: 100}},
	})
	require.NoError(t, err)

	_, err = svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      poID,
		Items:     []ReceiptItemInput{{POLineID: lineID, QtyReceived: 1}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	require.NoError(t, svc.DeleteReceipt(context.Background(), 1, receipt.ID, 1))
	require.EqualValues(t, 0, stockLevel(repo))

	_, err = svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      poID,
		Items:     []ReceiptItemInput{{POLineID: lineID, QtyReceived: 100}},
	})
	require.NoError(t, err)
}

func TestCreateReceiptDerivesAcceptedRejectedSplit(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo)
	poID, lineID := seedPO(t, repo, svc, 100)

	rejected := int64(5)
	receipt, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      poID,
		Items:     []ReceiptItemInput{{POLineID: lineID, QtyReceived: 30, QtyRejected: &rejected}},
	})
	require.NoError(t, err)

	item := repo.items[receipt.ID][0]
	require.EqualValues(t, 25, item.QtyAccepted)
	require.EqualValues(t, 5, item.QtyRejected)

	tooMany := int64(31)
	_, err = svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      poID,
		Items:     []ReceiptItemInput{{POLineID: lineID, QtyReceived: 30, QtyAccepted: &tooMany}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCancelPurchaseOrderRefusedAfterReceiving(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo)
	poID, lineID := seedPO(t, repo, svc, 100)

	receipt, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      poID,
		Items:     []ReceiptItemInput{{POLineID: lineID, QtyReceived: 10}},
	})
	require.NoError(t, err)

	err = svc.CancelPurchaseOrder(context.Background(), 1, poID, 1)
	require.ErrorIs(t, err, shared.ErrConflict)

	require.NoError(t, svc.DeleteReceipt(context.Background(), 1, receipt.ID, 1))
	require.NoError(t, svc.CancelPurchaseOrder(context.Background(), 1, poID, 1))
	require.Equal(t, POStatusCancelled, repo.pos[poID].Status)
}

func TestCreateInvoiceRequiresCompletedReceipt(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo)
	poID, lineID := seedPO(t, repo, svc, 100)

	receipt, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      poID,
		Items:     []ReceiptItemInput{{POLineID: lineID, QtyReceived: 10, UnitCost: 2}},
	})
	require.NoError(t, err)

	_, err = svc.CreateInvoiceFromReceipt(context.Background(), InvoiceInput{CompanyID: 1, ReceiptID: receipt.ID})
	require.True(t, errors.Is(err, shared.ErrConflict))
}

func TestReceiptsOnDraftPORejected(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := newTestService(repo)
	po, err := svc.CreatePurchaseOrder(context.Background(), CreatePOInput{
		CompanyID:   1,
		SupplierID:  10,
		WarehouseID: 20,
		Lines:       []POLineInput{{ProductID: 100, VariantID: 200, OrderedQty: 10, UnitPrice: 1}},
	})
	require.NoError(t, err)

	_, err = svc.CreateReceipt(context.Background(), CreateReceiptInput{
		CompanyID: 1,
		POID:      po.ID,
		Items:     []ReceiptItemInput{{POLineID: repo.poLines[po.ID][0].ID, QtyReceived: 5}},
	})
	require.ErrorIs(t, err, shared.ErrConflict)
}
