package sales

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-commerce/meridian/internal/inventory"
	"github.com/meridian-commerce/meridian/internal/shared"
	"github.com/meridian-commerce/meridian/internal/warehouse"
)

type memorySalesRepo struct {
	orders map[int64]Order
	lines  map[int64][]OrderLine
	nextID int64
}

type memorySalesTx struct {
	repo *memorySalesRepo
}

func newMemorySalesRepo() *memorySalesRepo {
	return &memorySalesRepo{orders: make(map[int64]Order), lines: make(map[int64][]OrderLine)}
}

func (r *memorySalesRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memorySalesTx{repo: r})
}

func (r *memorySalesRepo) GetOrder(ctx context.Context, companyID, id int64) (Order, []OrderLine, error) {
	order, ok := r.orders[id]
	if !ok || order.CompanyID != companyID {
		return Order{}, nil, ErrNotFound
	}
	return order, append([]OrderLine(nil), r.lines[id]...), nil
}

func (r *memorySalesRepo) ListOrders(ctx context.Context, companyID int64, limit, offset int) ([]Order, error) {
	var out []Order
	for _, order := range r.orders {
		if order.CompanyID == companyID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (tx *memorySalesTx) CreateOrder(ctx context.Context, order Order) (int64, error) {
	tx.repo.nextID++
	order.ID = tx.repo.nextID
	tx.repo.orders[order.ID] = order
	return order.ID, nil
}

func (tx *memorySalesTx) InsertOrderLine(ctx context.Context, line OrderLine) error {
	tx.repo.nextID++
	line.ID = tx.repo.nextID
	tx.repo.lines[line.OrderID] = append(tx.repo.lines[line.OrderID], line)
	return nil
}

func (tx *memorySalesTx) UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) error {
	order, ok := tx.repo.orders[id]
	if !ok {
		return ErrNotFound
	}
	order.Status = status
	tx.repo.orders[id] = order
	return nil
}

func (tx *memorySalesTx) GetOrderForUpdate(ctx context.Context, companyID, id int64) (Order, error) {
	order, ok := tx.repo.orders[id]
	if !ok || order.CompanyID != companyID {
		return Order{}, ErrNotFound
	}
	return order, nil
}

func (tx *memorySalesTx) GetOrderLines(ctx context.Context, orderID int64) ([]OrderLine, error) {
	return append([]OrderLine(nil), tx.repo.lines[orderID]...), nil
}

// memoryStock mirrors the reservation counter semantics of the warehouse
// package.
type memoryStock struct {
	records map[warehouse.StockKey]warehouse.StockRecord
	fail    map[warehouse.StockKey]bool
}

func newMemoryStock() *memoryStock {
	return &memoryStock{records: make(map[warehouse.StockKey]warehouse.StockRecord), fail: make(map[warehouse.StockKey]bool)}
}

func (s *memoryStock) key(ref inventory.StockRef) warehouse.StockKey {
	return warehouse.StockKey{CompanyID: ref.CompanyID, WarehouseID: ref.WarehouseID, ProductID: ref.ProductID, VariantID: ref.VariantID}
}

func (s *memoryStock) Reserve(ctx context.Context, ref inventory.StockRef, qty int64) (warehouse.StockRecord, error) {
	key := s.key(ref)
	if s.fail[key] {
		return warehouse.StockRecord{}, shared.ErrDependency
	}
	record := s.records[key]
	record.Key = key
	record.Available -= qty
	record.Reserved += qty
	s.records[key] = record
	return record, nil
}

func (s *memoryStock) Release(ctx context.Context, ref inventory.StockRef, qty int64, allowNegativeReserved bool) (warehouse.StockRecord, error) {
	key := s.key(ref)
	record := s.records[key]
	record.Reserved -= qty
	if record.Reserved < 0 && !allowNegativeReserved {
		record.Reserved = 0
	}
	s.records[key] = record
	return record, nil
}

func (s *memoryStock) Restore(ctx context.Context, ref inventory.StockRef, qty int64) (warehouse.StockRecord, error) {
	key := s.key(ref)
	record := s.records[key]
	record.Available += qty
	record.Reserved -= qty
	if record.Reserved < 0 {
		record.Reserved = 0
	}
	s.records[key] = record
	return record, nil
}

func testKey(productID int64) warehouse.StockKey {
	return warehouse.StockKey{CompanyID: 1, WarehouseID: 20, ProductID: productID, VariantID: 200}
}

func placeInput(lines ...OrderLineInput) PlaceOrderInput {
	return PlaceOrderInput{CompanyID: 1, CustomerID: 5, WarehouseID: 20, Lines: lines}
}

func TestPlaceOrderReservesEveryLine(t *testing.T) {
	repo := newMemorySalesRepo()
	stock := newMemoryStock()
	stock.records[testKey(100)] = warehouse.StockRecord{Available: 10}
	svc := NewService(repo, stock, nil)

	order, err := svc.PlaceOrder(context.Background(), placeInput(
		OrderLineInput{ProductID: 100, VariantID: 200, Qty: 4, UnitPrice: 9.99},
	))
	require.NoError(t, err)
	require.Equal(t, OrderStatusPending, order.Status)
	require.InDelta(t, 39.96, order.Total, 0.001)

	record := stock.records[testKey(100)]
	require.EqualValues(t, 6, record.Available)
	require.EqualValues(t, 4, record.Reserved)
}

func TestPlaceOrderRollsBackOnPartialFailure(t *testing.T) {
	repo := newMemorySalesRepo()
	stock := newMemoryStock()
	stock.records[testKey(100)] = warehouse.StockRecord{Available: 10}
	stock.fail[testKey(101)] = true
	svc := NewService(repo, stock, nil)

	_, err := svc.PlaceOrder(context.Background(), placeInput(
		OrderLineInput{ProductID: 100, VariantID: 200, Qty: 4},
		OrderLineInput{ProductID: 101, VariantID: 200, Qty: 2},
	))
	require.Error(t, err)

	record := stock.records[testKey(100)]
	require.EqualValues(t, 10, record.Available)
	require.EqualValues(t, 0, record.Reserved)
	require.Empty(t, repo.orders)
}

func TestFulfillReleasesReservation(t *testing.T) {
	repo := newMemorySalesRepo()
	stock := newMemoryStock()
	stock.records[testKey(100)] = warehouse.StockRecord{Available: 10}
	svc := NewService(repo, stock, nil)

	order, err := svc.PlaceOrder(context.Background(), placeInput(
		OrderLineInput{ProductID: 100, VariantID: 200, Qty: 4},
	))
	require.NoError(t, err)

	require.NoError(t, svc.FulfillOrder(context.Background(), 1, order.ID, 1))
	require.Equal(t, OrderStatusFulfilled, repo.orders[order.ID].Status)

	record := stock.records[testKey(100)]
	require.EqualValues(t, 6, record.Available)
	require.EqualValues(t, 0, record.Reserved)

	require.ErrorIs(t, svc.FulfillOrder(context.Background(), 1, order.ID, 1), shared.ErrConflict)
}

func TestCancelRestoresAvailability(t *testing.T) {
	repo := newMemorySalesRepo()
	stock := newMemoryStock()
	stock.records[testKey(100)] = warehouse.StockRecord{Available: 10}
	svc := NewService(repo, stock, nil)

	order, err := svc.PlaceOrder(context.Background(), placeInput(
		OrderLineInput{ProductID: 100, VariantID: 200, Qty: 4},
	))
	require.NoError(t, err)

	require.NoError(t, svc.CancelOrder(context.Background(), 1, order.ID, 1))
	require.Equal(t, OrderStatusCancelled, repo.orders[order.ID].Status)

	record := stock.records[testKey(100)]
	require.EqualValues(t, 10, record.Available)
	require.EqualValues(t, 0, record.Reserved)
}

func TestAdvanceChannelMayOversell(t *testing.T) {
	repo := newMemorySalesRepo()
	stock := newMemoryStock()
	svc := NewService(repo, stock, nil)

	input := placeInput(OrderLineInput{ProductID: 100, VariantID: 200, Qty: 8, UnitPrice: 5})
	input.Channel = ChannelAdvance
	order, err := svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)

	record := stock.records[testKey(100)]
	require.EqualValues(t, -8, record.Available)
	require.EqualValues(t, 8, record.Reserved)

	require.NoError(t, svc.FulfillOrder(context.Background(), 1, order.ID, 1))
}

func TestPlaceOrderValidatesInput(t *testing.T) {
	svc := NewService(newMemorySalesRepo(), newMemoryStock(), nil)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{CompanyID: 1, CustomerID: 5, WarehouseID: 20})
	require.ErrorIs(t, err, shared.ErrValidation)

	input := placeInput(OrderLineInput{ProductID: 100, VariantID: 200, Qty: 1})
	input.Channel = "WHOLESALE"
	_, err = svc.PlaceOrder(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrValidation)
}
