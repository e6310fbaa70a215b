/*
engine_test.go - Sale engine tests over the SQLite store

Exercises the full transactional path: atomic multi-item creation,
rollback on mid-sale failure, declared-total cross-check, compensating
cancellation, double-cancel rejection, price history integrity and the
last-unit race.
*/
package sales_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom/sales-engine/inventory"
	"github.com/stockroom/sales-engine/sales"
	"github.com/stockroom/sales-engine/store/sqlite"
)

type testEnv struct {
	store  *sqlite.Store
	engine *sales.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	engine := sales.NewEngine(store, inventory.NewLedger(nil), nil)
	return &testEnv{store: store, engine: engine}
}

func (env *testEnv) addProduct(t *testing.T, id, name, price string, stock int) {
	t.Helper()
	err := env.store.CreateProduct(context.Background(), &inventory.Product{
		ID:     id,
		Name:   name,
		SKU:    "SKU-" + id,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Status: inventory.StatusActive,
	})
	require.NoError(t, err)
}

func (env *testEnv) productStock(t *testing.T, id string) int {
	t.Helper()
	p, err := env.store.GetProduct(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func TestCreateSale(t *testing.T) {
	// GIVEN two products in stock
	env := newTestEnv(t)
	env.addProduct(t, "p1", "Keyboard", "49.90", 10)
	env.addProduct(t, "p2", "Mouse", "19.95", 8)

	// WHEN creating a sale of 2 keyboards and 3 mice
	sale, err := env.engine.CreateSale(context.Background(), sales.CreateSaleInput{
		TotalAmount: decimal.RequireFromString("159.65"),
		Items: []sales.CreateSaleItem{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 3},
		},
	})

	// THEN the sale is completed with both items at catalog prices
	require.NoError(t, err)
	assert.Equal(t, sales.StatusCompleted, sale.Status)
	assert.True(t, sale.TotalAmount.Equal(decimal.RequireFromString("159.65")))
	require.Len(t, sale.Items, 2)
	assert.True(t, sale.Items[0].UnitPrice.Equal(decimal.RequireFromString("49.90")))
	assert.True(t, sale.Items[1].UnitPrice.Equal(decimal.RequireFromString("19.95")))

	// AND stock is decremented for both products
	assert.Equal(t, 8, env.productStock(t, "p1"))
	assert.Equal(t, 5, env.productStock(t, "p2"))
}

func TestCreateSaleRollsBackOnInsufficientStock(t *testing.T) {
	// GIVEN enough of the first product but not the second
	env := newTestEnv(t)
	env.addProduct(t, "p1", "Keyboard", "49.90", 10)
	env.addProduct(t, "p2", "Mouse", "19.95", 1)

	// WHEN the second line overdraws
	_, err := env.engine.CreateSale(context.Background(), sales.CreateSaleInput{
		TotalAmount: decimal.RequireFromString("139.70"),
		Items: []sales.CreateSaleItem{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 2},
		},
	})

	// THEN the whole sale fails and the first line's decrement is undone
	require.Error(t, err)
	assert.True(t, errors.Is(err, inventory.ErrInsufficientStock))
	assert.Equal(t, 10, env.productStock(t, "p1"))
	assert.Equal(t, 1, env.productStock(t, "p2"))
}

func TestCreateSaleRollsBackOnUnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	env.addProduct(t, "p1", "Keyboard", "49.90", 10)

	_, err := env.engine.CreateSale(context.Background(), sales.CreateSaleInput{
		TotalAmount: decimal.RequireFromString("49.90"),
		Items: []sales.CreateSaleItem{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "ghost", Quantity: 1},
		},
	})

	require.Error(t, err)
	assert.True(t, inventory.IsNotFound(err))
	assert.Equal(t, 10, env.productStock(t, "p1"))
}

func TestCreateSaleAmountMismatch(t *testing.T) {
	// GIVEN a product at 49.90
	env := newTestEnv(t)
	env.addProduct(t, "p1", "Keyboard", "49.90", 10)

	// WHEN the declared total is off by a cent
	_, err := env.engine.CreateSale(context.Background(), sales.CreateSaleInput{
		TotalAmount: decimal.RequireFromString("49.91"),
		Items:       []sales.CreateSaleItem{{ProductID: "p1", Quantity: 1}},
	})

	// THEN the sale is rejected with both amounts and no stock moves
	require.Error(t, err)
	assert.True(t, errors.Is(err, sales.ErrAmountMismatch))

	var mismatch *sales.AmountMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.True(t, mismatch.Declared.Equal(decimal.RequireFromString("49.91")))
	assert.True(t, mismatch.Computed.Equal(decimal.RequireFromString("49.90")))
	assert.Equal(t, 10, env.productStock(t, "p1"))

	_, total, listErr := env.engine.ListSales(context.Background(), sales.ListFilter{})
	require.NoError(t, listErr)
	assert.Equal(t, 0, total)
}

func TestCreateSaleInputValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.CreateSale(context.Background(), sales.CreateSaleInput{})
	assert.True(t, errors.Is(err, sales.ErrNoItems))

	_, err = env.engine.CreateSale(context.Background(), sales.CreateSaleInput{
		Items: []sales.CreateSaleItem{{ProductID: "p1", Quantity: 0}},
	})
	assert.True(t, errors.Is(err, sales.ErrInvalidQuantity))
}

func TestCancelSaleRestoresStock(t *testing.T) {
	// GIVEN a completed sale of 2 keyboards and 3 mice
	env := newTestEnv(t)
	env.addProduct(t, "p1", "Keyboard", "49.90", 10)
	env.addProduct(t, "p2", "Mouse", "19.95", 8)

	sale, err := env.engine.CreateSale(context.Background(), sales.CreateSaleInput{
		TotalAmount: decimal.RequireFromString("159.65"),
		Items: []sales.CreateSaleItem{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 3},
		},
	})
	require.NoError(t, err)

	// WHEN cancelling it
	cancelled, err := env.engine.CancelSale(context.Background(), sale.ID)

	// THEN the sale is cancelled and every unit comes back
	require.NoError(t, err)
	assert.Equal(t, sales.StatusCancelled, cancelled.Status)
	assert.Equal(t, 10, env.productStock(t, "p1"))
	assert.Equal(t, 8, env.productStock(t, "p2"))

	// AND the cancelled sale keeps its items as history
	got, err := env.engine.GetSale(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusCancelled, got.Status)
	assert.Len(t, got.Items, 2)
}

func TestCancelSaleTwice(t *testing.T) {
	// GIVEN an already-cancelled sale
	env := newTestEnv(t)
	env.addProduct(t, "p1", "Keyboard", "49.90", 10)

	sale, err := env.engine.CreateSale(context.Background(), sales.CreateSaleInput{
		TotalAmount: decimal.RequireFromString("99.80"),
		Items:       []sales.CreateSaleItem{{ProductID: "p1", Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = env.engine.CancelSale(context.Background(), sale.ID)
	require.NoError(t, err)
	require.Equal(t, 10, env.productStock(t, "p1"))

	// WHEN cancelling again
	_, err = env.engine.CancelSale(context.Background(), sale.ID)

	// THEN it fails and stock is not restored a second time
	assert.True(t, errors.Is(err, sales.ErrAlreadyCancelled))
	assert.Equal(t, 10, env.productStock(t, "p1"))
}

func TestCancelSaleSkipsDeletedProduct(t *testing.T) {
	// GIVEN a sale whose product was deleted afterwards
	env := newTestEnv(t)
	env.addProduct(t, "p1", "Keyboard", "49.90", 10)
	env.addProduct(t, "p2", "Mouse", "19.95", 8)

	sale, err := env.engine.CreateSale(context.Background(), sales.CreateSaleInput{
		TotalAmount: decimal.RequireFromString("69.85"),
		Items: []sales.CreateSaleItem{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "p2", Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.NoError(t, env.store.DeleteProduct(context.Background(), "p1"))

	// WHEN cancelling
	cancelled, err := env.engine.CancelSale(context.Background(), sale.ID)

	// THEN the cancellation succeeds, restoring only the surviving product
	require.NoError(t, err)
	assert.Equal(t, sales.StatusCancelled, cancelled.Status)
	assert.Equal(t, 8, env.productStock(t, "p2"))
}

func TestCancelUnknownSale(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.CancelSale(context.Background(), "no-such-sale")

	assert.True(t, errors.Is(err, sales.ErrSaleNotFound))
}

func TestSaleKeepsHistoricalPrice(t *testing.T) {
	// GIVEN a sale recorded at the current catalog price
	env := newTestEnv(t)
	env.addProduct(t, "p1", "Keyboard", "49.90", 10)

	sale, err := env.engine.CreateSale(context.Background(), sales.CreateSaleInput{
		TotalAmount: decimal.RequireFromString("49.90"),
		Items:       []sales.CreateSaleItem{{ProductID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)

	// WHEN the product price changes afterwards
	p, err := env.store.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	p.Price = decimal.RequireFromString("99.00")
	require.NoError(t, env.store.UpdateProduct(context.Background(), p))

	// THEN the recorded sale still carries the price at sale time
	got, err := env.engine.GetSale(context.Background(), sale.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.RequireFromString("49.90")))
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("49.90")))
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	// GIVEN a single unit left
	env := newTestEnv(t)
	env.addProduct(t, "p1", "Keyboard", "49.90", 1)

	// WHEN two buyers race for it
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.engine.CreateSale(context.Background(), sales.CreateSaleInput{
				TotalAmount: decimal.RequireFromString("49.90"),
				Items:       []sales.CreateSaleItem{{ProductID: "p1", Quantity: 1}},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	// THEN exactly one sale succeeds and stock ends at zero
	var ok, failed int
	for err := range results {
		if err == nil {
			ok++
		} else {
			assert.True(t, errors.Is(err, inventory.ErrInsufficientStock))
			failed++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 0, env.productStock(t, "p1"))
}

func TestListSalesPagination(t *testing.T) {
	// GIVEN five sales
	env := newTestEnv(t)
	env.addProduct(t, "p1", "Keyboard", "10.00", 100)

	for i := 0; i < 5; i++ {
		_, err := env.engine.CreateSale(context.Background(), sales.CreateSaleInput{
			TotalAmount: decimal.RequireFromString("10.00"),
			Items:       []sales.CreateSaleItem{{ProductID: "p1", Quantity: 1}},
		})
		require.NoError(t, err)
	}

	// WHEN listing two per page
	page1, total, err := env.engine.ListSales(context.Background(), sales.ListFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	page3, _, err := env.engine.ListSales(context.Background(), sales.ListFilter{Page: 3, Limit: 2})
	require.NoError(t, err)

	// THEN counts and page sizes line up
	assert.Equal(t, 5, total)
	assert.Len(t, page1, 2)
	assert.Len(t, page3, 1)
}
