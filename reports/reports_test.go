/*
reports_test.go - Reporter tests with a fake query store
*/
package reports

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	daily     []DailySalesRow
	byProduct []ProductSalesRow
	lowStock  []LowStockRow
	summary   InventorySummary

	dailyCalls   int
	productCalls int
	lastFrom     time.Time
	lastTo       time.Time
	threshold    int
}

func (f *fakeStore) DailySales(_ context.Context, from, to time.Time) ([]DailySalesRow, error) {
	f.dailyCalls++
	f.lastFrom, f.lastTo = from, to
	return f.daily, nil
}

func (f *fakeStore) ProductSales(_ context.Context, from, to time.Time) ([]ProductSalesRow, error) {
	f.productCalls++
	f.lastFrom, f.lastTo = from, to
	return f.byProduct, nil
}

func (f *fakeStore) LowStockProducts(_ context.Context, threshold int) ([]LowStockRow, error) {
	f.threshold = threshold
	return f.lowStock, nil
}

func (f *fakeStore) InventorySummary(_ context.Context) (InventorySummary, error) {
	return f.summary, nil
}

func TestParseGroupBy(t *testing.T) {
	got, err := ParseGroupBy("")
	require.NoError(t, err)
	assert.Equal(t, GroupByDay, got)

	got, err = ParseGroupBy("day")
	require.NoError(t, err)
	assert.Equal(t, GroupByDay, got)

	got, err = ParseGroupBy("product")
	require.NoError(t, err)
	assert.Equal(t, GroupByProduct, got)

	_, err = ParseGroupBy("week")
	assert.Error(t, err)
}

func TestSalesReportGroupRouting(t *testing.T) {
	// GIVEN a store with rows for both groupings
	store := &fakeStore{
		daily:     []DailySalesRow{{Date: "2026-03-01", TotalSales: 2}},
		byProduct: []ProductSalesRow{{ProductID: "p1", TotalQuantity: 3}},
	}
	reporter := NewReporter(store)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	// WHEN grouping by day
	byDay, err := reporter.Sales(context.Background(), from, to, GroupByDay)
	require.NoError(t, err)

	// THEN only the daily query runs and only ByDay is populated
	assert.Equal(t, 1, store.dailyCalls)
	assert.Equal(t, 0, store.productCalls)
	assert.Len(t, byDay.ByDay, 1)
	assert.Empty(t, byDay.ByProduct)

	// WHEN grouping by product
	byProduct, err := reporter.Sales(context.Background(), from, to, GroupByProduct)
	require.NoError(t, err)

	assert.Equal(t, 1, store.productCalls)
	assert.Len(t, byProduct.ByProduct, 1)
	assert.Empty(t, byProduct.ByDay)
}

func TestSalesReportDefaultRange(t *testing.T) {
	// GIVEN no explicit range
	store := &fakeStore{}
	reporter := NewReporter(store)

	report, err := reporter.Sales(context.Background(), time.Time{}, time.Time{}, GroupByDay)
	require.NoError(t, err)

	// THEN the range runs from January 1 of this year to now
	now := time.Now().UTC()
	wantFrom := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, wantFrom, report.From)
	assert.Equal(t, wantFrom, store.lastFrom)
	assert.WithinDuration(t, now, report.To, time.Minute)
}

func TestInventoryReport(t *testing.T) {
	store := &fakeStore{
		lowStock: []LowStockRow{{ProductID: "p1", Stock: 2}},
		summary: InventorySummary{
			TotalProducts:  5,
			TotalStock:     42,
			InventoryValue: decimal.RequireFromString("1234.50"),
		},
	}
	reporter := NewReporter(store)

	report, err := reporter.Inventory(context.Background())

	require.NoError(t, err)
	assert.Equal(t, LowStockThreshold, store.threshold)
	assert.Len(t, report.LowStock, 1)
	assert.Equal(t, 5, report.Summary.TotalProducts)
	assert.True(t, report.Summary.InventoryValue.Equal(decimal.RequireFromString("1234.50")))
}
