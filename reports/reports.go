/*
Package reports provides read-only aggregates over committed sales and
inventory data.

PURPOSE:
  Reporting bypasses the sale engine entirely: it reads already-committed
  rows and carries no invariant. Grouping is a typed enumeration backed
  by two separate queries - one per grouping - rather than a single
  string-switched statement, so each aggregate is testable on its own.

REPORTS:
  - Sales by day: sales count and revenue per calendar day
  - Sales by product: quantity and revenue per product, revenue-first
  - Inventory: low-stock products plus a stock/value summary

  Cancelled sales are excluded from all revenue aggregates.
*/
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// GroupBy selects the sales report aggregation.
type GroupBy string

const (
	GroupByDay     GroupBy = "day"
	GroupByProduct GroupBy = "product"
)

// ParseGroupBy validates a caller-supplied grouping, defaulting to day.
func ParseGroupBy(s string) (GroupBy, error) {
	switch s {
	case "", string(GroupByDay):
		return GroupByDay, nil
	case string(GroupByProduct):
		return GroupByProduct, nil
	default:
		return "", fmt.Errorf("invalid groupBy %q: use %q or %q", s, GroupByDay, GroupByProduct)
	}
}

// DailySalesRow is one calendar day of completed sales.
type DailySalesRow struct {
	Date         string // YYYY-MM-DD
	TotalSales   int
	TotalRevenue decimal.Decimal
}

// ProductSalesRow is one product's completed-sale totals.
type ProductSalesRow struct {
	ProductID     string
	Name          string
	SKU           string
	TotalQuantity int
	TotalRevenue  decimal.Decimal
}

// LowStockRow is a product below the low-stock threshold.
type LowStockRow struct {
	ProductID string
	Name      string
	SKU       string
	Stock     int
	Price     decimal.Decimal
}

// InventorySummary aggregates the whole catalog.
type InventorySummary struct {
	TotalProducts  int
	TotalStock     int
	InventoryValue decimal.Decimal // sum of stock * price
}

// LowStockThreshold is the stock level below which a product appears in
// the inventory report.
const LowStockThreshold = 10

// Store is the read-only query surface reports run against.
type Store interface {
	DailySales(ctx context.Context, from, to time.Time) ([]DailySalesRow, error)
	ProductSales(ctx context.Context, from, to time.Time) ([]ProductSalesRow, error)
	LowStockProducts(ctx context.Context, threshold int) ([]LowStockRow, error)
	InventorySummary(ctx context.Context) (InventorySummary, error)
}

// SalesReport holds the result of a grouped sales report; exactly one
// of the two slices is populated, per GroupBy.
type SalesReport struct {
	GroupBy   GroupBy
	From      time.Time
	To        time.Time
	ByDay     []DailySalesRow
	ByProduct []ProductSalesRow
}

// InventoryReport pairs the low-stock listing with the catalog summary.
type InventoryReport struct {
	LowStock []LowStockRow
	Summary  InventorySummary
}

// Reporter runs the reporting queries.
type Reporter struct {
	store Store
}

func NewReporter(store Store) *Reporter {
	return &Reporter{store: store}
}

// Sales builds a grouped sales report. A zero from defaults to January 1
// of the current year; a zero to defaults to now.
func (r *Reporter) Sales(ctx context.Context, from, to time.Time, groupBy GroupBy) (*SalesReport, error) {
	now := time.Now().UTC()
	if from.IsZero() {
		from = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = now
	}

	report := &SalesReport{GroupBy: groupBy, From: from, To: to}
	var err error
	switch groupBy {
	case GroupByProduct:
		report.ByProduct, err = r.store.ProductSales(ctx, from, to)
	default:
		report.ByDay, err = r.store.DailySales(ctx, from, to)
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Inventory builds the low-stock listing and catalog summary.
func (r *Reporter) Inventory(ctx context.Context) (*InventoryReport, error) {
	low, err := r.store.LowStockProducts(ctx, LowStockThreshold)
	if err != nil {
		return nil, err
	}
	summary, err := r.store.InventorySummary(ctx)
	if err != nil {
		return nil, err
	}
	return &InventoryReport{LowStock: low, Summary: summary}, nil
}
