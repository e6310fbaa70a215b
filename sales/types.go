/*
Package sales contains the sale transaction engine.

PURPOSE:
  Converts a proposed multi-item sale into a durable record while
  atomically adjusting product stock, and supports compensating
  cancellation that restores stock. All effects of a create or cancel
  happen inside one store transaction: either everything commits or
  nothing does.

KEY CONCEPTS IN THIS FILE (types.go):
  - Sale: A committed sale with its exact-decimal total and status
  - SaleItem: One line of a sale, carrying the unit price captured at
    the moment the stock was reserved
  - A cancelled sale keeps its items as a historical record

SEE ALSO:
  - engine.go: CreateSale / CancelSale orchestration
  - errors.go: Error kinds surfaced to callers
*/
package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus is the lifecycle state of a sale. A sale is created
// completed and can only transition to cancelled; it is never deleted.
type SaleStatus string

const (
	StatusCompleted SaleStatus = "completed"
	StatusCancelled SaleStatus = "cancelled"
)

// Sale is a committed sale transaction.
//
// INVARIANT: TotalAmount equals the sum of Quantity * UnitPrice over
// Items, exactly (decimal comparison, never float).
type Sale struct {
	ID          string
	SaleDate    time.Time
	TotalAmount decimal.Decimal
	Status      SaleStatus
	Items       []SaleItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SaleItem is one line of a sale. UnitPrice is the product's price at
// the time the stock was reserved - later catalog price changes do not
// touch it. Items are written once, with their sale, and never updated.
type SaleItem struct {
	ID        string
	SaleID    string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal

	// Denormalized for read paths; empty on the write path.
	ProductName string
	ProductSKU  string
}

// Subtotal returns Quantity * UnitPrice for this line.
func (it SaleItem) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}
