/*
ledger.go - The Stock Ledger

PURPOSE:
  The Ledger is the only component allowed to change a product's stock
  quantity during a sale. It answers "can N units be reserved?" by
  performing the reservation: a conditional decrement that either takes
  the units or fails, never a read-then-write.

CRITICAL INVARIANTS:
  1. stock >= 0 at all times, enforced AT the decrement
  2. Reserve returns the unit price at the moment of reservation, so
     later price edits never change a recorded sale
  3. Restore is a compensating action: it re-adds units for a cancelled
     sale and treats a deleted product as a warning, not a failure

WHY CONDITIONAL DECREMENT?
  Two concurrent sales both reading stock=1 and both writing stock=0
  would jointly oversell. The store's ReserveStock binds the decrement
  to "current stock >= requested", so under concurrency exactly one of
  the two reservations for the last unit can succeed.

SEE ALSO:
  - store/sqlite: ReserveStock/RestoreStock implementations
  - sales/engine.go: Drives the ledger inside a unit of work
*/
package inventory

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockStore is the narrow persistence surface the ledger drives. Both
// the root store and the per-transaction store satisfy it, so the same
// ledger serves standalone adjustments and sale transactions.
type StockStore interface {
	// ReserveStock atomically decrements stock by qty when at least qty
	// units remain, returning the product's unit price at that moment.
	// Fails with ErrProductNotFound or InsufficientStockError.
	ReserveStock(ctx context.Context, productID string, qty int) (decimal.Decimal, error)

	// RestoreStock increments stock by qty. Fails with
	// ErrProductNotFound if the product no longer exists.
	RestoreStock(ctx context.Context, productID string, qty int) error
}

// Ledger coordinates stock reservations and restorations.
type Ledger struct {
	logger *zap.Logger
}

// NewLedger creates a stock ledger. A nil logger falls back to a no-op.
func NewLedger(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{logger: logger}
}

// Reserve takes qty units of a product and returns the unit price at
// reservation time. The decrement is only visible to other callers if
// the enclosing store transaction commits.
func (l *Ledger) Reserve(ctx context.Context, store StockStore, productID string, qty int) (decimal.Decimal, error) {
	price, err := store.ReserveStock(ctx, productID, qty)
	if err != nil {
		return decimal.Zero, err
	}

	l.logger.Debug("stock reserved",
		zap.String("product_id", productID),
		zap.Int("quantity", qty),
		zap.String("unit_price", price.String()),
	)
	return price, nil
}

// Restore re-adds qty units of a product. A missing product is logged
// and skipped: a deleted product cannot receive stock back, and one
// vanished row must not abort the restoration of a sale's other items.
func (l *Ledger) Restore(ctx context.Context, store StockStore, productID string, qty int) error {
	err := store.RestoreStock(ctx, productID, qty)
	if errors.Is(err, ErrProductNotFound) {
		l.logger.Warn("skipping stock restore for deleted product",
			zap.String("product_id", productID),
			zap.Int("quantity", qty),
		)
		return nil
	}
	return err
}
