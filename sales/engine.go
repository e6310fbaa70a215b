/*
engine.go - Sale transaction engine

PURPOSE:
  Orchestrates creation and cancellation of sales as atomic units of
  work. The engine validates line items against the stock ledger,
  computes and cross-checks the total, persists the sale with its items,
  and on cancellation reverses the stock effect.

CREATE FLOW:
  1. Reject empty item lists and quantities below 1
  2. Open a store transaction
  3. Reserve each item in caller order; any NotFound/InsufficientStock
     aborts the whole transaction - no partial decrement survives
  4. Compare the computed total against the declared total with exact
     decimal equality; mismatch aborts
  5. Insert the sale (completed, computed total) and its items, each
     carrying the price captured at reservation
  6. Commit

  The rollback story is the database transaction itself: a sale that
  never commits needs no compensating restore.

CANCEL FLOW:
  1. Load the sale with items inside the transaction
  2. Reject missing sales and sales already cancelled
  3. Restore each item's stock (missing products are skipped, see the
     ledger's Restore policy)
  4. Flip status to cancelled and commit; item rows are kept as history

PRICING:
  The engine is the sole source of truth for prices at sale time. Any
  caller-supplied unit price is ignored; items are always priced from
  the product row at the moment of reservation.

SEE ALSO:
  - inventory/ledger.go: Reserve/Restore semantics
  - store/sqlite: TxStore implementation
*/
package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockroom/sales-engine/inventory"
)

// TxStore is the storage surface available inside one unit of work.
// Everything called through it commits or rolls back together.
type TxStore interface {
	inventory.StockStore

	// InsertSale persists a sale and all of its items.
	InsertSale(ctx context.Context, sale *Sale) error

	// GetSale loads a sale with its items, or (nil, nil) if absent.
	GetSale(ctx context.Context, id string) (*Sale, error)

	// MarkSaleCancelled transitions the sale's status to cancelled.
	MarkSaleCancelled(ctx context.Context, id string) error
}

// ListFilter narrows and pages a sale listing.
type ListFilter struct {
	Page  int
	Limit int
	From  *time.Time
	To    *time.Time
}

// Store is the engine's persistence dependency.
type Store interface {
	// WithTx runs fn inside a single database transaction. fn returning
	// an error rolls everything back.
	WithTx(ctx context.Context, fn func(tx TxStore) error) error

	// GetSale loads a sale with its items, or (nil, nil) if absent.
	GetSale(ctx context.Context, id string) (*Sale, error)

	// ListSales returns a page of sales (with items) and the total count.
	ListSales(ctx context.Context, filter ListFilter) ([]Sale, int, error)
}

// CreateSaleItem is one requested line of a new sale. Quantity is the
// only field the engine trusts; prices come from the catalog.
type CreateSaleItem struct {
	ProductID string
	Quantity  int
}

// CreateSaleInput is the request to create a sale. TotalAmount is the
// caller's declared total, cross-checked against reserved prices.
type CreateSaleInput struct {
	SaleDate    *time.Time
	TotalAmount decimal.Decimal
	Items       []CreateSaleItem
}

// Engine coordinates sale creation and cancellation.
type Engine struct {
	store  Store
	ledger *inventory.Ledger
	logger *zap.Logger
}

// NewEngine creates a sale engine. A nil logger falls back to a no-op.
func NewEngine(store Store, ledger *inventory.Ledger, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, ledger: ledger, logger: logger}
}

// CreateSale reserves stock for every item, verifies the declared total
// and persists the sale, all inside one transaction.
func (e *Engine) CreateSale(ctx context.Context, input CreateSaleInput) (*Sale, error) {
	if len(input.Items) == 0 {
		return nil, ErrNoItems
	}
	for _, it := range input.Items {
		if it.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}

	saleDate := time.Now().UTC()
	if input.SaleDate != nil {
		saleDate = *input.SaleDate
	}

	var sale *Sale
	err := e.store.WithTx(ctx, func(tx TxStore) error {
		computed := decimal.Zero
		items := make([]SaleItem, 0, len(input.Items))

		for _, it := range input.Items {
			price, err := e.ledger.Reserve(ctx, tx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			items = append(items, SaleItem{
				ID:        uuid.NewString(),
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: price,
			})
			computed = computed.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}

		if !computed.Equal(input.TotalAmount) {
			return &AmountMismatchError{Declared: input.TotalAmount, Computed: computed}
		}

		s := &Sale{
			ID:          uuid.NewString(),
			SaleDate:    saleDate,
			TotalAmount: computed,
			Status:      StatusCompleted,
			Items:       items,
		}
		for i := range s.Items {
			s.Items[i].SaleID = s.ID
		}

		if err := tx.InsertSale(ctx, s); err != nil {
			return err
		}
		sale = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("sale created",
		zap.String("sale_id", sale.ID),
		zap.String("total_amount", sale.TotalAmount.StringFixed(2)),
		zap.Int("items", len(sale.Items)),
	)
	return sale, nil
}

// CancelSale restores stock for every item of a completed sale and
// marks it cancelled. Cancelling twice fails with ErrAlreadyCancelled
// and restores nothing.
func (e *Engine) CancelSale(ctx context.Context, id string) (*Sale, error) {
	var sale *Sale
	err := e.store.WithTx(ctx, func(tx TxStore) error {
		s, err := tx.GetSale(ctx, id)
		if err != nil {
			return err
		}
		if s == nil {
			return ErrSaleNotFound
		}
		if s.Status == StatusCancelled {
			return ErrAlreadyCancelled
		}

		for _, it := range s.Items {
			if err := e.ledger.Restore(ctx, tx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}

		if err := tx.MarkSaleCancelled(ctx, s.ID); err != nil {
			return err
		}
		s.Status = StatusCancelled
		sale = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("sale cancelled",
		zap.String("sale_id", sale.ID),
		zap.Int("items_restored", len(sale.Items)),
	)
	return sale, nil
}

// GetSale loads a sale with its items.
func (e *Engine) GetSale(ctx context.Context, id string) (*Sale, error) {
	s, err := e.store.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSaleNotFound
	}
	return s, nil
}

// ListSales returns a page of sales, newest first, with the total count
// for pagination.
func (e *Engine) ListSales(ctx context.Context, filter ListFilter) ([]Sale, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}
	return e.store.ListSales(ctx, filter)
}
