/*
errors.go - Error kinds surfaced by the sale engine

Each kind lets the API layer pick a distinct response: malformed input,
missing sale, stock shortage (from inventory), total mismatch, or a
cancel requested twice.
*/
package sales

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoItems is returned when a sale is created with an empty item list.
	ErrNoItems = errors.New("sale must contain at least one item")

	// ErrInvalidQuantity is returned when an item's quantity is below 1.
	ErrInvalidQuantity = errors.New("item quantity must be at least 1")

	// ErrSaleNotFound is returned when the referenced sale doesn't exist.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrAlreadyCancelled is returned when cancelling a sale that is not
	// completed. This is a rejection, not a silent no-op: callers must be
	// able to tell "already done" apart from "done just now", and stock
	// must never be restored twice.
	ErrAlreadyCancelled = errors.New("sale is already cancelled")

	// ErrAmountMismatch is returned when the declared total disagrees
	// with the total computed from reserved prices.
	ErrAmountMismatch = errors.New("total amount does not match sale items")
)

// AmountMismatchError reports the declared vs. computed totals.
type AmountMismatchError struct {
	Declared decimal.Decimal
	Computed decimal.Decimal
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("total amount mismatch: declared %s, computed %s",
		e.Declared.StringFixed(2), e.Computed.StringFixed(2))
}

func (e *AmountMismatchError) Unwrap() error {
	return ErrAmountMismatch
}

// IsInvalidInput returns true for malformed-request errors.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrNoItems) || errors.Is(err, ErrInvalidQuantity)
}
