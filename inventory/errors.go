/*
errors.go - Error types for the inventory package

PURPOSE:
  Sentinel errors for use with errors.Is(), plus structured errors that
  carry enough context for the API layer to build a useful response.

USAGE:
  if errors.Is(err, inventory.ErrInsufficientStock) { ... }

  var short *inventory.InsufficientStockError
  if errors.As(err, &short) {
      // short.Available, short.Requested
  }
*/
package inventory

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound is returned when a referenced product doesn't exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when a reservation exceeds the
	// available stock. Wrap with InsufficientStockError for details.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrDuplicateProduct is returned when a product's name or SKU
	// collides with an existing row.
	ErrDuplicateProduct = errors.New("product with this name or SKU already exists")

	// ErrInvalidProduct is returned when product fields fail validation.
	ErrInvalidProduct = errors.New("invalid product")
)

// InsufficientStockError reports a stock shortage for a specific product.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// IsNotFound returns true if the error indicates a missing product.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}

// IsClientError returns true if the error is the caller's fault rather
// than a store failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrDuplicateProduct) ||
		errors.Is(err, ErrInvalidProduct)
}
