/*
Package inventory owns the product catalog and the stock ledger.

PURPOSE:
  This package contains the Product model, its validation rules, and the
  Stock Ledger - the single component allowed to mutate a product's stock
  quantity. Everything else (sales, reports, the HTTP layer) reads
  products or goes through the ledger.

KEY CONCEPTS IN THIS FILE (types.go):
  - Product: Catalog entry with an exact-decimal unit price and an
    integer stock quantity
  - ProductStatus: active | inactive
  - SKU generation: PRD-<unix-millis> when the caller supplies none

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for prices to avoid floating-point
     errors in money arithmetic
  2. Non-negativity: stock >= 0 is enforced at the point of decrement
     (see ledger.go), never patched up after the fact
  3. Validation at the edge: Validate() holds the field rules so the
     store and API layers share one definition

SEE ALSO:
  - ledger.go: Reserve/Restore stock mutations
  - errors.go: Error types for missing products and stock shortages
*/
package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus marks whether a product is sellable.
type ProductStatus string

const (
	StatusActive   ProductStatus = "active"
	StatusInactive ProductStatus = "inactive"
)

// Valid reports whether the status is one of the known values.
func (s ProductStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Product is a catalog entry. Stock is only ever mutated through the
// Ledger or the store's atomic adjustment; price changes never affect
// already-recorded sales (sale items carry their own price copy).
type Product struct {
	ID          string
	Name        string
	Description string
	SKU         string
	Price       decimal.Decimal
	Stock       int
	Status      ProductStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const (
	minNameLen = 3
	maxNameLen = 100
)

// Validate checks the field rules shared by create and update paths.
func (p *Product) Validate() error {
	name := strings.TrimSpace(p.Name)
	if len(name) < minNameLen || len(name) > maxNameLen {
		return fmt.Errorf("%w: name must be between %d and %d characters", ErrInvalidProduct, minNameLen, maxNameLen)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidProduct)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	}
	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("%w: status must be %q or %q", ErrInvalidProduct, StatusActive, StatusInactive)
	}
	return nil
}

// Normalize fills defaults before first persistence: active status and a
// generated SKU when the caller omits one.
func (p *Product) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	if p.Status == "" {
		p.Status = StatusActive
	}
	if p.SKU == "" {
		p.SKU = GenerateSKU()
	}
}

// GenerateSKU returns a timestamp-based SKU for products created without
// one. Collisions within the same millisecond surface as a duplicate-SKU
// error on insert.
func GenerateSKU() string {
	return fmt.Sprintf("PRD-%d", time.Now().UnixMilli())
}
