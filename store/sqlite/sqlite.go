/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements all persistence surfaces (product CRUD, inventory.StockStore,
  sales.Store/TxStore, reports.Store) using SQLite. In production, the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

STOCK DISCIPLINE:
  Stock is never read-modified-written. ReserveStock issues a single
  conditional UPDATE bound to "current stock >= requested quantity";
  zero affected rows means either a missing product or a shortage, told
  apart by a follow-up existence check. Two concurrent reservations for
  the last unit can therefore never both succeed.

KEY TABLES:
  products:   Catalog with unique name and SKU, CHECK (stock >= 0)
  sales:      Sale records; status completed|cancelled, never deleted
  sale_items: Immutable lines with the unit price frozen at sale time.
              product_id is ON DELETE SET NULL so deleting a product
              keeps the sale history intact.

MONEY:
  Prices and totals are stored as decimal strings (shopspring/decimal),
  never floats. Report aggregates SUM in SQL and round back to 2 fraction
  digits on the way out.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety plus WAL mode. In production with
  PostgreSQL, database-level concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/sales.db")   // or ":memory:"
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - inventory/ledger.go: The only caller of ReserveStock/RestoreStock
    during sales
  - sales/engine.go: Drives WithTx
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/stockroom/sales-engine/inventory"
	"github.com/stockroom/sales-engine/reports"
	"github.com/stockroom/sales-engine/sales"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases coherent and avoids
	// SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT,
		sku TEXT NOT NULL UNIQUE,
		price TEXT NOT NULL,
		stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_products_sku ON products(sku);
	CREATE INDEX IF NOT EXISTS idx_products_stock ON products(stock);

	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		sale_date TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'completed',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(sale_date);
	CREATE INDEX IF NOT EXISTS idx_sales_status ON sales(status);

	-- Items are written once, with their sale, and kept when the sale is
	-- cancelled. product_id survives product deletion as NULL so sale
	-- history never loses rows.
	CREATE TABLE IF NOT EXISTS sale_items (
		id TEXT PRIMARY KEY,
		sale_id TEXT NOT NULL REFERENCES sales(id),
		product_id TEXT REFERENCES products(id) ON DELETE SET NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		unit_price TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items(sale_id);
	CREATE INDEX IF NOT EXISTS idx_sale_items_product ON sale_items(product_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx, so the same query
// helpers serve the root store and the transactional store.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// PRODUCT CRUD
// =============================================================================

// CreateProduct inserts a new product. Name and SKU collisions surface
// as inventory.ErrDuplicateProduct.
func (s *Store) CreateProduct(ctx context.Context, p *inventory.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO products (id, name, description, sku, price, stock, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.SKU,
		p.Price.StringFixed(2), p.Stock, string(p.Status),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return inventory.ErrDuplicateProduct
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// GetProduct retrieves a product by ID, or (nil, nil) if absent.
func (s *Store) GetProduct(ctx context.Context, id string) (*inventory.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getProduct(ctx, s.db, id)
}

func getProduct(ctx context.Context, db dbtx, id string) (*inventory.Product, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, description, sku, price, stock, status, created_at, updated_at
		FROM products WHERE id = ?
	`, id)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListProducts returns a page of products matching the search term
// (name or SKU substring), newest first, plus the total match count.
func (s *Store) ListProducts(ctx context.Context, page, limit int, search string) ([]inventory.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := "%" + search + "%"

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE name LIKE ? OR sku LIKE ?`,
		pattern, pattern,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (page - 1) * limit
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, sku, price, stock, status, created_at, updated_at
		FROM products
		WHERE name LIKE ? OR sku LIKE ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, pattern, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []inventory.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

// UpdateProduct writes the catalog fields of a product. Stock is never
// part of this write: the ledger owns it, and a row loaded before a
// concurrent sale must not write the sold units back. Explicit stock
// levels go through SetStock.
func (s *Store) UpdateProduct(ctx context.Context, p *inventory.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, description = ?, sku = ?, price = ?, status = ?, updated_at = ?
		WHERE id = ?
	`,
		p.Name, p.Description, p.SKU, p.Price.StringFixed(2),
		string(p.Status), p.UpdatedAt.Format(time.RFC3339), p.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return inventory.ErrDuplicateProduct
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return inventory.ErrProductNotFound
	}
	return nil
}

// SetStock overwrites a product's stock with an explicitly requested
// level, in a single statement. Relative adjustments belong to the
// ledger's Reserve/Restore.
func (s *Store) SetStock(ctx context.Context, id string, stock int) (*inventory.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET stock = ?, updated_at = ? WHERE id = ?
	`, stock, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return nil, fmt.Errorf("failed to set stock: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, inventory.ErrProductNotFound
	}
	return getProduct(ctx, s.db, id)
}

// DeleteProduct removes a product. Existing sale items keep their rows
// with product_id set to NULL.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return inventory.ErrProductNotFound
	}
	return nil
}

// AdjustStock atomically adds amount units to a product's stock and
// returns the updated row.
func (s *Store) AdjustStock(ctx context.Context, id string, amount int) (*inventory.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := restoreStock(ctx, s.db, id, amount); err != nil {
		return nil, err
	}
	return getProduct(ctx, s.db, id)
}

func scanProduct(row interface{ Scan(dest ...any) error }) (*inventory.Product, error) {
	var (
		p           inventory.Product
		description sql.NullString
		price       string
		status      string
		createdAt   string
		updatedAt   string
	)
	err := row.Scan(&p.ID, &p.Name, &description, &p.SKU, &price, &p.Stock, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.Description = description.String
	p.Price, err = parseDecimal(price)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", p.ID, err)
	}
	p.Status = inventory.ProductStatus(status)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

// =============================================================================
// STOCK STORE (inventory.StockStore interface)
// =============================================================================

// ReserveStock atomically decrements stock when enough units remain.
func (s *Store) ReserveStock(ctx context.Context, productID string, qty int) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return reserveStock(ctx, s.db, productID, qty)
}

// RestoreStock increments a product's stock.
func (s *Store) RestoreStock(ctx context.Context, productID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return restoreStock(ctx, s.db, productID, qty)
}

func reserveStock(ctx context.Context, db dbtx, productID string, qty int) (decimal.Decimal, error) {
	// The WHERE clause is the oversell guard: the decrement happens only
	// when enough units remain, in the same statement that checks.
	res, err := db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?, updated_at = ?
		WHERE id = ? AND stock >= ?
	`, qty, time.Now().UTC().Format(time.RFC3339), productID, qty)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to reserve stock: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return decimal.Zero, err
	}
	if n == 0 {
		var available int
		err := db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = ?`, productID).Scan(&available)
		if err == sql.ErrNoRows {
			return decimal.Zero, inventory.ErrProductNotFound
		}
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to read stock: %w", err)
		}
		return decimal.Zero, &inventory.InsufficientStockError{
			ProductID: productID,
			Requested: qty,
			Available: available,
		}
	}

	var price string
	if err := db.QueryRowContext(ctx, `SELECT price FROM products WHERE id = ?`, productID).Scan(&price); err != nil {
		return decimal.Zero, fmt.Errorf("failed to read price: %w", err)
	}
	return parseDecimal(price)
}

func restoreStock(ctx context.Context, db dbtx, productID string, qty int) error {
	res, err := db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + ?, updated_at = ?
		WHERE id = ?
	`, qty, time.Now().UTC().Format(time.RFC3339), productID)
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return inventory.ErrProductNotFound
	}
	return nil
}

// =============================================================================
// SALES STORE (sales.Store interface)
// =============================================================================

// WithTx executes fn within a database transaction. An error from fn
// rolls back every stock reservation and insert made inside it.
func (s *Store) WithTx(ctx context.Context, fn func(tx sales.TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore exposes the storage surface against an open sql.Tx.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) ReserveStock(ctx context.Context, productID string, qty int) (decimal.Decimal, error) {
	return reserveStock(ctx, ts.tx, productID, qty)
}

func (ts *txStore) RestoreStock(ctx context.Context, productID string, qty int) error {
	return restoreStock(ctx, ts.tx, productID, qty)
}

func (ts *txStore) InsertSale(ctx context.Context, sale *sales.Sale) error {
	return insertSale(ctx, ts.tx, sale)
}

func (ts *txStore) GetSale(ctx context.Context, id string) (*sales.Sale, error) {
	return getSale(ctx, ts.tx, id)
}

func (ts *txStore) MarkSaleCancelled(ctx context.Context, id string) error {
	return markSaleCancelled(ctx, ts.tx, id)
}

func insertSale(ctx context.Context, db dbtx, sale *sales.Sale) error {
	now := time.Now().UTC()
	sale.CreatedAt = now
	sale.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO sales (id, sale_date, total_amount, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		sale.ID,
		sale.SaleDate.UTC().Format(time.RFC3339),
		sale.TotalAmount.StringFixed(2),
		string(sale.Status),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}

	for _, it := range sale.Items {
		_, err := db.ExecContext(ctx, `
			INSERT INTO sale_items (id, sale_id, product_id, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?)
		`, it.ID, it.SaleID, it.ProductID, it.Quantity, it.UnitPrice.StringFixed(2))
		if err != nil {
			return fmt.Errorf("failed to insert sale item: %w", err)
		}
	}
	return nil
}

func markSaleCancelled(ctx context.Context, db dbtx, id string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE sales SET status = ?, updated_at = ? WHERE id = ?
	`, string(sales.StatusCancelled), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to cancel sale: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sales.ErrSaleNotFound
	}
	return nil
}

// GetSale loads a sale with its items, or (nil, nil) if absent.
func (s *Store) GetSale(ctx context.Context, id string) (*sales.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getSale(ctx, s.db, id)
}

func getSale(ctx context.Context, db dbtx, id string) (*sales.Sale, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, sale_date, total_amount, status, created_at, updated_at
		FROM sales WHERE id = ?
	`, id)

	sale, err := scanSale(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sale.Items, err = loadSaleItems(ctx, db, sale.ID)
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// loadSaleItems returns a sale's items in insertion order, which is the
// caller's line order. Item IDs are random UUIDs and sort arbitrarily.
func loadSaleItems(ctx context.Context, db dbtx, saleID string) ([]sales.SaleItem, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT si.id, si.sale_id, si.product_id, si.quantity, si.unit_price,
		       p.name, p.sku
		FROM sale_items si
		LEFT JOIN products p ON p.id = si.product_id
		WHERE si.sale_id = ?
		ORDER BY si.rowid
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale items: %w", err)
	}
	defer rows.Close()

	var items []sales.SaleItem
	for rows.Next() {
		var (
			it        sales.SaleItem
			productID sql.NullString
			unitPrice string
			name      sql.NullString
			sku       sql.NullString
		)
		if err := rows.Scan(&it.ID, &it.SaleID, &productID, &it.Quantity, &unitPrice, &name, &sku); err != nil {
			return nil, err
		}
		it.ProductID = productID.String
		it.UnitPrice, err = parseDecimal(unitPrice)
		if err != nil {
			return nil, fmt.Errorf("sale item %s: %w", it.ID, err)
		}
		it.ProductName = name.String
		it.ProductSKU = sku.String
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListSales returns a page of sales with items, newest first, and the
// total count matching the filter.
func (s *Store) ListSales(ctx context.Context, filter sales.ListFilter) ([]sales.Sale, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where := "1=1"
	args := []any{}
	if filter.From != nil {
		where += " AND sale_date >= ?"
		args = append(args, filter.From.UTC().Format(time.RFC3339))
	}
	if filter.To != nil {
		where += " AND sale_date <= ?"
		args = append(args, filter.To.UTC().Format(time.RFC3339))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sales WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sales: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := `
		SELECT id, sale_date, total_amount, status, created_at, updated_at
		FROM sales WHERE ` + where + `
		ORDER BY sale_date DESC, id
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, append(args, filter.Limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var result []sales.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *sale)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range result {
		items, err := loadSaleItems(ctx, s.db, result[i].ID)
		if err != nil {
			return nil, 0, err
		}
		result[i].Items = items
	}
	return result, total, nil
}

func scanSale(row interface{ Scan(dest ...any) error }) (*sales.Sale, error) {
	var (
		sale        sales.Sale
		saleDate    string
		totalAmount string
		status      string
		createdAt   string
		updatedAt   string
	)
	err := row.Scan(&sale.ID, &saleDate, &totalAmount, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	sale.SaleDate, _ = time.Parse(time.RFC3339, saleDate)
	sale.TotalAmount, err = parseDecimal(totalAmount)
	if err != nil {
		return nil, fmt.Errorf("sale %s: %w", sale.ID, err)
	}
	sale.Status = sales.SaleStatus(status)
	sale.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	sale.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &sale, nil
}

// =============================================================================
// REPORT QUERIES (reports.Store interface)
// =============================================================================

// DailySales aggregates completed sales per calendar day.
func (s *Store) DailySales(ctx context.Context, from, to time.Time) ([]reports.DailySalesRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DATE(sale_date) AS day,
		       COUNT(*) AS total_sales,
		       SUM(CAST(total_amount AS REAL)) AS total_revenue
		FROM sales
		WHERE status = 'completed' AND sale_date >= ? AND sale_date <= ?
		GROUP BY DATE(sale_date)
		ORDER BY day ASC
	`, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily sales: %w", err)
	}
	defer rows.Close()

	var result []reports.DailySalesRow
	for rows.Next() {
		var r reports.DailySalesRow
		var revenue float64
		if err := rows.Scan(&r.Date, &r.TotalSales, &revenue); err != nil {
			return nil, err
		}
		r.TotalRevenue = decimal.NewFromFloat(revenue).Round(2)
		result = append(result, r)
	}
	return result, rows.Err()
}

// ProductSales aggregates completed sales per product, revenue-first.
// Items whose product was deleted are excluded (no row to attribute to).
func (s *Store) ProductSales(ctx context.Context, from, to time.Time) ([]reports.ProductSalesRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.sku,
		       SUM(si.quantity) AS total_quantity,
		       SUM(si.quantity * CAST(si.unit_price AS REAL)) AS total_revenue
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		JOIN products p ON p.id = si.product_id
		WHERE s.status = 'completed' AND s.sale_date >= ? AND s.sale_date <= ?
		GROUP BY p.id, p.name, p.sku
		ORDER BY total_revenue DESC
	`, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query product sales: %w", err)
	}
	defer rows.Close()

	var result []reports.ProductSalesRow
	for rows.Next() {
		var r reports.ProductSalesRow
		var revenue float64
		if err := rows.Scan(&r.ProductID, &r.Name, &r.SKU, &r.TotalQuantity, &revenue); err != nil {
			return nil, err
		}
		r.TotalRevenue = decimal.NewFromFloat(revenue).Round(2)
		result = append(result, r)
	}
	return result, rows.Err()
}

// LowStockProducts lists products under the threshold, lowest first.
func (s *Store) LowStockProducts(ctx context.Context, threshold int) ([]reports.LowStockRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, sku, stock, price
		FROM products
		WHERE stock < ?
		ORDER BY stock ASC, name
	`, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock: %w", err)
	}
	defer rows.Close()

	var result []reports.LowStockRow
	for rows.Next() {
		var r reports.LowStockRow
		var price string
		if err := rows.Scan(&r.ProductID, &r.Name, &r.SKU, &r.Stock, &price); err != nil {
			return nil, err
		}
		r.Price, err = parseDecimal(price)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", r.ProductID, err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// InventorySummary totals the catalog: product count, units on hand,
// and stock valued at current prices.
func (s *Store) InventorySummary(ctx context.Context) (reports.InventorySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		summary reports.InventorySummary
		stock   sql.NullInt64
		value   sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), SUM(stock), SUM(stock * CAST(price AS REAL))
		FROM products
	`).Scan(&summary.TotalProducts, &stock, &value)
	if err != nil {
		return summary, fmt.Errorf("failed to query inventory summary: %w", err)
	}

	summary.TotalStock = int(stock.Int64)
	summary.InventoryValue = decimal.NewFromFloat(value.Float64).Round(2)
	return summary, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// parseDecimal refuses to turn a corrupt stored value into money; a
// failed read beats a silently zeroed amount.
func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt decimal value %q: %w", s, err)
	}
	return d, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
