/*
handlers.go - HTTP API handlers for the inventory and sales system

PURPOSE:
  Exposes the product catalog, the sale engine, and the reports via REST.
  Handles HTTP request/response, JSON serialization, field validation,
  and delegates everything with an invariant to domain logic.

ENDPOINTS:
  Products:
    POST   /api/products               Create product
    GET    /api/products               List (page, limit, search)
    GET    /api/products/{id}          Get product
    PUT    /api/products/{id}          Update product (partial)
    DELETE /api/products/{id}          Delete product
    PATCH  /api/products/{id}/stock    Add stock (positive amount)

  Sales:
    POST   /api/sales                  Create sale (atomic)
    GET    /api/sales                  List (page, limit, date range)
    GET    /api/sales/{id}             Get sale with items
    POST   /api/sales/{id}/cancel      Cancel sale (restores stock)
    GET    /api/sales/report           Grouped report (day | product)

  Reports:
    GET    /api/reports/daily-sales    Revenue per day
    GET    /api/reports/product-sales  Revenue per product
    GET    /api/reports/inventory      Low stock + summary

ERROR HANDLING:
  Domain errors map to HTTP statuses:
  - 400: Validation errors, duplicate product, amount mismatch
  - 404: Product or sale not found
  - 409: Insufficient stock, sale already cancelled
  - 500: Store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockroom/sales-engine/inventory"
	"github.com/stockroom/sales-engine/reports"
	"github.com/stockroom/sales-engine/sales"
	"github.com/stockroom/sales-engine/store/sqlite"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Engine   *sales.Engine
	Reporter *reports.Reporter
	Logger   *zap.Logger
}

// NewHandler wires the engine, ledger and reporter over the store.
func NewHandler(store *sqlite.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	ledger := inventory.NewLedger(logger)
	return &Handler{
		Store:    store,
		Engine:   sales.NewEngine(store, ledger, logger),
		Reporter: reports.NewReporter(store),
		Logger:   logger,
	}
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// CreateProduct creates a new product.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p := &inventory.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		SKU:         req.SKU,
		Price:       req.Price,
		Stock:       req.Stock,
		Status:      inventory.ProductStatus(req.Status),
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product", err)
		return
	}

	if err := h.Store.CreateProduct(r.Context(), p); err != nil {
		writeDomainError(w, "Failed to create product", err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductDTO(p))
}

// ListProducts returns a page of products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pagination", err)
		return
	}
	search := r.URL.Query().Get("search")

	products, total, err := h.Store.ListProducts(r.Context(), page, limit, search)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list products", err)
		return
	}

	dtos := make([]ProductDTO, len(products))
	for i := range products {
		dtos[i] = toProductDTO(&products[i])
	}
	writeJSON(w, http.StatusOK, ProductListResponse{
		Products:      dtos,
		TotalProducts: total,
		TotalPages:    totalPages(total, limit),
		CurrentPage:   page,
	})
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.Store.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get product", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

// UpdateProduct applies a partial update to a product.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, err := h.Store.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get product", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.SKU != nil {
		p.SKU = *req.SKU
	}
	if req.Status != nil {
		p.Status = inventory.ProductStatus(*req.Status)
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product", err)
		return
	}

	if err := h.Store.UpdateProduct(r.Context(), p); err != nil {
		writeDomainError(w, "Failed to update product", err)
		return
	}
	// Stock only changes when the request names a level; a concurrent
	// sale's decrement must not be written back from the loaded row.
	if req.Stock != nil {
		if _, err := h.Store.SetStock(r.Context(), id, *req.Stock); err != nil {
			writeDomainError(w, "Failed to update product", err)
			return
		}
	}

	updated, err := h.Store.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get product", err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(updated))
}

// DeleteProduct removes a product from the catalog.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteProduct(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete product", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

// AdjustStock adds a positive amount of units to a product's stock.
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "Amount must be a positive number", nil)
		return
	}

	p, err := h.Store.AdjustStock(r.Context(), id, req.Amount)
	if err != nil {
		writeDomainError(w, "Failed to adjust stock", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// CreateSale creates a sale, atomically reserving stock for every item.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	input := sales.CreateSaleInput{TotalAmount: req.TotalAmount}
	if req.SaleDate != "" {
		t, _, err := parseDate(req.SaleDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid sale_date", err)
			return
		}
		input.SaleDate = &t
	}
	for _, it := range req.Items {
		// Any caller-supplied unit_price is deliberately dropped here:
		// the engine prices items from the catalog.
		input.Items = append(input.Items, sales.CreateSaleItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	sale, err := h.Engine.CreateSale(r.Context(), input)
	if err != nil {
		writeDomainError(w, "Failed to create sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaleDTO(sale))
}

// ListSales returns a page of sales, optionally filtered by date range.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pagination", err)
		return
	}

	filter := sales.ListFilter{Page: page, Limit: limit}
	if v := r.URL.Query().Get("startDate"); v != "" {
		t, _, err := parseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid startDate", err)
			return
		}
		filter.From = &t
	}
	if v := r.URL.Query().Get("endDate"); v != "" {
		t, dayOnly, err := parseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid endDate", err)
			return
		}
		if dayOnly {
			t = endOfDay(t)
		}
		filter.To = &t
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		writeError(w, http.StatusBadRequest, "endDate must not be before startDate", nil)
		return
	}

	result, total, err := h.Engine.ListSales(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sales", err)
		return
	}

	dtos := make([]SaleDTO, len(result))
	for i := range result {
		dtos[i] = toSaleDTO(&result[i])
	}
	writeJSON(w, http.StatusOK, SaleListResponse{
		Sales:       dtos,
		TotalSales:  total,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	})
}

// GetSale returns a sale with its items.
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sale, err := h.Engine.GetSale(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get sale", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(sale))
}

// CancelSale cancels a completed sale, restoring its stock.
func (h *Handler) CancelSale(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sale, err := h.Engine.CancelSale(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to cancel sale", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(sale))
}

// SalesReport returns sales grouped by day or by product.
func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	groupBy, err := reports.ParseGroupBy(r.URL.Query().Get("groupBy"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid groupBy", err)
		return
	}
	from, to, err := parseReportRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	report, err := h.Reporter.Sales(r.Context(), from, to, groupBy)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate sales report", err)
		return
	}
	writeJSON(w, http.StatusOK, toSalesReportResponse(report))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// DailySalesReport returns revenue per calendar day.
func (h *Handler) DailySalesReport(w http.ResponseWriter, r *http.Request) {
	h.groupedReport(w, r, reports.GroupByDay)
}

// ProductSalesReport returns revenue per product.
func (h *Handler) ProductSalesReport(w http.ResponseWriter, r *http.Request) {
	h.groupedReport(w, r, reports.GroupByProduct)
}

func (h *Handler) groupedReport(w http.ResponseWriter, r *http.Request, groupBy reports.GroupBy) {
	from, to, err := parseReportRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	report, err := h.Reporter.Sales(r.Context(), from, to, groupBy)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate report", err)
		return
	}
	writeJSON(w, http.StatusOK, toSalesReportResponse(report))
}

// InventoryReport returns the low-stock listing and catalog summary.
func (h *Handler) InventoryReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Reporter.Inventory(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate inventory report", err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryReportResponse(report))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain error kinds onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case inventory.IsNotFound(err) || errors.Is(err, sales.ErrSaleNotFound):
		status = http.StatusNotFound
	case errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, sales.ErrAlreadyCancelled):
		status = http.StatusConflict
	case errors.Is(err, sales.ErrAmountMismatch),
		sales.IsInvalidInput(err),
		inventory.IsClientError(err):
		status = http.StatusBadRequest
	}
	writeError(w, status, message, err)
}

func parsePagination(r *http.Request) (page, limit int, err error) {
	page, limit = 1, 10
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page < 1 {
			return 0, 0, errors.New("page must be a positive integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 100 {
			return 0, 0, errors.New("limit must be between 1 and 100")
		}
	}
	return page, limit, nil
}

func totalPages(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// parseDate accepts both date-only and RFC3339 timestamps. dayOnly
// reports which form arrived: a date names a whole day, while an
// RFC3339 value is a precise instant and is never widened.
func parseDate(s string) (t time.Time, dayOnly bool, err error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), true, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, errors.New("use YYYY-MM-DD or RFC3339")
	}
	return t.UTC(), false, nil
}

// endOfDay stretches a date-only end bound to the last instant of that day.
func endOfDay(t time.Time) time.Time {
	return t.Add(24*time.Hour - time.Nanosecond)
}

// parseReportRange reads startDate/endDate; zero values defer to the
// reporter's defaults (January 1 of the current year through now).
func parseReportRange(r *http.Request) (from, to time.Time, err error) {
	q := r.URL.Query()
	if v := q.Get("startDate"); v != "" {
		if from, _, err = parseDate(v); err != nil {
			return
		}
	}
	if v := q.Get("endDate"); v != "" {
		var dayOnly bool
		if to, dayOnly, err = parseDate(v); err != nil {
			return
		}
		if dayOnly {
			to = endOfDay(to)
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		err = errors.New("endDate must not be before startDate")
	}
	return
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
