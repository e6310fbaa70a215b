/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: List wrappers carrying pagination metadata

MONEY ON THE WIRE:
  Prices and totals use decimal.Decimal, which unmarshals from both JSON
  numbers and strings and marshals back as a number. No float64 touches
  a monetary value.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/stockroom/sales-engine/inventory"
	"github.com/stockroom/sales-engine/reports"
	"github.com/stockroom/sales-engine/sales"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// PRODUCTS
// =============================================================================

// ProductDTO represents a product in API responses.
type ProductDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	SKU         string          `json:"sku"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"created_at,omitempty"`
	UpdatedAt   string          `json:"updated_at,omitempty"`
}

// CreateProductRequest is the request to create a product.
type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	SKU         string          `json:"sku"`
	Status      string          `json:"status"`
}

// UpdateProductRequest carries a partial product update; nil fields are
// left unchanged.
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	SKU         *string          `json:"sku"`
	Status      *string          `json:"status"`
}

// AdjustStockRequest adds units to a product's stock.
type AdjustStockRequest struct {
	Amount int `json:"amount"`
}

// ProductListResponse is a page of products.
type ProductListResponse struct {
	Products      []ProductDTO `json:"products"`
	TotalProducts int          `json:"totalProducts"`
	TotalPages    int          `json:"totalPages"`
	CurrentPage   int          `json:"currentPage"`
}

// =============================================================================
// SALES
// =============================================================================

// SaleItemDTO is one line of a sale in responses.
type SaleItemDTO struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	ProductSKU  string          `json:"product_sku,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SaleDTO represents a sale in API responses.
type SaleDTO struct {
	ID          string          `json:"id"`
	SaleDate    string          `json:"sale_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	Items       []SaleItemDTO   `json:"items"`
	CreatedAt   string          `json:"created_at,omitempty"`
}

// CreateSaleItemRequest is one requested line of a new sale. UnitPrice
// is accepted for wire compatibility and ignored: the server prices
// items from the catalog at reservation time.
type CreateSaleItemRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// CreateSaleRequest is the request to create a sale.
type CreateSaleRequest struct {
	SaleDate    string                  `json:"sale_date"`
	TotalAmount decimal.Decimal         `json:"total_amount"`
	Items       []CreateSaleItemRequest `json:"items"`
}

// SaleListResponse is a page of sales.
type SaleListResponse struct {
	Sales       []SaleDTO `json:"sales"`
	TotalSales  int       `json:"totalSales"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
}

// =============================================================================
// REPORTS
// =============================================================================

// DailySalesDTO is one day of the sales report.
type DailySalesDTO struct {
	Date         string          `json:"date"`
	TotalSales   int             `json:"total_sales"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// ProductSalesDTO is one product of the sales report.
type ProductSalesDTO struct {
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	ProductSKU    string          `json:"product_sku"`
	TotalQuantity int             `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

// SalesReportResponse wraps a grouped sales report.
type SalesReportResponse struct {
	GroupBy   string            `json:"group_by"`
	StartDate string            `json:"start_date"`
	EndDate   string            `json:"end_date"`
	ByDay     []DailySalesDTO   `json:"by_day,omitempty"`
	ByProduct []ProductSalesDTO `json:"by_product,omitempty"`
}

// LowStockDTO is a product below the low-stock threshold.
type LowStockDTO struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Stock     int             `json:"stock"`
	Price     decimal.Decimal `json:"price"`
}

// InventoryReportResponse pairs the low-stock listing with the summary.
type InventoryReportResponse struct {
	LowStockProducts []LowStockDTO       `json:"low_stock_products"`
	Summary          InventorySummaryDTO `json:"inventory_summary"`
}

// InventorySummaryDTO aggregates the whole catalog.
type InventorySummaryDTO struct {
	TotalProducts  int             `json:"total_products"`
	TotalStock     int             `json:"total_stock"`
	InventoryValue decimal.Decimal `json:"total_inventory_value"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toProductDTO(p *inventory.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		SKU:         p.SKU,
		Price:       p.Price,
		Stock:       p.Stock,
		Status:      string(p.Status),
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

func toSaleDTO(s *sales.Sale) SaleDTO {
	items := make([]SaleItemDTO, len(s.Items))
	for i, it := range s.Items {
		items[i] = SaleItemDTO{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ProductSKU:  it.ProductSKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal(),
		}
	}
	return SaleDTO{
		ID:          s.ID,
		SaleDate:    formatTime(s.SaleDate),
		TotalAmount: s.TotalAmount,
		Status:      string(s.Status),
		Items:       items,
		CreatedAt:   formatTime(s.CreatedAt),
	}
}

func toSalesReportResponse(r *reports.SalesReport) SalesReportResponse {
	resp := SalesReportResponse{
		GroupBy:   string(r.GroupBy),
		StartDate: formatTime(r.From),
		EndDate:   formatTime(r.To),
	}
	for _, row := range r.ByDay {
		resp.ByDay = append(resp.ByDay, DailySalesDTO{
			Date:         row.Date,
			TotalSales:   row.TotalSales,
			TotalRevenue: row.TotalRevenue,
		})
	}
	for _, row := range r.ByProduct {
		resp.ByProduct = append(resp.ByProduct, ProductSalesDTO{
			ProductID:     row.ProductID,
			ProductName:   row.Name,
			ProductSKU:    row.SKU,
			TotalQuantity: row.TotalQuantity,
			TotalRevenue:  row.TotalRevenue,
		})
	}
	return resp
}

func toInventoryReportResponse(r *reports.InventoryReport) InventoryReportResponse {
	resp := InventoryReportResponse{
		LowStockProducts: []LowStockDTO{},
		Summary: InventorySummaryDTO{
			TotalProducts:  r.Summary.TotalProducts,
			TotalStock:     r.Summary.TotalStock,
			InventoryValue: r.Summary.InventoryValue,
		},
	}
	for _, row := range r.LowStock {
		resp.LowStockProducts = append(resp.LowStockProducts, LowStockDTO{
			ProductID: row.ProductID,
			Name:      row.Name,
			SKU:       row.SKU,
			Stock:     row.Stock,
			Price:     row.Price,
		})
	}
	return resp
}
