/*
server.go - Router setup and middleware

PURPOSE:
  Builds the chi router for the API: request logging, panic recovery,
  CORS, and the route tree for products, sales and reports.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: HTTP server lifecycle
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter assembles the full route tree for the given handler.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Post("/", h.CreateProduct)
			r.Get("/", h.ListProducts)
			r.Get("/{id}", h.GetProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
			r.Patch("/{id}/stock", h.AdjustStock)
		})

		r.Route("/sales", func(r chi.Router) {
			r.Post("/", h.CreateSale)
			r.Get("/", h.ListSales)
			// Registered before {id} so "report" is not captured as a sale ID.
			r.Get("/report", h.SalesReport)
			r.Get("/{id}", h.GetSale)
			r.Post("/{id}/cancel", h.CancelSale)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/daily-sales", h.DailySalesReport)
			r.Get("/product-sales", h.ProductSalesReport)
			r.Get("/inventory", h.InventoryReport)
		})
	})

	return r
}
