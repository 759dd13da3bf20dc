/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the terminal frontend

ROUTE GROUPS:
  /api/sales/*      Sale lifecycle (create, edit, reverse)
  /api/customers/*  Customer profile, points, payments
  /api/products/*   Inventory CRUD
  /api/config/*     Rule-set replacement
  /api/admin/*      Manual expiry sweep trigger

SECURITY NOTE:
  No authentication middleware; the engine assumes a trusted single
  terminal. Authentication belongs in a fronting gateway.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.CreateSale)
			r.Get("/{id}", h.GetSale)
			r.Put("/{id}", h.UpdateSale)
			r.Post("/{id}/reverse", h.ReverseSale)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.ListCustomers)
			r.Get("/{id}", h.GetCustomer)
			r.Get("/{id}/transactions", h.GetCustomerTransactions)
			r.Get("/{id}/payments", h.ListCustomerPayments)
			r.Post("/{id}/payments", h.RecordPayment)
			r.Post("/{id}/points", h.AdjustPoints)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/{id}", h.GetProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})

		r.Route("/config", func(r chi.Router) {
			r.Get("/", h.GetConfig)
			r.Put("/tiers", h.UpdateTiers)
			r.Put("/earning-rules", h.UpdateEarningRules)
			r.Put("/redemption-rule", h.UpdateRedemptionRule)
			r.Put("/promotions", h.UpdatePromotions)
			r.Put("/expiry-settings", h.UpdateExpirySettings)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/expiry/run", h.RunExpirySweep)
		})
	})

	return r
}
