/*
handlers.go - HTTP handlers for the settlement engine

PURPOSE:
  Thin JSON layer over the sale.Ledger. Handlers decode, delegate, and
  encode; every business rule lives in the domain packages.

ERROR MAPPING:
  Validation failures   -> 422 Unprocessable Entity
  Missing references    -> 404 Not Found
  Invariant violations  -> 409 Conflict
  Everything else       -> 500 Internal Server Error

SEE ALSO:
  - server.go: route wiring
  - ../sale/ledger.go: the operations behind these endpoints
*/
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/pos-engine/engine"
	"github.com/warp/pos-engine/loyalty"
	"github.com/warp/pos-engine/sale"
)

// Handler carries the wired dependencies for all endpoints.
type Handler struct {
	Ledger  *sale.Ledger
	Sweeper *loyalty.Sweeper
}

func NewHandler(ledger *sale.Ledger, sweeper *loyalty.Sweeper) *Handler {
	return &Handler{Ledger: ledger, Sweeper: sweeper}
}

// =============================================================================
// SALES
// =============================================================================

func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var in sale.CreateSaleInput
	if !decode(w, r, &in) {
		return
	}
	s, err := h.Ledger.CreateSale(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, s)
}

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.Ledger.Store().Sales(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sales)
}

func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	s, err := h.Ledger.Store().Sale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *Handler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	var in sale.UpdateSaleInput
	if !decode(w, r, &in) {
		return
	}
	s, err := h.Ledger.UpdateSale(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *Handler) ReverseSale(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ReturnLines []int `json:"returnLines"`
	}
	if !decode(w, r, &in) {
		return
	}
	if err := h.Ledger.ReverseSale(r.Context(), chi.URLParam(r, "id"), in.ReturnLines); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reversed"})
}

// =============================================================================
// CUSTOMERS
// =============================================================================

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Ledger.Store().Customers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.Ledger.Store().Customer(r.Context(), sale.NormalizeCode(chi.URLParam(r, "id")))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handler) GetCustomerTransactions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Ledger.Store().LoyaltyEntries(r.Context(), sale.NormalizeCode(chi.URLParam(r, "id")))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *Handler) ListCustomerPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Ledger.Store().PaymentsByCustomer(r.Context(), sale.NormalizeCode(chi.URLParam(r, "id")))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, payments)
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Amount decimal.Decimal `json:"amount"`
		Notes  string          `json:"notes"`
	}
	if !decode(w, r, &in) {
		return
	}
	p, err := h.Ledger.RecordCustomerPayment(r.Context(), sale.NormalizeCode(chi.URLParam(r, "id")), in.Amount, in.Notes)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handler) AdjustPoints(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Delta  int64  `json:"delta"`
		Reason string `json:"reason"`
	}
	if !decode(w, r, &in) {
		return
	}
	if err := h.Ledger.AdjustCustomerPoints(r.Context(), sale.NormalizeCode(chi.URLParam(r, "id")), in.Delta, in.Reason); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "adjusted"})
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Ledger.Store().Products(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Ledger.Store().Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p engine.Product
	if !decode(w, r, &p) {
		return
	}
	created, err := h.Ledger.CreateProduct(r.Context(), p)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p engine.Product
	if !decode(w, r, &p) {
		return
	}
	p.ID = chi.URLParam(r, "id")
	if err := h.Ledger.UpdateProduct(r.Context(), p); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// CONFIGURATION
// =============================================================================

func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.Ledger.Config()
	respondJSON(w, http.StatusOK, map[string]any{
		"tiers":          cfg.Tiers().Tiers(),
		"earningRules":   cfg.EarningRules().Rules(),
		"redemptionRule": cfg.Redemption(),
		"promotions":     cfg.Promotions().List(),
		"expirySettings": cfg.Expiry(),
	})
}

func (h *Handler) UpdateTiers(w http.ResponseWriter, r *http.Request) {
	var tiers []engine.Tier
	if !decode(w, r, &tiers) {
		return
	}
	if err := h.Ledger.UpdateCustomerTiers(r.Context(), tiers); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.Ledger.Config().Tiers().Tiers())
}

func (h *Handler) UpdateEarningRules(w http.ResponseWriter, r *http.Request) {
	var rules []engine.EarningRule
	if !decode(w, r, &rules) {
		return
	}
	if err := h.Ledger.UpdateEarningRules(r.Context(), rules); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.Ledger.Config().EarningRules().Rules())
}

func (h *Handler) UpdateRedemptionRule(w http.ResponseWriter, r *http.Request) {
	var rule engine.RedemptionRule
	if !decode(w, r, &rule) {
		return
	}
	if err := h.Ledger.UpdateRedemptionRule(r.Context(), rule); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

func (h *Handler) UpdatePromotions(w http.ResponseWriter, r *http.Request) {
	var promos []engine.Promotion
	if !decode(w, r, &promos) {
		return
	}
	if err := h.Ledger.UpdatePromotions(r.Context(), promos); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.Ledger.Config().Promotions().List())
}

func (h *Handler) UpdateExpirySettings(w http.ResponseWriter, r *http.Request) {
	var settings engine.ExpirySettings
	if !decode(w, r, &settings) {
		return
	}
	if err := h.Ledger.UpdateLoyaltyExpirySettings(r.Context(), settings); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// =============================================================================
// ADMIN
// =============================================================================

// RunExpirySweep triggers the daily sweep manually. The sweep's own
// last-run guard still applies: a second run in the same day is a no-op.
func (h *Handler) RunExpirySweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.Sweeper.Run(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if !result.Skipped {
		if err := h.Ledger.ReevaluateAllTiers(r.Context()); err != nil {
			respondError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, result)
}

// =============================================================================
// HELPERS
// =============================================================================

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case engine.IsValidation(err):
		status = http.StatusUnprocessableEntity
	case engine.IsNotFound(err):
		status = http.StatusNotFound
	case engine.IsInvariantViolation(err):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Printf("[API] internal error: %v", err)
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}
