package http

import (
	"encoding/json"
	"net/http"

	"github.com/fjod/go_shop/internal/cart"
	"github.com/fjod/go_shop/internal/checkout"
	"github.com/fjod/go_shop/internal/payment"
)

type CheckoutHandler struct {
	carts     *cart.Manager
	checkouts *checkout.Orchestrator
}

func NewCheckoutHandler(carts *cart.Manager, checkouts *checkout.Orchestrator) *CheckoutHandler {
	return &CheckoutHandler{carts: carts, checkouts: checkouts}
}

type confirmRequest struct {
	PaymentMethod payment.Method `json:"payment_method"`
}

// Begin creates the payment intent for whatever the backend currently says is
// in the cart. The snapshot is loaded fresh so a stale tab cannot check out
// yesterday's cart.
func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	sid := sidFromContext(r.Context())

	c, err := h.carts.Load(r.Context(), sid)
	if err != nil {
		handleCoreError(w, err)
		return
	}

	intent, err := h.checkouts.Begin(r.Context(), sid, c)
	if err != nil {
		handleCoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, intent)
}

func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.PaymentMethod.Type == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "payment_method.type is required")
		return
	}

	status, err := h.checkouts.Confirm(r.Context(), sidFromContext(r.Context()), req.PaymentMethod)
	if err != nil {
		handleCoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// Return handles the browser coming back from a processor-hosted page. The
// outcome is read from the query string the processor appended.
func (h *CheckoutHandler) Return(w http.ResponseWriter, r *http.Request) {
	status, err := h.checkouts.HandleReturn(r.Context(), sidFromContext(r.Context()), r.URL.Query())
	if err != nil {
		handleCoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.checkouts.State(sidFromContext(r.Context())))
}

// Order returns the backend's view of the checked-out order. The paid flag
// comes from the backend alone, a confirmed payment here never sets it.
func (h *CheckoutHandler) Order(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkouts.Order(r.Context(), sidFromContext(r.Context()))
	if err != nil {
		handleCoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *CheckoutHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.checkouts.Reset(sidFromContext(r.Context()))
	respondJSON(w, http.StatusNoContent, nil)
}
