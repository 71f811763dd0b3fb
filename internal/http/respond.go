package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fjod/go_shop/internal/checkout"
	"github.com/fjod/go_shop/internal/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("failed to encode response: %v", err)
		}
	}
}

func respondError(w http.ResponseWriter, status int, code, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Details: details,
	})
}

// handleCoreError maps the core error taxonomy onto HTTP statuses. Only an
// AuthError carries the "session_expired" code that tells the UI to navigate
// back to the login entry point.
func handleCoreError(w http.ResponseWriter, err error) {
	var authErr *domain.AuthError
	var validationErr *domain.ValidationError
	var paymentErr *domain.PaymentError
	var netErr *domain.NetworkError

	switch {
	case errors.As(err, &authErr):
		respondError(w, http.StatusUnauthorized, "session_expired", authErr.Error())
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, "invalid_request", validationErr.Detail)
	case errors.As(err, &paymentErr):
		respondError(w, http.StatusPaymentRequired, "payment_failed", paymentErr.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		respondError(w, http.StatusConflict, "checkout_in_progress", err.Error())
	case errors.Is(err, checkout.ErrNoActiveCheckout):
		respondError(w, http.StatusConflict, "no_active_checkout", err.Error())
	case errors.As(err, &netErr):
		respondError(w, http.StatusBadGateway, "upstream_unavailable", "the shop backend is unreachable")
	default:
		log.Printf("unhandled error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}
