package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_shop/internal/domain"
)

// OrdersAPI is the slice of the backend client the order handlers need.
type OrdersAPI interface {
	ListOrders(ctx context.Context, sid string) ([]domain.Order, error)
	GetOrder(ctx context.Context, sid string, orderID int64) (*domain.Order, error)
}

type OrdersHandler struct {
	api OrdersAPI
}

func NewOrdersHandler(api OrdersAPI) *OrdersHandler {
	return &OrdersHandler{api: api}
}

func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.api.ListOrders(r.Context(), sidFromContext(r.Context()))
	if err != nil {
		handleCoreError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid order id")
		return
	}

	order, err := h.api.GetOrder(r.Context(), sidFromContext(r.Context()), orderID)
	if err != nil {
		handleCoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
