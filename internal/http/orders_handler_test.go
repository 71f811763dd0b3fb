package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_shop/internal/domain"
)

type OrdersAPIMock struct {
	orders []domain.Order
	order  *domain.Order
	err    error
}

func (m *OrdersAPIMock) ListOrders(ctx context.Context, sid string) ([]domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

func (m *OrdersAPIMock) GetOrder(ctx context.Context, sid string, orderID int64) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func TestListOrders_Success(t *testing.T) {
	handler := NewOrdersHandler(&OrdersAPIMock{orders: []domain.Order{
		{ID: 1, Status: domain.OrderStatusPaid},
		{ID: 2, Status: domain.OrderStatusPending},
	}})

	recorder := httptest.NewRecorder()
	request := withSID(httptest.NewRequest("GET", "/", nil), "sid-1")

	handler.List(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var orders []domain.Order
	if err := json.NewDecoder(recorder.Body).Decode(&orders); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(orders) != 2 {
		t.Errorf("Expected 2 orders, got %d", len(orders))
	}
}

func TestListOrders_EmptyIsArrayNotNull(t *testing.T) {
	handler := NewOrdersHandler(&OrdersAPIMock{})

	recorder := httptest.NewRecorder()
	request := withSID(httptest.NewRequest("GET", "/", nil), "sid-1")

	handler.List(recorder, request)

	if body := recorder.Body.String(); body != "[]\n" {
		t.Errorf("Expected empty array body, got %q", body)
	}
}

func TestGetOrder_Success(t *testing.T) {
	handler := NewOrdersHandler(&OrdersAPIMock{order: &domain.Order{ID: 42, Status: domain.OrderStatusPaid}})

	recorder := httptest.NewRecorder()
	request := withSID(httptest.NewRequest("GET", "/42", nil), "sid-1")

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderID", "42")
	request = request.WithContext(context.WithValue(request.Context(), chi.RouteCtxKey, rctx))

	handler.Get(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var order domain.Order
	json.NewDecoder(recorder.Body).Decode(&order)
	if order.ID != 42 {
		t.Errorf("Expected order 42, got %d", order.ID)
	}
}

func TestGetOrder_InvalidID(t *testing.T) {
	handler := NewOrdersHandler(&OrdersAPIMock{})

	recorder := httptest.NewRecorder()
	request := withSID(httptest.NewRequest("GET", "/abc", nil), "sid-1")

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderID", "abc")
	request = request.WithContext(context.WithValue(request.Context(), chi.RouteCtxKey, rctx))

	handler.Get(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestGetOrder_NotFoundFromBackend(t *testing.T) {
	handler := NewOrdersHandler(&OrdersAPIMock{err: &domain.ValidationError{Detail: "order not found"}})

	recorder := httptest.NewRecorder()
	request := withSID(httptest.NewRequest("GET", "/99", nil), "sid-1")

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderID", "99")
	request = request.WithContext(context.WithValue(request.Context(), chi.RouteCtxKey, rctx))

	handler.Get(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}
