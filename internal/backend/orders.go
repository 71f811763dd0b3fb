package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fjod/go_shop/internal/domain"
)

// Checkout asks the backend to snapshot the current cart into an order and
// mint a payment intent for it. The backend enforces idempotency across
// repeated calls for unchanged cart content.
func (c *Client) Checkout(ctx context.Context, sid string) (*domain.CheckoutIntent, error) {
	var intent domain.CheckoutIntent
	if err := c.do(ctx, sid, http.MethodPost, "/checkout", nil, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *Client) ListOrders(ctx context.Context, sid string) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, sid, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, sid string, orderID int64) (*domain.Order, error) {
	var order domain.Order
	path := fmt.Sprintf("/orders/%d", orderID)
	if err := c.do(ctx, sid, http.MethodGet, path, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
