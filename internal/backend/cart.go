package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fjod/go_shop/internal/domain"
)

type addCartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (c *Client) GetCart(ctx context.Context, sid string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(ctx, sid, http.MethodGet, "/cart", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) AddCartItem(ctx context.Context, sid string, productID int64, quantity int) (*domain.Cart, error) {
	var cart domain.Cart
	req := addCartItemRequest{ProductID: productID, Quantity: quantity}
	if err := c.do(ctx, sid, http.MethodPost, "/cart/items", req, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// UpdateCartItem sets an item's quantity. Quantity 0 is forwarded unchanged;
// the backend treats it as a removal, the gateway does not special-case it.
func (c *Client) UpdateCartItem(ctx context.Context, sid string, itemID int64, quantity int) (*domain.Cart, error) {
	var cart domain.Cart
	req := updateCartItemRequest{Quantity: quantity}
	path := fmt.Sprintf("/cart/items/%d", itemID)
	if err := c.do(ctx, sid, http.MethodPatch, path, req, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) ClearCart(ctx context.Context, sid string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(ctx, sid, http.MethodDelete, "/cart", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}
