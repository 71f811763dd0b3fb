package domain

import "time"

// OrderStatus is authoritative on the backend. The gateway only ever reflects
// what an order fetch returned; it never promotes an order to paid on its own.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type OrderItem struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"product_id,omitempty"`
	SellerID    int64   `json:"seller_id,omitempty"`
	Quantity    int     `json:"quantity"`
	PriceAtTime float64 `json:"price_at_time"`
	Subtotal    float64 `json:"subtotal"`
}

type Order struct {
	ID              int64       `json:"id"`
	BuyerID         int64       `json:"buyer_id,omitempty"`
	Status          OrderStatus `json:"status"`
	TotalPrice      float64     `json:"total_price"`
	PaymentIntentID string      `json:"stripe_payment_intent_id,omitempty"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
