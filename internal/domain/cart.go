package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

type CartItem struct {
	ID          int64    `json:"id"`
	ProductID   int64    `json:"product_id"`
	Quantity    int      `json:"quantity"`
	PriceAtTime float64  `json:"price_at_time"`
	Subtotal    float64  `json:"subtotal"`
	Product     *Product `json:"product,omitempty"`
}

// Product is the catalog projection embedded in cart items. The gateway only
// reads it for display passthrough.
type Product struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url,omitempty"`
	Stock    int     `json:"stock"`
}

type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"item_count"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Recompute re-derives Total and ItemCount from the items and reports whether
// the stored aggregates already matched. Aggregates must always be derivable
// from the lines; a mismatch means a stale or inconsistent snapshot.
func (c *Cart) Recompute() bool {
	var total float64
	var count int
	for i := range c.Items {
		c.Items[i].Subtotal = float64(c.Items[i].Quantity) * c.Items[i].PriceAtTime
		total += c.Items[i].Subtotal
		count += c.Items[i].Quantity
	}
	consistent := almostEqual(c.Total, total) && c.ItemCount == count
	c.Total = total
	c.ItemCount = count
	return consistent
}

// Fingerprint identifies the cart content (items, quantities, captured
// prices) independent of ordering. Two carts with the same fingerprint would
// produce the same order, which is what checkout idempotency keys off.
func (c *Cart) Fingerprint() string {
	lines := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, fmt.Sprintf("%d:%d:%.2f", it.ProductID, it.Quantity, it.PriceAtTime))
	}
	sort.Strings(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "|")))
	return hex.EncodeToString(sum[:])
}

func almostEqual(a, b float64) bool {
	d := a - b
	return d < 0.005 && d > -0.005
}
