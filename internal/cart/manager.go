// Package cart holds the gateway-side view of each session's cart. The
// backend is the source of truth: every mutation round-trips and the server's
// response replaces the local snapshot wholesale, so client-computed totals
// can never drift from server-side pricing.
package cart

import (
	"context"
	"log"
	"sync"

	"github.com/fjod/go_shop/internal/domain"
	"golang.org/x/sync/singleflight"
)

// API is the slice of the backend client the manager needs.
type API interface {
	GetCart(ctx context.Context, sid string) (*domain.Cart, error)
	AddCartItem(ctx context.Context, sid string, productID int64, quantity int) (*domain.Cart, error)
	UpdateCartItem(ctx context.Context, sid string, itemID int64, quantity int) (*domain.Cart, error)
	ClearCart(ctx context.Context, sid string) (*domain.Cart, error)
}

type Manager struct {
	api API
	sfg singleflight.Group // collapses concurrent loads for the same session

	mu        sync.Mutex
	snapshots map[string]*domain.Cart
}

func NewManager(api API) *Manager {
	return &Manager{
		api:       api,
		snapshots: make(map[string]*domain.Cart),
	}
}

// Load fetches the authoritative cart. Concurrent loads for one session share
// a single round trip.
func (m *Manager) Load(ctx context.Context, sid string) (*domain.Cart, error) {
	v, err, _ := m.sfg.Do(sid, func() (interface{}, error) {
		c, err := m.api.GetCart(ctx, sid)
		if err != nil {
			return nil, err
		}
		return m.install(sid, c), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

func (m *Manager) AddItem(ctx context.Context, sid string, productID int64, quantity int) (*domain.Cart, error) {
	c, err := m.api.AddCartItem(ctx, sid, productID, quantity)
	if err != nil {
		return nil, err
	}
	return m.install(sid, c), nil
}

// SetItemQuantity updates one line. Quantity 0 goes to the backend as-is;
// removal is the backend's interpretation, not a local special case.
// Concurrent calls are not coalesced: each round-trips on its own and the
// last response received wins.
func (m *Manager) SetItemQuantity(ctx context.Context, sid string, itemID int64, quantity int) (*domain.Cart, error) {
	c, err := m.api.UpdateCartItem(ctx, sid, itemID, quantity)
	if err != nil {
		return nil, err
	}
	return m.install(sid, c), nil
}

func (m *Manager) Clear(ctx context.Context, sid string) (*domain.Cart, error) {
	c, err := m.api.ClearCart(ctx, sid)
	if err != nil {
		return nil, err
	}
	return m.install(sid, c), nil
}

// Current returns the last installed snapshot without a network call, or nil
// if the session has none.
func (m *Manager) Current(sid string) *domain.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshots[sid]
}

// Forget drops the session's snapshot, e.g. on logout. Responses still in
// flight for the session will re-install harmlessly and lapse with the sid.
func (m *Manager) Forget(sid string) {
	m.mu.Lock()
	delete(m.snapshots, sid)
	m.mu.Unlock()
}

// install replaces the snapshot with the server response, re-deriving the
// aggregates from the line items so they can never disagree.
func (m *Manager) install(sid string, c *domain.Cart) *domain.Cart {
	if !c.Recompute() {
		log.Printf("cart %d: server aggregates disagreed with line items, recomputed", c.ID)
	}

	m.mu.Lock()
	m.snapshots[sid] = c
	m.mu.Unlock()
	return c
}
